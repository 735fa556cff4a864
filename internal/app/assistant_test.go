package app

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type completionStub struct {
	response string
	err      error
	prompts  []string
}

func (c *completionStub) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.prompts = append(c.prompts, userPrompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func TestSuggestWorkshopRejectsEmptyPrompt(t *testing.T) {
	service := NewAssistantService(&completionStub{})

	for _, prompt := range []string{"", "   ", "\n\t"} {
		if _, err := service.SuggestWorkshop(context.Background(), prompt); !errors.Is(err, ErrEmptyPrompt) {
			t.Fatalf("prompt %q: expected ErrEmptyPrompt, got %v", prompt, err)
		}
	}
}

func TestSuggestWorkshopTrimsPrompt(t *testing.T) {
	llm := &completionStub{response: `{"title":"Throws 101","suggested_capacity":12,"suggested_price_cents":2500,"duration_minutes":90}`}
	service := NewAssistantService(llm)

	if _, err := service.SuggestWorkshop(context.Background(), "  beginner throws workshop  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.prompts) != 1 || llm.prompts[0] != "beginner throws workshop" {
		t.Fatalf("expected trimmed prompt, got %v", llm.prompts)
	}
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, title string, capacity int, price int64, duration int)
	}{
		{
			name: "plain json",
			raw:  `{"title":"Throws 101","description":"Basics","suggested_capacity":12,"suggested_price_cents":2500,"duration_minutes":90}`,
			check: func(t *testing.T, title string, capacity int, price int64, duration int) {
				if title != "Throws 101" || capacity != 12 || price != 2500 || duration != 90 {
					t.Fatalf("unexpected parse: %s %d %d %d", title, capacity, price, duration)
				}
			},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"title\":\"Randori night\",\"suggested_capacity\":20}\n```",
			check: func(t *testing.T, title string, capacity int, price int64, duration int) {
				if title != "Randori night" || capacity != 20 {
					t.Fatalf("unexpected parse: %s %d", title, capacity)
				}
			},
		},
		{
			name: "clamps nonsense values",
			raw:  `{"title":"Kata","suggested_capacity":-5,"suggested_price_cents":-100,"duration_minutes":0}`,
			check: func(t *testing.T, title string, capacity int, price int64, duration int) {
				if capacity != 10 || price != 0 || duration != 60 {
					t.Fatalf("expected clamped defaults, got %d %d %d", capacity, price, duration)
				}
			},
		},
		{
			name:    "missing title",
			raw:     `{"suggested_capacity":10}`,
			wantErr: true,
		},
		{
			name:    "not json at all",
			raw:     "Sure! Here is a workshop idea: a throws clinic.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestion, err := parseSuggestion(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", suggestion)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, suggestion.Title, suggestion.SuggestedCapacity, suggestion.SuggestedPrice, suggestion.DurationMinutes)
		})
	}
}

func TestSuggestWorkshopWrapsProviderError(t *testing.T) {
	service := NewAssistantService(&completionStub{err: errors.New("model overloaded")})

	_, err := service.SuggestWorkshop(context.Background(), "throws clinic")
	if err == nil || !strings.Contains(err.Error(), "assistant completion failed") {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}
