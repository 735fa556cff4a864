/**
 * @description
 * This file contains the LLM-assisted workshop-creation helper. The model is
 * asked for a strict-JSON draft; anything it returns is clamped to sane
 * bounds before a coordinator ever sees it.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

var ErrEmptyPrompt = errors.New("prompt must not be empty")

const assistantSystemPrompt = `You are a scheduling assistant for a martial-arts club.
Given a coordinator's description, draft a workshop as a single JSON object with the keys:
"title" (string), "description" (string), "suggested_capacity" (integer),
"suggested_price_cents" (integer), "duration_minutes" (integer).
Respond with the JSON object only, no surrounding text.`

// CompletionProvider is the slice of the LLM client the assistant needs.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AssistantService provides the workshop-creation helper.
type AssistantService struct {
	llm CompletionProvider
}

// NewAssistantService creates a new assistant service.
func NewAssistantService(llm CompletionProvider) *AssistantService {
	return &AssistantService{llm: llm}
}

// SuggestWorkshop asks the model to draft a workshop from the coordinator's
// prompt.
func (s *AssistantService) SuggestWorkshop(ctx context.Context, prompt string) (*domain.WorkshopSuggestion, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	raw, err := s.llm.Complete(ctx, assistantSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("assistant completion failed: %w", err)
	}

	return parseSuggestion(raw)
}

// parseSuggestion tolerates markdown code fences around the JSON and clamps
// nonsense values.
func parseSuggestion(raw string) (*domain.WorkshopSuggestion, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed domain.WorkshopSuggestion
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("assistant returned malformed draft: %w", err)
	}
	if strings.TrimSpace(parsed.Title) == "" {
		return nil, errors.New("assistant draft is missing a title")
	}

	if parsed.SuggestedCapacity <= 0 {
		parsed.SuggestedCapacity = 10
	}
	if parsed.SuggestedPrice < 0 {
		parsed.SuggestedPrice = 0
	}
	if parsed.DurationMinutes <= 0 {
		parsed.DurationMinutes = 60
	}
	return &parsed, nil
}
