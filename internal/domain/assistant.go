// Package domain models for the LLM workshop-creation helper.
package domain

// AssistRequest is the DTO for asking the assistant to draft a workshop.
type AssistRequest struct {
	Prompt string `json:"prompt"`
}

// WorkshopSuggestion is a draft workshop produced by the assistant. It is
// never persisted directly; the coordinator reviews and submits it through
// the normal workshop-creation path.
type WorkshopSuggestion struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	SuggestedCapacity int    `json:"suggested_capacity"`
	SuggestedPrice    int64  `json:"suggested_price_cents"`
	DurationMinutes   int    `json:"duration_minutes"`
}
