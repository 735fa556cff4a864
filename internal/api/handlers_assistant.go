/**
 * @description
 * This file contains the HTTP handler for the LLM-assisted workshop-creation
 * helper. The endpoint returns a draft for the coordinator to review; nothing
 * is persisted until they submit it through the normal workshop creation
 * endpoint.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

// SuggestWorkshopHandler asks the model to draft a workshop from the
// coordinator's prompt.
func (h *ClubHandlers) SuggestWorkshopHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	suggestion, err := h.assistant.SuggestWorkshop(r.Context(), req.Prompt)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, suggestion)
}
