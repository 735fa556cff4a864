/**
 * @description
 * This file contains the HTTP handlers for refunds. The preview endpoint is a
 * read-only eligibility check for dashboards; the request endpoint recomputes
 * eligibility at issuance time, so a stale preview can never authorize a
 * refund.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

// PreviewRefundHandler computes refund eligibility for a registration without
// issuing anything.
func (h *ClubHandlers) PreviewRefundHandler(w http.ResponseWriter, r *http.Request) {
	workshopID, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	registrationID, err := uuid.Parse(r.URL.Query().Get("registration_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "registration_id query parameter is required")
		return
	}

	decision, err := h.refunds.Preview(r.Context(), workshopID, registrationID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decision)
}

// RequestRefundHandler issues a refund for a registration cancellation.
func (h *ClubHandlers) RequestRefundHandler(w http.ResponseWriter, r *http.Request) {
	workshopID, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	var req domain.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RegistrationID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "registration_id is required")
		return
	}

	refund, err := h.refunds.Request(r.Context(), workshopID, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, refund)
}

// ListRefundsHandler lists refund records for a workshop.
func (h *ClubHandlers) ListRefundsHandler(w http.ResponseWriter, r *http.Request) {
	workshopID, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	refunds, err := h.refunds.ListByWorkshop(r.Context(), workshopID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, refunds)
}
