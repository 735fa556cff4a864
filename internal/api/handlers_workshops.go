/**
 * @description
 * This file contains the HTTP handlers for workshop lifecycle and attendee
 * management: creation, publishing, cancellation, registration, and
 * attendance marking.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

// CreateWorkshopHandler creates a new workshop in the planned status.
func (h *ClubHandlers) CreateWorkshopHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := MemberFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get member from context")
		return
	}

	var req domain.CreateWorkshopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	workshop, err := h.workshops.Create(r.Context(), member, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, workshop)
}

// ListWorkshopsHandler lists workshops, optionally filtered by ?status=.
func (h *ClubHandlers) ListWorkshopsHandler(w http.ResponseWriter, r *http.Request) {
	workshops, err := h.workshops.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, workshops)
}

// GetWorkshopHandler returns a single workshop.
func (h *ClubHandlers) GetWorkshopHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	workshop, err := h.workshops.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, workshop)
}

// PublishWorkshopHandler opens a planned workshop for registration.
func (h *ClubHandlers) PublishWorkshopHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := MemberFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get member from context")
		return
	}
	id, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	workshop, err := h.workshops.Publish(r.Context(), member, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, workshop)
}

// CancelWorkshopHandler cancels a workshop and kicks off the bulk refund of
// its paid registrations.
func (h *ClubHandlers) CancelWorkshopHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := MemberFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get member from context")
		return
	}
	id, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// A missing body means no reason, not a bad request.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.workshops.Cancel(r.Context(), member, id, req.Reason); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "cancelled",
		"message": "Workshop cancelled. Refunds for paid registrations are being processed.",
	})
}

// AddAttendeeHandler registers a member onto a workshop. The admission
// decision happens inside the store transaction under the workshop row lock.
func (h *ClubHandlers) AddAttendeeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	var req domain.AddAttendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	registration, err := h.registrations.Register(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, registration)
}

// ListAttendeesHandler lists a workshop's registrations, optionally filtered
// by ?status=.
func (h *ClubHandlers) ListAttendeesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	registrations, err := h.registrations.Attendees(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, registrations)
}

// MarkAttendanceHandler applies a batch of attendance marks to a started
// workshop.
func (h *ClubHandlers) MarkAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUUIDParam(w, r, "workshopID")
	if !ok {
		return
	}

	var req domain.AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.registrations.MarkAttendance(r.Context(), id, req); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
