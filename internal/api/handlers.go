/**
 * @description
 * This file contains the HTTP handlers for the club service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate application service, and writing the HTTP response. They act as
 * the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/app"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/store"
)

// ClubHandlers holds the application services that handlers will use.
type ClubHandlers struct {
	members       *app.MemberService
	workshops     *app.WorkshopService
	registrations *app.RegistrationService
	refunds       *app.RefundService
	billing       *app.BillingService
	assistant     *app.AssistantService
	logger        *slog.Logger
}

// NewClubHandlers creates a new instance of ClubHandlers.
func NewClubHandlers(
	members *app.MemberService,
	workshops *app.WorkshopService,
	registrations *app.RegistrationService,
	refunds *app.RefundService,
	billing *app.BillingService,
	assistant *app.AssistantService,
	logger *slog.Logger,
) *ClubHandlers {
	return &ClubHandlers{
		members:       members,
		workshops:     workshops,
		registrations: registrations,
		refunds:       refunds,
		billing:       billing,
		assistant:     assistant,
		logger:        logger,
	}
}

// ApplyHandler handles membership applications from authenticated users.
func (h *ClubHandlers) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	clerkUserID, ok := GetClerkUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get user ID from context")
		return
	}

	var req domain.MemberApplication
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.members.Apply(r.Context(), clerkUserID, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, member)
}

// MeHandler returns the authenticated user's member record.
func (h *ClubHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	member, ok := MemberFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get member from context")
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

// WaitlistHandler lists pending membership applications, oldest first.
func (h *ClubHandlers) WaitlistHandler(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.Waitlist(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, members)
}

// ApproveMemberHandler moves a waitlisted member to active.
func (h *ClubHandlers) ApproveMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	member, err := h.members.Approve(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

// RejectMemberHandler marks a waitlisted member as rejected.
func (h *ClubHandlers) RejectMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUUIDParam(w, r, "memberID")
	if !ok {
		return
	}

	member, err := h.members.Reject(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

// parseUUIDParam reads a UUID path parameter, writing a 400 on failure.
func (h *ClubHandlers) parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service and store errors onto HTTP status codes.
func (h *ClubHandlers) handleServiceError(w http.ResponseWriter, err error) {
	var ineligible *app.RefundIneligibleError
	if errors.As(err, &ineligible) {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":    "refund not eligible",
			"reason":   ineligible.Reason,
			"eligible": false,
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrMemberNotFound),
		errors.Is(err, store.ErrWorkshopNotFound),
		errors.Is(err, store.ErrRegistrationNotFound),
		errors.Is(err, store.ErrSubscriptionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateMember),
		errors.Is(err, store.ErrDuplicateRegistration),
		errors.Is(err, store.ErrWorkshopFull),
		errors.Is(err, store.ErrWorkshopNotOpen),
		errors.Is(err, store.ErrRefundAlreadyExists),
		errors.Is(err, app.ErrNotWaitlisted),
		errors.Is(err, app.ErrInvalidStatusChange):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInsufficientPrivileges):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrInvalidApplication),
		errors.Is(err, app.ErrInvalidWorkshop),
		errors.Is(err, app.ErrMemberNotActive),
		errors.Is(err, app.ErrInvalidAttendance),
		errors.Is(err, app.ErrNoAttendanceUpdates),
		errors.Is(err, app.ErrWorkshopNotStarted),
		errors.Is(err, app.ErrNothingToRefund),
		errors.Is(err, app.ErrNoStripeSubscription),
		errors.Is(err, app.ErrEmptyPrompt):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *ClubHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *ClubHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
