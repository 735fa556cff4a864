/**
 * @description
 * This file contains the HTTP handlers for membership billing: subscription
 * status, upgrade, and cancellation. Stripe remains the system of record; the
 * local subscription row is the read model these endpoints serve.
 */

package api

import (
	"net/http"
)

// SubscriptionStatusHandler returns the authenticated member's subscription
// status.
func (h *ClubHandlers) SubscriptionStatusHandler(w http.ResponseWriter, r *http.Request) {
	clerkUserID, ok := GetClerkUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get user ID from context")
		return
	}

	status, err := h.billing.Status(r.Context(), clerkUserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// UpgradeSubscriptionHandler starts (or restarts) the member's recurring club
// subscription.
func (h *ClubHandlers) UpgradeSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	clerkUserID, ok := GetClerkUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get user ID from context")
		return
	}

	sub, err := h.billing.Upgrade(r.Context(), clerkUserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sub)
}

// CancelSubscriptionHandler stops the subscription from renewing at the end
// of the current period.
func (h *ClubHandlers) CancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	clerkUserID, ok := GetClerkUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get user ID from context")
		return
	}

	sub, err := h.billing.Cancel(r.Context(), clerkUserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}
