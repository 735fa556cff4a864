/**
 * @description
 * This file defines the workshop and registration domain models. A workshop is
 * a scheduled club activity with a capacity and an optional refund window; a
 * registration links one member to one workshop and is never hard-deleted;
 * its status transitions record history.
 *
 * @notes
 * - Prices and paid amounts are stored as int64 cents to avoid floating-point
 *   inaccuracies with money.
 * - Capacity bounds the number of non-priority attendees only. Priority
 *   registrations bypass capacity so coordinators can guarantee seats.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workshop statuses.
const (
	WorkshopPlanned   = "planned"
	WorkshopPublished = "published"
	WorkshopFinished  = "finished"
	WorkshopCancelled = "cancelled"
)

// Registration statuses.
const (
	RegistrationInvited   = "invited"
	RegistrationConfirmed = "confirmed"
	RegistrationAttended  = "attended"
	RegistrationNoShow    = "no_show"
	RegistrationCancelled = "cancelled"
	RegistrationRefunded  = "refunded"
)

// Workshop represents a scheduled club activity.
type Workshop struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Capacity         int       `json:"capacity"`
	PriceCents       int64     `json:"price_cents"`
	RefundWindowDays *int      `json:"refund_window_days,omitempty"` // nil means no refund window configured
	Status           string    `json:"status"`
	CreatedBy        uuid.UUID `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasStarted reports whether the workshop start date is in the past.
func (w *Workshop) HasStarted(now time.Time) bool {
	return !now.Before(w.StartDate)
}

// Registration represents a member's enrollment in a workshop.
type Registration struct {
	ID                    uuid.UUID `json:"id"`
	WorkshopID            uuid.UUID `json:"workshop_id"`
	MemberID              uuid.UUID `json:"member_id"`
	Status                string    `json:"status"`
	Priority              bool      `json:"priority"`
	AmountPaidCents       int64     `json:"amount_paid_cents"`
	StripePaymentIntentID *string   `json:"stripe_payment_intent_id,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CreateWorkshopRequest is the DTO for creating a new workshop.
type CreateWorkshopRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Capacity         int       `json:"capacity"`
	PriceCents       int64     `json:"price_cents"`
	RefundWindowDays *int      `json:"refund_window_days,omitempty"`
}

// AddAttendeeRequest is the DTO for registering an attendee on a workshop.
type AddAttendeeRequest struct {
	UserProfileID uuid.UUID `json:"user_profile_id"`
	Priority      bool      `json:"priority"`
}

// AttendanceUpdate records a single attendance mark within a bulk update.
type AttendanceUpdate struct {
	RegistrationID   uuid.UUID `json:"registration_id"`
	AttendanceStatus string    `json:"attendance_status"` // 'attended' or 'no_show'
	Notes            string    `json:"notes,omitempty"`
}

// AttendanceRequest is the DTO for bulk attendance updates.
type AttendanceRequest struct {
	AttendanceUpdates []AttendanceUpdate `json:"attendance_updates"`
}
