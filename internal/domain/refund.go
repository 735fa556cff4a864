/**
 * @description
 * This file defines the refund and subscription domain models. A refund row is
 * created at most once per registration; the unique index in the store layer
 * is what enforces that, the model only carries the data.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Refund statuses.
const (
	RefundPending    = "pending"
	RefundProcessing = "processing"
	RefundCompleted  = "completed"
	RefundFailed     = "failed"
)

// Refund represents a monetary refund for a single registration.
type Refund struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	AmountCents    int64     `json:"amount_cents"`
	Reason         string    `json:"reason"`
	Status         string    `json:"status"`
	StripeRefundID *string   `json:"stripe_refund_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RefundRequest is the DTO for a per-registration refund request.
type RefundRequest struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	Reason         string    `json:"reason"`
}

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionLapsed   = "lapsed"
)

// Subscription represents a member's recurring club membership billing record.
type Subscription struct {
	ID                   uuid.UUID `json:"id"`
	MemberID             uuid.UUID `json:"member_id"`
	Status               string    `json:"status"` // 'active', 'inactive', 'lapsed'
	CurrentPeriodStart   time.Time `json:"current_period_start"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	AutoRenew            bool      `json:"auto_renew"`
	StripeSubscriptionID *string   `json:"stripe_subscription_id,omitempty"`
}

// SubscriptionStatus is a simplified DTO for API responses when a client
// requests the member's subscription status.
type SubscriptionStatus struct {
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	AutoRenew        bool       `json:"auto_renew"`
	IsActive         bool       `json:"is_active"`
}
