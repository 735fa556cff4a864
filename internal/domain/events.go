/**
 * @description
 * This file defines the event payloads published to RabbitMQ. Events decouple
 * side effects (bulk refunds on cancellation, welcome notifications) from the
 * request path that triggered them.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys used on the club topic exchange.
const (
	MemberApprovedKey    = "member.approved"
	WorkshopCancelledKey = "workshop.cancelled"
	RefundCompletedKey   = "refund.completed"
)

// MemberApprovedEvent is published when an admin approves a waitlisted member.
type MemberApprovedEvent struct {
	MemberID  uuid.UUID `json:"member_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkshopCancelledEvent is published when a workshop is cancelled. The
// consumer refunds every paid registration on the workshop.
type WorkshopCancelledEvent struct {
	WorkshopID uuid.UUID `json:"workshop_id"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// RefundCompletedEvent is published when a refund reaches a terminal state.
type RefundCompletedEvent struct {
	RefundID       uuid.UUID `json:"refund_id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	AmountCents    int64     `json:"amount_cents"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}
