/**
 * @description
 * RabbitMQ consumer wiring for the bulk-refund flow. When a workshop is
 * cancelled the cancelling request publishes workshop.cancelled; this
 * consumer refunds every paid registration on the workshop. Re-delivery is
 * safe because each registration can only ever get one refund row.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/store"
)

// ConsumerRepository is the slice of the store the event consumer needs.
type ConsumerRepository interface {
	ListRegistrations(ctx context.Context, workshopID uuid.UUID, status string) ([]domain.Registration, error)
}

// EventConsumer handles club events delivered from RabbitMQ.
type EventConsumer struct {
	repo    ConsumerRepository
	refunds RefundIssuer
	logger  *slog.Logger
}

// NewEventConsumer creates a new event consumer.
func NewEventConsumer(repo ConsumerRepository, refunds RefundIssuer, logger *slog.Logger) *EventConsumer {
	return &EventConsumer{repo: repo, refunds: refunds, logger: logger}
}

// Bindings returns the routing-key handler map for ConsumeWithBindings.
func (c *EventConsumer) Bindings() map[string]func([]byte) bool {
	return map[string]func([]byte) bool{
		domain.WorkshopCancelledKey: c.handleWorkshopCancelled,
	}
}

// handleWorkshopCancelled refunds all paid registrations on the cancelled
// workshop. Returns true (ack) unless the registration list itself could not
// be read; individual refund failures are left to the retry job.
func (c *EventConsumer) handleWorkshopCancelled(body []byte) bool {
	var event domain.WorkshopCancelledEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Error("malformed workshop cancelled event, dropping", "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	registrations, err := c.repo.ListRegistrations(ctx, event.WorkshopID, "")
	if err != nil {
		c.logger.Error("failed to list registrations for cancelled workshop", "workshop_id", event.WorkshopID, "error", err)
		return false
	}

	for i := range registrations {
		registration := registrations[i]
		if registration.AmountPaidCents <= 0 {
			continue
		}
		if _, err := c.refunds.IssueForCancelledWorkshop(ctx, &registration); err != nil {
			// Re-delivery hits these for registrations already handled.
			if errors.Is(err, ErrNothingToRefund) || errors.Is(err, store.ErrRefundAlreadyExists) {
				continue
			}
			c.logger.Error("bulk refund failed", "registration_id", registration.ID, "error", err)
		}
	}

	c.logger.Info("processed workshop cancellation", "workshop_id", event.WorkshopID, "registrations", len(registrations))
	return true
}
