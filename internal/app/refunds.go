/**
 * @description
 * This file contains the refund issuance logic. The eligibility policy is
 * recomputed authoritatively at the moment a refund is requested, never
 * cached from an earlier UI render, and the refunds unique index is the
 * guard against double issuance. Bulk refunds for cancelled workshops run
 * through the same Issue path so every refund row is created exactly once.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/policy"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/rabbitmq"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/stripeclient"
)

var ErrNothingToRefund = errors.New("registration has no paid amount to refund")

// RefundIneligibleError carries the policy's reason so handlers can surface
// it verbatim.
type RefundIneligibleError struct {
	Reason string
}

func (e *RefundIneligibleError) Error() string {
	return fmt.Sprintf("refund not eligible: %s", e.Reason)
}

// RefundRepository is the slice of the store the refund service needs.
type RefundRepository interface {
	FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error)
	FindRegistrationByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status string) error
	CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	UpdateRefund(ctx context.Context, id uuid.UUID, status string, stripeRefundID *string) error
	ListRefundsByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Refund, error)
}

// PaymentProvider is the slice of the Stripe client the refund service needs.
type PaymentProvider interface {
	CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64, reason string) (*stripeclient.Refund, error)
}

// RefundService provides the business logic for refund issuance.
type RefundService struct {
	repo      RefundRepository
	payments  PaymentProvider
	publisher rabbitmq.Publisher
	exchange  string
	logger    *slog.Logger
	now       func() time.Time
}

// NewRefundService creates a new refund service.
func NewRefundService(repo RefundRepository, payments PaymentProvider, publisher rabbitmq.Publisher, exchange string, logger *slog.Logger) *RefundService {
	return &RefundService{
		repo:      repo,
		payments:  payments,
		publisher: publisher,
		exchange:  exchange,
		logger:    logger,
		now:       time.Now,
	}
}

// Preview computes the refund eligibility for a registration without issuing
// anything. Dashboards call this at render time; the decision is only valid
// for the instant it was computed.
func (s *RefundService) Preview(ctx context.Context, workshopID, registrationID uuid.UUID) (policy.RefundDecision, error) {
	workshop, registration, err := s.load(ctx, workshopID, registrationID)
	if err != nil {
		return policy.RefundDecision{}, err
	}
	return policy.RefundEligibility(s.now(), workshop.StartDate, workshop.RefundWindowDays, workshop.Status, registration.Status), nil
}

// Request issues a refund for a registration cancellation. Eligibility is
// recomputed here regardless of what any earlier preview said.
func (s *RefundService) Request(ctx context.Context, workshopID uuid.UUID, req domain.RefundRequest) (*domain.Refund, error) {
	workshop, registration, err := s.load(ctx, workshopID, req.RegistrationID)
	if err != nil {
		return nil, err
	}

	decision := policy.RefundEligibility(s.now(), workshop.StartDate, workshop.RefundWindowDays, workshop.Status, registration.Status)
	if !decision.Eligible {
		return nil, &RefundIneligibleError{Reason: decision.Reason}
	}

	return s.issue(ctx, registration, req.Reason)
}

// IssueForCancelledWorkshop refunds one paid registration as part of the bulk
// cancellation flow. It deliberately skips the per-registration eligibility
// policy: cancellation refunds are owed regardless of the refund window.
func (s *RefundService) IssueForCancelledWorkshop(ctx context.Context, registration *domain.Registration) (*domain.Refund, error) {
	if registration.Status == domain.RegistrationRefunded || registration.Status == domain.RegistrationCancelled {
		return nil, ErrNothingToRefund
	}
	return s.issue(ctx, registration, "workshop cancelled")
}

// ListByWorkshop returns refund records for a workshop.
func (s *RefundService) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Refund, error) {
	if _, err := s.repo.FindWorkshopByID(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.repo.ListRefundsByWorkshop(ctx, workshopID)
}

func (s *RefundService) load(ctx context.Context, workshopID, registrationID uuid.UUID) (*domain.Workshop, *domain.Registration, error) {
	workshop, err := s.repo.FindWorkshopByID(ctx, workshopID)
	if err != nil {
		return nil, nil, err
	}
	registration, err := s.repo.FindRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, nil, err
	}
	if registration.WorkshopID != workshop.ID {
		return nil, nil, fmt.Errorf("registration %s does not belong to workshop %s", registrationID, workshopID)
	}
	return workshop, registration, nil
}

// issue creates the refund row first (claiming the per-registration slot via
// the unique index), then calls the payment provider and records the outcome.
// A provider failure leaves the row in 'failed' for the retry job.
func (s *RefundService) issue(ctx context.Context, registration *domain.Registration, reason string) (*domain.Refund, error) {
	if registration.AmountPaidCents <= 0 || registration.StripePaymentIntentID == nil {
		return nil, ErrNothingToRefund
	}

	refund, err := s.repo.CreateRefund(ctx, &domain.Refund{
		ID:             uuid.New(),
		RegistrationID: registration.ID,
		AmountCents:    registration.AmountPaidCents,
		Reason:         reason,
		Status:         domain.RefundPending,
	})
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, refund, *registration.StripePaymentIntentID)
}

// Retry re-attempts the provider call for a previously failed refund.
func (s *RefundService) Retry(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	registration, err := s.repo.FindRegistrationByID(ctx, refund.RegistrationID)
	if err != nil {
		return nil, err
	}
	if registration.StripePaymentIntentID == nil {
		return nil, ErrNothingToRefund
	}
	return s.execute(ctx, refund, *registration.StripePaymentIntentID)
}

func (s *RefundService) execute(ctx context.Context, refund *domain.Refund, paymentIntentID string) (*domain.Refund, error) {
	providerRefund, err := s.payments.CreateRefund(ctx, paymentIntentID, refund.AmountCents, "requested_by_customer")
	if err != nil {
		s.logger.Error("stripe refund failed", "refund_id", refund.ID, "error", err)
		if updateErr := s.repo.UpdateRefund(ctx, refund.ID, domain.RefundFailed, nil); updateErr != nil {
			s.logger.Error("failed to mark refund failed", "refund_id", refund.ID, "error", updateErr)
		}
		return nil, fmt.Errorf("failed to issue refund with payment provider: %w", err)
	}

	status := domain.RefundProcessing
	if providerRefund.Status == "succeeded" {
		status = domain.RefundCompleted
	}
	if err := s.repo.UpdateRefund(ctx, refund.ID, status, &providerRefund.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRegistrationStatus(ctx, refund.RegistrationID, domain.RegistrationRefunded); err != nil {
		return nil, err
	}

	refund.Status = status
	refund.StripeRefundID = &providerRefund.ID

	event := domain.RefundCompletedEvent{
		RefundID:       refund.ID,
		RegistrationID: refund.RegistrationID,
		AmountCents:    refund.AmountCents,
		Status:         status,
		Timestamp:      s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.exchange, domain.RefundCompletedKey, event); err != nil {
		s.logger.Error("failed to publish refund completed event", "refund_id", refund.ID, "error", err)
	}

	return refund, nil
}
