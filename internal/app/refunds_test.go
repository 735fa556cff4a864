package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/policy"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/stripeclient"
)

type refundRepoStub struct {
	workshop            *domain.Workshop
	registration        *domain.Registration
	createdRefund       *domain.Refund
	createErr           error
	refundUpdates       []string
	registrationUpdates []string
}

func (r *refundRepoStub) FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	if r.workshop == nil {
		return nil, errors.New("not found")
	}
	return r.workshop, nil
}

func (r *refundRepoStub) FindRegistrationByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	if r.registration == nil {
		return nil, errors.New("not found")
	}
	return r.registration, nil
}

func (r *refundRepoStub) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.registrationUpdates = append(r.registrationUpdates, status)
	return nil
}

func (r *refundRepoStub) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.createdRefund = refund
	return refund, nil
}

func (r *refundRepoStub) UpdateRefund(ctx context.Context, id uuid.UUID, status string, stripeRefundID *string) error {
	r.refundUpdates = append(r.refundUpdates, status)
	return nil
}

func (r *refundRepoStub) ListRefundsByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Refund, error) {
	return nil, nil
}

type paymentStub struct {
	refund *stripeclient.Refund
	err    error
	calls  int
}

func (p *paymentStub) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64, reason string) (*stripeclient.Refund, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.refund, nil
}

func ptrInt(v int) *int       { return &v }
func ptrStr(v string) *string { return &v }

func paidRegistration(workshopID uuid.UUID) *domain.Registration {
	return &domain.Registration{
		ID:                    uuid.New(),
		WorkshopID:            workshopID,
		MemberID:              uuid.New(),
		Status:                domain.RegistrationConfirmed,
		AmountPaidCents:       5000,
		StripePaymentIntentID: ptrStr("pi_123"),
	}
}

func newRefundService(repo *refundRepoStub, payments *paymentStub, now time.Time) *RefundService {
	service := NewRefundService(repo, payments, &stubPublisher{}, "club.events", discardLogger())
	service.now = func() time.Time { return now }
	return service
}

func TestRequestRecomputesEligibility(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	repo := &refundRepoStub{
		workshop: &domain.Workshop{
			ID:               workshopID,
			StartDate:        now.AddDate(0, 0, 30),
			RefundWindowDays: ptrInt(7),
			Status:           domain.WorkshopCancelled,
		},
		registration: paidRegistration(workshopID),
	}
	service := newRefundService(repo, &paymentStub{}, now)

	_, err := service.Request(context.Background(), workshopID, domain.RefundRequest{RegistrationID: repo.registration.ID})

	var ineligible *RefundIneligibleError
	if !errors.As(err, &ineligible) {
		t.Fatalf("expected RefundIneligibleError, got %v", err)
	}
	if ineligible.Reason != policy.ReasonWorkshopCancelled {
		t.Fatalf("expected cancelled reason, got %q", ineligible.Reason)
	}
	if repo.createdRefund != nil {
		t.Fatalf("expected no refund row for ineligible request")
	}
}

func TestRequestIssuesEligibleRefund(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	repo := &refundRepoStub{
		workshop: &domain.Workshop{
			ID:               workshopID,
			StartDate:        now.AddDate(0, 0, 30),
			RefundWindowDays: ptrInt(7),
			Status:           domain.WorkshopPublished,
		},
		registration: paidRegistration(workshopID),
	}
	payments := &paymentStub{refund: &stripeclient.Refund{ID: "re_1", Status: "succeeded"}}
	publisher := &stubPublisher{}
	service := NewRefundService(repo, payments, publisher, "club.events", discardLogger())
	service.now = func() time.Time { return now }

	refund, err := service.Request(context.Background(), workshopID, domain.RefundRequest{RegistrationID: repo.registration.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refund.Status != domain.RefundCompleted {
		t.Fatalf("expected completed refund, got %q", refund.Status)
	}
	if refund.AmountCents != 5000 {
		t.Fatalf("expected refund of the paid amount, got %d", refund.AmountCents)
	}
	if len(repo.registrationUpdates) != 1 || repo.registrationUpdates[0] != domain.RegistrationRefunded {
		t.Fatalf("expected registration marked refunded, got %v", repo.registrationUpdates)
	}
	if len(publisher.published) != 1 || publisher.published[0] != domain.RefundCompletedKey {
		t.Fatalf("expected refund.completed event, got %v", publisher.published)
	}
}

func TestProviderFailureLeavesRefundForRetry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	repo := &refundRepoStub{
		workshop: &domain.Workshop{
			ID:               workshopID,
			StartDate:        now.AddDate(0, 0, 30),
			RefundWindowDays: ptrInt(7),
			Status:           domain.WorkshopPublished,
		},
		registration: paidRegistration(workshopID),
	}
	payments := &paymentStub{err: errors.New("stripe unavailable")}
	service := newRefundService(repo, payments, now)

	_, err := service.Request(context.Background(), workshopID, domain.RefundRequest{RegistrationID: repo.registration.ID})
	if err == nil {
		t.Fatalf("expected error from provider failure")
	}
	if repo.createdRefund == nil {
		t.Fatalf("expected refund row to be created before the provider call")
	}
	if len(repo.refundUpdates) != 1 || repo.refundUpdates[0] != domain.RefundFailed {
		t.Fatalf("expected refund marked failed for the retry job, got %v", repo.refundUpdates)
	}
	if len(repo.registrationUpdates) != 0 {
		t.Fatalf("expected registration untouched on provider failure")
	}
}

func TestIssueForCancelledWorkshopSkipsEligibilityPolicy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	// No refund window configured: a member-initiated refund would be
	// rejected, but the cancellation flow still owes the money back.
	repo := &refundRepoStub{
		workshop: &domain.Workshop{
			ID:        workshopID,
			StartDate: now.AddDate(0, 0, 2),
			Status:    domain.WorkshopCancelled,
		},
		registration: paidRegistration(workshopID),
	}
	payments := &paymentStub{refund: &stripeclient.Refund{ID: "re_2", Status: "succeeded"}}
	service := newRefundService(repo, payments, now)

	refund, err := service.IssueForCancelledWorkshop(context.Background(), repo.registration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refund.Status != domain.RefundCompleted {
		t.Fatalf("expected completed refund, got %q", refund.Status)
	}
}

func TestIssueForCancelledWorkshopSkipsProcessedRegistrations(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newRefundService(&refundRepoStub{}, &paymentStub{}, now)

	for _, status := range []string{domain.RegistrationRefunded, domain.RegistrationCancelled} {
		registration := &domain.Registration{ID: uuid.New(), Status: status, AmountPaidCents: 5000}
		if _, err := service.IssueForCancelledWorkshop(context.Background(), registration); !errors.Is(err, ErrNothingToRefund) {
			t.Fatalf("status %q: expected ErrNothingToRefund, got %v", status, err)
		}
	}
}

func TestIssueRequiresPaidRegistration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	repo := &refundRepoStub{
		workshop: &domain.Workshop{
			ID:               workshopID,
			StartDate:        now.AddDate(0, 0, 30),
			RefundWindowDays: ptrInt(7),
			Status:           domain.WorkshopPublished,
		},
		registration: &domain.Registration{
			ID:         uuid.New(),
			WorkshopID: workshopID,
			Status:     domain.RegistrationConfirmed,
		},
	}
	service := newRefundService(repo, &paymentStub{}, now)

	_, err := service.Request(context.Background(), workshopID, domain.RefundRequest{RegistrationID: repo.registration.ID})
	if !errors.Is(err, ErrNothingToRefund) {
		t.Fatalf("expected ErrNothingToRefund for unpaid registration, got %v", err)
	}
}

func TestPreviewDoesNotIssueAnything(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	repo := &refundRepoStub{
		workshop: &domain.Workshop{
			ID:               workshopID,
			StartDate:        now.AddDate(0, 0, 30),
			RefundWindowDays: ptrInt(7),
			Status:           domain.WorkshopPublished,
		},
		registration: paidRegistration(workshopID),
	}
	payments := &paymentStub{}
	service := newRefundService(repo, payments, now)

	decision, err := service.Preview(context.Background(), workshopID, repo.registration.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Eligible {
		t.Fatalf("expected eligible decision, got %+v", decision)
	}
	if payments.calls != 0 || repo.createdRefund != nil {
		t.Fatalf("expected preview to have no side effects")
	}
}

func TestRetryReusesExistingRefundRow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workshopID := uuid.New()
	repo := &refundRepoStub{registration: paidRegistration(workshopID)}
	payments := &paymentStub{refund: &stripeclient.Refund{ID: "re_3", Status: "succeeded"}}
	service := newRefundService(repo, payments, now)

	failed := &domain.Refund{ID: uuid.New(), RegistrationID: repo.registration.ID, AmountCents: 5000, Status: domain.RefundFailed}
	refund, err := service.Retry(context.Background(), failed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createdRefund != nil {
		t.Fatalf("expected retry to reuse the existing refund row")
	}
	if refund.Status != domain.RefundCompleted {
		t.Fatalf("expected completed refund after retry, got %q", refund.Status)
	}
}
