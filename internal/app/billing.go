/**
 * @description
 * This file contains the subscription billing logic for club memberships,
 * backed by Stripe subscriptions. The local subscriptions table is the read
 * model; Stripe remains the system of record for billing state.
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
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/store"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/stripeclient"
)

var ErrNoStripeSubscription = errors.New("member has no linked payment-provider subscription")

// BillingRepository is the slice of the store the billing service needs.
type BillingRepository interface {
	FindMemberByClerkUserID(ctx context.Context, clerkUserID string) (*domain.Member, error)
	GetSubscriptionByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.Subscription, error)
	CreateOrUpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
}

// SubscriptionProvider is the slice of the Stripe client the billing service
// needs.
type SubscriptionProvider interface {
	CreateSubscription(ctx context.Context, customerID, priceID string) (*stripeclient.Subscription, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*stripeclient.Subscription, error)
}

// BillingService provides the business logic for membership billing.
type BillingService struct {
	repo    BillingRepository
	stripe  SubscriptionProvider
	priceID string
	logger  *slog.Logger
	now     func() time.Time
}

// NewBillingService creates a new billing service.
func NewBillingService(repo BillingRepository, stripe SubscriptionProvider, priceID string, logger *slog.Logger) *BillingService {
	return &BillingService{repo: repo, stripe: stripe, priceID: priceID, logger: logger, now: time.Now}
}

// Status retrieves the subscription status for the authenticated member. A
// member with no subscription row gets an inactive status rather than an
// error.
func (s *BillingService) Status(ctx context.Context, clerkUserID string) (*domain.SubscriptionStatus, error) {
	member, err := s.repo.FindMemberByClerkUserID(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.GetSubscriptionByMemberID(ctx, member.ID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			return &domain.SubscriptionStatus{Status: domain.SubscriptionInactive}, nil
		}
		return nil, err
	}

	status := &domain.SubscriptionStatus{
		Status:    sub.Status,
		AutoRenew: sub.AutoRenew,
		IsActive:  sub.Status == domain.SubscriptionActive && sub.CurrentPeriodEnd.After(s.now()),
	}
	if status.IsActive {
		status.CurrentPeriodEnd = &sub.CurrentPeriodEnd
	}
	return status, nil
}

// Upgrade starts (or restarts) the member's recurring club subscription. The
// member record doubles as the Stripe customer reference.
func (s *BillingService) Upgrade(ctx context.Context, clerkUserID string) (*domain.Subscription, error) {
	member, err := s.repo.FindMemberByClerkUserID(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}

	stripeSub, err := s.stripe.CreateSubscription(ctx, member.ID.String(), s.priceID)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe subscription: %w", err)
	}

	sub := &domain.Subscription{
		ID:                   uuid.New(),
		MemberID:             member.ID,
		Status:               domain.SubscriptionActive,
		CurrentPeriodStart:   time.Unix(stripeSub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC(),
		AutoRenew:            !stripeSub.CancelAtPeriodEnd,
		StripeSubscriptionID: &stripeSub.ID,
	}
	return s.repo.CreateOrUpdateSubscription(ctx, sub)
}

// Cancel stops the subscription from renewing at the end of the current
// period; access continues until then.
func (s *BillingService) Cancel(ctx context.Context, clerkUserID string) (*domain.Subscription, error) {
	member, err := s.repo.FindMemberByClerkUserID(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.GetSubscriptionByMemberID(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	if sub.StripeSubscriptionID == nil {
		return nil, ErrNoStripeSubscription
	}

	if _, err := s.stripe.CancelSubscriptionAtPeriodEnd(ctx, *sub.StripeSubscriptionID); err != nil {
		return nil, fmt.Errorf("failed to cancel stripe subscription: %w", err)
	}

	sub.AutoRenew = false
	return s.repo.CreateOrUpdateSubscription(ctx, sub)
}
