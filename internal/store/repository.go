/**
 * @description
 * This file defines the repository interface for the club service along with
 * the sentinel errors the store can return. The interface is implemented by
 * PostgresRepository and stubbed out in service-layer tests.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

var (
	ErrMemberNotFound        = errors.New("member not found")
	ErrWorkshopNotFound      = errors.New("workshop not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("member is already registered for this workshop")
	ErrWorkshopFull          = errors.New("workshop is full")
	ErrWorkshopNotOpen       = errors.New("workshop is not open for registration")
	ErrRefundAlreadyExists   = errors.New("a refund already exists for this registration")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrDuplicateMember       = errors.New("a member with this email already exists")
)

// Repository is the full data-access surface of the club service.
type Repository interface {
	// Members
	CreateMemberApplication(ctx context.Context, member *domain.Member) (*domain.Member, error)
	FindMemberByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	FindMemberByClerkUserID(ctx context.Context, clerkUserID string) (*domain.Member, error)
	ListWaitlistedMembers(ctx context.Context) ([]domain.Member, error)
	UpdateMemberStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Member, error)

	// Workshops
	CreateWorkshop(ctx context.Context, workshop *domain.Workshop) (*domain.Workshop, error)
	FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error)
	ListWorkshops(ctx context.Context, status string) ([]domain.Workshop, error)
	UpdateWorkshopStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Workshop, error)
	ListWorkshopsPastEndDate(ctx context.Context, now time.Time) ([]domain.Workshop, error)
	// CancelWorkshop marks the workshop cancelled and returns every paid
	// registration on it, in one transaction holding the workshop row lock.
	CancelWorkshop(ctx context.Context, id uuid.UUID) ([]domain.Registration, error)

	// Registrations
	RegisterAttendee(ctx context.Context, workshopID, memberID uuid.UUID, priority bool) (*domain.Registration, error)
	FindRegistrationByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	ListRegistrations(ctx context.Context, workshopID uuid.UUID, status string) ([]domain.Registration, error)
	UpdateAttendance(ctx context.Context, workshopID uuid.UUID, updates []domain.AttendanceUpdate) error
	UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status string) error
	// ListUnrefundedCancelledRegistrations returns paid registrations on
	// cancelled workshops that have no refund row yet. The reconciliation job
	// uses this to replay bulk refunds lost to a dropped event.
	ListUnrefundedCancelledRegistrations(ctx context.Context, limit int) ([]domain.Registration, error)

	// Refunds
	CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	UpdateRefund(ctx context.Context, id uuid.UUID, status string, stripeRefundID *string) error
	ListRefundsByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Refund, error)
	ListRefundsByStatus(ctx context.Context, status string) ([]domain.Refund, error)

	// Subscriptions
	GetSubscriptionByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.Subscription, error)
	CreateOrUpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	LapseExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)
}
