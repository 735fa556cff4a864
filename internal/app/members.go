/**
 * @description
 * This file contains the membership onboarding logic. Applications join a
 * waitlist; an admin approves or rejects them. Approval publishes a
 * member.approved event so downstream consumers (notifications) can react.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/rabbitmq"
)

var (
	ErrInvalidApplication = errors.New("application requires an email and a name")
	ErrNotWaitlisted      = errors.New("member is not on the waitlist")
)

// MemberRepository is the slice of the store the member service needs.
type MemberRepository interface {
	CreateMemberApplication(ctx context.Context, member *domain.Member) (*domain.Member, error)
	FindMemberByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	FindMemberByClerkUserID(ctx context.Context, clerkUserID string) (*domain.Member, error)
	ListWaitlistedMembers(ctx context.Context) ([]domain.Member, error)
	UpdateMemberStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Member, error)
}

// MemberService provides the business logic for member onboarding.
type MemberService struct {
	repo      MemberRepository
	publisher rabbitmq.Publisher
	exchange  string
	logger    *slog.Logger
}

// NewMemberService creates a new member service.
func NewMemberService(repo MemberRepository, publisher rabbitmq.Publisher, exchange string, logger *slog.Logger) *MemberService {
	return &MemberService{repo: repo, publisher: publisher, exchange: exchange, logger: logger}
}

// Apply creates a waitlisted member from an application. The Clerk user ID
// links the application to the authenticated account so Me can resolve it.
func (s *MemberService) Apply(ctx context.Context, clerkUserID string, application domain.MemberApplication) (*domain.Member, error) {
	email := strings.TrimSpace(application.Email)
	name := strings.TrimSpace(application.Name)
	if email == "" || name == "" {
		return nil, ErrInvalidApplication
	}

	member := &domain.Member{
		ID:          uuid.New(),
		ClerkUserID: clerkUserID,
		Email:       email,
		Name:        name,
		Role:        domain.RoleMember,
		Status:      domain.MemberWaitlisted,
		BeltRank:    strings.TrimSpace(application.BeltRank),
	}

	created, err := s.repo.CreateMemberApplication(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to create member application: %w", err)
	}
	return created, nil
}

// Waitlist returns pending applications, oldest first.
func (s *MemberService) Waitlist(ctx context.Context) ([]domain.Member, error) {
	return s.repo.ListWaitlistedMembers(ctx)
}

// Approve moves a waitlisted member to active and publishes the approval
// event. The event is best-effort: a broker failure does not roll back the
// approval.
func (s *MemberService) Approve(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	member, err := s.repo.FindMemberByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member.Status != domain.MemberWaitlisted {
		return nil, ErrNotWaitlisted
	}

	approved, err := s.repo.UpdateMemberStatus(ctx, id, domain.MemberActive)
	if err != nil {
		return nil, err
	}

	event := domain.MemberApprovedEvent{
		MemberID:  approved.ID,
		Email:     approved.Email,
		Name:      approved.Name,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.exchange, domain.MemberApprovedKey, event); err != nil {
		s.logger.Error("failed to publish member approved event", "member_id", approved.ID, "error", err)
	}

	return approved, nil
}

// Reject marks a waitlisted member as rejected.
func (s *MemberService) Reject(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	member, err := s.repo.FindMemberByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member.Status != domain.MemberWaitlisted {
		return nil, ErrNotWaitlisted
	}
	return s.repo.UpdateMemberStatus(ctx, id, domain.MemberRejected)
}

// Me resolves the member record for the authenticated Clerk user.
func (s *MemberService) Me(ctx context.Context, clerkUserID string) (*domain.Member, error) {
	return s.repo.FindMemberByClerkUserID(ctx, clerkUserID)
}
