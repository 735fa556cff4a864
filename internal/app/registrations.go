/**
 * @description
 * This file contains the attendee registration logic. Admission itself is
 * decided inside the store transaction that holds the workshop row lock, so
 * the count the policy sees is never stale; this layer validates the member,
 * maps store errors, and enforces the has-started rule for attendance marks.
 */
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

var (
	ErrMemberNotActive     = errors.New("member is not active")
	ErrWorkshopNotStarted  = errors.New("attendance can only be recorded after the workshop has started")
	ErrInvalidAttendance   = errors.New("attendance status must be 'attended' or 'no_show'")
	ErrNoAttendanceUpdates = errors.New("attendance_updates must not be empty")
)

// RegistrationRepository is the slice of the store the registration service
// needs.
type RegistrationRepository interface {
	FindMemberByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error)
	RegisterAttendee(ctx context.Context, workshopID, memberID uuid.UUID, priority bool) (*domain.Registration, error)
	ListRegistrations(ctx context.Context, workshopID uuid.UUID, status string) ([]domain.Registration, error)
	UpdateAttendance(ctx context.Context, workshopID uuid.UUID, updates []domain.AttendanceUpdate) error
}

// RegistrationService provides the business logic for workshop attendees.
type RegistrationService struct {
	repo RegistrationRepository
	now  func() time.Time
}

// NewRegistrationService creates a new registration service.
func NewRegistrationService(repo RegistrationRepository) *RegistrationService {
	return &RegistrationService{repo: repo, now: time.Now}
}

// Register admits a member onto a workshop. The admission decision happens in
// the store under the workshop row lock; a full workshop surfaces
// store.ErrWorkshopFull and a duplicate attendee store.ErrDuplicateRegistration.
func (s *RegistrationService) Register(ctx context.Context, workshopID uuid.UUID, req domain.AddAttendeeRequest) (*domain.Registration, error) {
	member, err := s.repo.FindMemberByID(ctx, req.UserProfileID)
	if err != nil {
		return nil, err
	}
	if member.Status != domain.MemberActive {
		return nil, ErrMemberNotActive
	}

	return s.repo.RegisterAttendee(ctx, workshopID, member.ID, req.Priority)
}

// Attendees lists a workshop's registrations, optionally filtered by status.
func (s *RegistrationService) Attendees(ctx context.Context, workshopID uuid.UUID, status string) ([]domain.Registration, error) {
	if _, err := s.repo.FindWorkshopByID(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.repo.ListRegistrations(ctx, workshopID, status)
}

// MarkAttendance applies a batch of attendance marks. The workshop must have
// started.
func (s *RegistrationService) MarkAttendance(ctx context.Context, workshopID uuid.UUID, req domain.AttendanceRequest) error {
	if len(req.AttendanceUpdates) == 0 {
		return ErrNoAttendanceUpdates
	}
	for _, u := range req.AttendanceUpdates {
		if u.AttendanceStatus != domain.RegistrationAttended && u.AttendanceStatus != domain.RegistrationNoShow {
			return ErrInvalidAttendance
		}
	}

	workshop, err := s.repo.FindWorkshopByID(ctx, workshopID)
	if err != nil {
		return err
	}
	if !workshop.HasStarted(s.now()) {
		return ErrWorkshopNotStarted
	}

	return s.repo.UpdateAttendance(ctx, workshopID, req.AttendanceUpdates)
}
