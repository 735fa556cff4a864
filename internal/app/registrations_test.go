package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

type registrationRepoStub struct {
	member        *domain.Member
	workshop      *domain.Workshop
	registered    []domain.AddAttendeeRequest
	registerErr   error
	attendance    []domain.AttendanceUpdate
	registrations []domain.Registration
}

func (r *registrationRepoStub) FindMemberByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	if r.member == nil {
		return nil, errors.New("not found")
	}
	return r.member, nil
}

func (r *registrationRepoStub) FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	if r.workshop == nil {
		return nil, errors.New("not found")
	}
	return r.workshop, nil
}

func (r *registrationRepoStub) RegisterAttendee(ctx context.Context, workshopID, memberID uuid.UUID, priority bool) (*domain.Registration, error) {
	if r.registerErr != nil {
		return nil, r.registerErr
	}
	r.registered = append(r.registered, domain.AddAttendeeRequest{UserProfileID: memberID, Priority: priority})
	return &domain.Registration{ID: uuid.New(), WorkshopID: workshopID, MemberID: memberID, Priority: priority, Status: domain.RegistrationConfirmed}, nil
}

func (r *registrationRepoStub) ListRegistrations(ctx context.Context, workshopID uuid.UUID, status string) ([]domain.Registration, error) {
	return r.registrations, nil
}

func (r *registrationRepoStub) UpdateAttendance(ctx context.Context, workshopID uuid.UUID, updates []domain.AttendanceUpdate) error {
	r.attendance = append(r.attendance, updates...)
	return nil
}

func TestRegisterRequiresActiveMember(t *testing.T) {
	memberID := uuid.New()
	repo := &registrationRepoStub{
		member: &domain.Member{ID: memberID, Status: domain.MemberWaitlisted},
	}
	service := NewRegistrationService(repo)

	_, err := service.Register(context.Background(), uuid.New(), domain.AddAttendeeRequest{UserProfileID: memberID})
	if !errors.Is(err, ErrMemberNotActive) {
		t.Fatalf("expected ErrMemberNotActive, got %v", err)
	}
	if len(repo.registered) != 0 {
		t.Fatalf("expected no registration attempt for inactive member")
	}
}

func TestRegisterPassesPriorityFlagThrough(t *testing.T) {
	memberID := uuid.New()
	repo := &registrationRepoStub{
		member: &domain.Member{ID: memberID, Status: domain.MemberActive},
	}
	service := NewRegistrationService(repo)

	registration, err := service.Register(context.Background(), uuid.New(), domain.AddAttendeeRequest{UserProfileID: memberID, Priority: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !registration.Priority {
		t.Fatalf("expected priority flag to survive registration")
	}
	if len(repo.registered) != 1 || !repo.registered[0].Priority {
		t.Fatalf("expected repo to receive the priority flag, got %+v", repo.registered)
	}
}

func TestMarkAttendanceValidatesUpdates(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &registrationRepoStub{
		workshop: &domain.Workshop{ID: uuid.New(), StartDate: start, Status: domain.WorkshopPublished},
	}
	service := NewRegistrationService(repo)
	service.now = func() time.Time { return start.Add(time.Hour) }

	tests := []struct {
		name    string
		req     domain.AttendanceRequest
		wantErr error
	}{
		{
			name:    "empty updates",
			req:     domain.AttendanceRequest{},
			wantErr: ErrNoAttendanceUpdates,
		},
		{
			name: "bogus status",
			req: domain.AttendanceRequest{AttendanceUpdates: []domain.AttendanceUpdate{
				{RegistrationID: uuid.New(), AttendanceStatus: "late"},
			}},
			wantErr: ErrInvalidAttendance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.MarkAttendance(context.Background(), repo.workshop.ID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMarkAttendanceRejectsUnstartedWorkshop(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &registrationRepoStub{
		workshop: &domain.Workshop{ID: uuid.New(), StartDate: start, Status: domain.WorkshopPublished},
	}
	service := NewRegistrationService(repo)
	service.now = func() time.Time { return start.Add(-time.Minute) }

	err := service.MarkAttendance(context.Background(), repo.workshop.ID, domain.AttendanceRequest{
		AttendanceUpdates: []domain.AttendanceUpdate{
			{RegistrationID: uuid.New(), AttendanceStatus: domain.RegistrationAttended},
		},
	})
	if !errors.Is(err, ErrWorkshopNotStarted) {
		t.Fatalf("expected ErrWorkshopNotStarted, got %v", err)
	}
}

func TestMarkAttendanceAppliesUpdates(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &registrationRepoStub{
		workshop: &domain.Workshop{ID: uuid.New(), StartDate: start, Status: domain.WorkshopPublished},
	}
	service := NewRegistrationService(repo)
	service.now = func() time.Time { return start } // exactly at start counts as started

	err := service.MarkAttendance(context.Background(), repo.workshop.ID, domain.AttendanceRequest{
		AttendanceUpdates: []domain.AttendanceUpdate{
			{RegistrationID: uuid.New(), AttendanceStatus: domain.RegistrationAttended},
			{RegistrationID: uuid.New(), AttendanceStatus: domain.RegistrationNoShow},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.attendance) != 2 {
		t.Fatalf("expected 2 attendance updates, got %d", len(repo.attendance))
	}
}
