package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

type workshopRepoStub struct {
	workshop      *domain.Workshop
	created       *domain.Workshop
	statusUpdates map[uuid.UUID]string
	cancelled     []uuid.UUID
	cancelResult  []domain.Registration
	cancelErr     error
}

func newWorkshopRepoStub() *workshopRepoStub {
	return &workshopRepoStub{statusUpdates: make(map[uuid.UUID]string)}
}

func (r *workshopRepoStub) CreateWorkshop(ctx context.Context, workshop *domain.Workshop) (*domain.Workshop, error) {
	r.created = workshop
	return workshop, nil
}

func (r *workshopRepoStub) FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	if r.workshop == nil {
		return nil, errors.New("not found")
	}
	return r.workshop, nil
}

func (r *workshopRepoStub) ListWorkshops(ctx context.Context, status string) ([]domain.Workshop, error) {
	return nil, nil
}

func (r *workshopRepoStub) UpdateWorkshopStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Workshop, error) {
	r.statusUpdates[id] = status
	updated := *r.workshop
	updated.Status = status
	return &updated, nil
}

func (r *workshopRepoStub) CancelWorkshop(ctx context.Context, id uuid.UUID) ([]domain.Registration, error) {
	if r.cancelErr != nil {
		return nil, r.cancelErr
	}
	r.cancelled = append(r.cancelled, id)
	return r.cancelResult, nil
}

func coordinator() *domain.Member {
	return &domain.Member{ID: uuid.New(), Role: domain.RoleCoordinator, Status: domain.MemberActive}
}

func plainMember() *domain.Member {
	return &domain.Member{ID: uuid.New(), Role: domain.RoleMember, Status: domain.MemberActive}
}

func validCreateRequest() domain.CreateWorkshopRequest {
	start := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)
	return domain.CreateWorkshopRequest{
		Title:      "Throws clinic",
		StartDate:  start,
		EndDate:    start.Add(2 * time.Hour),
		Capacity:   12,
		PriceCents: 2500,
	}
}

func TestCreateWorkshopRequiresManagerRole(t *testing.T) {
	service := NewWorkshopService(newWorkshopRepoStub(), &stubPublisher{}, "club.events", discardLogger())

	_, err := service.Create(context.Background(), plainMember(), validCreateRequest())
	if !errors.Is(err, ErrInsufficientPrivileges) {
		t.Fatalf("expected ErrInsufficientPrivileges, got %v", err)
	}
}

func TestCreateWorkshopValidation(t *testing.T) {
	service := NewWorkshopService(newWorkshopRepoStub(), &stubPublisher{}, "club.events", discardLogger())
	negativeWindow := -1

	tests := []struct {
		name   string
		mutate func(*domain.CreateWorkshopRequest)
	}{
		{name: "missing title", mutate: func(r *domain.CreateWorkshopRequest) { r.Title = "" }},
		{name: "zero capacity", mutate: func(r *domain.CreateWorkshopRequest) { r.Capacity = 0 }},
		{name: "end before start", mutate: func(r *domain.CreateWorkshopRequest) { r.EndDate = r.StartDate.Add(-time.Hour) }},
		{name: "negative refund window", mutate: func(r *domain.CreateWorkshopRequest) { r.RefundWindowDays = &negativeWindow }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			if _, err := service.Create(context.Background(), coordinator(), req); !errors.Is(err, ErrInvalidWorkshop) {
				t.Fatalf("expected ErrInvalidWorkshop, got %v", err)
			}
		})
	}
}

func TestCreateWorkshopStartsPlanned(t *testing.T) {
	repo := newWorkshopRepoStub()
	service := NewWorkshopService(repo, &stubPublisher{}, "club.events", discardLogger())
	creator := coordinator()

	workshop, err := service.Create(context.Background(), creator, validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if workshop.Status != domain.WorkshopPlanned {
		t.Fatalf("expected planned status, got %q", workshop.Status)
	}
	if workshop.CreatedBy != creator.ID {
		t.Fatalf("expected creator id to be recorded")
	}
}

func TestPublishOnlyFromPlanned(t *testing.T) {
	tests := []struct {
		status  string
		wantErr bool
	}{
		{status: domain.WorkshopPlanned, wantErr: false},
		{status: domain.WorkshopPublished, wantErr: true},
		{status: domain.WorkshopFinished, wantErr: true},
		{status: domain.WorkshopCancelled, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			repo := newWorkshopRepoStub()
			repo.workshop = &domain.Workshop{ID: uuid.New(), Status: tt.status}
			service := NewWorkshopService(repo, &stubPublisher{}, "club.events", discardLogger())

			_, err := service.Publish(context.Background(), coordinator(), repo.workshop.ID)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatusChange) {
					t.Fatalf("expected ErrInvalidStatusChange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.statusUpdates[repo.workshop.ID] != domain.WorkshopPublished {
				t.Fatalf("expected status update to published")
			}
		})
	}
}

func TestCancelPublishesEvent(t *testing.T) {
	repo := newWorkshopRepoStub()
	id := uuid.New()
	repo.cancelResult = []domain.Registration{{ID: uuid.New(), AmountPaidCents: 5000}}
	publisher := &stubPublisher{}
	service := NewWorkshopService(repo, publisher, "club.events", discardLogger())

	if err := service.Cancel(context.Background(), coordinator(), id, "venue unavailable"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.cancelled) != 1 || repo.cancelled[0] != id {
		t.Fatalf("expected repo cancellation, got %v", repo.cancelled)
	}
	if len(publisher.published) != 1 || publisher.published[0] != domain.WorkshopCancelledKey {
		t.Fatalf("expected workshop.cancelled event, got %v", publisher.published)
	}
}

func TestCancelSurvivesBrokerFailure(t *testing.T) {
	repo := newWorkshopRepoStub()
	publisher := &stubPublisher{err: errors.New("broker down")}
	service := NewWorkshopService(repo, publisher, "club.events", discardLogger())

	// The reconciliation job covers the refunds the event would have driven.
	if err := service.Cancel(context.Background(), coordinator(), uuid.New(), ""); err != nil {
		t.Fatalf("expected cancellation to succeed despite broker failure, got %v", err)
	}
}

func TestCancelPropagatesStoreError(t *testing.T) {
	repo := newWorkshopRepoStub()
	repo.cancelErr = errors.New("workshop already finished")
	publisher := &stubPublisher{}
	service := NewWorkshopService(repo, publisher, "club.events", discardLogger())

	if err := service.Cancel(context.Background(), coordinator(), uuid.New(), ""); err == nil {
		t.Fatalf("expected error from store")
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no event when cancellation fails")
	}
}
