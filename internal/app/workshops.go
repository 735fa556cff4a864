/**
 * @description
 * This file contains the workshop lifecycle logic: creation (planned),
 * publishing, finishing, and cancellation. Cancellation marks the workshop
 * cancelled under the workshop row lock, then publishes a workshop.cancelled
 * event carrying the paid registrations into the bulk-refund consumer.
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
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/rabbitmq"
)

var (
	ErrInvalidWorkshop        = errors.New("workshop requires a title, a capacity greater than zero, and a start date before its end date")
	ErrInvalidStatusChange    = errors.New("workshop status does not allow this transition")
	ErrInsufficientPrivileges = errors.New("member role does not allow managing workshops")
)

// WorkshopRepository is the slice of the store the workshop service needs.
type WorkshopRepository interface {
	CreateWorkshop(ctx context.Context, workshop *domain.Workshop) (*domain.Workshop, error)
	FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error)
	ListWorkshops(ctx context.Context, status string) ([]domain.Workshop, error)
	UpdateWorkshopStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Workshop, error)
	CancelWorkshop(ctx context.Context, id uuid.UUID) ([]domain.Registration, error)
}

// WorkshopService provides the business logic for workshop management.
type WorkshopService struct {
	repo      WorkshopRepository
	publisher rabbitmq.Publisher
	exchange  string
	logger    *slog.Logger
}

// NewWorkshopService creates a new workshop service.
func NewWorkshopService(repo WorkshopRepository, publisher rabbitmq.Publisher, exchange string, logger *slog.Logger) *WorkshopService {
	return &WorkshopService{repo: repo, publisher: publisher, exchange: exchange, logger: logger}
}

// Create validates and stores a new workshop in the planned status. Capacity
// must be positive at creation time; the admission policy itself never
// revalidates it.
func (s *WorkshopService) Create(ctx context.Context, creator *domain.Member, req domain.CreateWorkshopRequest) (*domain.Workshop, error) {
	if !creator.CanManageWorkshops() {
		return nil, ErrInsufficientPrivileges
	}
	if req.Title == "" || req.Capacity <= 0 || !req.StartDate.Before(req.EndDate) {
		return nil, ErrInvalidWorkshop
	}
	if req.RefundWindowDays != nil && *req.RefundWindowDays < 0 {
		return nil, ErrInvalidWorkshop
	}

	workshop := &domain.Workshop{
		ID:               uuid.New(),
		Title:            req.Title,
		Description:      req.Description,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Capacity:         req.Capacity,
		PriceCents:       req.PriceCents,
		RefundWindowDays: req.RefundWindowDays,
		Status:           domain.WorkshopPlanned,
		CreatedBy:        creator.ID,
	}

	created, err := s.repo.CreateWorkshop(ctx, workshop)
	if err != nil {
		return nil, fmt.Errorf("failed to create workshop: %w", err)
	}
	return created, nil
}

// Get retrieves a workshop by id.
func (s *WorkshopService) Get(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	return s.repo.FindWorkshopByID(ctx, id)
}

// List returns workshops, optionally filtered by status.
func (s *WorkshopService) List(ctx context.Context, status string) ([]domain.Workshop, error) {
	return s.repo.ListWorkshops(ctx, status)
}

// Publish opens a planned workshop for registration.
func (s *WorkshopService) Publish(ctx context.Context, actor *domain.Member, id uuid.UUID) (*domain.Workshop, error) {
	if !actor.CanManageWorkshops() {
		return nil, ErrInsufficientPrivileges
	}
	workshop, err := s.repo.FindWorkshopByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop.Status != domain.WorkshopPlanned {
		return nil, ErrInvalidStatusChange
	}
	return s.repo.UpdateWorkshopStatus(ctx, id, domain.WorkshopPublished)
}

// Cancel cancels a workshop and publishes the event that drives the bulk
// refund of its paid registrations.
func (s *WorkshopService) Cancel(ctx context.Context, actor *domain.Member, id uuid.UUID, reason string) error {
	if !actor.CanManageWorkshops() {
		return ErrInsufficientPrivileges
	}

	paid, err := s.repo.CancelWorkshop(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("workshop cancelled", "workshop_id", id, "paid_registrations", len(paid))

	event := domain.WorkshopCancelledEvent{
		WorkshopID: id,
		Reason:     reason,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.exchange, domain.WorkshopCancelledKey, event); err != nil {
		// The reconciliation job will still pick up the cancellation on its
		// next pass over cancelled workshops, so log and move on.
		s.logger.Error("failed to publish workshop cancelled event", "workshop_id", id, "error", err)
	}
	return nil
}
