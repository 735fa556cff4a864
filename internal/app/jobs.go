/**
 * @description
 * Scheduled job implementations for the club service: finishing workshops
 * whose end date has passed, lapsing expired subscriptions, retrying failed
 * refunds, and reconciling bulk refunds that a dropped workshop.cancelled
 * event would otherwise have lost.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

const refundReconcileBatchSize = 100

// JobsRepository is the slice of the store the scheduled jobs need.
type JobsRepository interface {
	ListWorkshopsPastEndDate(ctx context.Context, now time.Time) ([]domain.Workshop, error)
	UpdateWorkshopStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Workshop, error)
	LapseExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)
	ListRefundsByStatus(ctx context.Context, status string) ([]domain.Refund, error)
	ListUnrefundedCancelledRegistrations(ctx context.Context, limit int) ([]domain.Registration, error)
}

// RefundIssuer is the slice of the refund service the jobs need.
type RefundIssuer interface {
	Retry(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	IssueForCancelledWorkshop(ctx context.Context, registration *domain.Registration) (*domain.Refund, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo    JobsRepository
	refunds RefundIssuer
	logger  *slog.Logger
	now     func() time.Time
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo JobsRepository, refunds RefundIssuer, logger *slog.Logger) *Jobs {
	return &Jobs{repo: repo, refunds: refunds, logger: logger, now: time.Now}
}

// FinishEndedWorkshops marks published workshops whose end date has passed
// as finished.
func (j *Jobs) FinishEndedWorkshops() {
	ctx := context.Background()

	workshops, err := j.repo.ListWorkshopsPastEndDate(ctx, j.now())
	if err != nil {
		j.logger.Error("failed to list ended workshops", "error", err)
		return
	}
	if len(workshops) == 0 {
		return
	}

	j.logger.Info("finishing ended workshops", "count", len(workshops))
	for _, w := range workshops {
		if _, err := j.repo.UpdateWorkshopStatus(ctx, w.ID, domain.WorkshopFinished); err != nil {
			j.logger.Error("failed to finish workshop", "workshop_id", w.ID, "error", err)
		}
	}
}

// LapseExpiredSubscriptions marks run-out, non-renewing subscriptions as
// lapsed.
func (j *Jobs) LapseExpiredSubscriptions() {
	ctx := context.Background()

	lapsed, err := j.repo.LapseExpiredSubscriptions(ctx, j.now())
	if err != nil {
		j.logger.Error("failed to lapse expired subscriptions", "error", err)
		return
	}
	if lapsed > 0 {
		j.logger.Info("lapsed expired subscriptions", "count", lapsed)
	}
}

// RetryFailedRefunds re-attempts the provider call for refunds stuck in the
// failed status.
func (j *Jobs) RetryFailedRefunds() {
	ctx := context.Background()

	failed, err := j.repo.ListRefundsByStatus(ctx, domain.RefundFailed)
	if err != nil {
		j.logger.Error("failed to list failed refunds", "error", err)
		return
	}
	if len(failed) == 0 {
		return
	}

	j.logger.Info("retrying failed refunds", "count", len(failed))
	for i := range failed {
		refund := failed[i]
		if _, err := j.refunds.Retry(ctx, &refund); err != nil {
			j.logger.Error("refund retry failed", "refund_id", refund.ID, "error", err)
		}
	}
}

// ReconcileCancelledWorkshopRefunds issues refunds for paid registrations on
// cancelled workshops that never got one, covering the case where the
// workshop.cancelled event was lost. Safe to run repeatedly: the refunds
// unique index makes each issuance happen at most once.
func (j *Jobs) ReconcileCancelledWorkshopRefunds() {
	ctx := context.Background()

	pending, err := j.repo.ListUnrefundedCancelledRegistrations(ctx, refundReconcileBatchSize)
	if err != nil {
		j.logger.Error("failed to list unrefunded cancelled registrations", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	j.logger.Info("reconciling cancelled workshop refunds", "count", len(pending))
	for i := range pending {
		registration := pending[i]
		if _, err := j.refunds.IssueForCancelledWorkshop(ctx, &registration); err != nil {
			j.logger.Error("bulk refund reconciliation failed", "registration_id", registration.ID, "error", err)
		}
	}
}
