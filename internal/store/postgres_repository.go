/**
 * @description
 * This file provides the PostgreSQL implementation of the Repository
 * interface. Capacity-affecting writes serialize on the workshop row with
 * SELECT ... FOR UPDATE, and refund uniqueness is enforced by a unique index
 * on refunds(registration_id) surfaced as ErrRefundAlreadyExists.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - internal/domain: domain models.
 * - internal/policy: pure admission decision applied under the row lock.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/policy"
)

const uniqueViolationCode = "23505"

// PostgresRepository is the concrete Repository backed by a pgx pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// ---- Members ----

const memberColumns = `id, COALESCE(clerk_user_id, ''), email, name, role, status, belt_rank, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.ClerkUserID, &m.Email, &m.Name, &m.Role, &m.Status, &m.BeltRank, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMemberApplication inserts a new waitlisted member.
func (r *PostgresRepository) CreateMemberApplication(ctx context.Context, member *domain.Member) (*domain.Member, error) {
	query := `
		INSERT INTO members (id, clerk_user_id, email, name, role, status, belt_rank)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		RETURNING ` + memberColumns
	created, err := scanMember(r.db.QueryRow(ctx, query,
		member.ID,
		member.ClerkUserID,
		member.Email,
		member.Name,
		member.Role,
		member.Status,
		member.BeltRank,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateMember
		}
		return nil, err
	}
	return created, nil
}

// FindMemberByID retrieves a member by their internal ID.
func (r *PostgresRepository) FindMemberByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	member, err := scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// FindMemberByClerkUserID resolves a member from the managed-auth subject id.
func (r *PostgresRepository) FindMemberByClerkUserID(ctx context.Context, clerkUserID string) (*domain.Member, error) {
	member, err := scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE clerk_user_id = $1`, clerkUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// ListWaitlistedMembers returns pending applications, oldest first.
func (r *PostgresRepository) ListWaitlistedMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+` FROM members WHERE status = $1 ORDER BY created_at`, domain.MemberWaitlisted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMemberStatus transitions a member's status and returns the row.
func (r *PostgresRepository) UpdateMemberStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Member, error) {
	query := `UPDATE members SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + memberColumns
	member, err := scanMember(r.db.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// ---- Workshops ----

const workshopColumns = `id, title, description, start_date, end_date, capacity, price_cents, refund_window_days, status, created_by, created_at, updated_at`

func scanWorkshop(row pgx.Row) (*domain.Workshop, error) {
	var w domain.Workshop
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.StartDate, &w.EndDate, &w.Capacity, &w.PriceCents, &w.RefundWindowDays, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWorkshop inserts a new workshop in the 'planned' status.
func (r *PostgresRepository) CreateWorkshop(ctx context.Context, workshop *domain.Workshop) (*domain.Workshop, error) {
	query := `
		INSERT INTO workshops (id, title, description, start_date, end_date, capacity, price_cents, refund_window_days, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + workshopColumns
	return scanWorkshop(r.db.QueryRow(ctx, query,
		workshop.ID,
		workshop.Title,
		workshop.Description,
		workshop.StartDate,
		workshop.EndDate,
		workshop.Capacity,
		workshop.PriceCents,
		workshop.RefundWindowDays,
		workshop.Status,
		workshop.CreatedBy,
	))
}

// FindWorkshopByID retrieves a workshop by id.
func (r *PostgresRepository) FindWorkshopByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	workshop, err := scanWorkshop(r.db.QueryRow(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}
	return workshop, nil
}

// ListWorkshops returns workshops, optionally filtered by status, soonest first.
func (r *PostgresRepository) ListWorkshops(ctx context.Context, status string) ([]domain.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY start_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workshops []domain.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		workshops = append(workshops, *w)
	}
	return workshops, rows.Err()
}

// UpdateWorkshopStatus transitions a workshop's lifecycle status.
func (r *PostgresRepository) UpdateWorkshopStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Workshop, error) {
	query := `UPDATE workshops SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + workshopColumns
	workshop, err := scanWorkshop(r.db.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}
	return workshop, nil
}

// ListWorkshopsPastEndDate returns published workshops whose end date has
// passed; the scheduler marks them finished.
func (r *PostgresRepository) ListWorkshopsPastEndDate(ctx context.Context, now time.Time) ([]domain.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops WHERE status = $1 AND end_date < $2`
	rows, err := r.db.Query(ctx, query, domain.WorkshopPublished, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workshops []domain.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		workshops = append(workshops, *w)
	}
	return workshops, rows.Err()
}

// CancelWorkshop marks the workshop cancelled and returns every paid,
// non-terminal registration on it. The workshop row lock is the single source
// of truth for refund issuance: a per-registration refund request racing this
// cancellation either commits before the lock is taken (and is skipped below
// by the status filter) or observes the workshop as cancelled and is rejected
// by the eligibility policy.
func (r *PostgresRepository) CancelWorkshop(ctx context.Context, id uuid.UUID) ([]domain.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM workshops WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}
	if status == domain.WorkshopFinished || status == domain.WorkshopCancelled {
		return nil, ErrWorkshopNotOpen
	}

	if _, err := tx.Exec(ctx, `UPDATE workshops SET status = $1, updated_at = NOW() WHERE id = $2`, domain.WorkshopCancelled, id); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM workshop_registrations
		WHERE workshop_id = $1
		  AND amount_paid_cents > 0
		  AND status NOT IN ($2, $3)`,
		id, domain.RegistrationCancelled, domain.RegistrationRefunded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paid []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		paid = append(paid, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return paid, nil
}

// ---- Registrations ----

const registrationColumns = `id, workshop_id, member_id, status, priority, amount_paid_cents, stripe_payment_intent_id, COALESCE(notes, ''), created_at, updated_at`

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var reg domain.Registration
	err := row.Scan(&reg.ID, &reg.WorkshopID, &reg.MemberID, &reg.Status, &reg.Priority, &reg.AmountPaidCents, &reg.StripePaymentIntentID, &reg.Notes, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// RegisterAttendee admits and inserts a registration in one transaction. The
// workshop row is locked FOR UPDATE so the non-priority count the admission
// policy sees cannot go stale between the read and the insert; two concurrent
// requests for the last seat serialize here.
func (r *PostgresRepository) RegisterAttendee(ctx context.Context, workshopID, memberID uuid.UUID, priority bool) (*domain.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var capacity int
	var status string
	err = tx.QueryRow(ctx, `SELECT capacity, status FROM workshops WHERE id = $1 FOR UPDATE`, workshopID).Scan(&capacity, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}
	if status != domain.WorkshopPublished {
		return nil, ErrWorkshopNotOpen
	}

	var nonPriorityCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM workshop_registrations
		WHERE workshop_id = $1
		  AND priority = FALSE
		  AND status NOT IN ($2, $3)`,
		workshopID, domain.RegistrationCancelled, domain.RegistrationRefunded).Scan(&nonPriorityCount)
	if err != nil {
		return nil, err
	}

	if !policy.Admit(nonPriorityCount, capacity, priority) {
		return nil, ErrWorkshopFull
	}

	query := `
		INSERT INTO workshop_registrations (id, workshop_id, member_id, status, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + registrationColumns
	reg, err := scanRegistration(tx.QueryRow(ctx, query, uuid.New(), workshopID, memberID, domain.RegistrationInvited, priority))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}

// FindRegistrationByID retrieves a registration by id.
func (r *PostgresRepository) FindRegistrationByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx, `SELECT `+registrationColumns+` FROM workshop_registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

// ListRegistrations returns a workshop's registrations, optionally filtered
// by status.
func (r *PostgresRepository) ListRegistrations(ctx context.Context, workshopID uuid.UUID, status string) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM workshop_registrations WHERE workshop_id = $1`
	args := []interface{}{workshopID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// UpdateAttendance applies a batch of attendance marks atomically. Updates
// are scoped to the workshop so a registration id from another workshop
// cannot be marked through this path.
func (r *PostgresRepository) UpdateAttendance(ctx context.Context, workshopID uuid.UUID, updates []domain.AttendanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE workshop_registrations
		SET status = $1, notes = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3 AND workshop_id = $4`
	for _, u := range updates {
		result, err := tx.Exec(ctx, query, u.AttendanceStatus, u.Notes, u.RegistrationID, workshopID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrRegistrationNotFound
		}
	}

	return tx.Commit(ctx)
}

// ListUnrefundedCancelledRegistrations returns paid, non-terminal
// registrations on cancelled workshops that have no refund row yet.
func (r *PostgresRepository) ListUnrefundedCancelledRegistrations(ctx context.Context, limit int) ([]domain.Registration, error) {
	query := `
		SELECT wr.id, wr.workshop_id, wr.member_id, wr.status, wr.priority, wr.amount_paid_cents, wr.stripe_payment_intent_id, COALESCE(wr.notes, ''), wr.created_at, wr.updated_at
		FROM workshop_registrations wr
		JOIN workshops w ON w.id = wr.workshop_id
		LEFT JOIN refunds r ON r.registration_id = wr.id
		WHERE w.status = $1
		  AND wr.amount_paid_cents > 0
		  AND wr.status NOT IN ($2, $3)
		  AND r.id IS NULL
		ORDER BY wr.created_at
		LIMIT $4`
	rows, err := r.db.Query(ctx, query, domain.WorkshopCancelled, domain.RegistrationCancelled, domain.RegistrationRefunded, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// UpdateRegistrationStatus transitions a registration's status.
func (r *PostgresRepository) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.Exec(ctx, `UPDATE workshop_registrations SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// ---- Refunds ----

const refundColumns = `id, registration_id, amount_cents, reason, status, stripe_refund_id, created_at, updated_at`

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	var rf domain.Refund
	err := row.Scan(&rf.ID, &rf.RegistrationID, &rf.AmountCents, &rf.Reason, &rf.Status, &rf.StripeRefundID, &rf.CreatedAt, &rf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

// CreateRefund inserts a refund row. The unique index on registration_id is
// the double-refund guard; a second insert surfaces ErrRefundAlreadyExists.
func (r *PostgresRepository) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	query := `
		INSERT INTO refunds (id, registration_id, amount_cents, reason, status, stripe_refund_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + refundColumns
	created, err := scanRefund(r.db.QueryRow(ctx, query,
		refund.ID,
		refund.RegistrationID,
		refund.AmountCents,
		refund.Reason,
		refund.Status,
		refund.StripeRefundID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRefundAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// UpdateRefund sets a refund's status and provider id.
func (r *PostgresRepository) UpdateRefund(ctx context.Context, id uuid.UUID, status string, stripeRefundID *string) error {
	query := `
		UPDATE refunds
		SET status = $1, stripe_refund_id = COALESCE($2, stripe_refund_id), updated_at = NOW()
		WHERE id = $3`
	_, err := r.db.Exec(ctx, query, status, stripeRefundID, id)
	return err
}

// ListRefundsByWorkshop returns refund records for a workshop's registrations.
func (r *PostgresRepository) ListRefundsByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Refund, error) {
	query := `
		SELECT r.id, r.registration_id, r.amount_cents, r.reason, r.status, r.stripe_refund_id, r.created_at, r.updated_at
		FROM refunds r
		JOIN workshop_registrations wr ON wr.id = r.registration_id
		WHERE wr.workshop_id = $1
		ORDER BY r.created_at`
	rows, err := r.db.Query(ctx, query, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, *rf)
	}
	return refunds, rows.Err()
}

// ListRefundsByStatus returns refunds in the given status, oldest first. The
// scheduler uses this to retry failed provider calls.
func (r *PostgresRepository) ListRefundsByStatus(ctx context.Context, status string) ([]domain.Refund, error) {
	rows, err := r.db.Query(ctx, `SELECT `+refundColumns+` FROM refunds WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, *rf)
	}
	return refunds, rows.Err()
}

// ---- Subscriptions ----

// GetSubscriptionByMemberID retrieves a member's subscription record.
func (r *PostgresRepository) GetSubscriptionByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	query := `
		SELECT id, member_id, status, current_period_start, current_period_end, auto_renew, stripe_subscription_id
		FROM subscriptions
		WHERE member_id = $1`
	err := r.db.QueryRow(ctx, query, memberID).Scan(
		&sub.ID,
		&sub.MemberID,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.AutoRenew,
		&sub.StripeSubscriptionID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// CreateOrUpdateSubscription upserts the member's subscription record.
func (r *PostgresRepository) CreateOrUpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	var saved domain.Subscription
	query := `
		INSERT INTO subscriptions (id, member_id, status, current_period_start, current_period_end, auto_renew, stripe_subscription_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (member_id) DO UPDATE SET
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			auto_renew = EXCLUDED.auto_renew,
			stripe_subscription_id = COALESCE(EXCLUDED.stripe_subscription_id, subscriptions.stripe_subscription_id),
			updated_at = NOW()
		RETURNING id, member_id, status, current_period_start, current_period_end, auto_renew, stripe_subscription_id`
	err := r.db.QueryRow(ctx, query,
		sub.ID,
		sub.MemberID,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.AutoRenew,
		sub.StripeSubscriptionID,
	).Scan(
		&saved.ID,
		&saved.MemberID,
		&saved.Status,
		&saved.CurrentPeriodStart,
		&saved.CurrentPeriodEnd,
		&saved.AutoRenew,
		&saved.StripeSubscriptionID,
	)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// LapseExpiredSubscriptions marks active subscriptions whose period has ended
// and which are not set to auto-renew as lapsed. Returns the number of rows
// updated.
func (r *PostgresRepository) LapseExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND auto_renew = FALSE AND current_period_end < $3`
	result, err := r.db.Exec(ctx, query, domain.SubscriptionLapsed, domain.SubscriptionActive, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
