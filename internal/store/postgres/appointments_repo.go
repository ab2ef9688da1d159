package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) ScheduledFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.Appointment, error) {
	return scheduledFor(ctx, r.db, employeeID, date)
}

func scheduledFor(ctx context.Context, db bun.IDB, employeeID int64, date time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := db.NewSelect().
		Model(&rows).
		Where("employee_id = ?", employeeID).
		Where("date = ?", domain.DateOnly(date)).
		Where("status = ?", domain.StatusScheduled).
		OrderExpr("start_minute ASC, created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) List(ctx context.Context, scope store.ListScope, filter store.ListFilter) ([]domain.Appointment, error) {
	q := r.db.NewSelect().Model((*domain.Appointment)(nil))
	if !scope.All() {
		q = q.Where("user_id = ?", scope.UserID())
	}
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", domain.DateOnly(filter.From))
	}
	if !filter.To.IsZero() {
		q = q.Where("date <= ?", domain.DateOnly(filter.To))
	}

	var rows []domain.Appointment
	err := q.OrderExpr("date ASC, start_minute ASC, created_at ASC").Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("status = ?", status).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return r.Get(ctx, id)
}

// InBookingTx serializes the check-then-commit sequence per (employee, date)
// with an advisory transaction lock, so two concurrent bookings for the same
// employee and day never interleave between the conflict check and the insert.
func (r *AppointmentRepo) InBookingTx(ctx context.Context, employeeID int64, date time.Time, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockEmployeeDay(ctx, tx, employeeID, date); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func lockEmployeeDay(ctx context.Context, tx bun.Tx, employeeID int64, date time.Time) error {
	key := fmt.Sprintf("booking:%d:%s", employeeID, domain.DateOnly(date).Format(domain.DateLayout))
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx)
	return err
}

type bookingTx struct {
	tx bun.Tx
}

func (t bookingTx) WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error) {
	return windowsFor(ctx, t.tx, employeeID, date)
}

func (t bookingTx) ScheduledFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.Appointment, error) {
	return scheduledFor(ctx, t.tx, employeeID, date)
}

// Commit inserts the appointment. The appointments_no_overlap exclusion
// constraint is the backstop: even if a caller skips the advisory lock, two
// overlapping scheduled rows can never both land.
func (t bookingTx) Commit(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_no_overlap" {
			return domain.Appointment{}, store.ErrConflict
		}
		return domain.Appointment{}, err
	}
	return m, nil
}
