package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

type AvailabilityRepo struct {
	db *bun.DB
}

func NewAvailabilityRepo(db *bun.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

func (r *AvailabilityRepo) WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error) {
	return windowsFor(ctx, r.db, employeeID, date)
}

func windowsFor(ctx context.Context, db bun.IDB, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error) {
	var rows []domain.AvailabilityWindow
	err := db.NewSelect().
		Model(&rows).
		Where("employee_id = ?", employeeID).
		Where("date = ?", domain.DateOnly(date)).
		OrderExpr("start_minute ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AvailabilityRepo) AddWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error) {
	if w.StartMinute >= w.EndMinute {
		return domain.AvailabilityWindow{}, store.ErrInvalidWindow
	}
	w.Date = domain.DateOnly(w.Date)
	_, err := r.db.NewInsert().Model(&w).Exec(ctx)
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	return w, nil
}

// SeedWindow inserts the window unless the employee already has one on that
// date. Runs in a transaction so a rerunning generator stays idempotent.
func (r *AvailabilityRepo) SeedWindow(ctx context.Context, w domain.AvailabilityWindow) (bool, error) {
	if w.StartMinute >= w.EndMinute {
		return false, store.ErrInvalidWindow
	}
	w.Date = domain.DateOnly(w.Date)

	var inserted bool
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*domain.AvailabilityWindow)(nil)).
			Where("employee_id = ?", w.EmployeeID).
			Where("date = ?", w.Date).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := tx.NewInsert().Model(&w).Exec(ctx); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}
