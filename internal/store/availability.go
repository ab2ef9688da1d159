package store

import (
	"context"
	"time"

	"bookline/backend/internal/domain"
)

// AvailabilityRepository holds the operator-declared open windows. No overlap
// checking between windows of the same employee/date: split shifts are
// legitimate and the slot finder must cope with overlapping windows anyway.
type AvailabilityRepository interface {
	// WindowsFor returns all windows for the employee/date; an empty slice is
	// a normal outcome, not an error.
	WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error)

	// AddWindow persists a window, failing with ErrInvalidWindow when
	// start >= end.
	AddWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error)

	// SeedWindow inserts the window only if the employee has no window on that
	// date yet. Returns true when a row was inserted. Used by the batch window
	// generator; safe to re-run.
	SeedWindow(ctx context.Context, w domain.AvailabilityWindow) (bool, error)
}
