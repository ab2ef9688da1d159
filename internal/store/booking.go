package store

import (
	"context"
	"time"

	"bookline/backend/internal/domain"
)

// BookingTx is the view of the ledger inside a serialized booking unit. Reads
// through it see the current committed state; Commit either lands the
// appointment or fails with ErrConflict.
type BookingTx interface {
	WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error)
	ScheduledFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.Appointment, error)
	Commit(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}
