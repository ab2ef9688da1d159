package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
)

// ListScope restricts an appointment listing to one viewer. Managers get
// Everyone(); other callers get Self(userID). The scope is an explicit input,
// not something the ledger derives from the caller.
type ListScope struct {
	all    bool
	userID uuid.UUID
}

func Everyone() ListScope { return ListScope{all: true} }

func Self(userID uuid.UUID) ListScope { return ListScope{userID: userID} }

func (s ListScope) All() bool { return s.all }

func (s ListScope) UserID() uuid.UUID { return s.userID }

// ListFilter is an optional date range; zero times mean unbounded.
type ListFilter struct {
	From time.Time
	To   time.Time
}

// AppointmentRepository is the appointment ledger: the source of truth for
// what is already committed.
type AppointmentRepository interface {
	// ScheduledFor returns scheduled appointments for the employee/date,
	// ordered by start time then creation order.
	ScheduledFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.Appointment, error)

	List(ctx context.Context, scope ListScope, filter ListFilter) ([]domain.Appointment, error)

	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)

	// UpdateStatus persists an operator status transition. Transition legality
	// is the caller's concern; the ledger only rejects unknown ids.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)

	// InBookingTx runs fn as one atomic, isolated unit per (employee, date).
	// Two concurrent calls for the same employee and date never interleave
	// between fn's reads and its commit.
	InBookingTx(ctx context.Context, employeeID int64, date time.Time, fn func(ctx context.Context, tx BookingTx) error) error
}
