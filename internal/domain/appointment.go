package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CanTransitionTo permits only operator transitions out of scheduled. These
// transitions shrink the occupied set and never need booking re-validation.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s != StatusScheduled {
		return false
	}
	switch next {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID          uuid.UUID         `bun:"id,pk,type:uuid"`
	EmployeeID  int64             `bun:"employee_id,notnull"`
	ServiceID   int64             `bun:"service_id,notnull"`
	UserID      uuid.UUID         `bun:"user_id,notnull,type:uuid"`
	Date        time.Time         `bun:"date,notnull,type:date"`
	StartMinute ClockTime         `bun:"start_minute,notnull"`
	EndMinute   ClockTime         `bun:"end_minute,notnull"`
	Status      AppointmentStatus `bun:"status,notnull"`
	Notes       string            `bun:"notes"`
	CreatedAt   time.Time         `bun:"created_at,notnull"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull"`
}

// Occupied is the half-open interval during which the employee is committed.
func (a Appointment) Occupied() Interval {
	return Interval{Start: a.StartMinute, End: a.EndMinute}
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
