package domain

import (
	"time"

	"github.com/uptrace/bun"
)

// AvailabilityWindow is an operator-declared open period for one employee on
// one calendar date. Multiple windows per employee per date are legitimate
// (split shifts) and may overlap or touch.
type AvailabilityWindow struct {
	bun.BaseModel `bun:"table:availability_windows"`

	ID          int64     `bun:"id,pk,autoincrement"`
	EmployeeID  int64     `bun:"employee_id,notnull"`
	Date        time.Time `bun:"date,notnull,type:date"`
	StartMinute ClockTime `bun:"start_minute,notnull"`
	EndMinute   ClockTime `bun:"end_minute,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (w AvailabilityWindow) Span() Interval {
	return Interval{Start: w.StartMinute, End: w.EndMinute}
}
