package domain

import (
	"slices"

	"github.com/uptrace/bun"
)

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              int64  `bun:"id,pk,autoincrement"`
	Name            string `bun:"name,notnull"`
	Description     string `bun:"description"`
	DurationMinutes int    `bun:"duration_minutes,notnull"`
	Active          bool   `bun:"active,notnull"`
}

type Employee struct {
	bun.BaseModel `bun:"table:employees"`

	ID             int64   `bun:"id,pk,autoincrement"`
	Name           string  `bun:"name,notnull"`
	Specialization string  `bun:"specialization"`
	ServiceIDs     []int64 `bun:"service_ids,array"`
	Active         bool    `bun:"active,notnull"`
}

// Offers reports whether the employee performs the given service.
func (e Employee) Offers(serviceID int64) bool {
	return slices.Contains(e.ServiceIDs, serviceID)
}
