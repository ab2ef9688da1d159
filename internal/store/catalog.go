package store

import (
	"context"

	"bookline/backend/internal/domain"
)

// CatalogRepository resolves services and the employees that perform them.
type CatalogRepository interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id int64) (domain.Service, error)

	// ListEmployees returns active employees; serviceID > 0 restricts the
	// listing to employees offering that service.
	ListEmployees(ctx context.Context, serviceID int64) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, id int64) (domain.Employee, error)
}
