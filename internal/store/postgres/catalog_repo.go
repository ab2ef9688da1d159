package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

type CatalogRepo struct {
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) ListServices(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Where("active").
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) GetService(ctx context.Context, id int64) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *CatalogRepo) ListEmployees(ctx context.Context, serviceID int64) ([]domain.Employee, error) {
	q := r.db.NewSelect().
		Model((*domain.Employee)(nil)).
		Where("active")
	if serviceID > 0 {
		q = q.Where("? = ANY(service_ids)", serviceID)
	}

	var rows []domain.Employee
	if err := q.OrderExpr("id ASC").Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) GetEmployee(ctx context.Context, id int64) (domain.Employee, error) {
	var emp domain.Employee
	err := r.db.NewSelect().
		Model(&emp).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Employee{}, store.ErrNotFound
		}
		return domain.Employee{}, err
	}
	return emp, nil
}
