package store

import (
	"context"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
)

type UserRepository interface {
	// Create persists a new user, failing with ErrDuplicateEmail when the
	// email is taken.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}
