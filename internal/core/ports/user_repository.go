package ports

import (
	"context"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

// UserRepository defines the interface for user credential persistence.
// Insert returns domain.ErrDuplicateEmail when the email is already taken;
// the store's uniqueness constraint is the sole arbiter of that race.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
}
