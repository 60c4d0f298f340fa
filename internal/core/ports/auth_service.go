package ports

import (
	"context"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

// AuthService covers the credential lifecycle: registration with secure
// credential storage and login with signed-token issuance.
type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// PasswordHasher is a one-way, salted password transform. Verify reports a
// mismatch as false, never as an error.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer creates signed, time-limited identity assertions.
type TokenIssuer interface {
	Issue(userID, role string) (string, error)
}
