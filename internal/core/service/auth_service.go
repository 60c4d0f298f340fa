package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/pricing-api/internal/core/domain"
	"github.com/cargoflow/pricing-api/internal/core/ports"
)

// AuthService implements registration and login. All collaborators are
// injected; the service itself keeps no state between calls.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	audit  ports.AuditRecorder
	logger zerolog.Logger

	// decoyHash is verified against on the unknown-email login path so
	// that path costs roughly the same as a real password check. Without
	// it, response latency would reveal whether an email is registered.
	decoyHash string
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, audit ports.AuditRecorder, logger zerolog.Logger) (*AuthService, error) {
	decoy, err := hasher.Hash("decoy-credential")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		audit:     audit,
		logger:    logger,
		decoyHash: decoy,
	}, nil
}

// Register creates a user with the password hashed before persistence.
// The email is the natural key: trimmed and lowercased before any lookup
// or insert. The repository's uniqueness constraint, not a pre-check,
// decides concurrent registrations of the same email.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		s.logger.Warn().Str("role", role).Msg("registration with invalid role")
		return nil, domain.ErrInvalidRole
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error().Err(err).Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().Str("email", email).Str("role", role).Msg("user registered")
	s.audit.Record(domain.AuditEntry{Actor: email, Action: "user.registered", Subject: role, OccurredAt: now})
	return created, nil
}

// Login verifies the credentials and issues a signed token bound to the
// user's id and role. An unknown email and a wrong password are
// deliberately indistinguishable: same error, comparable latency.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.decoyHash)
			s.logger.Warn().Str("email", email).Msg("failed login attempt")
			return "", nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("user lookup failed")
		return "", nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn().Str("email", email).Msg("failed login attempt")
		return "", nil, domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("token issuance failed")
		return "", nil, err
	}

	s.logger.Info().Str("email", email).Msg("successful login")
	s.audit.Record(domain.AuditEntry{Actor: email, Action: "user.login", OccurredAt: time.Now().UTC()})
	return signed, user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
