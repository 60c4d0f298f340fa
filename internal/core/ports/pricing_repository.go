package ports

import (
	"context"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

// PricingRepository persists pricing rules. Insert returns
// domain.ErrDuplicateRule when a rule for the cargo type already exists.
type PricingRepository interface {
	Insert(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error)
	FindByCargoType(ctx context.Context, cargoType domain.CargoType) (*domain.PricingRule, error)
	Upsert(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]domain.PricingRule, int64, error)
}

// RuleCache is an optional read-through cache in front of rule lookups.
// A cache miss or fault is never fatal; implementations return (nil, nil)
// on miss and callers fall back to the repository.
type RuleCache interface {
	Get(ctx context.Context, cargoType domain.CargoType) (*domain.PricingRule, error)
	Set(ctx context.Context, rule *domain.PricingRule) error
	Invalidate(ctx context.Context, cargoType domain.CargoType) error
}
