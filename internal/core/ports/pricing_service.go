package ports

import (
	"context"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

// CreateRuleInput carries the parameters for a new pricing rule.
type CreateRuleInput struct {
	CargoType          domain.CargoType
	BasePrice          float64
	WeightMultiplier   float64
	DistanceMultiplier float64
}

// QuoteInput carries the parameters of a cost calculation.
type QuoteInput struct {
	CargoType domain.CargoType
	Weight    float64
	Distance  float64
}

// RulePage is one page of pricing rules plus pagination metadata.
type RulePage struct {
	Rules        []domain.PricingRule `json:"data"`
	CurrentPage  int                  `json:"current_page"`
	TotalPages   int                  `json:"total_pages"`
	TotalRecords int64                `json:"total_records"`
}

type PricingService interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*domain.PricingRule, error)
	CalculateCost(ctx context.Context, input QuoteInput) (float64, error)
	ListRules(ctx context.Context, page, limit int) (*RulePage, error)
	UpdateRule(ctx context.Context, input CreateRuleInput) (*domain.PricingRule, error)
	DeleteRule(ctx context.Context, id string) error
}
