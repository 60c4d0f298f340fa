package handler

import "github.com/cargoflow/pricing-api/internal/core/domain"

type pricingRuleRequest struct {
	CargoType          string  `json:"cargo_type"          validate:"required,oneof=perishable fragile general"`
	BasePrice          float64 `json:"base_price"          validate:"gte=0"`
	WeightMultiplier   float64 `json:"weight_multiplier"   validate:"gte=0"`
	DistanceMultiplier float64 `json:"distance_multiplier" validate:"gte=0"`
}

type quoteRequest struct {
	CargoType string  `json:"cargo_type" validate:"required,oneof=perishable fragile general"`
	Weight    float64 `json:"weight"     validate:"gte=0"`
	Distance  float64 `json:"distance"   validate:"gte=0"`
}

type quoteResponse struct {
	CargoType string  `json:"cargo_type"`
	Cost      float64 `json:"cost"`
}

type pricingRuleResponse struct {
	Rule *domain.PricingRule `json:"rule"`
}
