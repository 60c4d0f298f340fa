package domain

import (
	"errors"
	"time"
)

// CargoType classifies a shipment for pricing purposes.
type CargoType string

const (
	CargoPerishable CargoType = "perishable"
	CargoFragile    CargoType = "fragile"
	CargoGeneral    CargoType = "general"
)

// Valid reports whether the cargo type belongs to the closed set.
func (c CargoType) Valid() bool {
	switch c {
	case CargoPerishable, CargoFragile, CargoGeneral:
		return true
	}
	return false
}

var (
	ErrInvalidCargoType = errors.New("invalid cargo type")
	ErrDuplicateRule    = errors.New("pricing rule already exists")
	ErrRuleNotFound     = errors.New("pricing rule not found")
	ErrInvalidAmount    = errors.New("amount must not be negative")
)

// PricingRule holds the cost parameters for one cargo type. At most one
// rule exists per cargo type; the collection's unique index enforces it.
type PricingRule struct {
	ID                 string    `json:"id"`
	CargoType          CargoType `json:"cargo_type"`
	BasePrice          float64   `json:"base_price"`
	WeightMultiplier   float64   `json:"weight_multiplier"`
	DistanceMultiplier float64   `json:"distance_multiplier"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Cost computes the shipping cost for the given weight and distance.
func (r *PricingRule) Cost(weight, distance float64) float64 {
	return r.BasePrice + weight*r.WeightMultiplier + distance*r.DistanceMultiplier
}
