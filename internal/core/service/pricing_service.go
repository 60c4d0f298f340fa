package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cargoflow/pricing-api/internal/core/domain"
	"github.com/cargoflow/pricing-api/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// PricingService manages pricing rules and cost calculation.
type PricingService struct {
	repo   ports.PricingRepository
	cache  ports.RuleCache
	audit  ports.AuditRecorder
	logger zerolog.Logger
}

func NewPricingService(repo ports.PricingRepository, cache ports.RuleCache, audit ports.AuditRecorder, logger zerolog.Logger) *PricingService {
	return &PricingService{repo: repo, cache: cache, audit: audit, logger: logger}
}

// CreateRule registers a new pricing rule for a cargo type. The
// existence pre-check is advisory only; under concurrent creates the
// repository's unique index has the final word.
func (s *PricingService) CreateRule(ctx context.Context, input ports.CreateRuleInput) (*domain.PricingRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByCargoType(ctx, input.CargoType); err == nil && existing != nil {
		return nil, domain.ErrDuplicateRule
	}

	now := time.Now().UTC()
	rule := &domain.PricingRule{
		CargoType:          input.CargoType,
		BasePrice:          input.BasePrice,
		WeightMultiplier:   input.WeightMultiplier,
		DistanceMultiplier: input.DistanceMultiplier,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.repo.Insert(ctx, rule)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRule) {
			return nil, domain.ErrDuplicateRule
		}
		s.logger.Error().Err(err).Str("cargo_type", string(input.CargoType)).Msg("failed to create pricing rule")
		return nil, err
	}

	s.logger.Info().Str("cargo_type", string(input.CargoType)).Msg("pricing rule created")
	s.audit.Record(domain.AuditEntry{Action: "pricing.created", Subject: string(input.CargoType), OccurredAt: now})
	return created, nil
}

// CalculateCost computes base + weight*wm + distance*dm for the rule
// matching the cargo type. Lookups go through the cache when one is
// configured; cache faults fall back to the repository.
func (s *PricingService) CalculateCost(ctx context.Context, input ports.QuoteInput) (float64, error) {
	if !input.CargoType.Valid() {
		return 0, domain.ErrInvalidCargoType
	}
	if input.Weight < 0 || input.Distance < 0 {
		return 0, domain.ErrInvalidAmount
	}

	rule, err := s.lookupRule(ctx, input.CargoType)
	if err != nil {
		return 0, err
	}
	return rule.Cost(input.Weight, input.Distance), nil
}

// ListRules returns one page of pricing rules. Page and limit fall back
// to 1 and 10 when out of range.
func (s *PricingService) ListRules(ctx context.Context, page, limit int) (*ports.RulePage, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}

	rules, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list pricing rules")
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.RulePage{
		Rules:        rules,
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: total,
	}, nil
}

// UpdateRule replaces the rule for a cargo type, creating it when absent
// (upsert), and drops any cached copy.
func (s *PricingService) UpdateRule(ctx context.Context, input ports.CreateRuleInput) (*domain.PricingRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := s.repo.Upsert(ctx, &domain.PricingRule{
		CargoType:          input.CargoType,
		BasePrice:          input.BasePrice,
		WeightMultiplier:   input.WeightMultiplier,
		DistanceMultiplier: input.DistanceMultiplier,
		UpdatedAt:          now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("cargo_type", string(input.CargoType)).Msg("failed to update pricing rule")
		return nil, err
	}

	s.invalidate(ctx, input.CargoType)
	s.logger.Info().Str("cargo_type", string(input.CargoType)).Msg("pricing rule updated")
	s.audit.Record(domain.AuditEntry{Action: "pricing.updated", Subject: string(input.CargoType), OccurredAt: now})
	return updated, nil
}

// DeleteRule removes a pricing rule by id.
func (s *PricingService) DeleteRule(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return domain.ErrRuleNotFound
		}
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete pricing rule")
		return err
	}

	// The cargo type is unknown after a delete by id; drop every cached
	// rule rather than serving a stale price.
	for _, ct := range []domain.CargoType{domain.CargoPerishable, domain.CargoFragile, domain.CargoGeneral} {
		s.invalidate(ctx, ct)
	}

	s.logger.Info().Str("id", id).Msg("pricing rule deleted")
	s.audit.Record(domain.AuditEntry{Action: "pricing.deleted", Subject: id, OccurredAt: time.Now().UTC()})
	return nil
}

func (s *PricingService) lookupRule(ctx context.Context, cargoType domain.CargoType) (*domain.PricingRule, error) {
	if s.cache != nil {
		if rule, err := s.cache.Get(ctx, cargoType); err != nil {
			s.logger.Warn().Err(err).Msg("rule cache read failed")
		} else if rule != nil {
			return rule, nil
		}
	}

	rule, err := s.repo.FindByCargoType(ctx, cargoType)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rule); err != nil {
			s.logger.Warn().Err(err).Msg("rule cache write failed")
		}
	}
	return rule, nil
}

func (s *PricingService) invalidate(ctx context.Context, cargoType domain.CargoType) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cargoType); err != nil {
		s.logger.Warn().Err(err).Str("cargo_type", string(cargoType)).Msg("rule cache invalidation failed")
	}
}

func validateRuleInput(input ports.CreateRuleInput) error {
	if !input.CargoType.Valid() {
		return domain.ErrInvalidCargoType
	}
	if input.BasePrice < 0 || input.WeightMultiplier < 0 || input.DistanceMultiplier < 0 {
		return domain.ErrInvalidAmount
	}
	return nil
}
