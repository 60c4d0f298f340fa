package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cargoflow/pricing-api/internal/core/domain"
	"github.com/cargoflow/pricing-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository and cache
// ---------------------------------------------------------------------------

type stubPricingRepo struct {
	byCargoType map[domain.CargoType]*domain.PricingRule
	listErr     error
	nextID      int
}

func newStubPricingRepo() *stubPricingRepo {
	return &stubPricingRepo{byCargoType: make(map[domain.CargoType]*domain.PricingRule)}
}

func cloneRule(r *domain.PricingRule) *domain.PricingRule {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

func (r *stubPricingRepo) Insert(_ context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	if _, exists := r.byCargoType[rule.CargoType]; exists {
		return nil, domain.ErrDuplicateRule
	}
	copy := cloneRule(rule)
	r.nextID++
	copy.ID = "rule_" + strconv.Itoa(r.nextID)
	r.byCargoType[copy.CargoType] = cloneRule(copy)
	return cloneRule(copy), nil
}

func (r *stubPricingRepo) FindByCargoType(_ context.Context, ct domain.CargoType) (*domain.PricingRule, error) {
	rule, ok := r.byCargoType[ct]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	return cloneRule(rule), nil
}

func (r *stubPricingRepo) Upsert(_ context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	copy := cloneRule(rule)
	if existing, ok := r.byCargoType[rule.CargoType]; ok {
		copy.ID = existing.ID
		copy.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		copy.ID = "rule_" + strconv.Itoa(r.nextID)
	}
	r.byCargoType[copy.CargoType] = cloneRule(copy)
	return cloneRule(copy), nil
}

func (r *stubPricingRepo) Delete(_ context.Context, id string) error {
	for ct, rule := range r.byCargoType {
		if rule.ID == id {
			delete(r.byCargoType, ct)
			return nil
		}
	}
	return domain.ErrRuleNotFound
}

func (r *stubPricingRepo) List(_ context.Context, offset, limit int) ([]domain.PricingRule, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	all := make([]domain.PricingRule, 0, len(r.byCargoType))
	for _, ct := range []domain.CargoType{domain.CargoPerishable, domain.CargoFragile, domain.CargoGeneral} {
		if rule, ok := r.byCargoType[ct]; ok {
			all = append(all, *rule)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type stubRuleCache struct {
	entries     map[domain.CargoType]*domain.PricingRule
	gets, hits  int
	invalidated []domain.CargoType
}

func newStubRuleCache() *stubRuleCache {
	return &stubRuleCache{entries: make(map[domain.CargoType]*domain.PricingRule)}
}

func (c *stubRuleCache) Get(_ context.Context, ct domain.CargoType) (*domain.PricingRule, error) {
	c.gets++
	if rule, ok := c.entries[ct]; ok {
		c.hits++
		return cloneRule(rule), nil
	}
	return nil, nil
}

func (c *stubRuleCache) Set(_ context.Context, rule *domain.PricingRule) error {
	c.entries[rule.CargoType] = cloneRule(rule)
	return nil
}

func (c *stubRuleCache) Invalidate(_ context.Context, ct domain.CargoType) error {
	delete(c.entries, ct)
	c.invalidated = append(c.invalidated, ct)
	return nil
}

func newTestPricingService(repo *stubPricingRepo, cache ports.RuleCache) *PricingService {
	return NewPricingService(repo, cache, nopAudit{}, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPricingService_CreateRule(t *testing.T) {
	svc := newTestPricingService(newStubPricingRepo(), nil)

	rule, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{
		CargoType:          domain.CargoFragile,
		BasePrice:          100,
		WeightMultiplier:   2,
		DistanceMultiplier: 0.5,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if rule.ID == "" {
		t.Fatalf("expected assigned id")
	}

	if _, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{
		CargoType: domain.CargoFragile, BasePrice: 1,
	}); !errors.Is(err, domain.ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}
}

func TestPricingService_CreateRule_Validation(t *testing.T) {
	svc := newTestPricingService(newStubPricingRepo(), nil)

	if _, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{CargoType: "liquid"}); !errors.Is(err, domain.ErrInvalidCargoType) {
		t.Fatalf("expected ErrInvalidCargoType, got %v", err)
	}
	if _, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{
		CargoType: domain.CargoGeneral, BasePrice: -1,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPricingService_CalculateCost(t *testing.T) {
	repo := newStubPricingRepo()
	svc := newTestPricingService(repo, nil)

	if _, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{
		CargoType:          domain.CargoPerishable,
		BasePrice:          50,
		WeightMultiplier:   3,
		DistanceMultiplier: 0.25,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	cost, err := svc.CalculateCost(context.Background(), ports.QuoteInput{
		CargoType: domain.CargoPerishable, Weight: 10, Distance: 200,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if want := 50 + 10*3 + 200*0.25; cost != want {
		t.Fatalf("cost = %v, want %v", cost, want)
	}

	if _, err := svc.CalculateCost(context.Background(), ports.QuoteInput{
		CargoType: domain.CargoGeneral, Weight: 1, Distance: 1,
	}); !errors.Is(err, domain.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound for missing rule, got %v", err)
	}
}

func TestPricingService_CalculateCost_CacheReadThrough(t *testing.T) {
	repo := newStubPricingRepo()
	cache := newStubRuleCache()
	svc := newTestPricingService(repo, cache)

	if _, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{
		CargoType: domain.CargoGeneral, BasePrice: 10, WeightMultiplier: 1, DistanceMultiplier: 1,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	quote := ports.QuoteInput{CargoType: domain.CargoGeneral, Weight: 2, Distance: 3}
	if _, err := svc.CalculateCost(context.Background(), quote); err != nil {
		t.Fatalf("first calculate: %v", err)
	}
	if _, err := svc.CalculateCost(context.Background(), quote); err != nil {
		t.Fatalf("second calculate: %v", err)
	}

	if cache.gets != 2 || cache.hits != 1 {
		t.Fatalf("expected 2 gets / 1 hit, got %d gets / %d hits", cache.gets, cache.hits)
	}
}

func TestPricingService_UpdateRule_Upserts(t *testing.T) {
	repo := newStubPricingRepo()
	cache := newStubRuleCache()
	svc := newTestPricingService(repo, cache)

	// Updating an absent cargo type creates the rule.
	updated, err := svc.UpdateRule(context.Background(), ports.CreateRuleInput{
		CargoType: domain.CargoFragile, BasePrice: 75, WeightMultiplier: 1, DistanceMultiplier: 1,
	})
	if err != nil {
		t.Fatalf("upsert create: %v", err)
	}
	if updated.ID == "" {
		t.Fatalf("expected assigned id on upsert create")
	}

	updated, err = svc.UpdateRule(context.Background(), ports.CreateRuleInput{
		CargoType: domain.CargoFragile, BasePrice: 80, WeightMultiplier: 1, DistanceMultiplier: 1,
	})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if updated.BasePrice != 80 {
		t.Fatalf("base price = %v, want 80", updated.BasePrice)
	}
	if len(cache.invalidated) == 0 {
		t.Fatalf("expected cache invalidation after update")
	}
}

func TestPricingService_DeleteRule(t *testing.T) {
	repo := newStubPricingRepo()
	svc := newTestPricingService(repo, nil)

	rule, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{
		CargoType: domain.CargoGeneral, BasePrice: 10,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if err := svc.DeleteRule(context.Background(), rule.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteRule(context.Background(), rule.ID); !errors.Is(err, domain.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound on second delete, got %v", err)
	}
}

func TestPricingService_ListRules_Pagination(t *testing.T) {
	repo := newStubPricingRepo()
	svc := newTestPricingService(repo, nil)

	for _, ct := range []domain.CargoType{domain.CargoPerishable, domain.CargoFragile, domain.CargoGeneral} {
		if _, err := svc.CreateRule(context.Background(), ports.CreateRuleInput{CargoType: ct, BasePrice: 1}); err != nil {
			t.Fatalf("create %s: %v", ct, err)
		}
	}

	page, err := svc.ListRules(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Rules) != 2 || page.TotalRecords != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, err = svc.ListRules(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.Rules) != 1 || page.CurrentPage != 2 {
		t.Fatalf("unexpected second page: %+v", page)
	}

	// Out-of-range inputs fall back to defaults.
	page, err = svc.ListRules(context.Background(), 0, -5)
	if err != nil {
		t.Fatalf("list with defaults: %v", err)
	}
	if page.CurrentPage != 1 || len(page.Rules) != 3 {
		t.Fatalf("unexpected defaulted page: %+v", page)
	}
}
