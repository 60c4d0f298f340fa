package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

const pricingCollection = "pricing_rules"

// PricingRepository persists pricing rules, one document per cargo type.
type PricingRepository struct {
	coll *mongo.Collection
}

func NewPricingRepository(db *mongo.Database) *PricingRepository {
	return &PricingRepository{coll: db.Collection(pricingCollection)}
}

type mongoRule struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	CargoType          string             `bson:"cargo_type"`
	BasePrice          float64            `bson:"base_price"`
	WeightMultiplier   float64            `bson:"weight_multiplier"`
	DistanceMultiplier float64            `bson:"distance_multiplier"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func (mr *mongoRule) toDomain() *domain.PricingRule {
	return &domain.PricingRule{
		ID:                 mr.ID.Hex(),
		CargoType:          domain.CargoType(mr.CargoType),
		BasePrice:          mr.BasePrice,
		WeightMultiplier:   mr.WeightMultiplier,
		DistanceMultiplier: mr.DistanceMultiplier,
		CreatedAt:          mr.CreatedAt.UTC(),
		UpdatedAt:          mr.UpdatedAt.UTC(),
	}
}

func (r *PricingRepository) Insert(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	doc := mongoRule{
		CargoType:          string(rule.CargoType),
		BasePrice:          rule.BasePrice,
		WeightMultiplier:   rule.WeightMultiplier,
		DistanceMultiplier: rule.DistanceMultiplier,
		CreatedAt:          rule.CreatedAt,
		UpdatedAt:          rule.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRule
		}
		return nil, fmt.Errorf("%w: insert pricing rule: %v", domain.ErrStoreUnavailable, err)
	}

	created := *rule
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *PricingRepository) FindByCargoType(ctx context.Context, cargoType domain.CargoType) (*domain.PricingRule, error) {
	var mr mongoRule
	if err := r.coll.FindOne(ctx, bson.M{"cargo_type": string(cargoType)}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("%w: find pricing rule: %v", domain.ErrStoreUnavailable, err)
	}
	return mr.toDomain(), nil
}

// Upsert replaces the rule for a cargo type, inserting it when absent.
func (r *PricingRepository) Upsert(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	filter := bson.M{"cargo_type": string(rule.CargoType)}
	update := bson.M{
		"$set": bson.M{
			"base_price":          rule.BasePrice,
			"weight_multiplier":   rule.WeightMultiplier,
			"distance_multiplier": rule.DistanceMultiplier,
			"updated_at":          rule.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"cargo_type": string(rule.CargoType),
			"created_at": rule.UpdatedAt,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var mr mongoRule
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: upsert pricing rule: %v", domain.ErrStoreUnavailable, err)
	}
	return mr.toDomain(), nil
}

func (r *PricingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRuleNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%w: delete pricing rule: %v", domain.ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func (r *PricingRepository) List(ctx context.Context, offset, limit int) ([]domain.PricingRule, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: count pricing rules: %v", domain.ErrStoreUnavailable, err)
	}

	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "cargo_type", Value: 1}})

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list pricing rules: %v", domain.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var rules []domain.PricingRule
	for cur.Next(ctx) {
		var mr mongoRule
		if err := cur.Decode(&mr); err != nil {
			return nil, 0, fmt.Errorf("%w: decode pricing rule: %v", domain.ErrStoreUnavailable, err)
		}
		rules = append(rules, *mr.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterate pricing rules: %v", domain.ErrStoreUnavailable, err)
	}
	return rules, total, nil
}

// EnsureIndexes creates the unique cargo_type index. Called once at startup.
func (r *PricingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cargo_type", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
