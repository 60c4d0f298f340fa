package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

const auditCollection = "audit_log"

// AuditRepository is the durable sink for the audit trail. Entries are
// append-only; nothing in the API reads them back.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEntry struct {
	Actor      string `bson:"actor,omitempty"`
	Action     string `bson:"action"`
	Subject    string `bson:"subject,omitempty"`
	OccurredAt int64  `bson:"occurred_at"`
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	doc := mongoAuditEntry{
		Actor:      entry.Actor,
		Action:     entry.Action,
		Subject:    entry.Subject,
		OccurredAt: entry.OccurredAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
