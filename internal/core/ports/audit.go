package ports

import (
	"context"

	"github.com/cargoflow/pricing-api/internal/core/domain"
)

// AuditRecorder accepts audit entries for asynchronous persistence.
// Record must not block the calling request and must never fail it.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}

// AuditRepository is the durable sink for audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
}
