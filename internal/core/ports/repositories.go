package ports

import (
	"context"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// SessionStore keeps Map Surface sessions for their lifetime.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	// AcquireExport sets the exporting flag; it returns false if it was already set.
	AcquireExport(ctx context.Context, id string) (bool, error)
	ReleaseExport(ctx context.Context, id string) error
}

// JobStore keeps async export records and their finished documents.
type JobStore interface {
	SaveJob(ctx context.Context, job *domain.ExportJob) error
	GetJob(ctx context.Context, id string) (*domain.ExportJob, error)
	PutDocument(ctx context.Context, jobID string, data []byte, ttl time.Duration) error
	GetDocument(ctx context.Context, jobID string) ([]byte, error)
}
