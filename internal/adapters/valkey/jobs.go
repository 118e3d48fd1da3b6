package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// JobStore implements ports.JobStore on Valkey. Job records live as long as
// their documents.
type JobStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewJobStore creates a JobStore whose records expire after ttl.
func NewJobStore(cache *Cache, ttl time.Duration) *JobStore {
	return &JobStore{cache: cache, ttl: ttl}
}

func (s *JobStore) SaveJob(ctx context.Context, job *domain.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cache.key("job", job.ID), data, s.ttl)
}

func (s *JobStore) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	data, err := s.cache.Get(ctx, s.cache.key("job", id))
	if errors.Is(err, errMiss) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	var job domain.ExportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

func (s *JobStore) PutDocument(ctx context.Context, jobID string, data []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, s.cache.key("job", jobID, "document"), data, ttl)
}

func (s *JobStore) GetDocument(ctx context.Context, jobID string) ([]byte, error) {
	data, err := s.cache.Get(ctx, s.cache.key("job", jobID, "document"))
	if errors.Is(err, errMiss) {
		return nil, domain.ErrJobNotFound
	}
	return data, err
}
