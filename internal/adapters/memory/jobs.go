package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
)

type document struct {
	data      []byte
	expiresAt time.Time
}

// JobStore implements ports.JobStore in memory.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.ExportJob
	docs map[string]document
	now  func() time.Time
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.ExportJob),
		docs: make(map[string]document),
		now:  time.Now,
	}
}

func (s *JobStore) SaveJob(ctx context.Context, job *domain.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	cp.ID = strings.Clone(job.ID)
	cp.SessionID = strings.Clone(job.SessionID)
	cp.Filename = strings.Clone(job.Filename)
	cp.Error = strings.Clone(job.Error)
	s.jobs[cp.ID] = cp
	return nil
}

func (s *JobStore) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (s *JobStore) PutDocument(ctx context.Context, jobID string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := document{data: append([]byte(nil), data...)}
	if ttl > 0 {
		d.expiresAt = s.now().Add(ttl)
	}
	s.docs[strings.Clone(jobID)] = d
	return nil
}

func (s *JobStore) GetDocument(ctx context.Context, jobID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[jobID]
	if !ok || (!d.expiresAt.IsZero() && s.now().After(d.expiresAt)) {
		delete(s.docs, jobID)
		return nil, domain.ErrJobNotFound
	}
	return d.data, nil
}
