package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// --- Mock SessionStore ---

type mockSessions struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	exporting map[string]bool
	saveErr   error
	released  int
}

func newMockSessions(sessions ...*domain.Session) *mockSessions {
	m := &mockSessions{sessions: map[string]*domain.Session{}, exporting: map[string]bool{}}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *mockSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessions) Save(ctx context.Context, s *domain.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mockSessions) AcquireExport(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exporting[id] {
		return false, nil
	}
	m.exporting[id] = true
	return true, nil
}

func (m *mockSessions) ReleaseExport(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exporting, id)
	m.released++
	return nil
}

// --- Mock Notifier ---

type mockNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) all() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.sent...)
}

// --- Mock StreetSampler ---

type mockSampler struct {
	calls    int
	sampleFn func(ctx context.Context, poly domain.Polygon, canvas domain.Canvas) ([]domain.StreetSegment, error)
}

func (m *mockSampler) Sample(ctx context.Context, poly domain.Polygon, canvas domain.Canvas) ([]domain.StreetSegment, error) {
	m.calls++
	if m.sampleFn != nil {
		return m.sampleFn(ctx, poly, canvas)
	}
	return []domain.StreetSegment{}, nil
}

// --- Mock JobStore ---

type mockJobs struct {
	mu     sync.Mutex
	jobs   map[string]domain.ExportJob
	docs   map[string][]byte
	ttl    time.Duration
	saveFn func(job *domain.ExportJob) error
}

func newMockJobs() *mockJobs {
	return &mockJobs{jobs: map[string]domain.ExportJob{}, docs: map[string][]byte{}}
}

func (m *mockJobs) SaveJob(ctx context.Context, job *domain.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveFn != nil {
		if err := m.saveFn(job); err != nil {
			return err
		}
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockJobs) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (m *mockJobs) PutDocument(ctx context.Context, jobID string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[jobID] = data
	m.ttl = ttl
	return nil
}

func (m *mockJobs) GetDocument(ctx context.Context, jobID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return d, nil
}

// --- Mock EventPublisher / JobStarter ---

type mockEvents struct {
	published []domain.ExportJob
}

func (m *mockEvents) PublishExportCompleted(ctx context.Context, job *domain.ExportJob) error {
	m.published = append(m.published, *job)
	return nil
}

type mockStarter struct {
	startFn func(ctx context.Context, req domain.ExportRequest) (string, error)
	reqs    []domain.ExportRequest
}

func (m *mockStarter) StartExport(ctx context.Context, req domain.ExportRequest) (string, error) {
	m.reqs = append(m.reqs, req)
	if m.startFn != nil {
		return m.startFn(ctx, req)
	}
	return "export-" + req.JobID, nil
}

// --- Mock Locator / Geocoder ---

type mockLocator struct {
	calls    int
	locateFn func(ctx context.Context) (domain.GeoPoint, error)
}

func (m *mockLocator) Locate(ctx context.Context) (domain.GeoPoint, error) {
	m.calls++
	if m.locateFn != nil {
		return m.locateFn(ctx)
	}
	return domain.GeoPoint{}, nil
}

type mockGeocoder struct {
	calls     int
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	m.calls++
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{}, nil
}

func unitSquare() domain.Polygon {
	return domain.Polygon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}}
}
