package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/pkg/metrics"
)

// DefaultCenter is New York City.
var DefaultCenter = domain.GeoPoint{Lat: 40.7128, Lon: -74.0060}

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 15

// SurfaceConfig holds what the map widget is initialised with.
type SurfaceConfig struct {
	Center     domain.GeoPoint
	Zoom       int
	BrowserKey string
	Canvas     domain.Canvas
}

// SurfaceService drives the per-session Idle/Drawing state machine.
type SurfaceService struct {
	sessions ports.SessionStore
	notifier ports.Notifier
	cfg      SurfaceConfig
	now      func() time.Time
}

// NewSurfaceService creates a new SurfaceService.
func NewSurfaceService(sessions ports.SessionStore, notifier ports.Notifier, cfg SurfaceConfig) *SurfaceService {
	if cfg.Zoom <= 0 {
		cfg.Zoom = DefaultZoom
	}
	if cfg.Center == (domain.GeoPoint{}) {
		cfg.Center = DefaultCenter
	}
	if cfg.Canvas == (domain.Canvas{}) {
		cfg.Canvas = domain.DefaultCanvas
	}
	return &SurfaceService{
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MapConfig returns the widget configuration.
func (s *SurfaceService) MapConfig() domain.MapConfig {
	return domain.MapConfig{
		APIKey:         s.cfg.BrowserKey,
		Libraries:      []string{"drawing", "geometry", "places"},
		Center:         s.cfg.Center,
		Zoom:           s.cfg.Zoom,
		Styles:         domain.DefaultMapStyles(),
		PolygonOptions: domain.DefaultPolygonOptions,
		Canvas:         s.cfg.Canvas,
	}
}

// CreateSession starts an Idle session centred on center, or on the
// configured default when center is nil.
func (s *SurfaceService) CreateSession(ctx context.Context, center *domain.GeoPoint) (*domain.Session, error) {
	c := s.cfg.Center
	if center != nil {
		if err := center.Validate(); err != nil {
			return nil, err
		}
		c = *center
	}

	now := s.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Mode:      domain.ModeIdle,
		Center:    c,
		Zoom:      s.cfg.Zoom,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	metrics.SessionsCreated.Inc()
	return sess, nil
}

// Get returns the session's current state.
func (s *SurfaceService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.Get(ctx, id)
}

// StartDrawing moves Idle to Drawing. Already drawing is a no-op.
func (s *SurfaceService) StartDrawing(ctx context.Context, id string) (*domain.Session, error) {
	return s.update(ctx, id, func(sess *domain.Session) error {
		sess.Mode = domain.ModeDrawing
		return nil
	})
}

// StopDrawing moves Drawing to Idle. Already idle is a no-op.
func (s *SurfaceService) StopDrawing(ctx context.Context, id string) (*domain.Session, error) {
	return s.update(ctx, id, func(sess *domain.Session) error {
		sess.Mode = domain.ModeIdle
		return nil
	})
}

// CompletePolygon stores the finished drawing, replacing any earlier polygon,
// and returns the surface to Idle.
func (s *SurfaceService) CompletePolygon(ctx context.Context, id string, poly domain.Polygon) (*domain.Session, error) {
	sess, err := s.update(ctx, id, func(sess *domain.Session) error {
		if sess.Mode != domain.ModeDrawing {
			return domain.ErrNotDrawing
		}
		if err := poly.Validate(); err != nil {
			return err
		}
		sess.Polygon = append(domain.Polygon(nil), poly.Vertices()...)
		sess.Mode = domain.ModeIdle
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, id, domain.LevelSuccess, MsgAreaSelected)
	return sess, nil
}

// Recenter pans the view. The draw state is left alone.
func (s *SurfaceService) Recenter(ctx context.Context, id string, center domain.GeoPoint) (*domain.Session, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(sess *domain.Session) error {
		sess.Center = center
		return nil
	})
}

// Discard drops the session and its polygon.
func (s *SurfaceService) Discard(ctx context.Context, id string) error {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

func (s *SurfaceService) update(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
