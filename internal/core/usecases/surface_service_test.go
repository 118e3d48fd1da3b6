package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/usecases"
)

func newSurface(t *testing.T) (*usecases.SurfaceService, *mockSessions, *mockNotifier, string) {
	t.Helper()
	store := newMockSessions()
	n := &mockNotifier{}
	svc := usecases.NewSurfaceService(store, n, usecases.SurfaceConfig{BrowserKey: "browser-key"})
	sess, err := svc.CreateSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return svc, store, n, sess.ID
}

func TestSurfaceService_CreateSession_Defaults(t *testing.T) {
	svc, _, _, id := newSurface(t)

	sess, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Mode != domain.ModeIdle {
		t.Errorf("expected idle, got %s", sess.Mode)
	}
	if sess.Center != usecases.DefaultCenter || sess.Zoom != 15 {
		t.Errorf("unexpected center/zoom %+v %d", sess.Center, sess.Zoom)
	}
}

func TestSurfaceService_CreateSession_InvalidCenter(t *testing.T) {
	svc := usecases.NewSurfaceService(newMockSessions(), nil, usecases.SurfaceConfig{})
	_, err := svc.CreateSession(context.Background(), &domain.GeoPoint{Lat: 91})
	if !errors.Is(err, domain.ErrInvalidPoint) {
		t.Fatalf("expected ErrInvalidPoint, got %v", err)
	}
}

func TestSurfaceService_DrawingTransitions(t *testing.T) {
	svc, _, _, id := newSurface(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		sess, err := svc.StartDrawing(ctx, id)
		if err != nil {
			t.Fatalf("start drawing: %v", err)
		}
		if sess.Mode != domain.ModeDrawing {
			t.Fatalf("expected drawing, got %s", sess.Mode)
		}
	}
	for i := 0; i < 2; i++ {
		sess, err := svc.StopDrawing(ctx, id)
		if err != nil {
			t.Fatalf("stop drawing: %v", err)
		}
		if sess.Mode != domain.ModeIdle {
			t.Fatalf("expected idle, got %s", sess.Mode)
		}
	}
}

func TestSurfaceService_CompletePolygon(t *testing.T) {
	svc, _, n, id := newSurface(t)
	ctx := context.Background()

	if _, err := svc.StartDrawing(ctx, id); err != nil {
		t.Fatal(err)
	}
	closed := append(unitSquare(), domain.GeoPoint{Lat: 0, Lon: 0})
	sess, err := svc.CompletePolygon(ctx, id, closed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Mode != domain.ModeIdle {
		t.Errorf("expected auto-transition to idle, got %s", sess.Mode)
	}
	if len(sess.Polygon) != 4 {
		t.Errorf("expected 4 stored vertices, got %d", len(sess.Polygon))
	}
	sent := n.all()
	if len(sent) != 1 || sent[0].Message != usecases.MsgAreaSelected {
		t.Errorf("unexpected notifications %+v", sent)
	}
}

func TestSurfaceService_CompletePolygon_ReplacesPrevious(t *testing.T) {
	svc, _, _, id := newSurface(t)
	ctx := context.Background()

	_, _ = svc.StartDrawing(ctx, id)
	_, _ = svc.CompletePolygon(ctx, id, unitSquare())
	_, _ = svc.StartDrawing(ctx, id)
	tri := domain.Polygon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 2}, {Lat: 2, Lon: 0}}
	sess, err := svc.CompletePolygon(ctx, id, tri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Polygon) != 3 || sess.Polygon[1].Lon != 2 {
		t.Errorf("expected the triangle to replace the square, got %+v", sess.Polygon)
	}
}

func TestSurfaceService_CompletePolygon_NotDrawing(t *testing.T) {
	svc, _, n, id := newSurface(t)
	_, err := svc.CompletePolygon(context.Background(), id, unitSquare())
	if !errors.Is(err, domain.ErrNotDrawing) {
		t.Fatalf("expected ErrNotDrawing, got %v", err)
	}
	if len(n.all()) != 0 {
		t.Error("expected no notification")
	}
}

func TestSurfaceService_CompletePolygon_TooSmall(t *testing.T) {
	svc, store, _, id := newSurface(t)
	ctx := context.Background()
	_, _ = svc.StartDrawing(ctx, id)

	_, err := svc.CompletePolygon(ctx, id, domain.Polygon{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}})
	if !errors.Is(err, domain.ErrPolygonTooSmall) {
		t.Fatalf("expected ErrPolygonTooSmall, got %v", err)
	}
	sess, _ := store.Get(ctx, id)
	if sess.Mode != domain.ModeDrawing {
		t.Errorf("expected to stay in drawing mode, got %s", sess.Mode)
	}
}

func TestSurfaceService_RecenterKeepsMode(t *testing.T) {
	svc, _, _, id := newSurface(t)
	ctx := context.Background()
	_, _ = svc.StartDrawing(ctx, id)

	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	sess, err := svc.Recenter(ctx, id, center)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Center != center || sess.Mode != domain.ModeDrawing {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestSurfaceService_Discard(t *testing.T) {
	svc, _, _, id := newSurface(t)
	ctx := context.Background()

	if err := svc.Discard(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Discard(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second discard, got %v", err)
	}
}

func TestSurfaceService_MapConfig(t *testing.T) {
	svc, _, _, _ := newSurface(t)
	cfg := svc.MapConfig()

	if cfg.APIKey != "browser-key" || cfg.Zoom != 15 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Styles) != 4 || cfg.Styles[0].Stylers[0]["visibility"] != "off" {
		t.Errorf("unexpected styles %+v", cfg.Styles)
	}
	if cfg.PolygonOptions.FillOpacity != 0.2 || !cfg.PolygonOptions.Editable {
		t.Errorf("unexpected polygon options %+v", cfg.PolygonOptions)
	}
}
