package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/mapart/internal/adapters/http"
	"github.com/samirrijal/mapart/internal/adapters/memory"
	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/core/sampling"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/auth"
)

// ---- Mock ports ----

type mockPlaces struct {
	calls atomic.Int64
}

// NearestRoads reports the same road at every query point.
func (m *mockPlaces) NearestRoads(ctx context.Context, p domain.GeoPoint, radius float64) ([]domain.Place, error) {
	m.calls.Add(1)
	return []domain.Place{{ID: "road-1", Name: "Broadway", Location: p}}, nil
}

type mockLocator struct {
	locateFn func(ctx context.Context) (domain.GeoPoint, error)
}

func (m *mockLocator) Locate(ctx context.Context) (domain.GeoPoint, error) {
	return m.locateFn(ctx)
}

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	return m.geocodeFn(ctx, address)
}

// inlineStarter runs the async export inside StartExport.
type inlineStarter struct {
	exports *usecases.ExportService
}

func (s *inlineStarter) StartExport(ctx context.Context, req domain.ExportRequest) (string, error) {
	job, err := s.exports.RenderJob(ctx, req)
	if err != nil {
		job = &domain.ExportJob{ID: req.JobID, SessionID: req.SessionID, Filename: req.Filename, Status: domain.JobFailed, Error: err.Error()}
	}
	return "export-" + req.JobID, s.exports.FinishJob(ctx, job)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Test helpers ----

type envOpts struct {
	locator       ports.Locator
	geocoder      ports.Geocoder
	addressSearch bool
	async         bool
	checks        map[string]ports.Pinger
}

type testEnv struct {
	app    *fiber.App
	hub    *memory.Hub
	places *mockPlaces
}

func newEnv(t *testing.T, o envOpts) *testEnv {
	t.Helper()
	sessions := memory.NewSessionStore(time.Hour)
	hub := memory.NewHub()
	places := &mockPlaces{}
	sampler := sampling.New(places, sampling.Config{GridSize: 3, SearchRadius: 50, Concurrency: 2})

	var exports *usecases.ExportService
	if o.async {
		starter := &inlineStarter{}
		exports = usecases.NewExportService(sessions, memory.NewJobStore(), sampler, hub, nil, starter, usecases.ExportConfig{})
		starter.exports = exports
	} else {
		exports = usecases.NewExportService(sessions, nil, sampler, hub, nil, nil, usecases.ExportConfig{})
	}

	deps := &handler.Dependencies{
		Surface:  usecases.NewSurfaceService(sessions, hub, usecases.SurfaceConfig{BrowserKey: "browser-key"}),
		Location: usecases.NewLocationService(o.locator, o.geocoder, hub, o.addressSearch),
		Exports:  exports,
		Sampler:  sampler,
		Tokens:   auth.New("test-secret-0123456789", time.Hour),
		Feed:     hub,
		Checks:   o.checks,
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return &testEnv{app: app, hub: hub, places: places}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// createSession returns the new session's ID and token.
func (e *testEnv) createSession(t *testing.T) (string, string) {
	t.Helper()
	resp := e.do(t, "POST", "/v1/sessions", "", "")
	if resp.StatusCode != 201 {
		t.Fatalf("create session: expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		Session domain.Session `json:"session"`
		Token   string         `json:"token"`
	}
	decode(t, resp, &out)
	if out.Session.ID == "" || out.Token == "" {
		t.Fatalf("create session: missing id or token: %+v", out)
	}
	return out.Session.ID, out.Token
}

// drawSquare puts a small square over lower Manhattan on the session.
func (e *testEnv) drawSquare(t *testing.T, id, token string) {
	t.Helper()
	if resp := e.do(t, "POST", "/v1/sessions/"+id+"/draw/start", token, ""); resp.StatusCode != 200 {
		t.Fatalf("draw/start: expected 200, got %d", resp.StatusCode)
	}
	resp := e.do(t, "PUT", "/v1/sessions/"+id+"/polygon", token,
		`{"points":[{"lat":40.70,"lon":-74.01},{"lat":40.70,"lon":-74.00},{"lat":40.71,"lon":-74.00},{"lat":40.71,"lon":-74.01}]}`)
	if resp.StatusCode != 200 {
		t.Fatalf("polygon: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}

// collect records the session's notification messages.
func (e *testEnv) collect(t *testing.T, sessionID string) func() []string {
	t.Helper()
	var mu sync.Mutex
	var msgs []string
	cancel, err := e.hub.Subscribe(context.Background(), sessionID, func(n domain.Notification) {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, n.Message)
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cancel)
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), msgs...)
	}
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected %d, got %d: %s", status, resp.StatusCode, readBody(t, resp.Body))
	}
	var apiErr handler.APIError
	decode(t, resp, &apiErr)
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s", code, apiErr.Code)
	}
	if apiErr.RequestID == "" {
		t.Error("expected request_id in error body")
	}
}

// ---- Map surface ----

func TestMapConfig(t *testing.T) {
	e := newEnv(t, envOpts{})

	resp := e.do(t, "GET", "/v1/map/config", "", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}

	var cfg domain.MapConfig
	decode(t, resp, &cfg)
	if cfg.Zoom != 15 || cfg.Center != usecases.DefaultCenter {
		t.Errorf("unexpected view %+v zoom %d", cfg.Center, cfg.Zoom)
	}
	if cfg.APIKey != "browser-key" {
		t.Errorf("expected browser key, got %q", cfg.APIKey)
	}
	if cfg.PolygonOptions.StrokeWeight != 2 {
		t.Errorf("expected stroke weight 2, got %v", cfg.PolygonOptions.StrokeWeight)
	}
}

func TestCreateSession_WithCenter(t *testing.T) {
	e := newEnv(t, envOpts{})

	resp := e.do(t, "POST", "/v1/sessions", "", `{"center":{"lat":43.26,"lon":-2.93}}`)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Location"), "/v1/sessions/") {
		t.Errorf("missing Location header")
	}
	var out struct {
		Session domain.Session `json:"session"`
	}
	decode(t, resp, &out)
	if out.Session.Center != (domain.GeoPoint{Lat: 43.26, Lon: -2.93}) {
		t.Errorf("unexpected center %+v", out.Session.Center)
	}
	if out.Session.Mode != domain.ModeIdle {
		t.Errorf("expected idle, got %s", out.Session.Mode)
	}
}

func TestCreateSession_BadCenter(t *testing.T) {
	e := newEnv(t, envOpts{})
	expectError(t, e.do(t, "POST", "/v1/sessions", "", `{"center":{"lat":123,"lon":0}}`), 422, "unprocessable")
}

func TestSessionRoutes_Auth(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, _ := e.createSession(t)
	_, otherToken := e.createSession(t)

	expectError(t, e.do(t, "GET", "/v1/sessions/"+id, "", ""), 401, "unauthorized")
	expectError(t, e.do(t, "GET", "/v1/sessions/"+id, "not-a-jwt", ""), 401, "unauthorized")
	expectError(t, e.do(t, "GET", "/v1/sessions/"+id, otherToken, ""), 403, "forbidden")
}

func TestDrawingLifecycle(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	msgs := e.collect(t, id)

	// Completing without drawing is a precondition failure.
	expectError(t, e.do(t, "PUT", "/v1/sessions/"+id+"/polygon", token,
		`{"points":[{"lat":0,"lon":0},{"lat":0,"lon":1},{"lat":1,"lon":1}]}`), 409, "precondition_failed")

	e.drawSquare(t, id, token)

	resp := e.do(t, "GET", "/v1/sessions/"+id, token, "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}
	var sess domain.Session
	decode(t, resp, &sess)
	if sess.Mode != domain.ModeIdle {
		t.Errorf("expected auto-transition to idle, got %s", sess.Mode)
	}
	if len(sess.Polygon) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(sess.Polygon))
	}

	got := msgs()
	if len(got) != 1 || got[0] != usecases.MsgAreaSelected {
		t.Errorf("expected one area-selected notification, got %v", got)
	}
}

func TestCompletePolygon_TooFewPoints(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.do(t, "POST", "/v1/sessions/"+id+"/draw/start", token, "")

	expectError(t, e.do(t, "PUT", "/v1/sessions/"+id+"/polygon", token,
		`{"points":[{"lat":0,"lon":0},{"lat":0,"lon":1}]}`), 422, "unprocessable")
}

func TestCompletePolygon_GeoJSON(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.do(t, "POST", "/v1/sessions/"+id+"/draw/start", token, "")

	resp := e.do(t, "PUT", "/v1/sessions/"+id+"/polygon", token,
		`{"geojson":{"type":"Polygon","coordinates":[[[-74.01,40.70],[-74.00,40.70],[-74.00,40.71],[-74.01,40.70]]]}}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var sess domain.Session
	decode(t, resp, &sess)
	if len(sess.Polygon) != 3 {
		t.Errorf("expected closing vertex dropped, got %d vertices", len(sess.Polygon))
	}
}

func TestCompletePolygon_BadGeoJSON(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.do(t, "POST", "/v1/sessions/"+id+"/draw/start", token, "")

	expectError(t, e.do(t, "PUT", "/v1/sessions/"+id+"/polygon", token,
		`{"geojson":{"type":"Point","coordinates":[0,0]}}`), 400, "bad_request")
}

func TestRecenter_KeepsDrawMode(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.do(t, "POST", "/v1/sessions/"+id+"/draw/start", token, "")

	resp := e.do(t, "POST", "/v1/sessions/"+id+"/recenter", token, `{"lat":51.5,"lon":-0.12}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sess domain.Session
	decode(t, resp, &sess)
	if sess.Mode != domain.ModeDrawing {
		t.Errorf("expected drawing mode kept, got %s", sess.Mode)
	}
	if sess.Center.Lat != 51.5 {
		t.Errorf("expected new center, got %+v", sess.Center)
	}

	expectError(t, e.do(t, "POST", "/v1/sessions/"+id+"/recenter", token, `{"lat":51.5}`), 422, "unprocessable")
}

func TestDeleteSession(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)

	if resp := e.do(t, "DELETE", "/v1/sessions/"+id, token, ""); resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	expectError(t, e.do(t, "GET", "/v1/sessions/"+id, token, ""), 404, "not_found")
}

// ---- Location input ----

func TestGeolocate_Unavailable(t *testing.T) {
	e := newEnv(t, envOpts{})
	expectError(t, e.do(t, "POST", "/v1/location/geolocate", "", ""), 501, "not_implemented")
}

func TestGeolocate_RecentersSession(t *testing.T) {
	e := newEnv(t, envOpts{locator: &mockLocator{
		locateFn: func(ctx context.Context) (domain.GeoPoint, error) {
			return domain.GeoPoint{Lat: 43.263, Lon: -2.935}, nil
		},
	}})
	id, token := e.createSession(t)
	msgs := e.collect(t, id)

	resp := e.do(t, "POST", "/v1/location/geolocate", token, "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Location domain.GeoPoint `json:"location"`
	}
	decode(t, resp, &out)
	if out.Location.Lat != 43.263 {
		t.Errorf("unexpected location %+v", out.Location)
	}

	resp = e.do(t, "GET", "/v1/sessions/"+id, token, "")
	var sess domain.Session
	decode(t, resp, &sess)
	if sess.Center != out.Location {
		t.Errorf("expected session recentered, got %+v", sess.Center)
	}
	if got := msgs(); len(got) != 1 || got[0] != usecases.MsgLocationFound {
		t.Errorf("expected location-found notification, got %v", got)
	}
}

func TestGeolocate_ProviderError(t *testing.T) {
	e := newEnv(t, envOpts{locator: &mockLocator{
		locateFn: func(ctx context.Context) (domain.GeoPoint, error) {
			return domain.GeoPoint{}, errors.New("permission denied")
		},
	}})
	expectError(t, e.do(t, "POST", "/v1/location/geolocate", "", ""), 502, "bad_gateway")
}

func TestSearchAddress(t *testing.T) {
	tests := []struct {
		name    string
		opts    envOpts
		body    string
		status  int
		code    string
		wantLat float64
	}{
		{
			name:   "disabled by default",
			body:   `{"address":"Gran Via 1, Bilbao"}`,
			status: 501,
			code:   "not_implemented",
		},
		{
			name:   "empty address",
			body:   `{"address":"   "}`,
			status: 400,
			code:   "bad_request",
		},
		{
			name: "not found",
			opts: envOpts{addressSearch: true, geocoder: &mockGeocoder{
				geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
					return domain.GeoPoint{}, domain.ErrAddressNotFound
				},
			}},
			body:   `{"address":"nowhere"}`,
			status: 404,
			code:   "not_found",
		},
		{
			name: "enabled",
			opts: envOpts{addressSearch: true, geocoder: &mockGeocoder{
				geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
					return domain.GeoPoint{Lat: 43.26, Lon: -2.93}, nil
				},
			}},
			body:    `{"address":"Gran Via 1, Bilbao"}`,
			status:  200,
			wantLat: 43.26,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.opts)
			resp := e.do(t, "POST", "/v1/location/search", "", tt.body)
			if tt.code != "" {
				expectError(t, resp, tt.status, tt.code)
				return
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			var out struct {
				Location domain.GeoPoint `json:"location"`
			}
			decode(t, resp, &out)
			if out.Location.Lat != tt.wantLat {
				t.Errorf("expected lat %v, got %v", tt.wantLat, out.Location.Lat)
			}
		})
	}
}

// ---- Projection ----

func TestProject_UnitSquare(t *testing.T) {
	e := newEnv(t, envOpts{})

	resp := e.do(t, "POST", "/v1/project", "",
		`{"points":[{"lat":0,"lon":0},{"lat":0,"lon":1},{"lat":1,"lon":1},{"lat":1,"lon":0}]}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		BoundaryPath string        `json:"boundary_path"`
		Canvas       domain.Canvas `json:"canvas"`
	}
	decode(t, resp, &out)
	if want := "M 0 600 L 800 600 L 800 0 L 0 0 Z"; out.BoundaryPath != want {
		t.Errorf("expected %q, got %q", want, out.BoundaryPath)
	}
}

func TestProject_CustomCanvas(t *testing.T) {
	e := newEnv(t, envOpts{})

	resp := e.do(t, "POST", "/v1/project", "",
		`{"canvas":{"width":100,"height":50},"points":[{"lat":0,"lon":0},{"lat":0,"lon":1},{"lat":1,"lon":1},{"lat":1,"lon":0}]}`)
	var out struct {
		BoundaryPath string `json:"boundary_path"`
	}
	decode(t, resp, &out)
	if want := "M 0 50 L 100 50 L 100 0 L 0 0 Z"; out.BoundaryPath != want {
		t.Errorf("expected %q, got %q", want, out.BoundaryPath)
	}
}

func TestProject_Degenerate(t *testing.T) {
	e := newEnv(t, envOpts{})
	expectError(t, e.do(t, "POST", "/v1/project", "",
		`{"points":[{"lat":0,"lon":0},{"lat":0,"lon":1},{"lat":0,"lon":2}]}`), 422, "unprocessable")
}

func TestProject_BadBody(t *testing.T) {
	e := newEnv(t, envOpts{})
	expectError(t, e.do(t, "POST", "/v1/project", "", `{"points":`), 400, "bad_request")
}

// ---- Export ----

func TestExport_NoPolygon(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	msgs := e.collect(t, id)

	expectError(t, e.do(t, "POST", "/v1/sessions/"+id+"/export", token, ""), 409, "precondition_failed")
	if n := e.places.calls.Load(); n != 0 {
		t.Errorf("expected no places queries, got %d", n)
	}
	if got := msgs(); len(got) != 1 || got[0] != usecases.MsgDefineAreaFirst {
		t.Errorf("expected one define-area notification, got %v", got)
	}
}

func TestExport_SVGDownload(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.drawSquare(t, id, token)
	msgs := e.collect(t, id)

	resp := e.do(t, "POST", "/v1/sessions/"+id+"/export", token, `{"filename":"soho"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="soho.svg"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if n := resp.Header.Get("X-Street-Count"); n != "1" {
		t.Errorf("expected 1 street, got %s", n)
	}

	body := string(readBody(t, resp.Body))
	for _, want := range []string{`id="boundary"`, `id="street-0"`, ">Broadway</textPath>"} {
		if !strings.Contains(body, want) {
			t.Errorf("document missing %s", want)
		}
	}
	if n := e.places.calls.Load(); n != 9 {
		t.Errorf("expected 9 places queries for a 3x3 grid, got %d", n)
	}
	if got := msgs(); len(got) != 1 || got[0] != usecases.MsgExported {
		t.Errorf("expected one exported notification, got %v", got)
	}
}

func TestExport_PNG(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.drawSquare(t, id, token)

	resp := e.do(t, "POST", "/v1/sessions/"+id+"/export?format=png", token, "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="map-design.png"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if body := readBody(t, resp.Body); !strings.HasPrefix(string(body), "\x89PNG") {
		t.Error("expected PNG signature")
	}
}

func TestExport_BadFormat(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	expectError(t, e.do(t, "POST", "/v1/sessions/"+id+"/export", token, `{"format":"pdf"}`), 400, "bad_request")
}

func TestExportAsync_Unavailable(t *testing.T) {
	e := newEnv(t, envOpts{})
	id, token := e.createSession(t)
	e.drawSquare(t, id, token)

	expectError(t, e.do(t, "POST", "/v1/sessions/"+id+"/export/async", token, ""), 501, "not_implemented")
}

func TestExportAsync_JobAndDocument(t *testing.T) {
	e := newEnv(t, envOpts{async: true})
	id, token := e.createSession(t)
	e.drawSquare(t, id, token)

	resp := e.do(t, "POST", "/v1/sessions/"+id+"/export/async", token, `{"filename":"downtown.svg"}`)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var job domain.ExportJob
	decode(t, resp, &job)
	if resp.Header.Get("Location") != "/v1/exports/"+job.ID {
		t.Errorf("unexpected Location %q", resp.Header.Get("Location"))
	}

	// The owner reads the job back after other requests reused the buffers.
	_, _ = e.createSession(t)
	resp = e.do(t, "GET", "/v1/exports/"+job.ID, token, "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	decode(t, resp, &job)
	if job.Status != domain.JobDone || job.Streets != 1 {
		t.Errorf("expected done job with 1 street, got %+v", job)
	}

	resp = e.do(t, "GET", "/v1/exports/"+job.ID+"/document", token, "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="downtown.svg"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), `id="boundary"`) {
		t.Error("document missing boundary")
	}

	_, otherToken := e.createSession(t)
	expectError(t, e.do(t, "GET", "/v1/exports/"+job.ID, otherToken, ""), 404, "not_found")
	expectError(t, e.do(t, "GET", "/v1/exports/"+job.ID, "", ""), 401, "unauthorized")
}

// ---- Ops ----

func TestHealth(t *testing.T) {
	e := newEnv(t, envOpts{})
	resp := e.do(t, "GET", "/v1/health", "", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady(t *testing.T) {
	e := newEnv(t, envOpts{checks: map[string]ports.Pinger{
		"valkey": mockPinger{},
		"nats":   mockPinger{err: errors.New("connection closed")},
	}})

	resp := e.do(t, "GET", "/v1/ready", "", "")
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &out)
	if out.Checks["valkey"] != "ok" || !strings.HasPrefix(out.Checks["nats"], "error") {
		t.Errorf("unexpected checks %v", out.Checks)
	}
}

func TestGraphQL_Project(t *testing.T) {
	e := newEnv(t, envOpts{})

	q := `{"query":"{ project(polygon:[{lat:0,lon:0},{lat:0,lon:1},{lat:1,lon:1},{lat:1,lon:0}], width:100, height:50) mapConfig { zoom center { lat } } }"}`
	resp := e.do(t, "POST", "/graphql", "", q)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			Project   string `json:"project"`
			MapConfig struct {
				Zoom   int             `json:"zoom"`
				Center domain.GeoPoint `json:"center"`
			} `json:"mapConfig"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	decode(t, resp, &out)
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
	if out.Data.Project != "M 0 50 L 100 50 L 100 0 L 0 0 Z" {
		t.Errorf("unexpected path %q", out.Data.Project)
	}
	if out.Data.MapConfig.Zoom != 15 || out.Data.MapConfig.Center.Lat != usecases.DefaultCenter.Lat {
		t.Errorf("unexpected map config %+v", out.Data.MapConfig)
	}
}

func TestGraphQL_Streets(t *testing.T) {
	e := newEnv(t, envOpts{})

	q := `{"query":"{ streets(polygon:[{lat:40.70,lon:-74.01},{lat:40.70,lon:-74.00},{lat:40.71,lon:-74.00},{lat:40.71,lon:-74.01}]) { place_id name points } }"}`
	resp := e.do(t, "POST", "/graphql", "", q)
	var out struct {
		Data struct {
			Streets []struct {
				PlaceID string `json:"place_id"`
				Name    string `json:"name"`
				Points  int    `json:"points"`
			} `json:"streets"`
		} `json:"data"`
	}
	decode(t, resp, &out)
	if len(out.Data.Streets) != 1 || out.Data.Streets[0].Name != "Broadway" || out.Data.Streets[0].Points != 9 {
		t.Errorf("unexpected streets %+v", out.Data.Streets)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	e := newEnv(t, envOpts{})
	resp := e.do(t, "GET", "/ws", "", "")
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
