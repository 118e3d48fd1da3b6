// Package sampling discovers streets inside a polygon by querying a places
// service on a regular grid and stitching the hits into approximate paths.
//
// The result is only as good as the external service's coverage and the grid
// density; it is an approximation, not street geometry.
package sampling

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb/planar"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/core/projection"
	"github.com/samirrijal/mapart/internal/pkg/geospatial"
	"github.com/samirrijal/mapart/internal/pkg/metrics"
	"github.com/samirrijal/mapart/internal/pkg/telemetry"
)

// UnknownStreet labels roads the service returned without a name.
const UnknownStreet = "Unknown Street"

// Config tunes coverage against external call volume.
type Config struct {
	GridSize     int     // points per side of the sample grid
	SearchRadius float64 // meters
	Concurrency  int     // parallel places queries
}

// DefaultConfig is a 10x10 grid, 50 m radius, 8 queries in flight.
var DefaultConfig = Config{GridSize: 10, SearchRadius: 50, Concurrency: 8}

// Sampler runs street discovery against a places service.
type Sampler struct {
	places ports.PlacesService
	cfg    Config
}

// New creates a Sampler. Zero fields in cfg fall back to DefaultConfig.
func New(places ports.PlacesService, cfg Config) *Sampler {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultConfig.GridSize
	}
	if cfg.SearchRadius <= 0 {
		cfg.SearchRadius = DefaultConfig.SearchRadius
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig.Concurrency
	}
	return &Sampler{places: places, cfg: cfg}
}

// Grid returns the centres of an n x n grid over the polygon's bounds that
// fall inside the polygon, row by row from the south-west corner.
func Grid(poly domain.Polygon, n int) []domain.GeoPoint {
	b := poly.Bounds()
	ring := poly.Ring()
	latStep := b.Height() / float64(n)
	lonStep := b.Width() / float64(n)

	var pts []domain.GeoPoint
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := domain.GeoPoint{
				Lat: b.MinLat + (float64(i)+0.5)*latStep,
				Lon: b.MinLon + (float64(j)+0.5)*lonStep,
			}
			if planar.RingContains(ring, p.Orb()) {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

// Sample returns the streets found inside poly, normalized into canvas with
// the polygon's bounds. Failed lookups are dropped; finding nothing is not an
// error and yields an empty slice.
func (s *Sampler) Sample(ctx context.Context, poly domain.Polygon, canvas domain.Canvas) ([]domain.StreetSegment, error) {
	ctx, span := telemetry.Tracer("sampling").Start(ctx, "sampling.Sample")
	defer span.End()
	start := time.Now()

	if err := poly.Validate(); err != nil {
		return nil, err
	}
	frame, err := projection.NewFrame(poly.Bounds(), canvas)
	if err != nil {
		return nil, err
	}

	points := Grid(poly, s.cfg.GridSize)
	metrics.SamplePoints.Observe(float64(len(points)))
	span.SetAttributes(
		attribute.Int("sampler.grid_size", s.cfg.GridSize),
		attribute.Int("sampler.points", len(points)),
	)

	hits := make([]*domain.Place, len(points))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, pt := range points {
		g.Go(func() error {
			hits[i] = s.lookup(ctx, pt)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	segments := s.stitch(points, hits, frame)
	metrics.StreetsFound.Observe(float64(len(segments)))
	metrics.SamplingDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("sampler.streets", len(segments)))
	return segments, nil
}

// lookup returns the nearest named road within the search radius, or nil.
func (s *Sampler) lookup(ctx context.Context, pt domain.GeoPoint) *domain.Place {
	candidates, err := s.places.NearestRoads(ctx, pt, s.cfg.SearchRadius)
	if err != nil {
		metrics.PlacesQueries.WithLabelValues("error").Inc()
		slog.DebugContext(ctx, "places lookup failed, dropping sample point",
			"lat", pt.Lat, "lon", pt.Lon, "error", err)
		return nil
	}

	var best *domain.Place
	bestDist := math.Inf(1)
	for i := range candidates {
		c := candidates[i]
		if c.ID == "" {
			continue
		}
		d := placeDistance(pt, c)
		if d <= s.cfg.SearchRadius && d < bestDist {
			best, bestDist = &c, d
		}
	}

	if best == nil {
		metrics.PlacesQueries.WithLabelValues("miss").Inc()
	} else {
		metrics.PlacesQueries.WithLabelValues("hit").Inc()
	}
	return best
}

// placeDistance measures to the viewport when the service gave one; a road's
// reported location is often the middle of a long segment.
func placeDistance(pt domain.GeoPoint, p domain.Place) float64 {
	if p.Viewport != nil {
		return geospatial.DistanceToBounds(pt, *p.Viewport)
	}
	return geospatial.Distance(pt, p.Location)
}

type group struct {
	place  domain.Place
	points []domain.GeoPoint
}

// stitch groups hits by place ID in first-seen order and keeps groups with
// at least two points.
func (s *Sampler) stitch(points []domain.GeoPoint, hits []*domain.Place, frame projection.Frame) []domain.StreetSegment {
	var order []string
	groups := make(map[string]*group)
	for i, h := range hits {
		if h == nil {
			continue
		}
		g, ok := groups[h.ID]
		if !ok {
			g = &group{place: *h}
			groups[h.ID] = g
			order = append(order, h.ID)
		}
		g.points = append(g.points, points[i])
	}

	segments := make([]domain.StreetSegment, 0, len(order))
	for _, id := range order {
		g := groups[id]
		if len(g.points) < 2 {
			continue
		}
		name := g.place.Name
		if name == "" {
			name = UnknownStreet
		}
		segments = append(segments, domain.StreetSegment{
			PlaceID: id,
			Name:    name,
			Points:  frame.ProjectAll(Chain(g.points)),
		})
	}
	return segments
}
