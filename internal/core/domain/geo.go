package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point is a finite WGS 84 coordinate.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidPoint)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %.6f out of range", ErrInvalidPoint, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %.6f out of range", ErrInvalidPoint, p.Lon)
	}
	return nil
}

// Orb returns the point in orb's lon/lat order.
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// GeoPointFromOrb converts an orb point (lon, lat) back to a GeoPoint.
func GeoPointFromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsOf returns the smallest box enclosing pts. It panics on an empty slice.
func BoundsOf(pts []GeoPoint) Bounds {
	b := Bounds{MinLat: pts[0].Lat, MaxLat: pts[0].Lat, MinLon: pts[0].Lon, MaxLon: pts[0].Lon}
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b
}

// Extend grows the box to include p.
func (b Bounds) Extend(p GeoPoint) Bounds {
	b.MinLat = math.Min(b.MinLat, p.Lat)
	b.MaxLat = math.Max(b.MaxLat, p.Lat)
	b.MinLon = math.Min(b.MinLon, p.Lon)
	b.MaxLon = math.Max(b.MaxLon, p.Lon)
	return b
}

func (b Bounds) NorthEast() GeoPoint { return GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon} }
func (b Bounds) SouthWest() GeoPoint { return GeoPoint{Lat: b.MinLat, Lon: b.MinLon} }

func (b Bounds) Width() float64  { return b.MaxLon - b.MinLon }
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

// Degenerate is true when the box has no area to normalize against.
func (b Bounds) Degenerate() bool {
	return !(b.Width() > 0) || !(b.Height() > 0)
}

// Polygon is a closed ring of geographic vertices. A trailing vertex equal to
// the first one is the explicit ring closure, not a distinct vertex.
type Polygon []GeoPoint

// MinPolygonPoints is the smallest vertex count that can be exported.
const MinPolygonPoints = 3

// Vertices returns the ring without an explicit closing vertex.
func (p Polygon) Vertices() []GeoPoint {
	if len(p) > 1 && p[0] == p[len(p)-1] {
		return p[:len(p)-1]
	}
	return p
}

// Validate checks vertex count, coordinate ranges and distinctness.
func (p Polygon) Validate() error {
	vs := p.Vertices()
	distinct := make(map[GeoPoint]struct{}, len(vs))
	for i, v := range vs {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		distinct[v] = struct{}{}
	}
	if len(distinct) < MinPolygonPoints {
		return fmt.Errorf("%w: got %d distinct points", ErrPolygonTooSmall, len(distinct))
	}
	return nil
}

// Bounds returns the polygon's bounding region.
func (p Polygon) Bounds() Bounds {
	return BoundsOf(p.Vertices())
}

// Ring returns the polygon as a closed orb ring.
func (p Polygon) Ring() orb.Ring {
	vs := p.Vertices()
	ring := make(orb.Ring, 0, len(vs)+1)
	for _, v := range vs {
		ring = append(ring, v.Orb())
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// PolygonFromRing converts an orb ring to a Polygon.
func PolygonFromRing(r orb.Ring) Polygon {
	out := make(Polygon, 0, len(r))
	for _, pt := range r {
		out = append(out, GeoPointFromOrb(pt))
	}
	return out
}

// Canvas is the fixed output size of an export.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultCanvas is the output size used when none is configured.
var DefaultCanvas = Canvas{Width: 800, Height: 600}

// Validate rejects non-positive canvas sizes.
func (c Canvas) Validate() error {
	if !(c.Width > 0) || !(c.Height > 0) {
		return fmt.Errorf("canvas must be positive, got %gx%g", c.Width, c.Height)
	}
	return nil
}

// Point2D is a point in canvas space (origin top-left, y down).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
