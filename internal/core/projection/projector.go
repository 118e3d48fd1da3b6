// Package projection maps geographic polygons into a fixed-size canvas.
//
// Normalization uses the bounding box of the polygon being exported, so the
// boundary always spans the full canvas and street paths sampled inside it
// share the same frame. North is up: the north edge maps to y=0.
package projection

import (
	"fmt"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// Frame maps a geographic bounding box onto a canvas.
type Frame struct {
	Bounds domain.Bounds
	Canvas domain.Canvas
}

// NewFrame rejects boxes with zero width or height instead of dividing by zero.
func NewFrame(b domain.Bounds, c domain.Canvas) (Frame, error) {
	if err := c.Validate(); err != nil {
		return Frame{}, err
	}
	if b.Degenerate() {
		return Frame{}, fmt.Errorf("%w (%.6f x %.6f deg)", domain.ErrDegenerateArea, b.Width(), b.Height())
	}
	return Frame{Bounds: b, Canvas: c}, nil
}

// Project maps one point. Points outside the box land outside the canvas.
func (f Frame) Project(p domain.GeoPoint) domain.Point2D {
	return domain.Point2D{
		X: (p.Lon - f.Bounds.MinLon) / f.Bounds.Width() * f.Canvas.Width,
		Y: (f.Bounds.MaxLat - p.Lat) / f.Bounds.Height() * f.Canvas.Height,
	}
}

// ProjectAll maps a sequence of points.
func (f Frame) ProjectAll(pts []domain.GeoPoint) []domain.Point2D {
	out := make([]domain.Point2D, len(pts))
	for i, p := range pts {
		out[i] = f.Project(p)
	}
	return out
}

// Projector turns polygons into canvas-space boundary paths.
type Projector struct {
	canvas domain.Canvas
}

// New creates a Projector for the given canvas.
func New(canvas domain.Canvas) *Projector {
	return &Projector{canvas: canvas}
}

// Canvas returns the output size.
func (p *Projector) Canvas() domain.Canvas { return p.canvas }

// FrameFor validates poly and returns its normalization frame.
func (p *Projector) FrameFor(poly domain.Polygon) (Frame, error) {
	if err := poly.Validate(); err != nil {
		return Frame{}, err
	}
	return NewFrame(poly.Bounds(), p.canvas)
}

// BoundaryPath renders poly as a closed path: one M, one L per further
// vertex, then Z.
func (p *Projector) BoundaryPath(poly domain.Polygon) (string, error) {
	frame, err := p.FrameFor(poly)
	if err != nil {
		return "", err
	}
	return domain.PathString(frame.ProjectAll(poly.Vertices()), true), nil
}
