package sampling

import (
	"math"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/pkg/geospatial"
)

// Chain orders points into a path by nearest-neighbour chaining. It starts
// from the extreme point of the dominant axis (west-most for east-west
// spreads, south-most otherwise) so the chain runs end to end.
func Chain(pts []domain.GeoPoint) []domain.GeoPoint {
	if len(pts) < 2 {
		return append([]domain.GeoPoint(nil), pts...)
	}

	b := domain.BoundsOf(pts)
	midLat := (b.MinLat + b.MaxLat) / 2
	eastWest := b.Width()*geospatial.MetersPerDegreeLon(midLat) >= b.Height()*111320.0

	start := 0
	for i, p := range pts {
		if eastWest && p.Lon < pts[start].Lon || !eastWest && p.Lat < pts[start].Lat {
			start = i
		}
	}

	used := make([]bool, len(pts))
	out := make([]domain.GeoPoint, 0, len(pts))
	cur := start
	for {
		used[cur] = true
		out = append(out, pts[cur])
		next, best := -1, math.Inf(1)
		for i, p := range pts {
			if used[i] {
				continue
			}
			if d := geospatial.Distance(pts[cur], p); d < best {
				next, best = i, d
			}
		}
		if next < 0 {
			return out
		}
		cur = next
	}
}
