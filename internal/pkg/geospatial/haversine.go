package geospatial

import (
	"math"

	"github.com/samirrijal/mapart/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Distance is Haversine over domain points.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DistanceToBounds returns the distance in meters from p to the nearest point
// of b, or 0 when p lies inside it.
func DistanceToBounds(p domain.GeoPoint, b domain.Bounds) float64 {
	nearest := domain.GeoPoint{
		Lat: clamp(p.Lat, b.MinLat, b.MaxLat),
		Lon: clamp(p.Lon, b.MinLon, b.MaxLon),
	}
	return Distance(p, nearest)
}

// MetersPerDegreeLon is the east-west length of one degree at lat.
func MetersPerDegreeLon(lat float64) float64 {
	return 111320.0 * math.Cos(toRad(lat))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
