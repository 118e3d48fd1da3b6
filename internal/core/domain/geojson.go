package domain

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PolygonFromGeoJSON reads the outer ring of the first polygon in a GeoJSON
// geometry, Feature or FeatureCollection. Holes are ignored.
func PolygonFromGeoJSON(data []byte) (Polygon, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
	}

	var g orb.Geometry
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("%w: empty feature collection", ErrInvalidGeoJSON)
		}
		g = fc.Features[0].Geometry
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		g = f.Geometry
	default:
		gg, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		g = gg.Geometry()
	}

	switch v := g.(type) {
	case orb.Polygon:
		if len(v) > 0 {
			return PolygonFromRing(v[0]), nil
		}
	case orb.MultiPolygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return PolygonFromRing(v[0][0]), nil
		}
	case nil:
		return nil, fmt.Errorf("%w: missing geometry", ErrInvalidGeoJSON)
	default:
		return nil, fmt.Errorf("%w: %s is not a polygon", ErrInvalidGeoJSON, g.GeoJSONType())
	}
	return nil, fmt.Errorf("%w: empty polygon", ErrInvalidGeoJSON)
}

// GeoJSON encodes the polygon as a closed GeoJSON Polygon geometry.
func (p Polygon) GeoJSON() ([]byte, error) {
	return geojson.NewGeometry(orb.Polygon{p.Ring()}).MarshalJSON()
}
