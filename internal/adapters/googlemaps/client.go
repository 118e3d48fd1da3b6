// Package googlemaps implements the places, geocoding and positioning ports
// on top of the Google Maps web services.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"googlemaps.github.io/maps"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/pkg/telemetry"
)

// Config configures the client.
type Config struct {
	APIKey  string
	QPS     int    // client-side rate limit; 0 keeps the library default
	BaseURL string // overrides every service endpoint, for tests
}

// Client wraps maps.Client.
type Client struct {
	maps *maps.Client
}

// New creates a new Google Maps client.
func New(cfg Config) (*Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.QPS > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.QPS))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("google maps client: %w", err)
	}
	return &Client{maps: c}, nil
}

// NearestRoads reverse-geocodes p restricted to roads. radiusMeters is not
// sent; the sampler filters candidates by distance.
func (c *Client) NearestRoads(ctx context.Context, p domain.GeoPoint, radiusMeters float64) ([]domain.Place, error) {
	ctx, span := telemetry.Tracer("googlemaps").Start(ctx, "googlemaps.ReverseGeocode")
	defer span.End()

	results, err := c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:     &maps.LatLng{Lat: p.Lat, Lng: p.Lon},
		ResultType: []string{"route"},
	})
	if isZeroResults(err) {
		return nil, nil
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}

	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		places = append(places, toPlace(r))
	}
	span.SetAttributes(attribute.Int("places.results", len(places)))
	return places, nil
}

// Geocode returns the first match for address.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	ctx, span := telemetry.Tracer("googlemaps").Start(ctx, "googlemaps.Geocode")
	defer span.End()

	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if isZeroResults(err) || (err == nil && len(results) == 0) {
		return domain.GeoPoint{}, domain.ErrAddressNotFound
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.GeoPoint{}, fmt.Errorf("geocode: %w", err)
	}
	loc := results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// Locate asks the Geolocation API for the caller's position from its IP.
func (c *Client) Locate(ctx context.Context) (domain.GeoPoint, error) {
	ctx, span := telemetry.Tracer("googlemaps").Start(ctx, "googlemaps.Geolocate")
	defer span.End()

	res, err := c.maps.Geolocate(ctx, &maps.GeolocationRequest{ConsiderIP: true})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.GeoPoint{}, fmt.Errorf("geolocate: %w", err)
	}
	if res == nil {
		return domain.GeoPoint{}, errors.New("geolocate: empty response")
	}
	span.SetAttributes(attribute.Float64("geolocation.accuracy_m", res.Accuracy))
	return domain.GeoPoint{Lat: res.Location.Lat, Lon: res.Location.Lng}, nil
}

func toPlace(r maps.GeocodingResult) domain.Place {
	p := domain.Place{
		ID:       r.PlaceID,
		Name:     roadName(r),
		Location: domain.GeoPoint{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
	}
	// Bounds is the road's extent; the viewport is padded for display.
	if b := r.Geometry.Bounds; b != (maps.LatLngBounds{}) {
		p.Viewport = toBounds(b)
	} else if v := r.Geometry.Viewport; v != (maps.LatLngBounds{}) {
		p.Viewport = toBounds(v)
	}
	return p
}

func toBounds(b maps.LatLngBounds) *domain.Bounds {
	return &domain.Bounds{
		MinLat: b.SouthWest.Lat,
		MinLon: b.SouthWest.Lng,
		MaxLat: b.NorthEast.Lat,
		MaxLon: b.NorthEast.Lng,
	}
}

func roadName(r maps.GeocodingResult) string {
	for _, ac := range r.AddressComponents {
		for _, t := range ac.Types {
			if t == "route" {
				return ac.LongName
			}
		}
	}
	return ""
}

func isZeroResults(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ZERO_RESULTS")
}
