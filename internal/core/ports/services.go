package ports

import (
	"context"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// PlacesService looks up named roads around a point.
type PlacesService interface {
	// NearestRoads returns road candidates within radiusMeters of p, nearest first.
	NearestRoads(ctx context.Context, p domain.GeoPoint, radiusMeters float64) ([]domain.Place, error)
}

// Geocoder resolves free-text addresses.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// Locator is the positioning service.
type Locator interface {
	Locate(ctx context.Context) (domain.GeoPoint, error)
}

// Notifier delivers transient user-visible notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishExportCompleted(ctx context.Context, job *domain.ExportJob) error
}

// JobStarter launches exports outside the request.
type JobStarter interface {
	StartExport(ctx context.Context, req domain.ExportRequest) (string, error)
}

// StreetSampler discovers approximate street paths inside a polygon.
type StreetSampler interface {
	Sample(ctx context.Context, poly domain.Polygon, canvas domain.Canvas) ([]domain.StreetSegment, error)
}

// NotificationFeed lets transports follow one session's notifications.
type NotificationFeed interface {
	// Subscribe calls fn for every notification addressed to sessionID until
	// the returned cancel func is called.
	Subscribe(ctx context.Context, sessionID string, fn func(domain.Notification)) (cancel func(), err error)
}

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
