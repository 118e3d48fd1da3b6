package domain

import "errors"

var (
	// Capability absent.
	ErrPositioningUnavailable   = errors.New("geolocation is not supported")
	ErrAddressSearchUnavailable = errors.New("address search coming soon")
	ErrAsyncExportUnavailable   = errors.New("async export is not configured")

	// Precondition violations.
	ErrNoPolygon        = errors.New("please define an area first")
	ErrNotDrawing       = errors.New("surface is not in drawing mode")
	ErrExportInProgress = errors.New("an export is already running for this session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrJobNotFound      = errors.New("export job not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrJobNotFinished   = errors.New("export job has not finished")

	// Input validation.
	ErrEmptyAddress   = errors.New("address must not be empty")
	ErrInvalidGeoJSON = errors.New("invalid GeoJSON polygon")

	// Geometry.
	ErrInvalidPoint    = errors.New("invalid coordinate")
	ErrPolygonTooSmall = errors.New("polygon needs at least 3 distinct points")
	ErrDegenerateArea  = errors.New("degenerate area: bounding box has zero width or height")
)
