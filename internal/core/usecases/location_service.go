package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
)

// LocationService resolves a starting map center.
type LocationService struct {
	locator       ports.Locator
	geocoder      ports.Geocoder
	notifier      ports.Notifier
	addressSearch bool
}

// NewLocationService creates a new LocationService. A nil locator means the
// platform has no positioning capability. Address search stays disabled
// unless addressSearch is set and a geocoder is given.
func NewLocationService(locator ports.Locator, geocoder ports.Geocoder, notifier ports.Notifier, addressSearch bool) *LocationService {
	return &LocationService{
		locator:       locator,
		geocoder:      geocoder,
		notifier:      notifier,
		addressSearch: addressSearch && geocoder != nil,
	}
}

// AddressSearchEnabled reports whether SearchAddress can geocode.
func (s *LocationService) AddressSearchEnabled() bool { return s.addressSearch }

// Locate asks the positioning service for the current position. It makes a
// single attempt.
func (s *LocationService) Locate(ctx context.Context, sessionID string) (domain.GeoPoint, error) {
	if s.locator == nil {
		notify(ctx, s.notifier, sessionID, domain.LevelError, MsgGeolocationMissing)
		return domain.GeoPoint{}, domain.ErrPositioningUnavailable
	}

	p, err := s.locator.Locate(ctx)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		notify(ctx, s.notifier, sessionID, domain.LevelError, MsgLocationFailed)
		return domain.GeoPoint{}, fmt.Errorf("locate: %w", err)
	}

	notify(ctx, s.notifier, sessionID, domain.LevelSuccess, MsgLocationFound)
	return p, nil
}

// SearchAddress forward-geocodes a free-text address.
func (s *LocationService) SearchAddress(ctx context.Context, sessionID, address string) (domain.GeoPoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.GeoPoint{}, domain.ErrEmptyAddress
	}
	if !s.addressSearch {
		notify(ctx, s.notifier, sessionID, domain.LevelInfo, MsgAddressSoon)
		return domain.GeoPoint{}, domain.ErrAddressSearchUnavailable
	}

	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		notify(ctx, s.notifier, sessionID, domain.LevelError, MsgAddressNotFound)
		if errors.Is(err, domain.ErrAddressNotFound) {
			return domain.GeoPoint{}, err
		}
		return domain.GeoPoint{}, fmt.Errorf("geocode: %w", err)
	}

	notify(ctx, s.notifier, sessionID, domain.LevelSuccess, MsgLocationFound)
	return p, nil
}
