package resolve

import (
	"context"

	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/pkg/googlemaps"
)

// GoogleStrategy resolves via the Google geocoder: forward geocode the
// query, take the postal component of the match if present, otherwise
// reverse-geocode the matched coordinates for one.
type GoogleStrategy struct {
	client googlemaps.Client
}

// NewGoogleStrategy creates the primary geocoding strategy.
func NewGoogleStrategy(client googlemaps.Client) *GoogleStrategy {
	return &GoogleStrategy{client: client}
}

// Name implements Strategy.
func (s *GoogleStrategy) Name() string { return "google" }

// Attempt implements Strategy.
func (s *GoogleStrategy) Attempt(ctx context.Context, query string) (*model.ResolvedLocation, error) {
	g, err := s.client.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	if !g.Matched {
		return nil, nil
	}

	loc := &model.ResolvedLocation{
		DisplayName: g.FormattedAddress,
		Latitude:    &g.Latitude,
		Longitude:   &g.Longitude,
	}
	if model.IsPostalCode(g.PostalCode) {
		loc.PostalCode = g.PostalCode
		return loc, nil
	}

	// The match had no postal component (common for city-level queries);
	// ask the reverse geocoder for a postal-code-typed result.
	code, err := s.client.ReverseGeocodePostal(ctx, g.Latitude, g.Longitude)
	if err != nil {
		// Return the capture so the chain can use the display name.
		return loc, nil //nolint:nilerr
	}
	if model.IsPostalCode(code) {
		loc.PostalCode = code
	}
	return loc, nil
}
