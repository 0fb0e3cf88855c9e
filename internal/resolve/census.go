package resolve

import (
	"context"

	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/pkg/census"
)

// CensusStrategy resolves via the free Census geocoder, looking up the
// ZIP code tabulation area containing the address. It backs up the paid
// primary strategy.
type CensusStrategy struct {
	client census.Client
}

// NewCensusStrategy creates the fallback resolution strategy.
func NewCensusStrategy(client census.Client) *CensusStrategy {
	return &CensusStrategy{client: client}
}

// Name implements Strategy.
func (s *CensusStrategy) Name() string { return "census" }

// Attempt implements Strategy.
func (s *CensusStrategy) Attempt(ctx context.Context, query string) (*model.ResolvedLocation, error) {
	match, err := s.client.AreaLookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if match == nil || !model.IsPostalCode(match.ZCTA) {
		return nil, nil
	}

	loc := &model.ResolvedLocation{
		PostalCode:  match.ZCTA,
		DisplayName: match.MatchedAddress,
		Latitude:    &match.Latitude,
		Longitude:   &match.Longitude,
	}
	if loc.DisplayName == "" {
		loc.DisplayName = query
	}
	return loc, nil
}
