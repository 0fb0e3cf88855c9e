// Package resolve collapses a free-text location query into a canonical
// postal code by trying strategies in priority order.
package resolve

import (
	"context"

	"go.uber.org/zap"

	"github.com/neighborlens/neighborlens/internal/model"
)

// Strategy is a single resolution backend. A miss returns a nil
// location (or one without a valid postal code) and a nil error; errors
// are treated as misses by the chain. A missed attempt may still carry
// a display name and coordinates for the degraded fallback.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, query string) (*model.ResolvedLocation, error)
}

// Chain runs strategies in order and stops at the first one that yields
// a valid postal code. Resolve never fails: when every strategy misses,
// the raw query becomes the postal-code key (degraded mode).
type Chain struct {
	strategies []Strategy
}

// NewChain creates a Chain trying strategies in the given order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Resolve converts a location query into a ResolvedLocation. Queries
// that already are 5-digit postal codes short-circuit with no network
// calls.
func (c *Chain) Resolve(ctx context.Context, query string) model.ResolvedLocation {
	if model.IsPostalCode(query) {
		return model.ResolvedLocation{
			PostalCode:  query,
			DisplayName: query,
			Source:      "query",
		}
	}

	var fallback model.ResolvedLocation
	for _, s := range c.strategies {
		loc, err := s.Attempt(ctx, query)
		if err != nil {
			zap.L().Debug("resolve: strategy error, trying next",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}
		if loc == nil {
			continue
		}
		if model.IsPostalCode(loc.PostalCode) {
			loc.Source = s.Name()
			return *loc
		}
		// Keep the first captured display name for the degraded return.
		if fallback.DisplayName == "" && loc.DisplayName != "" {
			fallback.DisplayName = loc.DisplayName
			fallback.Latitude = loc.Latitude
			fallback.Longitude = loc.Longitude
		}
	}

	if fallback.DisplayName == "" {
		fallback.DisplayName = query
	}
	fallback.PostalCode = query
	fallback.Source = "degraded"
	fallback.Degraded = true

	zap.L().Info("resolve: no postal code found, using raw query as key",
		zap.String("query", query),
	)
	return fallback
}
