// Package pipeline orchestrates a neighborhood enrichment: cache check,
// location resolution, provider fan-out, sentiment scoring, summary
// composition, and the final write-back.
package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/neighborlens/neighborlens/internal/acquire"
	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/internal/store"
	"github.com/neighborlens/neighborlens/internal/vibe"
)

// Resolver collapses a free-text query into a postal-code key.
type Resolver interface {
	Resolve(ctx context.Context, query string) model.ResolvedLocation
}

// Acquirer fetches the provider snapshots for a resolved location.
type Acquirer interface {
	Acquire(ctx context.Context, resolved model.ResolvedLocation, originalQuery string) model.Snapshots
}

var _ Acquirer = (*acquire.Fanout)(nil)

// Enricher runs the end-to-end enrichment for a location query.
type Enricher struct {
	store      store.Store
	resolver   Resolver
	acquirer   Acquirer
	classifier vibe.Classifier
	rules      vibe.Rules
}

// NewEnricher wires an Enricher from its collaborators.
func NewEnricher(st store.Store, resolver Resolver, acquirer Acquirer, classifier vibe.Classifier, rules vibe.Rules) *Enricher {
	return &Enricher{
		store:      st,
		resolver:   resolver,
		acquirer:   acquirer,
		classifier: classifier,
		rules:      rules,
	}
}

// Enrich returns the enriched record for a location query, serving from
// the cache when a fresh record exists and running the full pipeline
// otherwise. Provider failures degrade the result; only invalid input
// and store failures surface as errors.
func (e *Enricher) Enrich(ctx context.Context, rawQuery string) (*model.Neighborhood, error) {
	query, err := model.NormalizeQuery(rawQuery)
	if err != nil {
		return nil, err
	}

	// Postal-code and degraded records are cached under the query itself.
	if cached, err := e.store.GetNeighborhood(ctx, query); err != nil {
		return nil, err
	} else if cached != nil {
		zap.L().Info("pipeline: cache hit", zap.String("key", query))
		return cached, nil
	}

	resolved := e.resolver.Resolve(ctx, query)

	// Name queries resolve to a postal code; that code may already be cached.
	if resolved.PostalCode != query {
		if cached, err := e.store.GetNeighborhood(ctx, resolved.PostalCode); err != nil {
			return nil, err
		} else if cached != nil {
			zap.L().Info("pipeline: cache hit after resolution",
				zap.String("query", query),
				zap.String("postal_code", resolved.PostalCode),
			)
			return cached, nil
		}
	}

	zap.L().Info("pipeline: enriching",
		zap.String("query", query),
		zap.String("postal_code", resolved.PostalCode),
		zap.String("source", resolved.Source),
		zap.Bool("degraded", resolved.Degraded),
	)

	snaps := e.acquirer.Acquire(ctx, resolved, query)
	texts := snaps.CommunityTexts()
	score := vibe.Score(ctx, e.classifier, texts)

	name := displayName(resolved, snaps.Census)
	summary, tags := vibe.Compose(e.rules, vibe.Input{
		DisplayName:        name,
		Census:             snaps.Census.CensusData,
		Amenities:          snaps.Places.AmenityNames,
		CommunityTextCount: len(texts),
		SentimentScore:     score,
	})

	lat, lng := resolved.Latitude, resolved.Longitude
	if lat == nil {
		lat, lng = snaps.Places.Latitude, snaps.Places.Longitude
	}

	record := &model.Neighborhood{
		Name:           name,
		PostalCode:     resolved.PostalCode,
		Latitude:       lat,
		Longitude:      lng,
		WalkScore:      snaps.Mobility.WalkScore,
		TransitScore:   snaps.Mobility.TransitScore,
		BikeScore:      snaps.Mobility.BikeScore,
		SentimentScore: score,
		VibeSummary:    summary,
		LifestyleTags:  tags,
		RawData: model.RawData{
			Census:         snaps.Census.CensusData,
			Amenities:      snaps.Places.AmenityNames,
			CommunityPosts: snaps.Social.Posts,
			Reviews:        snaps.Places.ReviewTexts,
		},
	}
	return e.store.UpsertNeighborhood(ctx, record)
}

// displayName prefers the census area name, falling back to the
// resolver's capture when the demographic lookup came back empty and
// the capture says more than a bare postal code.
func displayName(resolved model.ResolvedLocation, census model.CensusSnapshot) string {
	empty := census.Population == 0 && census.MedianIncome == 0 && census.MedianAge == 0
	if empty && resolved.DisplayName != "" && !model.IsPostalCode(resolved.DisplayName) {
		return resolved.DisplayName
	}
	if strings.TrimSpace(census.DisplayName) != "" {
		return census.DisplayName
	}
	if resolved.DisplayName != "" {
		return resolved.DisplayName
	}
	return resolved.PostalCode
}
