// Package acquire fans out to the demographic, social,
// points-of-interest, and mobility providers and joins their results.
// Every branch fails soft: provider errors collapse to empty snapshots
// and never abort the other branches.
package acquire

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/internal/resilience"
	"github.com/neighborlens/neighborlens/pkg/census"
	"github.com/neighborlens/neighborlens/pkg/googlemaps"
	"github.com/neighborlens/neighborlens/pkg/reddit"
	"github.com/neighborlens/neighborlens/pkg/walkscore"
)

const (
	// maxAmenities caps the nearby points of interest kept.
	maxAmenities = 10
	// maxReviewedPlaces is how many top places get review lookups.
	maxReviewedPlaces = 3
)

// Fanout acquires the provider snapshots for a resolved location.
type Fanout struct {
	census   census.Client
	social   reddit.Client
	places   googlemaps.Client
	mobility walkscore.Client
	radiusM  int
	retry    resilience.Config
}

// NewFanout creates a Fanout over the given provider clients. The
// places and mobility clients may be nil when their API keys are not
// configured; those branches then yield empty snapshots.
func NewFanout(censusClient census.Client, socialClient reddit.Client, placesClient googlemaps.Client, mobilityClient walkscore.Client, radiusM int) *Fanout {
	if radiusM <= 0 {
		radiusM = 1500
	}
	return &Fanout{
		census:   censusClient,
		social:   socialClient,
		places:   placesClient,
		mobility: mobilityClient,
		radiusM:  radiusM,
		retry:    resilience.DefaultConfig(),
	}
}

// Acquire runs the four fetches concurrently and joins them. The
// demographic lookup is keyed by the resolved postal code; the social,
// places, and mobility lookups use the original query, since those
// sources index by place name. Acquire never fails; each branch
// degrades to an empty snapshot independently.
func (f *Fanout) Acquire(ctx context.Context, resolved model.ResolvedLocation, originalQuery string) model.Snapshots {
	var snaps model.Snapshots

	// Each branch writes a distinct field, so the join needs no locking.
	// A plain group (not WithContext) keeps one branch's failure from
	// canceling the others.
	var g errgroup.Group

	g.Go(func() error {
		snaps.Census = f.fetchCensus(ctx, resolved.PostalCode)
		return nil
	})
	g.Go(func() error {
		snaps.Social = f.fetchSocial(ctx, originalQuery)
		return nil
	})
	g.Go(func() error {
		snaps.Places = f.fetchPlaces(ctx, originalQuery)
		return nil
	})
	g.Go(func() error {
		snaps.Mobility = f.fetchMobility(ctx, resolved, originalQuery)
		return nil
	})

	_ = g.Wait()
	return snaps
}

func (f *Fanout) fetchCensus(ctx context.Context, postalCode string) model.CensusSnapshot {
	demo, err := resilience.Do(ctx, f.retry, "census.demographics", func(ctx context.Context) (*census.Demographics, error) {
		return f.census.Demographics(ctx, postalCode)
	})
	if err != nil {
		zap.L().Warn("acquire: census unavailable",
			zap.String("postal_code", postalCode),
			zap.Error(err),
		)
		return model.CensusSnapshot{DisplayName: "ZIP " + postalCode}
	}
	return model.CensusSnapshot{
		DisplayName: demo.DisplayName,
		CensusData: model.CensusData{
			Population:   demo.Population,
			MedianIncome: demo.MedianIncome,
			MedianAge:    demo.MedianAge,
		},
	}
}

// fetchMobility fetches the walk, transit, and bike scores for the
// resolved coordinates. The provider needs a lat/lng anchor, so the
// branch yields zeros when resolution produced none.
func (f *Fanout) fetchMobility(ctx context.Context, resolved model.ResolvedLocation, query string) model.MobilitySnapshot {
	if f.mobility == nil {
		return model.MobilitySnapshot{}
	}
	if resolved.Latitude == nil || resolved.Longitude == nil {
		zap.L().Debug("acquire: no coordinates for mobility scores",
			zap.String("postal_code", resolved.PostalCode),
		)
		return model.MobilitySnapshot{}
	}
	scores, err := resilience.Do(ctx, f.retry, "walkscore.scores", func(ctx context.Context) (*walkscore.Scores, error) {
		return f.mobility.Scores(ctx, query, *resolved.Latitude, *resolved.Longitude)
	})
	if err != nil {
		zap.L().Warn("acquire: mobility scores unavailable",
			zap.String("query", query),
			zap.Error(err),
		)
		return model.MobilitySnapshot{}
	}
	return model.MobilitySnapshot{
		WalkScore:    scores.Walk,
		TransitScore: scores.Transit,
		BikeScore:    scores.Bike,
	}
}

func (f *Fanout) fetchSocial(ctx context.Context, query string) model.SocialSnapshot {
	posts, err := resilience.Do(ctx, f.retry, "reddit.search", func(ctx context.Context) ([]string, error) {
		return f.social.Search(ctx, query)
	})
	if err != nil {
		zap.L().Warn("acquire: social search unavailable",
			zap.String("query", query),
			zap.Error(err),
		)
		return model.SocialSnapshot{}
	}
	return model.SocialSnapshot{Posts: posts}
}

// fetchPlaces geocodes the query, lists nearby points of interest, and
// collects review snippets for the top three. A failed detail lookup
// for one place never discards the others.
func (f *Fanout) fetchPlaces(ctx context.Context, query string) model.PlacesSnapshot {
	if f.places == nil {
		return model.PlacesSnapshot{}
	}
	geo, err := resilience.Do(ctx, f.retry, "googlemaps.geocode", func(ctx context.Context) (*googlemaps.GeocodeResult, error) {
		return f.places.Geocode(ctx, query)
	})
	if err != nil {
		zap.L().Warn("acquire: places geocode unavailable",
			zap.String("query", query),
			zap.Error(err),
		)
		return model.PlacesSnapshot{}
	}
	if !geo.Matched {
		return model.PlacesSnapshot{}
	}

	snap := model.PlacesSnapshot{
		Latitude:  &geo.Latitude,
		Longitude: &geo.Longitude,
	}

	places, err := f.places.NearbySearch(ctx, geo.Latitude, geo.Longitude, f.radiusM)
	if err != nil {
		zap.L().Warn("acquire: nearby search unavailable",
			zap.String("query", query),
			zap.Error(err),
		)
		return snap
	}
	if len(places) > maxAmenities {
		places = places[:maxAmenities]
	}
	for _, p := range places {
		snap.AmenityNames = append(snap.AmenityNames, p.Name)
	}

	top := places
	if len(top) > maxReviewedPlaces {
		top = top[:maxReviewedPlaces]
	}
	reviewSets := make([][]string, len(top))

	var g errgroup.Group
	for i, p := range top {
		g.Go(func() error {
			reviews, err := f.places.PlaceReviews(ctx, p.ID)
			if err != nil {
				zap.L().Debug("acquire: place reviews unavailable",
					zap.String("place_id", p.ID),
					zap.Error(err),
				)
				return nil
			}
			reviewSets[i] = reviews
			return nil
		})
	}
	_ = g.Wait()

	for _, set := range reviewSets {
		snap.ReviewTexts = append(snap.ReviewTexts, set...)
	}
	return snap
}
