package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neighborlens/neighborlens/internal/acquire"
	"github.com/neighborlens/neighborlens/internal/pipeline"
	"github.com/neighborlens/neighborlens/internal/resolve"
	"github.com/neighborlens/neighborlens/internal/store"
	"github.com/neighborlens/neighborlens/internal/vibe"
	"github.com/neighborlens/neighborlens/pkg/census"
	"github.com/neighborlens/neighborlens/pkg/googlemaps"
	"github.com/neighborlens/neighborlens/pkg/huggingface"
	"github.com/neighborlens/neighborlens/pkg/reddit"
	"github.com/neighborlens/neighborlens/pkg/walkscore"
)

// appEnv holds the initialized store and pipeline needed by the
// serve/lookup commands.
type appEnv struct {
	Store    store.Store
	Enricher *pipeline.Enricher
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, all provider clients, the resolution chain,
// and the enrichment pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	censusClient := census.NewClient(cfg.Census.APIKey,
		census.WithBaseURL(cfg.Census.BaseURL),
		census.WithGeocoderURL(cfg.Census.GeocoderURL),
	)
	redditClient := reddit.NewClient(cfg.Reddit.UserAgent,
		reddit.WithBaseURL(cfg.Reddit.BaseURL),
	)
	hfClient := huggingface.NewClient(cfg.HuggingFace.APIKey,
		huggingface.WithBaseURL(cfg.HuggingFace.BaseURL),
		huggingface.WithModel(cfg.HuggingFace.Model),
	)

	// Google Maps is optional; without a key the chain falls through to
	// the free census geocoder.
	var googleClient googlemaps.Client
	var strategies []resolve.Strategy
	if cfg.Google.APIKey != "" {
		googleClient = googlemaps.NewClient(cfg.Google.APIKey,
			googlemaps.WithBaseURL(cfg.Google.BaseURL),
		)
		strategies = append(strategies, resolve.NewGoogleStrategy(googleClient))
		zap.L().Info("google maps api enabled")
	} else {
		zap.L().Debug("NEIGHBORLENS_GOOGLE_API_KEY not set, google resolution and places disabled")
	}
	strategies = append(strategies, resolve.NewCensusStrategy(censusClient))

	// Walk Score is optional; without a key mobility scores stay zero.
	var walkscoreClient walkscore.Client
	if cfg.WalkScore.APIKey != "" {
		walkscoreClient = walkscore.NewClient(cfg.WalkScore.APIKey,
			walkscore.WithBaseURL(cfg.WalkScore.BaseURL),
		)
		zap.L().Info("walk score api enabled")
	} else {
		zap.L().Debug("NEIGHBORLENS_WALKSCORE_API_KEY not set, mobility scores disabled")
	}

	rules := vibe.DefaultRules()
	if cfg.Vibe.RulesPath != "" {
		rules, err = vibe.LoadRules(cfg.Vibe.RulesPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load vibe rules")
		}
	}

	chain := resolve.NewChain(strategies...)
	fanout := acquire.NewFanout(censusClient, redditClient, googleClient, walkscoreClient, cfg.Google.SearchRadiusM)
	enricher := pipeline.NewEnricher(st, chain, fanout, hfClient, rules)

	return &appEnv{Store: st, Enricher: enricher}, nil
}

// openStore creates the configured store with the cache TTL applied.
func openStore(ctx context.Context) (store.Store, error) {
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	st, err := store.Open(ctx, cfg.Store, ttl)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}
