package resolve

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/neighborlens/neighborlens/internal/model"
	"github.com/neighborlens/neighborlens/pkg/census"
	"github.com/neighborlens/neighborlens/pkg/googlemaps"
	"github.com/neighborlens/neighborlens/pkg/googlemaps/mocks"
)

// stubStrategy is a canned Strategy for chain tests.
type stubStrategy struct {
	name  string
	loc   *model.ResolvedLocation
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(_ context.Context, _ string) (*model.ResolvedLocation, error) {
	s.calls++
	return s.loc, s.err
}

func TestChain_PostalCodeShortCircuits(t *testing.T) {
	t.Parallel()

	stub := &stubStrategy{name: "stub"}
	chain := NewChain(stub)

	got := chain.Resolve(context.Background(), "78704")

	assert.Equal(t, "78704", got.PostalCode)
	assert.Equal(t, "78704", got.DisplayName)
	assert.Equal(t, "query", got.Source)
	assert.False(t, got.Degraded)
	assert.Zero(t, stub.calls, "postal-code queries must make no strategy calls")
}

func TestChain_FirstSuccessWins(t *testing.T) {
	t.Parallel()

	first := &stubStrategy{name: "first", loc: &model.ResolvedLocation{
		PostalCode:  "98102",
		DisplayName: "Capitol Hill, Seattle",
	}}
	second := &stubStrategy{name: "second"}
	chain := NewChain(first, second)

	got := chain.Resolve(context.Background(), "capitol hill seattle")

	assert.Equal(t, "98102", got.PostalCode)
	assert.Equal(t, "first", got.Source)
	assert.Zero(t, second.calls, "chain must stop at the first valid postal code")
}

func TestChain_ErrorFallsThrough(t *testing.T) {
	t.Parallel()

	failing := &stubStrategy{name: "failing", err: eris.New("boom")}
	backup := &stubStrategy{name: "backup", loc: &model.ResolvedLocation{
		PostalCode:  "60647",
		DisplayName: "Logan Square, Chicago",
	}}
	chain := NewChain(failing, backup)

	got := chain.Resolve(context.Background(), "logan square")

	assert.Equal(t, "60647", got.PostalCode)
	assert.Equal(t, "backup", got.Source)
	assert.Equal(t, 1, failing.calls)
}

func TestChain_DegradedKeepsCapturedDisplayName(t *testing.T) {
	t.Parallel()

	lat, lng := 41.9, -87.7
	capture := &stubStrategy{name: "capture", loc: &model.ResolvedLocation{
		DisplayName: "Chicago, IL, USA",
		Latitude:    &lat,
		Longitude:   &lng,
	}}
	miss := &stubStrategy{name: "miss"}
	chain := NewChain(capture, miss)

	got := chain.Resolve(context.Background(), "windy city")

	assert.True(t, got.Degraded)
	assert.Equal(t, "windy city", got.PostalCode)
	assert.Equal(t, "Chicago, IL, USA", got.DisplayName)
	assert.Equal(t, "degraded", got.Source)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, lat, *got.Latitude)
}

func TestChain_DegradedWithoutCapture(t *testing.T) {
	t.Parallel()

	chain := NewChain(&stubStrategy{name: "miss"})

	got := chain.Resolve(context.Background(), "nowhere special")

	assert.True(t, got.Degraded)
	assert.Equal(t, "nowhere special", got.PostalCode)
	assert.Equal(t, "nowhere special", got.DisplayName)
}

func TestGoogleStrategy_PostalComponent(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Geocode", mock.Anything, "capitol hill seattle").Return(&googlemaps.GeocodeResult{
		Latitude:         47.625,
		Longitude:        -122.32,
		FormattedAddress: "Capitol Hill, Seattle, WA 98102, USA",
		PostalCode:       "98102",
		Matched:          true,
	}, nil)

	s := NewGoogleStrategy(client)
	got, err := s.Attempt(context.Background(), "capitol hill seattle")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "98102", got.PostalCode)
	assert.Equal(t, "Capitol Hill, Seattle, WA 98102, USA", got.DisplayName)
	client.AssertNotCalled(t, "ReverseGeocodePostal", mock.Anything, mock.Anything, mock.Anything)
}

func TestGoogleStrategy_ReverseGeocodeFallback(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Geocode", mock.Anything, "downtown denver").Return(&googlemaps.GeocodeResult{
		Latitude:         39.74,
		Longitude:        -104.99,
		FormattedAddress: "Downtown, Denver, CO, USA",
		Matched:          true,
	}, nil)
	client.On("ReverseGeocodePostal", mock.Anything, 39.74, -104.99).Return("80202", nil)

	s := NewGoogleStrategy(client)
	got, err := s.Attempt(context.Background(), "downtown denver")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "80202", got.PostalCode)
}

func TestGoogleStrategy_ReverseFailureKeepsCapture(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Geocode", mock.Anything, "downtown denver").Return(&googlemaps.GeocodeResult{
		Latitude:         39.74,
		Longitude:        -104.99,
		FormattedAddress: "Downtown, Denver, CO, USA",
		Matched:          true,
	}, nil)
	client.On("ReverseGeocodePostal", mock.Anything, 39.74, -104.99).Return("", eris.New("quota"))

	s := NewGoogleStrategy(client)
	got, err := s.Attempt(context.Background(), "downtown denver")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.PostalCode)
	assert.Equal(t, "Downtown, Denver, CO, USA", got.DisplayName)
}

func TestGoogleStrategy_NoMatch(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Geocode", mock.Anything, "xyzzy").Return(&googlemaps.GeocodeResult{Matched: false}, nil)

	s := NewGoogleStrategy(client)
	got, err := s.Attempt(context.Background(), "xyzzy")

	require.NoError(t, err)
	assert.Nil(t, got)
}

// fakeCensus implements census.Client with canned responses.
type fakeCensus struct {
	match *census.AreaMatch
	err   error
}

func (f *fakeCensus) Demographics(_ context.Context, _ string) (*census.Demographics, error) {
	return nil, eris.New("not used")
}

func (f *fakeCensus) AreaLookup(_ context.Context, _ string) (*census.AreaMatch, error) {
	return f.match, f.err
}

func TestCensusStrategy_Match(t *testing.T) {
	t.Parallel()

	s := NewCensusStrategy(&fakeCensus{match: &census.AreaMatch{
		ZCTA:           "78704",
		MatchedAddress: "AUSTIN, TX, 78704",
		Latitude:       30.25,
		Longitude:      -97.76,
	}})

	got, err := s.Attempt(context.Background(), "south congress austin")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "78704", got.PostalCode)
	assert.Equal(t, "AUSTIN, TX, 78704", got.DisplayName)
}

func TestCensusStrategy_NoMatch(t *testing.T) {
	t.Parallel()

	s := NewCensusStrategy(&fakeCensus{})

	got, err := s.Attempt(context.Background(), "nowhere")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCensusStrategy_InvalidGeoID(t *testing.T) {
	t.Parallel()

	s := NewCensusStrategy(&fakeCensus{match: &census.AreaMatch{ZCTA: "TX123"}})

	got, err := s.Attempt(context.Background(), "somewhere")

	require.NoError(t, err)
	assert.Nil(t, got)
}
