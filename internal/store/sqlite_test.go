package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborlens/neighborlens/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLite(":memory:", DefaultTTL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleNeighborhood(postalCode string) *model.Neighborhood {
	lat, lng := 30.25, -97.76
	return &model.Neighborhood{
		Name:       "ZCTA5 " + postalCode,
		PostalCode: postalCode,
		Latitude:   &lat,
		Longitude:  &lng,
		RawData: model.RawData{
			Census:         model.CensusData{Population: 45000, MedianIncome: 85000, MedianAge: 33.5},
			Amenities:      []string{"Vivace Coffee"},
			CommunityPosts: []string{"moving here"},
			Reviews:        []string{"great espresso"},
		},
		WalkScore:      87,
		TransitScore:   52,
		BikeScore:      74,
		SentimentScore: 0.75,
		VibeSummary:    "A lively area.",
		LifestyleTags:  []string{"walkable", "young professionals"},
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)
	ctx := context.Background()

	saved, err := st.UpsertNeighborhood(ctx, sampleNeighborhood("78704"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CachedAt.IsZero())

	got, err := st.GetNeighborhood(ctx, "78704")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "ZCTA5 78704", got.Name)
	assert.Equal(t, 45000, got.RawData.Census.Population)
	assert.Equal(t, []string{"Vivace Coffee"}, got.RawData.Amenities)
	assert.Equal(t, []string{"walkable", "young professionals"}, got.LifestyleTags)
	assert.Equal(t, 87, got.WalkScore)
	assert.Equal(t, 52, got.TransitScore)
	assert.Equal(t, 74, got.BikeScore)
	assert.Equal(t, 0.75, got.SentimentScore)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 30.25, *got.Latitude)
}

func TestSQLite_MissingKey(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)

	got, err := st.GetNeighborhood(context.Background(), "00000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_StaleRecordTreatedAsMissing(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return base }

	_, err := st.UpsertNeighborhood(ctx, sampleNeighborhood("78704"))
	require.NoError(t, err)

	// 23h later: still fresh.
	st.now = func() time.Time { return base.Add(23 * time.Hour) }
	got, err := st.GetNeighborhood(ctx, "78704")
	require.NoError(t, err)
	assert.NotNil(t, got)

	// 25h later: stale, treated as absent.
	st.now = func() time.Time { return base.Add(25 * time.Hour) }
	got, err = st.GetNeighborhood(ctx, "78704")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpsertReplacesAndKeepsIdentity(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)
	ctx := context.Background()

	first, err := st.UpsertNeighborhood(ctx, sampleNeighborhood("78704"))
	require.NoError(t, err)

	updated := sampleNeighborhood("78704")
	updated.VibeSummary = "Quieter than it used to be."
	updated.LifestyleTags = []string{"quiet"}

	second, err := st.UpsertNeighborhood(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "row identity survives replacement")

	got, err := st.GetNeighborhood(ctx, "78704")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Quieter than it used to be.", got.VibeSummary)
	assert.Equal(t, []string{"quiet"}, got.LifestyleTags)
}

func TestSQLite_UpsertResetsCachedAt(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return base }
	_, err := st.UpsertNeighborhood(ctx, sampleNeighborhood("78704"))
	require.NoError(t, err)

	// Re-enrich 30h later; the record becomes fresh again.
	st.now = func() time.Time { return base.Add(30 * time.Hour) }
	_, err = st.UpsertNeighborhood(ctx, sampleNeighborhood("78704"))
	require.NoError(t, err)

	got, err := st.GetNeighborhood(ctx, "78704")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLite_DegradedKeyRoundTrip(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)
	ctx := context.Background()

	n := sampleNeighborhood("somewhere nice")
	n.Name = "somewhere nice"
	_, err := st.UpsertNeighborhood(ctx, n)
	require.NoError(t, err)

	got, err := st.GetNeighborhood(ctx, "somewhere nice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "somewhere nice", got.PostalCode)
}

func TestSQLite_Comparisons(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)
	ctx := context.Background()

	c1, err := st.CreateComparison(ctx, []string{"n1", "n2"})
	require.NoError(t, err)
	assert.NotEmpty(t, c1.ID)

	c2, err := st.CreateComparison(ctx, []string{"n3"})
	require.NoError(t, err)

	list, err := st.ListComparisons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, st.DeleteComparison(ctx, c1.ID))

	list, err = st.ListComparisons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c2.ID, list[0].ID)
	assert.Equal(t, []string{"n3"}, list[0].NeighborhoodIDs)
}

func TestSQLite_CreateComparison_Invalid(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)

	_, err := st.CreateComparison(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrInvalidComparison)

	_, err = st.CreateComparison(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, model.ErrInvalidComparison)
}

func TestSQLite_DeleteComparison_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestSQLite(t)

	err := st.DeleteComparison(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
