package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostalCode(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPostalCode("78704"))
	assert.True(t, IsPostalCode("00000"))
	assert.False(t, IsPostalCode("7870"))
	assert.False(t, IsPostalCode("787041"))
	assert.False(t, IsPostalCode("78704 "))
	assert.False(t, IsPostalCode("7870a"))
	assert.False(t, IsPostalCode("capitol hill"))
}

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()

	got, err := NormalizeQuery("  capitol hill seattle  ")
	require.NoError(t, err)
	assert.Equal(t, "capitol hill seattle", got)

	_, err = NormalizeQuery(" a ")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = NormalizeQuery("")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	_, err = NormalizeQuery(string(long))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestNormalizeQuery_CountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	// 50 characters but 150 bytes; must pass the 100-character limit.
	multibyte := strings.Repeat("東", 50)
	got, err := NormalizeQuery(multibyte)
	require.NoError(t, err)
	assert.Equal(t, multibyte, got)

	_, err = NormalizeQuery(strings.Repeat("東", 101))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCommunityTexts_Order(t *testing.T) {
	t.Parallel()

	snaps := Snapshots{
		Social: SocialSnapshot{Posts: []string{"post1", "post2"}},
		Places: PlacesSnapshot{ReviewTexts: []string{"review1"}},
	}
	assert.Equal(t, []string{"post1", "post2", "review1"}, snaps.CommunityTexts())

	assert.Empty(t, Snapshots{}.CommunityTexts())
}

func TestSavedComparison_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, SavedComparison{NeighborhoodIDs: []string{"a"}}.Validate())
	assert.NoError(t, SavedComparison{NeighborhoodIDs: []string{"a", "b"}}.Validate())

	assert.ErrorIs(t, SavedComparison{}.Validate(), ErrInvalidComparison)
	assert.ErrorIs(t, SavedComparison{NeighborhoodIDs: []string{"a", "b", "c"}}.Validate(), ErrInvalidComparison)
	assert.ErrorIs(t, SavedComparison{NeighborhoodIDs: []string{"a", "  "}}.Validate(), ErrInvalidComparison)
}
