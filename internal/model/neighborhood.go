package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// postalCodePattern matches a 5-digit US ZIP code.
var postalCodePattern = regexp.MustCompile(`^\d{5}$`)

// IsPostalCode reports whether s is exactly five ASCII digits.
func IsPostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// ErrInvalidQuery is returned for queries outside the 2-100 character range.
var ErrInvalidQuery = eris.New("query must be between 2 and 100 characters")

// NormalizeQuery trims a raw location query and validates its length.
// The limit counts characters, not bytes, so multibyte place names near
// the boundary are not wrongly rejected.
func NormalizeQuery(raw string) (string, error) {
	q := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(q); n < 2 || n > 100 {
		return "", ErrInvalidQuery
	}
	return q, nil
}

// ResolvedLocation is the output of the resolution chain. PostalCode is
// either exactly five digits or, when every strategy failed, the original
// query string (degraded mode).
type ResolvedLocation struct {
	PostalCode  string   `json:"postal_code"`
	DisplayName string   `json:"display_name"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Source      string   `json:"source,omitempty"`
	Degraded    bool     `json:"degraded,omitempty"`
}

// CensusData holds the demographic figures for a postal area. Zero values
// mean "unknown"; fields are never negative.
type CensusData struct {
	Population   int     `json:"population"`
	MedianIncome int     `json:"median_income"`
	MedianAge    float64 `json:"median_age"`
}

// CensusSnapshot is the demographic provider payload.
type CensusSnapshot struct {
	DisplayName string `json:"display_name"`
	CensusData
}

// SocialSnapshot holds community discussion posts, newest/most relevant
// first, at most ten.
type SocialSnapshot struct {
	Posts []string `json:"posts"`
}

// PlacesSnapshot holds nearby amenity names and review snippets.
type PlacesSnapshot struct {
	AmenityNames []string `json:"amenity_names"`
	ReviewTexts  []string `json:"review_texts"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// MobilitySnapshot holds the 0-100 walkability ratings for a location.
// All zeros when the provider is unavailable or has no data.
type MobilitySnapshot struct {
	WalkScore    int `json:"walk_score"`
	TransitScore int `json:"transit_score"`
	BikeScore    int `json:"bike_score"`
}

// Snapshots bundles the four independent acquisition results.
type Snapshots struct {
	Census   CensusSnapshot   `json:"census"`
	Social   SocialSnapshot   `json:"social"`
	Places   PlacesSnapshot   `json:"places"`
	Mobility MobilitySnapshot `json:"mobility"`
}

// CommunityTexts returns social posts followed by review snippets, the
// combined corpus fed to sentiment scoring.
func (s Snapshots) CommunityTexts() []string {
	texts := make([]string, 0, len(s.Social.Posts)+len(s.Places.ReviewTexts))
	texts = append(texts, s.Social.Posts...)
	texts = append(texts, s.Places.ReviewTexts...)
	return texts
}

// RawData is the per-source payload persisted alongside a neighborhood.
type RawData struct {
	Census         CensusData `json:"census"`
	Amenities      []string   `json:"amenities"`
	CommunityPosts []string   `json:"community_posts"`
	Reviews        []string   `json:"reviews"`
}

// Neighborhood is the enriched record for one postal area. PostalCode is
// the sole uniqueness key in the store; re-enrichment fully replaces the
// record and resets CachedAt.
type Neighborhood struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PostalCode     string    `json:"postal_code"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	CachedAt       time.Time `json:"cached_at"`
	RawData        RawData   `json:"raw_data"`
	WalkScore      int       `json:"walk_score"`
	TransitScore   int       `json:"transit_score"`
	BikeScore      int       `json:"bike_score"`
	SentimentScore float64   `json:"sentiment_score"`
	VibeSummary    string    `json:"vibe_summary"`
	LifestyleTags  []string  `json:"lifestyle_tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SavedComparison bookmarks one or two neighborhoods for side-by-side view.
type SavedComparison struct {
	ID              string    `json:"id"`
	NeighborhoodIDs []string  `json:"neighborhood_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ErrInvalidComparison is returned when a comparison does not reference
// one or two neighborhoods.
var ErrInvalidComparison = eris.New("comparison must reference 1 or 2 neighborhoods")

// Validate checks the comparison references 1-2 neighborhood IDs.
func (c SavedComparison) Validate() error {
	if len(c.NeighborhoodIDs) < 1 || len(c.NeighborhoodIDs) > 2 {
		return ErrInvalidComparison
	}
	for _, id := range c.NeighborhoodIDs {
		if strings.TrimSpace(id) == "" {
			return ErrInvalidComparison
		}
	}
	return nil
}
