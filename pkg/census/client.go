// Package census provides clients for the Census Bureau ACS5 data API
// and the free Census geocoder.
package census

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "https://api.census.gov/data/2021/acs/acs5"
	defaultGeocoderURL = "https://geocoding.geo.census.gov/geocoder"

	// acsVariables selects name, total population, median household
	// income, and median age.
	acsVariables = "NAME,B01003_001E,B19013_001E,B01002_001E"
)

// Client performs Census Bureau API operations.
type Client interface {
	Demographics(ctx context.Context, postalCode string) (*Demographics, error)
	AreaLookup(ctx context.Context, address string) (*AreaMatch, error)
}

// Demographics holds ACS5 figures for a ZIP code tabulation area.
// Zero values mean the area is unknown or the variable was suppressed.
type Demographics struct {
	DisplayName  string
	Population   int
	MedianIncome int
	MedianAge    float64
}

// AreaMatch is the result of a free geocoder area lookup.
type AreaMatch struct {
	ZCTA           string
	MatchedAddress string
	Latitude       float64
	Longitude      float64
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the ACS5 API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithGeocoderURL overrides the Census geocoder base URL.
func WithGeocoderURL(u string) Option {
	return func(c *httpClient) {
		c.geocoderURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	geocoderURL string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Census API client. The API key is optional for
// low-volume use.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		geocoderURL: defaultGeocoderURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Demographics fetches population, median income, and median age for a
// ZIP code tabulation area. Unknown areas return zero figures with a
// "ZIP <code>" display name rather than an error; the ACS null sentinel
// (a large negative value) is normalized to zero.
func (c *httpClient) Demographics(ctx context.Context, postalCode string) (*Demographics, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "census: rate limit")
	}

	params := url.Values{
		"get": {acsVariables},
		"for": {"zip code tabulation area:" + postalCode},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	// The ACS API answers 204 for ZCTAs it has no rows for.
	if resp.StatusCode == http.StatusNoContent {
		return &Demographics{DisplayName: "ZIP " + postalCode}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("census: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read body")
	}

	// Row 0 is the header; cells may be JSON null.
	var rows [][]*string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "census: parse response")
	}
	if len(rows) < 2 || len(rows[1]) < 4 {
		return &Demographics{DisplayName: "ZIP " + postalCode}, nil
	}

	row := rows[1]
	d := &Demographics{
		DisplayName:  cellString(row[0], "ZIP "+postalCode),
		Population:   nonNegativeInt(cellString(row[1], "0")),
		MedianIncome: nonNegativeInt(cellString(row[2], "0")),
		MedianAge:    nonNegativeFloat(cellString(row[3], "0")),
	}
	return d, nil
}

func cellString(cell *string, fallback string) string {
	if cell == nil || *cell == "" {
		return fallback
	}
	return *cell
}

// nonNegativeInt parses a numeric cell, mapping parse failures and the
// ACS null sentinel (negative values) to zero.
func nonNegativeInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func nonNegativeFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
