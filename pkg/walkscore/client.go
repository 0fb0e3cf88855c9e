// Package walkscore provides a client for the Walk Score API, which
// rates an address's walkability, transit access, and bikeability on a
// 0-100 scale.
package walkscore

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

const defaultBaseURL = "https://api.walkscore.com"

// Scores holds the three mobility ratings for an address. Zero means
// "unknown"; the API omits scores it cannot compute.
type Scores struct {
	Walk    int `json:"walk"`
	Transit int `json:"transit"`
	Bike    int `json:"bike"`
}

// Client fetches mobility scores for a coordinate-anchored address.
type Client interface {
	Scores(ctx context.Context, address string, lat, lng float64) (*Scores, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Walk Score client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type scoreResponse struct {
	Walkscore *int `json:"walkscore"`
	Transit   *struct {
		Score *int `json:"score"`
	} `json:"transit"`
	Bike *struct {
		Score *int `json:"score"`
	} `json:"bike"`
}

// Scores fetches the walk, transit, and bike scores for the address at
// the given coordinates. The API requires both the address text and the
// lat/lng pair; transit and bike ratings are requested explicitly.
func (c *httpClient) Scores(ctx context.Context, address string, lat, lng float64) (*Scores, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "walkscore: rate limit")
	}

	params := url.Values{
		"format":   {"json"},
		"address":  {address},
		"lat":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":      {strconv.FormatFloat(lng, 'f', -1, 64)},
		"transit":  {"1"},
		"bike":     {"1"},
		"wsapikey": {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/score?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "walkscore: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "walkscore: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("walkscore: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "walkscore: read body")
	}

	var scoreResp scoreResponse
	if err := json.Unmarshal(body, &scoreResp); err != nil {
		return nil, eris.Wrap(err, "walkscore: parse response")
	}

	scores := &Scores{}
	if scoreResp.Walkscore != nil {
		scores.Walk = *scoreResp.Walkscore
	}
	if scoreResp.Transit != nil && scoreResp.Transit.Score != nil {
		scores.Transit = *scoreResp.Transit.Score
	}
	if scoreResp.Bike != nil && scoreResp.Bike.Score != nil {
		scores.Bike = *scoreResp.Bike.Score
	}
	return scores, nil
}
