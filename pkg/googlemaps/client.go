// Package googlemaps provides a client for the Google Maps Platform
// geocoding and Places web services.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// maxReviewsPerPlace caps the review snippets returned per place.
const maxReviewsPerPlace = 3

// Client performs Google Maps Platform operations.
type Client interface {
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
	ReverseGeocodePostal(ctx context.Context, lat, lng float64) (string, error)
	NearbySearch(ctx context.Context, lat, lng float64, radiusM int) ([]Place, error)
	PlaceReviews(ctx context.Context, placeID string) ([]string, error)
}

// GeocodeResult is a forward-geocode match. PostalCode is filled only
// when the matched address carries a postal-code component.
type GeocodeResult struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	PostalCode       string
	Matched          bool
}

// Place is one nearby point of interest.
type Place struct {
	ID   string
	Name string
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

// NewClient creates a Google Maps Platform client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get issues a GET request against path with params, the API key added,
// and decodes the JSON response into out.
func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "googlemaps: rate limit")
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "googlemaps: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "googlemaps: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "googlemaps: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("googlemaps: unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "googlemaps: parse response")
	}
	return nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode forward-geocodes a free-text address. A no-match answer
// returns Matched=false with a nil error.
func (c *httpClient) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", url.Values{"address": {address}}, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return &GeocodeResult{Matched: false}, nil
	}
	if resp.Status != "OK" {
		return nil, eris.Errorf("googlemaps: geocode status %s", resp.Status)
	}

	match := resp.Results[0]
	result := &GeocodeResult{
		Latitude:         match.Geometry.Location.Lat,
		Longitude:        match.Geometry.Location.Lng,
		FormattedAddress: match.FormattedAddress,
		Matched:          true,
	}
	for _, comp := range match.AddressComponents {
		for _, t := range comp.Types {
			if t == "postal_code" {
				result.PostalCode = comp.ShortName
			}
		}
	}
	return result, nil
}

// ReverseGeocodePostal reverse-geocodes coordinates requesting only
// postal-code results and returns the postal-code component. An empty
// string with nil error means the point has no postal code.
func (c *httpClient) ReverseGeocodePostal(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{
		"latlng":      {fmt.Sprintf("%f,%f", lat, lng)},
		"result_type": {"postal_code"},
	}
	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", params, &resp); err != nil {
		return "", err
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return "", nil
	}
	if resp.Status != "OK" {
		return "", eris.Errorf("googlemaps: reverse geocode status %s", resp.Status)
	}

	for _, comp := range resp.Results[0].AddressComponents {
		for _, t := range comp.Types {
			if t == "postal_code" {
				return comp.ShortName, nil
			}
		}
	}
	return "", nil
}

type nearbyResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID string `json:"place_id"`
		Name    string `json:"name"`
	} `json:"results"`
}

// NearbySearch lists points of interest around a coordinate.
func (c *httpClient) NearbySearch(ctx context.Context, lat, lng float64, radiusM int) ([]Place, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", lat, lng)},
		"radius":   {fmt.Sprintf("%d", radiusM)},
	}
	var resp nearbyResponse
	if err := c.get(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "ZERO_RESULTS" {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, eris.Errorf("googlemaps: nearby search status %s", resp.Status)
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, Place{ID: r.PlaceID, Name: r.Name})
	}
	return places, nil
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Reviews []struct {
			Text string `json:"text"`
		} `json:"reviews"`
	} `json:"result"`
}

// PlaceReviews fetches up to three review snippets for a place.
func (c *httpClient) PlaceReviews(ctx context.Context, placeID string) ([]string, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {"reviews"},
	}
	var resp detailsResponse
	if err := c.get(ctx, "/place/details/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" {
		return nil, eris.Errorf("googlemaps: place details status %s", resp.Status)
	}

	var texts []string
	for _, r := range resp.Result.Reviews {
		if r.Text == "" {
			continue
		}
		texts = append(texts, r.Text)
		if len(texts) == maxReviewsPerPlace {
			break
		}
	}
	return texts, nil
}
