package census

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

const (
	geocoderBenchmark = "Public_AR_Current"
	geocoderVintage   = "Current_Current"
	zctaLayer         = "Zip Code Tabulation Areas"
)

// geographiesResponse is the JSON response from the geographies
// onelineaddress endpoint.
type geographiesResponse struct {
	Result struct {
		AddressMatches []struct {
			MatchedAddress string `json:"matchedAddress"`
			Coordinates    struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			Geographies map[string][]struct {
				GeoID string `json:"GEOID"`
			} `json:"geographies"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// AreaLookup resolves a free-text address to the ZIP code tabulation
// area containing it, using the free Census geocoder. A nil result with
// nil error means no match.
func (c *httpClient) AreaLookup(ctx context.Context, address string) (*AreaMatch, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "census: rate limit")
	}

	params := url.Values{
		"address":   {address},
		"benchmark": {geocoderBenchmark},
		"vintage":   {geocoderVintage},
		"layers":    {zctaLayer},
		"format":    {"json"},
	}

	reqURL := c.geocoderURL + "/geographies/onelineaddress?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build geocoder request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: geocoder request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("census: geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read geocoder body")
	}

	var geoResp geographiesResponse
	if err := json.Unmarshal(body, &geoResp); err != nil {
		return nil, eris.Wrap(err, "census: parse geocoder response")
	}

	if len(geoResp.Result.AddressMatches) == 0 {
		return nil, nil
	}

	match := geoResp.Result.AddressMatches[0]
	result := &AreaMatch{
		MatchedAddress: match.MatchedAddress,
		Latitude:       match.Coordinates.Y,
		Longitude:      match.Coordinates.X,
	}
	if zctas := match.Geographies[zctaLayer]; len(zctas) > 0 {
		result.ZCTA = zctas[0].GeoID
	}
	return result, nil
}
