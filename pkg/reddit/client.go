// Package reddit provides a client for Reddit's public JSON search API.
// No authentication is required; a descriptive User-Agent is.
package reddit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://www.reddit.com"
	defaultUserAgent = "NeighborLens/1.0"

	// maxPosts caps results to the ten most relevant recent posts.
	maxPosts = 10
)

// Client searches community discussion posts.
type Client interface {
	Search(ctx context.Context, place string) ([]string, error)
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
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Reddit search client.
func NewClient(userAgent string, opts ...Option) Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(1, 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Title    string `json:"title"`
				Selftext string `json:"selftext"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search returns up to ten post bodies mentioning the place, most
// relevant first, restricted to the last year. Posts are discussion
// about neighborhoods, so the place name is qualified accordingly.
func (c *httpClient) Search(ctx context.Context, place string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "reddit: rate limit")
	}

	params := url.Values{
		"q":     {place + " neighborhood"},
		"sort":  {"relevance"},
		"limit": {"10"},
		"t":     {"year"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("reddit: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: read body")
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, eris.Wrap(err, "reddit: parse response")
	}

	var posts []string
	for _, child := range searchResp.Data.Children {
		text := strings.TrimSpace(child.Data.Title + " " + child.Data.Selftext)
		if text == "" {
			continue
		}
		posts = append(posts, text)
		if len(posts) == maxPosts {
			break
		}
	}
	return posts, nil
}
