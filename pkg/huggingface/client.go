// Package huggingface provides a client for the HuggingFace inference
// API, used for sentiment classification of community text.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co/models"
	defaultModel   = "cardiffnlp/twitter-roberta-base-sentiment"
)

// Client classifies texts by sentiment.
type Client interface {
	Classify(ctx context.Context, texts []string) ([]Label, error)
}

// Label is the top-confidence classification for one input text.
type Label struct {
	Name  string  `json:"label"`
	Score float64 `json:"score"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default inference API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithModel overrides the default sentiment model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
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
	model   string
	http    *http.Client
}

// NewClient creates a HuggingFace inference client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type inferenceRequest struct {
	Inputs []string `json:"inputs"`
}

// Classify returns the top label per input text, in input order.
func (c *httpClient) Classify(ctx context.Context, texts []string) ([]Label, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: texts})
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.model, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "huggingface: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("huggingface: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	// One label set per input text.
	var labelSets [][]Label
	if err := json.Unmarshal(respBody, &labelSets); err != nil {
		return nil, eris.Wrap(err, "huggingface: parse response")
	}

	tops := make([]Label, 0, len(labelSets))
	for _, set := range labelSets {
		if len(set) == 0 {
			continue
		}
		top := set[0]
		for _, l := range set[1:] {
			if l.Score > top.Score {
				top = l
			}
		}
		tops = append(tops, top)
	}
	return tops, nil
}
