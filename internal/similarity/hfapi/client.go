// Package hfapi compares sentences through a hosted sentence-similarity
// inference endpoint.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrStatus      = errors.New("unexpected status")
	ErrBadResponse = errors.New("malformed response")
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

type request struct {
	Inputs inputs `json:"inputs"`
}

type inputs struct {
	SourceSentence string   `json:"source_sentence"`
	Sentences      []string `json:"sentences"`
}

type scored struct {
	Score *float64 `json:"score"`
}

// Client calls the endpoint with a source sentence and a single candidate
// and returns the first score in the reply.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func New(endpoint, token string, opts ...Option) *Client {
	c := &Client{endpoint: endpoint, token: token, http: http.DefaultClient}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return "hf" }

// Similarity scores b against a. Transport failures, non-200 replies and
// payloads without a numeric score are errors.
func (c *Client) Similarity(ctx context.Context, a, b string) (float64, error) {
	body, err := json.Marshal(request{Inputs: inputs{SourceSentence: a, Sentences: []string{b}}})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return parseScore(data)
}

// parseScore accepts [0.42, ...] or [{"score": 0.42}, ...].
func parseScore(data []byte) (float64, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("%w: empty list", ErrBadResponse)
	}

	var n float64
	if err := json.Unmarshal(list[0], &n); err == nil {
		return n, nil
	}
	var s scored
	if err := json.Unmarshal(list[0], &s); err == nil && s.Score != nil {
		return *s.Score, nil
	}
	return 0, fmt.Errorf("%w: first element %s has no score", ErrBadResponse, truncate(list[0], 64))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
