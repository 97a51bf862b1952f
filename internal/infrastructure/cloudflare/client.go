// Package cloudflare wraps the Cloudflare v4 REST API behind typed calls.
// Every response is parsed from the standard {success, errors, messages,
// result} envelope and validated before it crosses into the application
// layer. The client never retries; a failed call aborts the current
// reconciliation step.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
)

const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

type Option func(*Client)

// WithBaseURL points the client at a different API root (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(token string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success  bool            `json:"success"`
	Errors   []apiMessage    `json:"errors"`
	Messages []apiMessage    `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

// call performs one authenticated request and decodes the envelope's
// result into out. out may be nil when the caller only cares about success.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request for %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &domain.TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("method", method).Str("path", path).Msg("cloudflare api call")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Method: method, Path: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.TransportError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &domain.SchemaError{Path: path, Detail: fmt.Sprintf("envelope is not valid JSON: %v", err)}
	}
	if !env.Success {
		apiErr := &domain.APIError{Method: method, Path: path}
		for _, m := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, fmt.Sprintf("%d: %s", m.Code, m.Message))
		}
		if len(apiErr.Messages) == 0 {
			apiErr.Messages = []string{"provider reported failure without error details"}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &domain.SchemaError{Path: path, Detail: "result is missing"}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &domain.SchemaError{Path: path, Detail: fmt.Sprintf("result does not match expected shape: %v", err)}
	}
	return nil
}
