// Package provider wraps the remote AI services behind two capabilities,
// speech synthesis and image generation.
//
// Each capability has an ordered chain of providers. A call tries them in
// order and returns the first success; a provider with no credential is
// skipped. There are no retries: every provider gets exactly one attempt, and
// when all of them fail the individual errors are joined.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4096

var (
	// ErrNoCredential is returned by a provider that has no API key or
	// endpoint configured. Chains skip such providers.
	ErrNoCredential = errors.New("no credential configured")
	// ErrNoProviders is returned by a chain with nothing to try.
	ErrNoProviders = errors.New("no providers configured")
	// ErrEmptyInput is returned for blank text or prompts.
	ErrEmptyInput = errors.New("input is empty")
)

// StatusError is a non-2xx response from a remote service.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Code, e.Body)
}

// SpeechSynthesizer turns text into audio bytes.
type SpeechSynthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// ImageGenerator turns a prompt into the URL of a generated image.
type ImageGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Option configures a provider.
type Option func(c *client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURL overrides the service endpoint.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// client is the HTTP plumbing shared by every provider.
type client struct {
	name    string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func newClient(name, baseURL string, opts []Option) client {
	c := client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = c.logger.With(zap.String("provider", name))
	return c
}

// post sends body as JSON and returns the response payload of a 2xx reply.
func (c *client) post(ctx context.Context, url string, headers map[string]string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Provider: c.name, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", c.name, err)
	}
	c.logger.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return data, nil
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// firstSuccess calls each provider in order until one succeeds.
func firstSuccess[P interface{ Name() string }, T any](ctx context.Context, logger *zap.Logger, providers []P, call func(P) (T, error)) (T, string, error) {
	var zero T
	if len(providers) == 0 {
		return zero, "", ErrNoProviders
	}

	var errs []error
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out, err := call(p)
		if err == nil {
			return out, p.Name(), nil
		}
		if errors.Is(err, ErrNoCredential) {
			logger.Debug("provider skipped", zap.String("provider", p.Name()), zap.Error(err))
		} else {
			logger.Warn("provider failed", zap.String("provider", p.Name()), zap.Error(err))
		}
		errs = append(errs, err)
	}
	return zero, "", fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
