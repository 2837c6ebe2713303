// Package scorer is a client for an Ollama-compatible text generation service.
package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/crimson-sun/canopy/internal/engine/compactor"
)

// ErrModelMissing is returned by Available when the service is up but does
// not serve the configured model.
var ErrModelMissing = errors.New("model not available")

// MaxErrorBody is the number of runes of a failed response kept in StatusError.
const MaxErrorBody = 512

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scorer returned status %d: %s", e.Code, e.Body)
}

// Config holds connection and sampling settings.
type Config struct {
	Host        string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxRetries  int
	RetryDelay  time.Duration
}

// Client sends generation requests. It is safe for concurrent use.
type Client struct {
	cfg    Config
	client *fasthttp.Client
}

// New creates a Client. Zero values fall back to local defaults.
func New(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Client{
		cfg: cfg,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
		},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate asks the model for a JSON-formatted completion and returns the raw
// response text. Transport errors and 5xx responses are retried; 4xx are not.
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
			"top_p":       0.9,
			"num_predict": 2048,
		},
	})
	if err != nil {
		return "", fmt.Errorf("scorer: encoding request: %w", err)
	}

	var lastErr error
	delay := c.cfg.RetryDelay
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return "", ctx.Err()
			case <-t.C:
			}
			delay *= 2
		}

		status, respBody, err := c.do(ctx, fasthttp.MethodPost, "/api/generate", body)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("scorer: request failed: %w", err)
			slog.Warn("scorer request failed", "component", "scorer", "attempt", attempt+1, "error", err)
			continue
		}
		if status >= 200 && status < 300 {
			var out generateResponse
			if err := json.Unmarshal(respBody, &out); err != nil {
				return "", fmt.Errorf("scorer: decoding response: %w", err)
			}
			return out.Response, nil
		}

		lastErr = &StatusError{Code: status, Body: compactor.Truncate(string(respBody), MaxErrorBody)}
		if status >= 400 && status < 500 {
			return "", lastErr
		}
		slog.Warn("scorer returned error status", "component", "scorer", "attempt", attempt+1, "status_code", status)
	}
	return "", lastErr
}

// Available checks that the service answers and serves the configured model.
func (c *Client) Available(ctx context.Context) error {
	status, body, err := c.do(ctx, fasthttp.MethodGet, "/api/tags", nil)
	if err != nil {
		return fmt.Errorf("scorer: %s unreachable: %w", c.cfg.Host, err)
	}
	if status != fasthttp.StatusOK {
		return &StatusError{Code: status, Body: compactor.Truncate(string(body), MaxErrorBody)}
	}
	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return fmt.Errorf("scorer: decoding tags: %w", err)
	}
	for _, m := range tags.Models {
		if strings.HasPrefix(m.Name, c.cfg.Model) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModelMissing, c.cfg.Model)
}

type result struct {
	status int
	body   []byte
	err    error
}

// do runs one request. The request runs on its own goroutine, which owns and
// releases the fasthttp objects, so a cancelled context returns immediately.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	done := make(chan result, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.cfg.Host + path)
		req.Header.SetMethod(method)
		if body != nil {
			req.Header.SetContentType("application/json")
			req.SetBody(body)
		}

		err := c.client.DoTimeout(req, resp, c.cfg.Timeout)
		var r result
		r.err = err
		if err == nil {
			r.status = resp.StatusCode()
			r.body = append([]byte(nil), resp.Body()...)
		}
		done <- r
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case r := <-done:
		return r.status, r.body, r.err
	}
}

