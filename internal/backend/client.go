// Package backend is the HTTP client for the storefront's remote API: menu,
// weekly meal plans, payment sessions, order placement and order history.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const maxBodyBytes = 4 << 20

type Config struct {
	BaseURL string
	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive transport or 5xx
	// failures that opens the breaker. Zero means 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open. Zero means 30s.
	OpenTimeout time.Duration
	// Transport is wrapped with otelhttp. Nil means http.DefaultTransport.
	Transport http.RoundTripper
}

type response struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	group   singleflight.Group
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "backend",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var serr *ServerError
			return errors.As(err, &serr) && serr.StatusCode < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(cfg.Transport),
		},
		breaker: breaker,
	}
}

// do sends one request through the breaker. Any non-2xx status comes back as
// a *ServerError; everything else that goes wrong is a *NetworkError.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (*response, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: %s: encode request: %w", op, err)
		}
		payload = b
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := middleware.GetReqID(ctx); id != "" {
			req.Header.Set(middleware.RequestIDHeader, id)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		out := &response{status: res.StatusCode, body: data}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return out, &ServerError{Op: op, StatusCode: res.StatusCode, Body: string(data)}
		}
		return out, nil
	})

	var serr *ServerError
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &serr):
		slog.WarnContext(ctx, "backend returned error status", "op", op, "status", serr.StatusCode)
		return resp, serr
	default:
		slog.WarnContext(ctx, "backend request failed", "op", op, "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
}

// get collapses concurrent identical GETs into one request. The shared
// request is detached from the caller that started it, so one caller giving
// up does not fail the others; it is still bounded by the client timeout.
func (c *Client) get(ctx context.Context, op, path string) (*response, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (interface{}, error) {
		return c.do(shared, op, http.MethodGet, path, nil)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*response), nil
	case <-ctx.Done():
		return nil, &NetworkError{Op: op, Err: ctx.Err()}
	}
}

func decode(op string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
