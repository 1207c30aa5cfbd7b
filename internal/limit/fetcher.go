package limit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"agegate/internal/logger"
	"agegate/internal/metrics"
)

// maxBodyBytes caps how much of a response body is read; limit documents
// are small and a misbehaving endpoint must not exhaust memory.
const maxBodyBytes = 1 << 20

// Fetcher issues single GET requests against the limit service and resolves
// each response to an Outcome. It holds no mutable state and is safe for
// reuse across refresh cycles.
type Fetcher struct {
	client   *http.Client
	url      string
	username string
	password string
	keys     []string
	fallback float64
}

// FetcherConfig holds the options passed through to the HTTP collaborator.
type FetcherConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	Keys     []string
	Fallback float64
	Client   *http.Client // optional; a default client is built from Timeout
}

// NewFetcher creates a fetcher for the given endpoint.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:   client,
		url:      cfg.URL,
		username: cfg.Username,
		password: cfg.Password,
		keys:     cfg.Keys,
		fallback: cfg.Fallback,
	}
}

// Fetch performs one fetch-and-decode cycle. It never returns an unusable
// limit: every branch resolves to either the decoded value or the fallback.
func (f *Fetcher) Fetch(ctx context.Context) Outcome {
	log := logger.WithComponent("limit_fetcher")
	start := time.Now()

	outcome := f.fetch(ctx)

	metrics.LimitRefreshDuration.Observe(time.Since(start).Seconds())
	metrics.LimitRefreshTotal.WithLabelValues(outcome.Kind.String()).Inc()

	switch outcome.Kind {
	case Success:
		log.Debug().
			Str("url", f.url).
			Float64("limit", outcome.Limit).
			Msg("limit fetched")
	case TransportError:
		log.Warn().
			Err(outcome.Err).
			Str("url", f.url).
			Float64("fallback", f.fallback).
			Msg("limit service unreachable, using fallback")
	case HTTPStatusError:
		log.Warn().
			Err(outcome.Err).
			Str("url", f.url).
			Int("status", outcome.StatusCode).
			Float64("fallback", f.fallback).
			Msg("limit service returned non-2xx, using fallback")
	case DecodeError:
		log.Warn().
			Err(outcome.Err).
			Str("url", f.url).
			Strs("path", f.keys).
			Float64("fallback", f.fallback).
			Msg("limit response undecodable, using fallback")
	}

	return outcome
}

func (f *Fetcher) fetch(ctx context.Context) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Outcome{Kind: TransportError, Limit: f.fallback, Err: err}
	}
	if f.username != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Outcome{Kind: TransportError, Limit: f.fallback, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Outcome{Kind: TransportError, Limit: f.fallback, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{
			Kind:       HTTPStatusError,
			Limit:      f.fallback,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256)),
		}
	}

	value, err := Decode(body, f.keys, f.fallback)
	if err != nil {
		return Outcome{Kind: DecodeError, Limit: f.fallback, Err: err}
	}

	return Outcome{Kind: Success, Limit: value}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
