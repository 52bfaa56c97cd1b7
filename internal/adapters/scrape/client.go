// Package scrape fetches and parses pro-football-reference pages.
//
// All requests made through one Client share a token-bucket limiter with a
// single token refilled every delay, so consecutive fetches are spaced by at
// least that gap regardless of caller.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/pkg/logger"
	"github.com/okian/pprforecast/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultDelay     = 2500 * time.Millisecond
	defaultTimeout   = 30 * time.Second
	defaultMaxBody   = 4 << 20
	defaultUserAgent = "pprforecast/1.0"

	pageRoster    = "roster"
	pageSeasonLog = "season_log"
)

// Client is a paced HTTP fetcher.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	delay     time.Duration
	userAgent string
	maxBody   int64
	log       logger.Logger
}

// NewClient creates a Client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		delay:     defaultDelay,
		userAgent: defaultUserAgent,
		maxBody:   defaultMaxBody,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	limit := rate.Inf
	if c.delay > 0 {
		limit = rate.Every(c.delay)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// Roster fetches and parses the season roster listing.
func (c *Client) Roster(ctx context.Context, url string) ([]model.Player, error) {
	body, err := c.get(ctx, pageRoster, url)
	if err != nil {
		return nil, err
	}
	players, err := ParseRoster(bytes.NewReader(body), url)
	if err != nil {
		return nil, Classify(url, err)
	}
	return players, nil
}

// SeasonLog fetches a player page and returns its seasons, most recent first.
func (c *Client) SeasonLog(ctx context.Context, url string) (model.SeasonHistory, error) {
	body, err := c.get(ctx, pageSeasonLog, url)
	if err != nil {
		return nil, err
	}
	h, err := ParseSeasonLog(bytes.NewReader(body))
	if err != nil {
		return nil, Classify(url, err)
	}
	return h, nil
}

// get waits for a limiter token and reads a capped 2xx body.
func (c *Client) get(ctx context.Context, page, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordFetch(page, 0)
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordFetch(page, resp.StatusCode)

	c.log.Debug(ctx, "fetched page",
		logger.String("page", page),
		logger.String("url", url),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindNetwork, URL: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	limit := c.maxBody
	if limit < math.MaxInt64 {
		limit++
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &Error{Kind: KindNetwork, URL: url, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}
	return body, nil
}
