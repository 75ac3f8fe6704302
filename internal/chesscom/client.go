// Package chesscom is a thin client for the chess.com public archive API.
package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// ErrPlayerNotFound reports a username the archive has never heard of.
var ErrPlayerNotFound = errors.New("chess.com player not found")

var errNotFound = errors.New("not found")

const defaultUserAgent = "chesstrail/0.1 (+https://github.com/openinglab/chesstrail)"

type Client struct {
	baseURL   string
	http      *fasthttp.Client
	userAgent string

	defaultTimeout time.Duration
	retryMax       int
	log            *zap.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 20 * time.Second, WriteTimeout: 20 * time.Second, MaxConnsPerHost: 4},
		userAgent:      defaultUserAgent,
		defaultTimeout: 20 * time.Second,
		retryMax:       3,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MonthlyGames fetches one month of a player's finished games. The API
// answers 404 for a month without games; that comes back as an empty slice.
func (c *Client) MonthlyGames(ctx context.Context, username string, year, month int) ([]Game, error) {
	path := fmt.Sprintf("/pub/player/%s/games/%04d/%02d", escapeUsername(username), year, month)
	var out monthResponse
	if err := c.getJSON(ctx, path, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return []Game{}, nil
		}
		return nil, err
	}
	return out.Games, nil
}

// Archives lists the monthly archive URLs available for a player. A 404
// here means the player does not exist.
func (c *Client) Archives(ctx context.Context, username string) ([]string, error) {
	path := fmt.Sprintf("/pub/player/%s/games/archives", escapeUsername(username))
	var out archivesResponse
	if err := c.getJSON(ctx, path, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return out.Archives, nil
}

// escapeUsername lowercases the name the way the archive canonicalizes it;
// the plain client does not follow redirects.
func escapeUsername(username string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(username)))
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	target := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(target)
	req.Header.SetUserAgent(c.userAgent)
	req.Header.Set("Accept", "application/json")

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			lastErr = fmt.Errorf("request %s: %w", target, err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status == fasthttp.StatusNotFound {
			return errNotFound
		}
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			lastErr = fmt.Errorf("chess.com api error: status=%d body=%s", status, truncate(body, 512))
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			c.log.Warn("chesscom_retry",
				zap.Int("status", status),
				zap.Int("attempt", attempt),
				zap.String("url", target))
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

// shouldRetryStatus covers transient server errors and the archive's rate
// limiting response.
func shouldRetryStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
