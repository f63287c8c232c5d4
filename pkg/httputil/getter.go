package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/matzehuels/familytree/pkg/buildinfo"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
)

// ErrBreakerOpen is returned by [Getter.Get] while the breaker for a host is open.
var ErrBreakerOpen = errors.New("circuit breaker open")

// Default settings for [Getter].
const (
	DefaultTimeout  = 10 * time.Second
	DefaultAttempts = 3
	DefaultDelay    = 200 * time.Millisecond
	DefaultMaxDelay = 5 * time.Second
	DefaultMaxBytes = 8 << 20
)

// Getter fetches URLs with retry and a per-host circuit breaker.
// It is safe for concurrent use.
type Getter struct {
	client   *http.Client
	backoff  Backoff
	accept   string
	maxBytes int64
	trips    uint32
	cooldown time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// GetterOption configures a [Getter].
type GetterOption func(*Getter)

// WithClient sets the underlying HTTP client.
func WithClient(c *http.Client) GetterOption { return func(g *Getter) { g.client = c } }

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) GetterOption {
	return func(g *Getter) { g.backoff.Attempts, g.backoff.Delay = attempts, delay }
}

// WithBackoff replaces the whole retry schedule.
func WithBackoff(b Backoff) GetterOption { return func(g *Getter) { g.backoff = b } }

// WithAccept rejects responses whose Content-Type does not start with
// prefix, such as "image/" for avatars. Rejections are ASSET_LOAD errors and
// are not retried.
func WithAccept(prefix string) GetterOption { return func(g *Getter) { g.accept = prefix } }

// WithMaxBytes limits the size of a response body.
func WithMaxBytes(n int64) GetterOption { return func(g *Getter) { g.maxBytes = n } }

// WithBreaker sets how many consecutive failures open a host's breaker and
// how long it stays open.
func WithBreaker(trips uint32, cooldown time.Duration) GetterOption {
	return func(g *Getter) { g.trips, g.cooldown = trips, cooldown }
}

// NewGetter creates a Getter with default settings.
func NewGetter(opts ...GetterOption) *Getter {
	g := &Getter{
		client:   &http.Client{Timeout: DefaultTimeout},
		backoff:  DefaultBackoff(),
		maxBytes: DefaultMaxBytes,
		trips:    5,
		cooldown: 30 * time.Second,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get fetches rawURL and returns the body and its Content-Type.
//
// Every try passes through the host's breaker, so retries stop as soon as
// the breaker opens. Errors carry a [ferrors.Code]: NOT_FOUND for 404,
// RATE_LIMITED for 429 after retries, ASSET_LOAD for a rejected content
// type, NETWORK_ERROR otherwise.
func (g *Getter) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid URL")
	}
	cb := g.breaker(u.Host)

	type result struct {
		body []byte
		ct   string
	}
	var res result
	err = g.backoff.Retry(ctx, func(int) error {
		out, err := cb.Execute(func() (any, error) {
			body, ct, err := g.do(ctx, rawURL)
			return result{body, ct}, err
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrBreakerOpen
		}
		if err != nil {
			return err
		}
		res = out.(result)
		return nil
	})
	switch {
	case errors.Is(err, ErrBreakerOpen):
		return nil, "", ferrors.Wrap(ferrors.ErrCodeNetwork, ErrBreakerOpen, u.Host)
	case err != nil:
		return nil, "", classify(err)
	}
	return res.body, res.ct, nil
}

func (g *Getter) do(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", Transient(err, 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := retryAfter(resp)
		return nil, "", Transient(&statusError{code: resp.StatusCode, retryAfter: wait}, wait)
	case resp.StatusCode >= 500:
		return nil, "", Transient(&statusError{code: resp.StatusCode}, 0)
	case resp.StatusCode >= 400:
		return nil, "", &statusError{code: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if g.accept != "" && !strings.HasPrefix(ct, g.accept) {
		return nil, "", ferrors.New(ferrors.ErrCodeAssetLoad, "unexpected content type %q, want %s*", ct, g.accept)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return nil, "", Transient(err, 0)
	}
	if int64(len(body)) > g.maxBytes {
		return nil, "", fmt.Errorf("response exceeds %d bytes", g.maxBytes)
	}
	return body, ct, nil
}

func (g *Getter) breaker(host string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[host]; ok {
		return cb
	}
	trips := g.trips
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: g.cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= trips
		},
		// Client errors say nothing about host health.
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || ferrors.Is(err, ferrors.ErrCodeAssetLoad) ||
				(errors.As(err, &se) && se.code < 500 && se.code != http.StatusTooManyRequests)
		},
	})
	g.breakers[host] = cb
	return cb
}

type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string { return "unexpected status " + strconv.Itoa(e.code) }

func retryAfter(resp *http.Response) time.Duration {
	if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		return time.Duration(s) * time.Second
	}
	return 0
}

func classify(err error) error {
	if ferrors.Is(err, ferrors.ErrCodeAssetLoad) {
		return err
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.code == http.StatusNotFound:
			return ferrors.Wrap(ferrors.ErrCodeNotFound, err, "resource not found")
		case se.code == http.StatusTooManyRequests:
			rl := &ferrors.RateLimitedError{RetryAfter: int(se.retryAfter / time.Second), Message: err.Error()}
			return ferrors.Wrap(ferrors.ErrCodeRateLimited, rl, "rate limited")
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ferrors.Wrap(ferrors.ErrCodeTimeout, err, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "request failed")
}
