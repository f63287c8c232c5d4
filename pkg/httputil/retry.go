package httputil

import (
	"context"
	"errors"
	"time"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
)

// Backoff is the retry schedule of a [Getter].
type Backoff struct {
	// Attempts is the total number of tries. Values below one mean one.
	Attempts int
	// Delay is the wait before the second try. It doubles after every
	// failed try.
	Delay time.Duration
	// MaxDelay caps a single wait, including one requested through
	// Retry-After. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultBackoff returns the schedule used by [NewGetter].
func DefaultBackoff() Backoff {
	return Backoff{Attempts: DefaultAttempts, Delay: DefaultDelay, MaxDelay: DefaultMaxDelay}
}

// transientError marks a failed try that may succeed when repeated.
type transientError struct {
	err   error
	after time.Duration
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth another try. after is the wait the server
// asked for, or zero.
func Transient(err error, after time.Duration) error {
	return &transientError{err: err, after: after}
}

// Permanent reports whether err ends a retry loop. Errors not marked
// [Transient] are permanent, and so are an open breaker and avatars already
// classified as ASSET_LOAD: downloading the same bytes again cannot fix them.
func Permanent(err error) bool {
	if errors.Is(err, ErrBreakerOpen) || ferrors.Is(err, ferrors.ErrCodeAssetLoad) {
		return true
	}
	var te *transientError
	return !errors.As(err, &te)
}

// Retry calls try until it succeeds or fails permanently, waiting between
// tries. try receives the 1-based try number. When the tries run out the
// last error is returned; when ctx ends first, ctx.Err().
func (b Backoff) Retry(ctx context.Context, try func(n int) error) error {
	tries := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for n := 1; n <= tries; n++ {
		if err = try(n); err == nil || Permanent(err) {
			return err
		}
		if n == tries {
			break
		}
		timer := time.NewTimer(b.wait(delay, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

// wait is the pause after a failed try: the current delay, raised to the
// server's Retry-After and capped at MaxDelay.
func (b Backoff) wait(delay time.Duration, err error) time.Duration {
	var te *transientError
	if errors.As(err, &te) && te.after > delay {
		delay = te.after
	}
	if b.MaxDelay > 0 {
		delay = min(delay, b.MaxDelay)
	}
	return delay
}
