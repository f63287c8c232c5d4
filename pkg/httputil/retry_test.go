package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
)

func TestBackoffRetry(t *testing.T) {
	transient := Transient(errors.New("connection reset"), 0)
	notFound := &statusError{code: 404}
	badImage := ferrors.New(ferrors.ErrCodeAssetLoad, "not an image")

	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, nil, 3, 1, false},
		{"transient recovers", 2, transient, 3, 3, false},
		{"transient exhausted", 5, transient, 3, 3, true},
		{"client error stops", 5, notFound, 3, 1, true},
		{"asset load stops", 5, Transient(badImage, 0), 3, 1, true},
		{"breaker open stops", 5, Transient(ErrBreakerOpen, 0), 3, 1, true},
		{"zero attempts tries once", 0, nil, 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			b := Backoff{Attempts: tt.attempts, Delay: time.Millisecond}
			err := b.Retry(context.Background(), func(n int) error {
				calls++
				if n != calls {
					t.Errorf("try number = %d, want %d", n, calls)
				}
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackoffWait(t *testing.T) {
	b := Backoff{Delay: 100 * time.Millisecond, MaxDelay: time.Second}
	tests := []struct {
		name  string
		delay time.Duration
		err   error
		want  time.Duration
	}{
		{"plain delay", 100 * time.Millisecond, Transient(errors.New("x"), 0), 100 * time.Millisecond},
		{"retry-after raises", 100 * time.Millisecond, Transient(errors.New("x"), 500*time.Millisecond), 500 * time.Millisecond},
		{"retry-after capped", 100 * time.Millisecond, Transient(errors.New("x"), time.Hour), time.Second},
		{"doubling capped", 4 * time.Second, Transient(errors.New("x"), 0), time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.wait(tt.delay, tt.err); got != tt.want {
				t.Errorf("wait = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := Backoff{Attempts: 3, Delay: time.Hour}
	err := b.Retry(ctx, func(int) error {
		return Transient(errors.New("avatar host down"), 0)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unmarked", errors.New("boom"), true},
		{"transient", Transient(errors.New("timeout"), 0), false},
		{"transient status", Transient(&statusError{code: 503}, 0), false},
		{"breaker", ErrBreakerOpen, true},
		{"asset load", ferrors.New(ferrors.ErrCodeAssetLoad, "bad image"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Permanent(tt.err); got != tt.want {
				t.Errorf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
