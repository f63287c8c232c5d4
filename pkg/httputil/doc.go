// Package httputil provides the HTTP plumbing used to fetch remote assets
// such as avatar images.
//
// # Overview
//
//   - [Backoff]: the retry schedule, doubling delays and honoring
//     Retry-After up to a cap
//   - [Getter]: a GET client that classifies responses, retries transient
//     failures and trips a circuit breaker when a host keeps failing
//
// # Retry
//
// [Backoff.Retry] repeats only errors marked [Transient]. [Getter] marks
// network errors, 5xx responses and 429 responses that way; other 4xx
// responses, an open breaker and ASSET_LOAD rejections end the loop at once
// (see [Permanent]):
//
//	b := httputil.Backoff{Attempts: 3, Delay: time.Second}
//	err := b.Retry(ctx, func(int) error {
//	    return fetch()
//	})
//
// # Circuit Breaking
//
// [Getter] keeps one breaker per host. After consecutive failures the
// breaker opens and requests to that host fail fast with
// [ErrBreakerOpen] until the breaker half-opens again. Each try counts
// against the breaker, and a retry loop stops once it opens. A tree with fifty
// avatars on a dead host then costs one timeout, not fifty.
package httputil
