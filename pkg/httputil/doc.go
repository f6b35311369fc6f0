// Package httputil provides retry support for the HTTP strategies.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError].
// HTTP strategies wrap transient failures in it:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Everything else (404, malformed payloads, hash mismatches) is returned
// immediately. The delay doubles after every failed attempt and waiting
// stops as soon as the context is cancelled:
//
//	err := httputil.Retry(ctx, httputil.DefaultBackoff, func() error {
//	    return fetch(ctx)
//	})
//
// Retries are a property of the strategy that opts into them; the
// resolver itself never retries a failed strategy.
package httputil
