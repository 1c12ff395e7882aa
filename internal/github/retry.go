package github

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/go-github/v62/github"
)

// withRetry runs fn and retries it once on transient failures. Client errors
// (4xx) and rate limiting are returned as is.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !retryable(err) || ctx.Err() != nil {
		return err
	}
	return fn()
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return false
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode >= http.StatusInternalServerError
	}
	return true
}
