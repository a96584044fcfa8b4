package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"
)

// Policy describes how often and how long a call is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, the first one included.
	MaxAttempts int

	// Initial is the wait before the first retry. It doubles on every
	// further attempt, with jitter.
	Initial time.Duration

	// Max caps the wait between attempts.
	Max time.Duration
}

// DefaultPolicy returns five attempts starting at one second.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, Initial: time.Second, Max: 32 * time.Second}
}

// transientCodes are the HTTP statuses worth another attempt.
var transientCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsTransient reports whether err is a quota, server side or network
// timeout failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientCodes[apiErr.Code]
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// retryer is a gax.Retryer bounded by a number of attempts.
type retryer struct {
	op       string
	backoff  gax.Backoff
	max      int
	attempts int
	logger   *slog.Logger
}

// Retry implements gax.Retryer.
func (r *retryer) Retry(err error) (time.Duration, bool) {
	r.attempts++
	if r.attempts >= r.max || !IsTransient(err) {
		return 0, false
	}
	pause := r.backoff.Pause()
	r.logger.Warn("retrying data source call",
		"op", r.op,
		"attempt", r.attempts,
		"max_attempts", r.max,
		"pause", pause,
		"error", err,
	)
	return pause, true
}

// Do runs fn until it succeeds, fails permanently or p.MaxAttempts is
// reached. op names the call in log lines. The wait between attempts
// is cut short when ctx is done.
func Do(ctx context.Context, p Policy, op string, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	call := func(ctx context.Context, _ gax.CallSettings) error {
		return fn(ctx)
	}
	newRetryer := func() gax.Retryer {
		return &retryer{
			op: op,
			backoff: gax.Backoff{
				Initial:    p.Initial,
				Max:        p.Max,
				Multiplier: 2,
			},
			max:    maxAttempts,
			logger: logger,
		}
	}
	return gax.Invoke(ctx, call, gax.WithRetry(newRetryer))
}
