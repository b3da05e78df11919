// Package retry runs remote calls with exponential backoff, retrying only
// errors that look transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
)

const (
	defaultAttempts     = 3
	defaultInitialDelay = 2 * time.Second
	maxInterval         = 30 * time.Second
)

type Policy struct {
	Attempts     uint
	InitialDelay time.Duration
	// Name identifies the operation in log output.
	Name string
}

func NewPolicy(attempts int, initialDelay time.Duration) Policy {
	p := Policy{InitialDelay: initialDelay}
	if attempts > 0 {
		p.Attempts = uint(attempts)
	}
	return p.withDefaults()
}

func (p Policy) Named(name string) Policy {
	p.Name = name
	return p
}

func (p Policy) withDefaults() Policy {
	if p.Attempts == 0 {
		p.Attempts = defaultAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	return p
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = max(maxInterval, p.InitialDelay)
	return b
}

// Do calls op until it succeeds, returns a non-transient error, or the
// policy's attempts are used up.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()
	attempt := 0

	operation := func() (T, error) {
		attempt++
		result, err := op(ctx)
		if err != nil && !IsTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, next time.Duration) {
		log.WithFields(log.Fields{
			"component": "retry",
			"operation": p.Name,
			"attempt":   attempt,
			"retryIn":   next,
		}).WithError(err).Warn("Transient error, retrying")
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.Attempts),
		backoff.WithNotify(notify),
	)
}

// StatusError is a remote call that failed with an HTTP status.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// WithStatus tags err with the HTTP status the remote side answered.
func WithStatus(code int, err error) error {
	if err == nil {
		return nil
	}
	return &StatusError{StatusCode: code, Err: err}
}

// IsTransient reports whether err is worth retrying: network failures,
// timeouts, rate limiting and server errors. Statuses are only read from a
// StatusError, never from the error text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
