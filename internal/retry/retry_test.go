package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	notFound := WithStatus(404, errors.New("not_found"))

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad gateway", err: WithStatus(502, errors.New("bad gateway")), want: true},
		{name: "service unavailable", err: WithStatus(503, errors.New("unavailable")), want: true},
		{name: "rate limited", err: WithStatus(429, errors.New("rate_limit_exceeded")), want: true},
		{name: "wrapped server error", err: fmt.Errorf("fetching show 1: %w", WithStatus(500, errors.New("server_error"))), want: true},
		{name: "not found", err: notFound, want: false},
		{name: "unauthorized", err: WithStatus(401, errors.New("unauthorized")), want: false},
		{name: "not found with 5xx-looking id", err: fmt.Errorf("fetching related shows for %d: %w", 15003, notFound), want: false},
		{name: "not found with 429-looking id", err: fmt.Errorf("fetching related shows for %d: %w", 4290, notFound), want: false},
		{name: "status text without status", err: errors.New("503 service unavailable"), want: false},
		{name: "net error", err: &net.OpError{Op: "dial", Err: errors.New("no route")}, want: true},
		{name: "unexpected eof", err: fmt.Errorf("reading body: %w", io.ErrUnexpectedEOF), want: true},
		{name: "deadline", err: fmt.Errorf("fetching: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", err: fmt.Errorf("fetching: %w", context.Canceled), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestWithStatus(t *testing.T) {
	assert.NoError(t, WithStatus(500, nil))

	base := errors.New("server_error")
	err := WithStatus(500, base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "status 500: server_error", err.Error())
}

func testPolicy(attempts int) Policy {
	return NewPolicy(attempts, time.Millisecond).Named("test")
}

func TestDo_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), testPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", WithStatus(503, errors.New("service unavailable"))
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testPolicy(2), func(context.Context) (int, error) {
		calls++
		return 0, &net.OpError{Op: "read", Err: errors.New("connection reset by peer")}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	notFound := WithStatus(404, errors.New("not found"))
	calls := 0
	_, err := Do(context.Background(), testPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("fetching related shows for 15003: %w", notFound)
	})

	require.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, calls)
}

func TestNewPolicy_Defaults(t *testing.T) {
	p := NewPolicy(0, 0)
	assert.Equal(t, uint(defaultAttempts), p.Attempts)
	assert.Equal(t, defaultInitialDelay, p.InitialDelay)
}
