package retry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/retry"
)

func recordingConfig(waits *[]time.Duration) retry.Config {
	return retry.Config{
		Delays: retry.DefaultDelays,
		Wait: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func TestDo_FollowsDelaySchedule(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	calls := 0
	err := retry.Do(context.Background(), recordingConfig(&waits), func(int) error {
		calls++
		return retry.MarkTransient(errors.New("upstream 503"))
	})

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, waits)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	calls := 0
	permanent := errors.New("status 404")
	err := retry.Do(context.Background(), recordingConfig(&waits), func(int) error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestDo_SucceedsAfterTransient(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	err := retry.Do(context.Background(), recordingConfig(&waits), func(attempt int) error {
		if attempt == 1 {
			return errors.New("read tcp: connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, waits, 1)
}

func TestSleep_HonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, retry.ErrContextCancelled)
}

func TestDefaultIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout text", err: errors.New("i/o timeout"), want: true},
		{name: "marked transient", err: retry.MarkTransient(errors.New("status 502")), want: true},
		{name: "client error", err: errors.New("status 403"), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "server closed connection", err: fmt.Errorf("get: %w", io.EOF), want: true},
		{name: "unknown authority", err: errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, retry.DefaultIsRetryable(tt.err))
		})
	}
}
