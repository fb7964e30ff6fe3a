// Package retry runs an operation against a fixed delay schedule, retrying
// only errors the caller classifies as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"
)

var (
	// ErrMaxAttemptsExceeded wraps the last error once the schedule is exhausted.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when ctx ends while waiting between attempts.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// DefaultDelays is the wait before the second and third attempt.
var DefaultDelays = []time.Duration{2 * time.Second, 5 * time.Second}

// Config configures retry behavior. The number of attempts is len(Delays)+1.
type Config struct {
	Delays      []time.Duration
	IsRetryable func(error) bool
	// Wait blocks for d or until ctx is done. Tests replace it to avoid real sleeps.
	Wait func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the 2s, 5s schedule with DefaultIsRetryable.
func DefaultConfig() Config {
	return Config{
		Delays:      DefaultDelays,
		IsRetryable: DefaultIsRetryable,
		Wait:        Sleep,
	}
}

// Sleep suspends the calling goroutine only, returning early if ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
	case <-t.C:
		return nil
	}
}

// Transient marks an error as retryable regardless of its message.
type Transient struct {
	Err error
}

func (e *Transient) Error() string { return e.Err.Error() }
func (e *Transient) Unwrap() error { return e.Err }

// MarkTransient wraps err so DefaultIsRetryable accepts it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

var retryablePatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"broken pipe",
	"unexpected eof",
	"temporary failure",
	"network is unreachable",
}

// DefaultIsRetryable accepts Transient errors, net timeouts, resets, early
// EOFs and the usual transport failure messages. TLS and protocol errors
// are not retried. Context cancellation is never retried.
func DefaultIsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var transient *Transient
	if errors.As(err, &transient) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Do calls fn until it succeeds, returns a non-retryable error, or the delay
// schedule runs out. attempt is 1-based.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = DefaultIsRetryable
	}
	if cfg.Wait == nil {
		cfg.Wait = Sleep
	}

	attempts := len(cfg.Delays) + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !cfg.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt < attempts {
			if err := cfg.Wait(ctx, cfg.Delays[attempt-1]); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, attempts, lastErr)
}
