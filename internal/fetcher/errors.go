package fetcher

import (
	"errors"
	"fmt"
)

// ErrNetwork is matched by every FetchError so callers can map it to a
// terminal network failure with errors.Is.
var ErrNetwork = errors.New("network error")

// ErrEmptyURL is returned for a blank fetch target.
var ErrEmptyURL = errors.New("fetch: empty url")

// FetchError reports a fetch that failed after all permitted attempts.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports ErrNetwork as a match.
func (e *FetchError) Is(target error) bool { return target == ErrNetwork }

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }
