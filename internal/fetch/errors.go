package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fetch taxonomy. Typed errors below match them
// through errors.Is.
var (
	// ErrTransient marks a network or HTTP failure that may succeed on retry.
	ErrTransient = errors.New("transient fetch failure")

	// ErrBlocked marks a response carrying bot-detection markers.
	ErrBlocked = errors.New("upstream blocked automated access")

	// ErrExhausted marks a fetch that used every allowed attempt.
	ErrExhausted = errors.New("fetch retries exhausted")
)

// TransientError describes one failed attempt that is worth retrying.
type TransientError struct {
	URL        string
	StatusCode int  // 0 when no response was received
	Timeout    bool // the per-attempt deadline expired
	Err        error
}

func (e *TransientError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("request %s timed out", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	default:
		return fmt.Sprintf("request %s: %v", e.URL, e.Err)
	}
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// BlockedError is returned as soon as a response looks like a CAPTCHA or
// "unusual traffic" page. It is never retried.
type BlockedError struct {
	URL        string
	Marker     string
	Attempt    int
	StatusCode int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked fetching %s (marker %q, attempt %d, status %d)", e.URL, e.Marker, e.Attempt, e.StatusCode)
}

func (e *BlockedError) Is(target error) bool { return target == ErrBlocked }

// FetchError is returned after the retry budget is spent.
type FetchError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: all %d attempts failed: %v", e.URL, e.Attempts, e.Last)
}

func (e *FetchError) Unwrap() []error { return []error{ErrExhausted, e.Last} }

// IsBlocked reports whether err stems from bot detection.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}

// IsTransient reports whether err is a retryable failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsExhausted reports whether err means the retry budget ran out.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
