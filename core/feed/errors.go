package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrFatal marks a source error after which the producer must stop.
	ErrFatal = errors.New("feed: fatal source error")

	ErrNilSource          = errors.New("feed: source is required")
	ErrNilHub             = errors.New("feed: hub is required")
	ErrInvalidInterval    = errors.New("feed: interval must be positive")
	ErrProducerRunning    = errors.New("feed: producer already running")
	ErrProducerNotRunning = errors.New("feed: producer not running")
	ErrUnknownSource      = errors.New("feed: unknown source kind")
)

// FetchError wraps a failed fetch with the name of the source that failed.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch from %s failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fatal marks err as unrecoverable. The producer publishes it as a terminal
// error value and stops.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsFatal reports whether err was marked with Fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// ErrStale is reported by Producer.Healthcheck when no good value arrived recently.
var ErrStale = errors.New("feed: no fresh value within the allowed age")

// ErrEmptySequence is returned (as fatal) by a Sequence with no values.
var ErrEmptySequence = errors.New("feed: sequence has no values")
