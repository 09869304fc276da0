package broadcast

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Next once the subscription or its broadcaster
	// is closed and no buffered values remain.
	ErrClosed = errors.New("broadcast: closed")

	// ErrLagged matches every *LaggedError via errors.Is.
	ErrLagged = errors.New("broadcast: subscriber lagged")
)

// LaggedError reports that a subscription's queue overflowed and the oldest
// Count values were dropped. It is informational: the next call to Next
// continues with the values that were kept.
type LaggedError struct {
	Count uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast: subscriber lagged, %d values dropped", e.Count)
}

// Is reports whether target is ErrLagged.
func (e *LaggedError) Is(target error) bool {
	return target == ErrLagged
}
