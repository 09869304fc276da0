package admission

import "errors"

var (
	ErrShuttingDown    = errors.New("admission: controller is shutting down")
	ErrInvalidCapacity = errors.New("admission: capacity must be positive")
)
