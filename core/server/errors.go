package server

import "errors"

var (
	// Configuration errors
	ErrMissingAddress = errors.New("server address is required")
	ErrNilFeed        = errors.New("feed is required")
	ErrFailedLoadCert = errors.New("failed to load certificate")

	// Server lifecycle errors
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListen               = errors.New("failed to listen")
	ErrFatalAccept          = errors.New("listener failed")
	ErrShutdownTimeout      = errors.New("connections still open after shutdown timeout")
	ErrNotRunning           = errors.New("server is not running")
	ErrSaturated            = errors.New("all connection slots are in use")

	// Connection errors; these never leave the connection handler.
	ErrWrite      = errors.New("write to consumer failed")
	ErrPeerClosed = errors.New("consumer closed the connection")
)
