package client

import (
	"errors"
	"syscall"
)

var (
	// ErrDaemonNotRunning is returned when nothing listens on the socket.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the socket is not accessible to the current user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the daemon answers 404.
	ErrNotFound = errors.New("404 not found")
)

// A stale socket file left by a killed daemon refuses connections.
func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
