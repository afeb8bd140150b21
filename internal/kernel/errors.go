package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is returned when a command is sent with no live kernel
	ErrNotRunning = errors.New("kernel not running")

	// ErrAlreadyRunning is returned by Launch while a kernel is still alive
	ErrAlreadyRunning = errors.New("kernel already running")

	// ErrCommandQueueFull is returned when the kernel is not consuming its stdin
	ErrCommandQueueFull = errors.New("kernel command queue full")
)

// LaunchError reports that the kernel process could not be started
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
