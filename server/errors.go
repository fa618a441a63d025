package server

import "fmt"

var (
	// ErrListen is returned when the listener fails
	ErrListen = fmt.Errorf("server: listen failed")

	// ErrShutdown is returned when graceful shutdown does not finish in time
	ErrShutdown = fmt.Errorf("server: shutdown failed")
)

// ErrInvalidConfig returns an error for an invalid configuration field
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("server: invalid config: %s", msg)
}

func errListen(addr string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrListen, addr, err)
}

func errShutdown(err error) error {
	return fmt.Errorf("%w: %w", ErrShutdown, err)
}
