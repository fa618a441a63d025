package cron

import "fmt"

var (
	// ErrNoTasks is returned when attempting to add a chain job with no tasks
	ErrNoTasks = fmt.Errorf("cron: no tasks provided")

	// ErrInvalidSpec is returned when a cron spec string is invalid
	ErrInvalidSpec = fmt.Errorf("cron: invalid cron spec")

	// ErrCronClosed is returned when attempting to operate on a closed cron manager
	ErrCronClosed = fmt.Errorf("cron: cron manager is closed")

	// ErrTaskPanic is returned by a task whose panic was recovered
	ErrTaskPanic = fmt.Errorf("cron: task panicked")
)

// ErrSpec wraps a spec parse failure
func ErrSpec(name, spec string, err error) error {
	return fmt.Errorf("%w: chain %s spec %q: %w", ErrInvalidSpec, name, spec, err)
}

// ErrInvalidConfig returns an error describing an unusable warmer config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("cron: invalid config: %s", msg)
}
