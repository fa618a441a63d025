package routine

import "fmt"

// ErrPanicked marks an error built from a recovered panic
var ErrPanicked = fmt.Errorf("routine: goroutine panicked")

// ErrPanic wraps the value recovered from the goroutine called name
func ErrPanic(name string, recovered any) error {
	if name == "" {
		name = "unnamed"
	}
	return fmt.Errorf("%w: %s: %v", ErrPanicked, name, recovered)
}
