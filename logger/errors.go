package logger

import "fmt"

// ErrInvalidConfig marks a logger configuration that cannot be built
var ErrInvalidConfig = fmt.Errorf("logger: invalid config")

// ErrBuildLogger wraps a zap build failure, such as an unwritable output path
func ErrBuildLogger(err error) error {
	return fmt.Errorf("logger: build: %w", err)
}

// ErrInvalidLevel reports a level zap does not know
func ErrInvalidLevel(level string, err error) error {
	return fmt.Errorf("%w: level %q: %w", ErrInvalidConfig, level, err)
}

// ErrInvalidEncoding reports an encoding other than json or console
func ErrInvalidEncoding(encoding string) error {
	return fmt.Errorf("%w: encoding %q must be \"json\" or \"console\"", ErrInvalidConfig, encoding)
}
