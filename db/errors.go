package db

import "fmt"

var (
	// ErrConnectionNotEstablished database connection not established
	ErrConnectionNotEstablished = fmt.Errorf("db: database connection not established")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("db: invalid config: %s", msg)
}

// ErrConnection database connection error
func ErrConnection(err error) error {
	return fmt.Errorf("db: connection failed: %w", err)
}

// ErrMigrate schema migration error
func ErrMigrate(err error) error {
	return fmt.Errorf("db: migrate failed: %w", err)
}

// ErrQuery archive read or write error
func ErrQuery(op string, err error) error {
	return fmt.Errorf("db: %s failed: %w", op, err)
}
