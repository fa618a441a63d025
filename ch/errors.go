package ch

import "fmt"

var (
	// ErrBufferFull is returned by Write when the writer's backlog reached
	// its limit; the rows are dropped
	ErrBufferFull = fmt.Errorf("ch: writer backlog full")

	// ErrWriterClosed is returned by Write after Close
	ErrWriterClosed = fmt.Errorf("ch: writer is closed")

	// ErrConnectionClosed is returned by client calls after Close
	ErrConnectionClosed = fmt.Errorf("ch: connection is closed")

	// ErrWriterDisabled is returned by Client.Writer without a WriterConfig
	ErrWriterDisabled = fmt.Errorf("ch: writer is disabled")
)

func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("ch: invalid config: %s", msg)
}

func ErrConnection(err error) error {
	return fmt.Errorf("ch: connect: %w", err)
}

// ErrInsert wraps a failed batch insert into table
func ErrInsert(table TableName, err error) error {
	return fmt.Errorf("ch: insert into %s: %w", table, err)
}

// ErrMigrate wraps a failed CREATE TABLE for table
func ErrMigrate(table TableName, err error) error {
	return fmt.Errorf("ch: create table %s: %w", table, err)
}
