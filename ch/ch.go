// Package ch writes refresh events to ClickHouse in batches.
package ch

import "context"

type TableName string

// Row is one insertable row. Values are in the table's column order.
type Row interface {
	TableName() TableName
	Values() []any
}

type Writer interface {
	Start() error
	Close() error
	Write(ctx context.Context, rows ...Row) error
}

// Client owns one ClickHouse connection and the batching Writer built on it
type Client interface {
	// Writer returns the Writer interface for batch writing
	Writer() (Writer, error)
	// Exec executes a statement that returns no rows
	Exec(ctx context.Context, query string, args ...any) error
	// Close closes the client and all associated resources
	Close() error
}
