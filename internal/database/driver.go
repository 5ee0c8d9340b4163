package database

import (
	"context"

	"event-analytics/internal/model"
)

// Rows is the cursor abstraction shared by all engines.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

type Row interface {
	Scan(dest ...interface{}) error
}

// Driver is one analytics engine holding the user_events table. All
// report queries are read-only; InsertEvents is the only write path.
type Driver interface {
	Connect(dsn string) error
	Close() error
	Dialect() string
	Exec(ctx context.Context, query string, args ...interface{}) error
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	InsertEvents(ctx context.Context, events []model.Event) error
	Reset(ctx context.Context) error
}

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectMongo    = "mongo"
	DialectMemory   = "memory"
)
