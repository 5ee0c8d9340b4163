package database

import (
	"context"
	"errors"
	"sync"

	"event-analytics/internal/model"
)

var errMemoryNoSQL = errors.New("memory driver does not execute SQL; reports evaluate events directly")

// MemoryDriver evaluates reports over an in-process event slice. It
// backs the no-database CLI mode and the report tests.
type MemoryDriver struct {
	mu     sync.RWMutex
	events []model.Event
}

func NewMemoryDriver(events []model.Event) *MemoryDriver {
	md := &MemoryDriver{}
	md.events = append(md.events, events...)
	return md
}

func (md *MemoryDriver) Connect(dsn string) error {
	return nil
}

func (md *MemoryDriver) Close() error {
	return nil
}

func (md *MemoryDriver) Dialect() string {
	return DialectMemory
}

func (md *MemoryDriver) Exec(ctx context.Context, query string, args ...interface{}) error {
	return errMemoryNoSQL
}

func (md *MemoryDriver) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return nil, errMemoryNoSQL
}

func (md *MemoryDriver) InsertEvents(ctx context.Context, events []model.Event) error {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.events = append(md.events, events...)
	return nil
}

// Events returns a snapshot so concurrent reports never observe a
// partially appended slice.
func (md *MemoryDriver) Events() []model.Event {
	md.mu.RLock()
	defer md.mu.RUnlock()
	snapshot := make([]model.Event, len(md.events))
	copy(snapshot, md.events)
	return snapshot
}

func (md *MemoryDriver) Reset(ctx context.Context) error {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.events = nil
	return nil
}
