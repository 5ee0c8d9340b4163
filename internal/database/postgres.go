package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"event-analytics/internal/model"
)

// PostgresDriver wraps a pgx pool. Reports run concurrently, so a
// pool is required rather than a single *pgx.Conn.
type PostgresDriver struct {
	pool *pgxpool.Pool
}

func (pd *PostgresDriver) Connect(dsn string) error {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return err
	}
	pd.pool = pool
	return nil
}

func (pd *PostgresDriver) Close() error {
	pd.pool.Close()
	return nil
}

func (pd *PostgresDriver) Dialect() string {
	return DialectPostgres
}

func (pd *PostgresDriver) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := pd.pool.Exec(ctx, query, args...)
	return err
}

func (pd *PostgresDriver) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return pd.pool.Query(ctx, query, args...)
}

// InsertEvents bulk-loads via COPY, which is far faster than
// row-at-a-time inserts for event files of any real size.
func (pd *PostgresDriver) InsertEvents(ctx context.Context, events []model.Event) error {
	_, err := pd.pool.CopyFrom(
		ctx,
		pgx.Identifier{"user_events"},
		[]string{"event_id", "user_id", "event_type", "event_date", "product_id", "amount", "traffic_source"},
		pgx.CopyFromSlice(len(events), func(i int) ([]interface{}, error) {
			e := events[i]
			return []interface{}{e.EventID, e.UserID, string(e.EventType), e.EventDate, e.ProductID, e.Amount, e.TrafficSource}, nil
		}),
	)
	return err
}

func (pd *PostgresDriver) Reset(ctx context.Context) error {
	_, err := pd.pool.Exec(ctx, "DROP TABLE IF EXISTS user_events CASCADE")
	return err
}
