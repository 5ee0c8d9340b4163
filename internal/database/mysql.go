package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"event-analytics/internal/model"
)

const mysqlInsertBatch = 500

type MySQLDriver struct {
	db *sql.DB
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	r.Rows.Close()
}

func (md *MySQLDriver) Connect(dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	md.db = db
	return nil
}

func (md *MySQLDriver) Close() error {
	return md.db.Close()
}

func (md *MySQLDriver) Dialect() string {
	return DialectMySQL
}

func (md *MySQLDriver) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := md.db.ExecContext(ctx, query, args...)
	return err
}

func (md *MySQLDriver) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := md.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

// InsertEvents batches events into multi-row INSERT statements.
func (md *MySQLDriver) InsertEvents(ctx context.Context, events []model.Event) error {
	for start := 0; start < len(events); start += mysqlInsertBatch {
		end := start + mysqlInsertBatch
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]

		valueStrings := make([]string, 0, len(batch))
		valueArgs := make([]interface{}, 0, len(batch)*7)
		for _, e := range batch {
			valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?)")
			valueArgs = append(valueArgs, e.EventID, e.UserID, string(e.EventType), e.EventDate, e.ProductID, e.Amount, e.TrafficSource)
		}
		stmt := fmt.Sprintf("INSERT INTO user_events (event_id, user_id, event_type, event_date, product_id, amount, traffic_source) VALUES %s", strings.Join(valueStrings, ","))
		if _, err := md.db.ExecContext(ctx, stmt, valueArgs...); err != nil {
			return err
		}
	}
	return nil
}

func (md *MySQLDriver) Reset(ctx context.Context) error {
	_, err := md.db.ExecContext(ctx, "DROP TABLE IF EXISTS user_events")
	return err
}
