package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// Column order of the input file. A header row matching the first
// column name is skipped.
var columns = []string{"event_id", "user_id", "event_type", "event_date", "product_id", "amount", "traffic_source"}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseCSV reads the delimited event file into memory. Rows with an
// empty event_id are assigned one; rows with an unknown event type,
// a missing user, or an unparseable timestamp fail the whole load.
func ParseCSV(r io.Reader) ([]model.Event, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var events []model.Event
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if line == 1 && strings.EqualFold(record[0], columns[0]) {
			continue
		}
		if len(record) != len(columns) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(columns), len(record))
		}

		event, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func parseRecord(record []string) (model.Event, error) {
	var e model.Event

	e.EventID = strings.TrimSpace(record[0])
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}

	e.UserID = strings.TrimSpace(record[1])
	if e.UserID == "" {
		return e, fmt.Errorf("missing user_id")
	}

	e.EventType = model.EventType(strings.TrimSpace(record[2]))
	if !e.EventType.Valid() {
		return e, fmt.Errorf("unknown event_type %q", record[2])
	}

	ts, err := parseTime(strings.TrimSpace(record[3]))
	if err != nil {
		return e, err
	}
	e.EventDate = ts

	e.ProductID = strings.TrimSpace(record[4])

	amount := strings.TrimSpace(record[5])
	if amount != "" {
		e.Amount, err = strconv.ParseFloat(amount, 64)
		if err != nil {
			return e, fmt.Errorf("bad amount %q: %w", amount, err)
		}
	}

	e.TrafficSource = strings.TrimSpace(record[6])
	return e, nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event_date %q", value)
}

// Load creates the user_events table where the engine needs one and
// bulk-inserts the events through the driver's fast path.
func Load(ctx context.Context, db database.Driver, events []model.Event) error {
	switch db.Dialect() {
	case database.DialectPostgres, database.DialectMySQL:
		if err := db.Exec(ctx, Schema()); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := db.InsertEvents(ctx, events); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}
