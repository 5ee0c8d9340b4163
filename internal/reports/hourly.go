package reports

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// HourlyActivityReport buckets events by hour of day (0-23) across
// all dates. Hours with no events are omitted.
type HourlyActivityReport struct{}

func (r *HourlyActivityReport) Name() string  { return "hourly_activity" }
func (r *HourlyActivityReport) Title() string { return "Activity by Hour of Day" }

type hourRow struct {
	Hour      int64 `bson:"_id"`
	Events    int64 `bson:"events"`
	Purchases int64 `bson:"purchases"`
}

func (r *HourlyActivityReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	rs := &ResultSet{Columns: []string{"hour", "events", "purchases"}}

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$group", Value: bson.M{
				"_id":    bson.M{"$hour": "$event_date"},
				"events": bson.M{"$sum": 1},
				"purchases": bson.M{"$sum": bson.M{"$cond": bson.A{
					bson.M{"$eq": bson.A{"$event_type", string(model.Purchase)}}, 1, 0,
				}}},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var hr hourRow
			if err := rows.Scan(&hr); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{hr.Hour, hr.Events, hr.Purchases})
		}
		return rs, rows.Err()

	case *database.MemoryDriver:
		byHour := make(map[int64]*hourRow)
		for _, e := range d.Events() {
			hour := int64(e.EventDate.Hour())
			hr := byHour[hour]
			if hr == nil {
				hr = &hourRow{Hour: hour}
				byHour[hour] = hr
			}
			hr.Events++
			if e.EventType == model.Purchase {
				hr.Purchases++
			}
		}
		hours := make([]int64, 0, len(byHour))
		for hour := range byHour {
			hours = append(hours, hour)
		}
		sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })
		for _, hour := range hours {
			hr := byHour[hour]
			rs.Rows = append(rs.Rows, []interface{}{hr.Hour, hr.Events, hr.Purchases})
		}
		return rs, nil

	default:
		// EXTRACT(HOUR FROM ...) works on both SQL engines; only the
		// integer cast spelling differs.
		query := `
			SELECT CAST(EXTRACT(HOUR FROM event_date) AS INTEGER) AS hour,
			       COUNT(*) AS events,
			       SUM(CASE WHEN event_type = 'purchase' THEN 1 ELSE 0 END) AS purchases
			FROM user_events
			GROUP BY 1
			ORDER BY 1`
		if _, ok := db.(*database.MySQLDriver); ok {
			query = `
			SELECT CAST(EXTRACT(HOUR FROM event_date) AS SIGNED) AS hour,
			       COUNT(*) AS events,
			       SUM(CASE WHEN event_type = 'purchase' THEN 1 ELSE 0 END) AS purchases
			FROM user_events
			GROUP BY 1
			ORDER BY 1`
		}
		rows, err := db.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var hr hourRow
			if err := rows.Scan(&hr.Hour, &hr.Events, &hr.Purchases); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{hr.Hour, hr.Events, hr.Purchases})
		}
		return rs, rows.Err()
	}
}
