package reports

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/config"
	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// CohortReport attributes each user to the traffic source of their
// chronologically first event (event_date ascending, event_id as
// tiebreak, first row wins) and reports cohort size, revenue,
// revenue per user, and the priority label.
type CohortReport struct {
	Thresholds config.Thresholds
}

func (r *CohortReport) Name() string  { return "cohorts" }
func (r *CohortReport) Title() string { return "First-Touch Cohorts" }

const cohortSQL = `
	WITH firsts AS (
		SELECT user_id, traffic_source,
		       ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY event_date, event_id) AS rn
		FROM user_events
	), cohort AS (
		SELECT user_id, traffic_source FROM firsts WHERE rn = 1
	), spend AS (
		SELECT user_id, SUM(amount) AS revenue
		FROM user_events
		WHERE event_type = 'purchase'
		GROUP BY user_id
	)
	SELECT c.traffic_source, COUNT(*) AS users, COALESCE(SUM(s.revenue), 0) AS revenue
	FROM cohort c
	LEFT JOIN spend s ON s.user_id = c.user_id
	GROUP BY c.traffic_source`

type cohortRow struct {
	Source  string  `bson:"_id"`
	Users   int64   `bson:"users"`
	Revenue float64 `bson:"revenue"`
}

func (r *CohortReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	cohorts, err := r.gather(ctx, db)
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: []string{"cohort", "users", "revenue", "revenue_per_user", "priority"}}
	type labeled struct {
		cohortRow
		perUser *float64
	}
	rows := make([]labeled, 0, len(cohorts))
	for _, c := range cohorts {
		rows = append(rows, labeled{cohortRow: c, perUser: Ratio(c.Revenue, float64(c.Users))})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].perUser, rows[j].perUser
		switch {
		case a == nil && b == nil:
			return rows[i].Source < rows[j].Source
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		default:
			return rows[i].Source < rows[j].Source
		}
	})
	for _, row := range rows {
		priority := Priority(row.perUser, r.Thresholds)
		rs.Rows = append(rs.Rows, []interface{}{row.Source, row.Users, row.Revenue, row.perUser, priority})
	}
	return rs, nil
}

func (r *CohortReport) gather(ctx context.Context, db database.Driver) ([]cohortRow, error) {
	var cohorts []cohortRow

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$sort", Value: bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":    "$user_id",
				"source": bson.M{"$first": "$traffic_source"},
				"revenue": bson.M{"$sum": bson.M{"$cond": bson.A{
					bson.M{"$eq": bson.A{"$event_type", string(model.Purchase)}}, "$amount", 0,
				}}},
			}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":     "$source",
				"users":   bson.M{"$sum": 1},
				"revenue": bson.M{"$sum": "$revenue"},
			}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var c cohortRow
			if err := rows.Scan(&c); err != nil {
				return nil, err
			}
			cohorts = append(cohorts, c)
		}
		return cohorts, rows.Err()

	case *database.MemoryDriver:
		type first struct {
			event model.Event
			seen  bool
		}
		firsts := make(map[string]*first)
		revenue := make(map[string]float64)
		for _, e := range d.Events() {
			f := firsts[e.UserID]
			if f == nil {
				f = &first{}
				firsts[e.UserID] = f
			}
			if !f.seen || earlier(e, f.event) {
				f.event = e
				f.seen = true
			}
			if e.EventType == model.Purchase {
				revenue[e.UserID] += e.Amount
			}
		}
		bySource := make(map[string]*cohortRow)
		for userID, f := range firsts {
			source := f.event.TrafficSource
			c := bySource[source]
			if c == nil {
				c = &cohortRow{Source: source}
				bySource[source] = c
			}
			c.Users++
			c.Revenue += revenue[userID]
		}
		for _, c := range bySource {
			cohorts = append(cohorts, *c)
		}
		return cohorts, nil

	default:
		rows, err := db.Query(ctx, cohortSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var c cohortRow
			if err := rows.Scan(&c.Source, &c.Users, &c.Revenue); err != nil {
				return nil, err
			}
			cohorts = append(cohorts, c)
		}
		return cohorts, rows.Err()
	}
}

// earlier reports whether a comes before b in first-touch order.
func earlier(a, b model.Event) bool {
	if !a.EventDate.Equal(b.EventDate) {
		return a.EventDate.Before(b.EventDate)
	}
	return a.EventID < b.EventID
}
