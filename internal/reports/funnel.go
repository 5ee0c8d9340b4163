package reports

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// FunnelReport counts users per funnel stage and derives the
// stage-to-stage conversion and drop-off rates. Rates divide by the
// predecessor stage; a zero predecessor yields NULL for both.
type FunnelReport struct{}

func (r *FunnelReport) Name() string  { return "funnel" }
func (r *FunnelReport) Title() string { return "Conversion Funnel" }

const funnelSQL = `
	SELECT event_type, COUNT(*) AS events, COUNT(DISTINCT user_id) AS users
	FROM user_events
	GROUP BY event_type`

type stageCount struct {
	Stage  string `bson:"_id"`
	Events int64  `bson:"events"`
	Users  int64  `bson:"users"`
}

func (r *FunnelReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	counts, err := r.stageCounts(ctx, db)
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: []string{"stage", "users", "events", "conversion_pct", "drop_off_pct"}}
	var prevUsers int64
	for i, stage := range model.Stages() {
		sc := counts[string(stage)]

		var conversion, dropOff *float64
		if i > 0 {
			conversion = Pct(float64(sc.Users), float64(prevUsers))
			if conversion != nil {
				d := 100 - *conversion
				dropOff = &d
			}
		}
		rs.Rows = append(rs.Rows, []interface{}{string(stage), sc.Users, sc.Events, conversion, dropOff})
		prevUsers = sc.Users
	}
	return rs, nil
}

func (r *FunnelReport) stageCounts(ctx context.Context, db database.Driver) (map[string]stageCount, error) {
	counts := make(map[string]stageCount)

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$group", Value: bson.M{
				"_id":    "$event_type",
				"events": bson.M{"$sum": 1},
				"users":  bson.M{"$addToSet": "$user_id"},
			}}},
			bson.D{{Key: "$project", Value: bson.M{
				"events": 1,
				"users":  bson.M{"$size": "$users"},
			}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var sc stageCount
			if err := rows.Scan(&sc); err != nil {
				return nil, err
			}
			counts[sc.Stage] = sc
		}
		return counts, rows.Err()

	case *database.MemoryDriver:
		users := make(map[string]map[string]bool)
		for _, e := range d.Events() {
			sc := counts[string(e.EventType)]
			sc.Stage = string(e.EventType)
			sc.Events++
			if users[sc.Stage] == nil {
				users[sc.Stage] = make(map[string]bool)
			}
			users[sc.Stage][e.UserID] = true
			sc.Users = int64(len(users[sc.Stage]))
			counts[sc.Stage] = sc
		}
		return counts, nil

	default:
		rows, err := db.Query(ctx, funnelSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var sc stageCount
			if err := rows.Scan(&sc.Stage, &sc.Events, &sc.Users); err != nil {
				return nil, err
			}
			counts[sc.Stage] = sc
		}
		return counts, rows.Err()
	}
}
