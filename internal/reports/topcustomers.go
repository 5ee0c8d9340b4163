package reports

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// TopCustomersReport lists the Limit highest-spending users,
// strictly descending by total spend. Ties break on user_id so the
// ordering is deterministic across engines.
type TopCustomersReport struct {
	Limit int
}

func (r *TopCustomersReport) Name() string  { return "top_customers" }
func (r *TopCustomersReport) Title() string { return "Top Customers by Spend" }

type customerSpend struct {
	UserID    string  `bson:"_id"`
	Purchases int64   `bson:"purchases"`
	Total     float64 `bson:"total_spend"`
}

func (r *TopCustomersReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 20
	}
	rs := &ResultSet{Columns: []string{"user_id", "purchases", "total_spend"}}

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"event_type": string(model.Purchase)}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":         "$user_id",
				"purchases":   bson.M{"$sum": 1},
				"total_spend": bson.M{"$sum": "$amount"},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "total_spend", Value: -1}, {Key: "_id", Value: 1}}}},
			bson.D{{Key: "$limit", Value: limit}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var cs customerSpend
			if err := rows.Scan(&cs); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{cs.UserID, cs.Purchases, cs.Total})
		}
		return rs, rows.Err()

	case *database.MemoryDriver:
		totals := make(map[string]*customerSpend)
		for _, e := range d.Events() {
			if e.EventType != model.Purchase {
				continue
			}
			cs := totals[e.UserID]
			if cs == nil {
				cs = &customerSpend{UserID: e.UserID}
				totals[e.UserID] = cs
			}
			cs.Purchases++
			cs.Total += e.Amount
		}
		ordered := make([]*customerSpend, 0, len(totals))
		for _, cs := range totals {
			ordered = append(ordered, cs)
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].Total != ordered[j].Total {
				return ordered[i].Total > ordered[j].Total
			}
			return ordered[i].UserID < ordered[j].UserID
		})
		if len(ordered) > limit {
			ordered = ordered[:limit]
		}
		for _, cs := range ordered {
			rs.Rows = append(rs.Rows, []interface{}{cs.UserID, cs.Purchases, cs.Total})
		}
		return rs, nil

	default:
		// limit is a config integer, never user text, so it is safe
		// to inline; it also sidesteps the $1 vs ? placeholder split.
		query := fmt.Sprintf(`
			SELECT user_id, COUNT(*) AS purchases, SUM(amount) AS total_spend
			FROM user_events
			WHERE event_type = 'purchase'
			GROUP BY user_id
			ORDER BY total_spend DESC, user_id
			LIMIT %d`, limit)
		rows, err := db.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var cs customerSpend
			if err := rows.Scan(&cs.UserID, &cs.Purchases, &cs.Total); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{cs.UserID, cs.Purchases, cs.Total})
		}
		return rs, rows.Err()
	}
}
