package reports

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// SegmentsReport buckets buyers by purchase count (1 / 2 / 3+) and
// reports user count plus average and total lifetime value per
// segment. Segments are ordered by rank, not alphabetically.
type SegmentsReport struct{}

func (r *SegmentsReport) Name() string  { return "segments" }
func (r *SegmentsReport) Title() string { return "User Segments by Purchase Count" }

const (
	segmentOne       = "1 purchase"
	segmentTwo       = "2 purchases"
	segmentThreePlus = "3+ purchases"
)

const segmentsSQL = `
	SELECT segment, COUNT(*) AS users, AVG(ltv) AS avg_ltv, SUM(ltv) AS total_ltv, MIN(purchases) AS segment_rank
	FROM (
		SELECT user_id,
		       COUNT(*) AS purchases,
		       SUM(amount) AS ltv,
		       CASE WHEN COUNT(*) >= 3 THEN '3+ purchases'
		            WHEN COUNT(*) = 2 THEN '2 purchases'
		            ELSE '1 purchase' END AS segment
		FROM user_events
		WHERE event_type = 'purchase'
		GROUP BY user_id
	) per_user
	GROUP BY segment
	ORDER BY segment_rank`

type segmentRow struct {
	Segment  string  `bson:"_id"`
	Users    int64   `bson:"users"`
	AvgLTV   float64 `bson:"avg_ltv"`
	TotalLTV float64 `bson:"total_ltv"`
	Rank     int64   `bson:"segment_rank"`
}

// SegmentFor labels a purchase count.
func SegmentFor(purchases int64) string {
	switch {
	case purchases >= 3:
		return segmentThreePlus
	case purchases == 2:
		return segmentTwo
	default:
		return segmentOne
	}
}

func (r *SegmentsReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	rs := &ResultSet{Columns: []string{"segment", "users", "avg_ltv", "total_ltv"}}

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"event_type": string(model.Purchase)}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":       "$user_id",
				"purchases": bson.M{"$sum": 1},
				"ltv":       bson.M{"$sum": "$amount"},
			}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id": bson.M{"$switch": bson.M{
					"branches": bson.A{
						bson.M{"case": bson.M{"$gte": bson.A{"$purchases", 3}}, "then": segmentThreePlus},
						bson.M{"case": bson.M{"$eq": bson.A{"$purchases", 2}}, "then": segmentTwo},
					},
					"default": segmentOne,
				}},
				"users":        bson.M{"$sum": 1},
				"avg_ltv":      bson.M{"$avg": "$ltv"},
				"total_ltv":    bson.M{"$sum": "$ltv"},
				"segment_rank": bson.M{"$min": "$purchases"},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "segment_rank", Value: 1}}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var sr segmentRow
			if err := rows.Scan(&sr); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{sr.Segment, sr.Users, sr.AvgLTV, sr.TotalLTV})
		}
		return rs, rows.Err()

	case *database.MemoryDriver:
		type perUser struct {
			purchases int64
			ltv       float64
		}
		byUser := make(map[string]*perUser)
		for _, e := range d.Events() {
			if e.EventType != model.Purchase {
				continue
			}
			u := byUser[e.UserID]
			if u == nil {
				u = &perUser{}
				byUser[e.UserID] = u
			}
			u.purchases++
			u.ltv += e.Amount
		}
		segments := make(map[string]*segmentRow)
		for _, u := range byUser {
			label := SegmentFor(u.purchases)
			sr := segments[label]
			if sr == nil {
				sr = &segmentRow{Segment: label, Rank: u.purchases}
				segments[label] = sr
			}
			sr.Users++
			sr.TotalLTV += u.ltv
			if u.purchases < sr.Rank {
				sr.Rank = u.purchases
			}
		}
		ordered := make([]*segmentRow, 0, len(segments))
		for _, sr := range segments {
			sr.AvgLTV = sr.TotalLTV / float64(sr.Users)
			ordered = append(ordered, sr)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })
		for _, sr := range ordered {
			rs.Rows = append(rs.Rows, []interface{}{sr.Segment, sr.Users, sr.AvgLTV, sr.TotalLTV})
		}
		return rs, nil

	default:
		rows, err := db.Query(ctx, segmentsSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var sr segmentRow
			if err := rows.Scan(&sr.Segment, &sr.Users, &sr.AvgLTV, &sr.TotalLTV, &sr.Rank); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{sr.Segment, sr.Users, sr.AvgLTV, sr.TotalLTV})
		}
		return rs, rows.Err()
	}
}
