package reports

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

// RevenueBySourceReport aggregates purchase revenue per traffic
// source, highest revenue first.
type RevenueBySourceReport struct{}

func (r *RevenueBySourceReport) Name() string  { return "revenue_by_source" }
func (r *RevenueBySourceReport) Title() string { return "Revenue by Traffic Source" }

const revenueBySourceSQL = `
	SELECT traffic_source, COUNT(*) AS orders, COUNT(DISTINCT user_id) AS buyers, SUM(amount) AS revenue
	FROM user_events
	WHERE event_type = 'purchase'
	GROUP BY traffic_source
	ORDER BY revenue DESC, traffic_source`

type sourceRevenue struct {
	Source  string  `bson:"_id"`
	Orders  int64   `bson:"orders"`
	Buyers  int64   `bson:"buyers"`
	Revenue float64 `bson:"revenue"`
}

func (r *RevenueBySourceReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	rs := &ResultSet{Columns: []string{"traffic_source", "orders", "buyers", "revenue"}}

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"event_type": string(model.Purchase)}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":     "$traffic_source",
				"orders":  bson.M{"$sum": 1},
				"buyers":  bson.M{"$addToSet": "$user_id"},
				"revenue": bson.M{"$sum": "$amount"},
			}}},
			bson.D{{Key: "$project", Value: bson.M{
				"orders":  1,
				"revenue": 1,
				"buyers":  bson.M{"$size": "$buyers"},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "_id", Value: 1}}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var sr sourceRevenue
			if err := rows.Scan(&sr); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{sr.Source, sr.Orders, sr.Buyers, sr.Revenue})
		}
		return rs, rows.Err()

	case *database.MemoryDriver:
		totals := make(map[string]*sourceRevenue)
		buyers := make(map[string]map[string]bool)
		for _, e := range d.Events() {
			if e.EventType != model.Purchase {
				continue
			}
			sr := totals[e.TrafficSource]
			if sr == nil {
				sr = &sourceRevenue{Source: e.TrafficSource}
				totals[e.TrafficSource] = sr
				buyers[e.TrafficSource] = make(map[string]bool)
			}
			sr.Orders++
			sr.Revenue += e.Amount
			buyers[e.TrafficSource][e.UserID] = true
		}
		ordered := make([]*sourceRevenue, 0, len(totals))
		for source, sr := range totals {
			sr.Buyers = int64(len(buyers[source]))
			ordered = append(ordered, sr)
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].Revenue != ordered[j].Revenue {
				return ordered[i].Revenue > ordered[j].Revenue
			}
			return ordered[i].Source < ordered[j].Source
		})
		for _, sr := range ordered {
			rs.Rows = append(rs.Rows, []interface{}{sr.Source, sr.Orders, sr.Buyers, sr.Revenue})
		}
		return rs, nil

	default:
		rows, err := db.Query(ctx, revenueBySourceSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var sr sourceRevenue
			if err := rows.Scan(&sr.Source, &sr.Orders, &sr.Buyers, &sr.Revenue); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{sr.Source, sr.Orders, sr.Buyers, sr.Revenue})
		}
		return rs, rows.Err()
	}
}

// RevenueByDayReport aggregates purchase revenue per calendar date.
type RevenueByDayReport struct{}

func (r *RevenueByDayReport) Name() string  { return "revenue_by_day" }
func (r *RevenueByDayReport) Title() string { return "Revenue by Day" }

const revenueByDaySQL = `
	SELECT DATE(event_date) AS day, COUNT(*) AS orders, SUM(amount) AS revenue
	FROM user_events
	WHERE event_type = 'purchase'
	GROUP BY DATE(event_date)
	ORDER BY day`

type dayRevenue struct {
	Day     string  `bson:"_id"`
	Orders  int64   `bson:"orders"`
	Revenue float64 `bson:"revenue"`
}

func (r *RevenueByDayReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	rs := &ResultSet{Columns: []string{"day", "orders", "revenue"}}

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"event_type": string(model.Purchase)}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$event_date"}},
				"orders":  bson.M{"$sum": 1},
				"revenue": bson.M{"$sum": "$amount"},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var dr dayRevenue
			if err := rows.Scan(&dr); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{dr.Day, dr.Orders, dr.Revenue})
		}
		return rs, rows.Err()

	case *database.MemoryDriver:
		totals := make(map[string]*dayRevenue)
		for _, e := range d.Events() {
			if e.EventType != model.Purchase {
				continue
			}
			day := e.EventDate.Format("2006-01-02")
			dr := totals[day]
			if dr == nil {
				dr = &dayRevenue{Day: day}
				totals[day] = dr
			}
			dr.Orders++
			dr.Revenue += e.Amount
		}
		days := make([]string, 0, len(totals))
		for day := range totals {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			dr := totals[day]
			rs.Rows = append(rs.Rows, []interface{}{dr.Day, dr.Orders, dr.Revenue})
		}
		return rs, nil

	default:
		rows, err := db.Query(ctx, revenueByDaySQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var day time.Time
			var dr dayRevenue
			if err := rows.Scan(&day, &dr.Orders, &dr.Revenue); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{day.Format("2006-01-02"), dr.Orders, dr.Revenue})
		}
		return rs, rows.Err()
	}
}

// RevenueByProductReport aggregates purchase revenue per product,
// highest revenue first.
type RevenueByProductReport struct{}

func (r *RevenueByProductReport) Name() string  { return "revenue_by_product" }
func (r *RevenueByProductReport) Title() string { return "Revenue by Product" }

const revenueByProductSQL = `
	SELECT product_id, COUNT(*) AS orders, SUM(amount) AS revenue
	FROM user_events
	WHERE event_type = 'purchase'
	GROUP BY product_id
	ORDER BY revenue DESC, product_id`

type productRevenue struct {
	ProductID string  `bson:"_id"`
	Orders    int64   `bson:"orders"`
	Revenue   float64 `bson:"revenue"`
}

func (r *RevenueByProductReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	rs := &ResultSet{Columns: []string{"product_id", "orders", "revenue"}}

	switch d := db.(type) {
	case *database.MongoDriver:
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"event_type": string(model.Purchase)}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":     "$product_id",
				"orders":  bson.M{"$sum": 1},
				"revenue": bson.M{"$sum": "$amount"},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "_id", Value: 1}}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var pr productRevenue
			if err := rows.Scan(&pr); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{pr.ProductID, pr.Orders, pr.Revenue})
		}
		return rs, rows.Err()

	case *database.MemoryDriver:
		totals := make(map[string]*productRevenue)
		for _, e := range d.Events() {
			if e.EventType != model.Purchase {
				continue
			}
			pr := totals[e.ProductID]
			if pr == nil {
				pr = &productRevenue{ProductID: e.ProductID}
				totals[e.ProductID] = pr
			}
			pr.Orders++
			pr.Revenue += e.Amount
		}
		ordered := make([]*productRevenue, 0, len(totals))
		for _, pr := range totals {
			ordered = append(ordered, pr)
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].Revenue != ordered[j].Revenue {
				return ordered[i].Revenue > ordered[j].Revenue
			}
			return ordered[i].ProductID < ordered[j].ProductID
		})
		for _, pr := range ordered {
			rs.Rows = append(rs.Rows, []interface{}{pr.ProductID, pr.Orders, pr.Revenue})
		}
		return rs, nil

	default:
		rows, err := db.Query(ctx, revenueByProductSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var pr productRevenue
			if err := rows.Scan(&pr.ProductID, &pr.Orders, &pr.Revenue); err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, []interface{}{pr.ProductID, pr.Orders, pr.Revenue})
		}
		return rs, rows.Err()
	}
}
