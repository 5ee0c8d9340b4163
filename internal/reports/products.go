package reports

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

const productStatsSQL = `
	SELECT product_id,
	       SUM(CASE WHEN event_type = 'page_view' THEN 1 ELSE 0 END) AS views,
	       SUM(CASE WHEN event_type = 'add_to_cart' THEN 1 ELSE 0 END) AS carts,
	       SUM(CASE WHEN event_type = 'purchase' THEN 1 ELSE 0 END) AS purchases
	FROM user_events
	WHERE product_id IS NOT NULL AND product_id <> ''
	GROUP BY product_id
	ORDER BY product_id`

type productStats struct {
	ProductID string `bson:"_id"`
	Views     int64  `bson:"views"`
	Carts     int64  `bson:"carts"`
	Purchases int64  `bson:"purchases"`
}

// gatherProductStats counts views, carts, and purchases per product.
// Rows without a product id (page views on non-product pages) are
// excluded. Shared by the abandonment and recommendation reports.
func gatherProductStats(ctx context.Context, db database.Driver) ([]productStats, error) {
	var stats []productStats

	switch d := db.(type) {
	case *database.MongoDriver:
		cond := func(eventType model.EventType) bson.M {
			return bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$event_type", string(eventType)}}, 1, 0,
			}}}
		}
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"product_id": bson.M{"$nin": bson.A{"", nil}}}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":       "$product_id",
				"views":     cond(model.PageView),
				"carts":     cond(model.AddToCart),
				"purchases": cond(model.Purchase),
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		}
		rows, err := d.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var ps productStats
			if err := rows.Scan(&ps); err != nil {
				return nil, err
			}
			stats = append(stats, ps)
		}
		return stats, rows.Err()

	case *database.MemoryDriver:
		byProduct := make(map[string]*productStats)
		for _, e := range d.Events() {
			if e.ProductID == "" {
				continue
			}
			ps := byProduct[e.ProductID]
			if ps == nil {
				ps = &productStats{ProductID: e.ProductID}
				byProduct[e.ProductID] = ps
			}
			switch e.EventType {
			case model.PageView:
				ps.Views++
			case model.AddToCart:
				ps.Carts++
			case model.Purchase:
				ps.Purchases++
			}
		}
		for _, ps := range byProduct {
			stats = append(stats, *ps)
		}
		sort.Slice(stats, func(i, j int) bool { return stats[i].ProductID < stats[j].ProductID })
		return stats, nil

	default:
		rows, err := db.Query(ctx, productStatsSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var ps productStats
			if err := rows.Scan(&ps.ProductID, &ps.Views, &ps.Carts, &ps.Purchases); err != nil {
				return nil, err
			}
			stats = append(stats, ps)
		}
		return stats, rows.Err()
	}
}
