package reports

import (
	"context"

	"event-analytics/internal/config"
	"event-analytics/internal/database"
)

// CartAbandonmentReport computes 100*(carts-purchases)/carts per
// product. A product never added to a cart gets a NULL rate rather
// than a division fault.
type CartAbandonmentReport struct{}

func (r *CartAbandonmentReport) Name() string  { return "cart_abandonment" }
func (r *CartAbandonmentReport) Title() string { return "Cart Abandonment by Product" }

func (r *CartAbandonmentReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	stats, err := gatherProductStats(ctx, db)
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: []string{"product_id", "carts", "purchases", "abandonment_pct"}}
	for _, ps := range stats {
		rate := Pct(float64(ps.Carts-ps.Purchases), float64(ps.Carts))
		rs.Rows = append(rs.Rows, []interface{}{ps.ProductID, ps.Carts, ps.Purchases, rate})
	}
	return rs, nil
}

// ProductRecommendationsReport attaches rule-based advice labels to
// per-product stats using the configured thresholds. There is no
// learned model here; the rules are the fixed numeric cutoffs.
type ProductRecommendationsReport struct {
	Thresholds config.Thresholds
}

func (r *ProductRecommendationsReport) Name() string  { return "product_recommendations" }
func (r *ProductRecommendationsReport) Title() string { return "Product Recommendations" }

func (r *ProductRecommendationsReport) Run(ctx context.Context, db database.Driver) (*ResultSet, error) {
	stats, err := gatherProductStats(ctx, db)
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: []string{"product_id", "views", "carts", "purchases", "purchase_view_ratio", "abandonment_pct", "advice"}}
	for _, ps := range stats {
		ratio := Ratio(float64(ps.Purchases), float64(ps.Views))
		abandonment := Pct(float64(ps.Carts-ps.Purchases), float64(ps.Carts))
		advice := ProductAdvice(ratio, abandonment, r.Thresholds)
		rs.Rows = append(rs.Rows, []interface{}{ps.ProductID, ps.Views, ps.Carts, ps.Purchases, ratio, abandonment, advice})
	}
	return rs, nil
}
