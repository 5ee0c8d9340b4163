package reports

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"event-analytics/internal/config"
	"event-analytics/internal/database"
	"event-analytics/internal/model"
)

func ev(id, user string, eventType model.EventType, ts, product string, amount float64, source string) model.Event {
	date, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	return model.Event{
		EventID:       id,
		UserID:        user,
		EventType:     eventType,
		EventDate:     date,
		ProductID:     product,
		Amount:        amount,
		TrafficSource: source,
	}
}

// purchases builds n purchase events for one user, one per day.
func purchases(user string, n int, amount float64) []model.Event {
	events := make([]model.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, ev(
			fmt.Sprintf("%s-p%d", user, i), user, model.Purchase,
			fmt.Sprintf("2024-03-%02d 12:00:00", i+1), "p1", amount, "organic",
		))
	}
	return events
}

func TestFunnel_RatesSumToHundred(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("e1", "u1", model.PageView, "2024-03-01 09:00:00", "p1", 0, "organic"),
		ev("e2", "u2", model.PageView, "2024-03-01 09:01:00", "p1", 0, "organic"),
		ev("e3", "u3", model.PageView, "2024-03-01 09:02:00", "p1", 0, "organic"),
		ev("e4", "u1", model.AddToCart, "2024-03-01 09:05:00", "p1", 0, "organic"),
		ev("e5", "u2", model.AddToCart, "2024-03-01 09:06:00", "p1", 0, "organic"),
		ev("e6", "u1", model.CheckoutStart, "2024-03-01 09:07:00", "p1", 0, "organic"),
		ev("e7", "u1", model.PaymentInfo, "2024-03-01 09:08:00", "p1", 0, "organic"),
		ev("e8", "u1", model.Purchase, "2024-03-01 09:09:00", "p1", 9.99, "organic"),
	})

	rs, err := (&FunnelReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	if len(rs.Rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rs.Rows))
	}

	// First stage has no predecessor, so rates are NULL.
	if rs.Rows[0][3] != (*float64)(nil) || rs.Rows[0][4] != (*float64)(nil) {
		t.Errorf("first stage rates should be nil, got %v / %v", rs.Rows[0][3], rs.Rows[0][4])
	}

	for i := 1; i < len(rs.Rows); i++ {
		conversion, _ := rs.Rows[i][3].(*float64)
		dropOff, _ := rs.Rows[i][4].(*float64)
		if conversion == nil || dropOff == nil {
			t.Fatalf("stage %v: rates should be non-nil", rs.Rows[i][0])
		}
		if sum := *conversion + *dropOff; math.Abs(sum-100) > 1e-9 {
			t.Errorf("stage %v: conversion+dropoff = %v, want 100", rs.Rows[i][0], sum)
		}
	}

	// 2 of 3 page viewers added to cart.
	conversion := rs.Rows[1][3].(*float64)
	if math.Abs(*conversion-100*2.0/3.0) > 1e-9 {
		t.Errorf("add_to_cart conversion = %v", *conversion)
	}
}

func TestFunnel_ZeroPredecessorYieldsNull(t *testing.T) {
	// Purchases without any payment_info events: the purchase stage
	// divides by zero and must produce NULL, not a fault.
	db := database.NewMemoryDriver([]model.Event{
		ev("e1", "u1", model.PageView, "2024-03-01 09:00:00", "p1", 0, "organic"),
		ev("e2", "u1", model.Purchase, "2024-03-01 09:09:00", "p1", 9.99, "organic"),
	})

	rs, err := (&FunnelReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	purchaseRow := rs.Rows[4]
	if purchaseRow[0] != string(model.Purchase) {
		t.Fatalf("row 4 is %v, want purchase", purchaseRow[0])
	}
	if rate, _ := purchaseRow[3].(*float64); rate != nil {
		t.Errorf("conversion for purchase after empty payment_info = %v, want nil", *rate)
	}
}

func TestSegments_OneTwoThreePlus(t *testing.T) {
	var events []model.Event
	events = append(events, purchases("u1", 1, 10)...)
	events = append(events, purchases("u2", 2, 10)...)
	events = append(events, purchases("u3", 3, 10)...)
	db := database.NewMemoryDriver(events)

	rs, err := (&SegmentsReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(rs.Rows) != 3 {
		t.Fatalf("got %d segments, want 3", len(rs.Rows))
	}

	wantOrder := []string{"1 purchase", "2 purchases", "3+ purchases"}
	for i, want := range wantOrder {
		if rs.Rows[i][0] != want {
			t.Errorf("segment %d = %v, want %q (rank order, not alphabetical)", i, rs.Rows[i][0], want)
		}
		if users := rs.Rows[i][1].(int64); users != 1 {
			t.Errorf("segment %q users = %d, want 1", want, users)
		}
	}

	// u3 bought 3 times at 10 each.
	if total := rs.Rows[2][3].(float64); math.Abs(total-30) > 1e-9 {
		t.Errorf("3+ segment total_ltv = %v, want 30", total)
	}
}

func TestSegmentFor(t *testing.T) {
	cases := map[int64]string{1: "1 purchase", 2: "2 purchases", 3: "3+ purchases", 7: "3+ purchases"}
	for purchases, want := range cases {
		if got := SegmentFor(purchases); got != want {
			t.Errorf("SegmentFor(%d) = %q, want %q", purchases, got, want)
		}
	}
}

func TestTopCustomers_LimitAndOrder(t *testing.T) {
	var events []model.Event
	for i := 0; i < 30; i++ {
		user := fmt.Sprintf("u%02d", i)
		events = append(events, purchases(user, 1, float64(i+1))...)
	}
	db := database.NewMemoryDriver(events)

	rs, err := (&TopCustomersReport{Limit: 20}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("top_customers: %v", err)
	}
	if len(rs.Rows) != 20 {
		t.Fatalf("got %d rows, want 20", len(rs.Rows))
	}
	for i := 1; i < len(rs.Rows); i++ {
		prev := rs.Rows[i-1][2].(float64)
		cur := rs.Rows[i][2].(float64)
		if cur >= prev {
			t.Errorf("row %d: spend %v not strictly below %v", i, cur, prev)
		}
	}
	if rs.Rows[0][0] != "u29" {
		t.Errorf("top customer = %v, want u29", rs.Rows[0][0])
	}
}

func TestCohorts_FirstTouchAttribution(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("e2", "u1", model.Purchase, "2024-03-02 10:00:00", "p1", 50, "email"),
		ev("e1", "u1", model.PageView, "2024-03-01 10:00:00", "p1", 0, "google_ads"),
	})

	rs, err := (&CohortReport{Thresholds: config.Default().Thresholds}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("cohorts: %v", err)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("got %d cohorts, want 1", len(rs.Rows))
	}
	if rs.Rows[0][0] != "google_ads" {
		t.Errorf("cohort = %v, want google_ads (earliest event wins)", rs.Rows[0][0])
	}
	// 50 revenue / 1 user > 20 → high priority.
	if rs.Rows[0][4] != "high priority" {
		t.Errorf("priority = %v, want high priority", rs.Rows[0][4])
	}
}

func TestCohorts_TieBreaksOnEventID(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("b", "u1", model.PageView, "2024-03-01 10:00:00", "p1", 0, "social"),
		ev("a", "u1", model.PageView, "2024-03-01 10:00:00", "p1", 0, "organic"),
	})

	rs, err := (&CohortReport{Thresholds: config.Default().Thresholds}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("cohorts: %v", err)
	}
	if rs.Rows[0][0] != "organic" {
		t.Errorf("cohort = %v, want organic (lowest event_id on equal timestamps)", rs.Rows[0][0])
	}
}

func TestCartAbandonment_ZeroCartsYieldsNull(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("e1", "u1", model.AddToCart, "2024-03-01 10:00:00", "p1", 0, "organic"),
		ev("e2", "u1", model.Purchase, "2024-03-01 10:05:00", "p1", 10, "organic"),
		ev("e3", "u2", model.AddToCart, "2024-03-01 11:00:00", "p2", 0, "organic"),
		// p3 is purchased without ever being carted.
		ev("e4", "u3", model.Purchase, "2024-03-01 12:00:00", "p3", 5, "organic"),
	})

	rs, err := (&CartAbandonmentReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("cart_abandonment: %v", err)
	}

	rates := map[string]*float64{}
	for _, row := range rs.Rows {
		rates[row[0].(string)] = row[3].(*float64)
	}
	if rate := rates["p1"]; rate == nil || *rate != 0 {
		t.Errorf("p1 abandonment = %v, want 0", rate)
	}
	if rate := rates["p2"]; rate == nil || *rate != 100 {
		t.Errorf("p2 abandonment = %v, want 100", rate)
	}
	if rate := rates["p3"]; rate != nil {
		t.Errorf("p3 abandonment = %v, want nil (zero carts)", *rate)
	}
}

func TestProductRecommendations_ZeroViewsNullRatio(t *testing.T) {
	thresholds := config.Default().Thresholds

	// p1: 20 views, 1 purchase -> ratio 0.05 triggers "review pricing".
	// p2: purchased without a single view -> nil ratio, no rule fires.
	var events []model.Event
	for i := 0; i < 20; i++ {
		events = append(events, ev(fmt.Sprintf("v%d", i), "u1", model.PageView, "2024-03-01 10:00:00", "p1", 0, "organic"))
	}
	events = append(events,
		ev("c1", "u1", model.AddToCart, "2024-03-01 10:30:00", "p1", 0, "organic"),
		ev("b1", "u1", model.Purchase, "2024-03-01 10:31:00", "p1", 10, "organic"),
		ev("b2", "u2", model.Purchase, "2024-03-01 11:00:00", "p2", 5, "organic"),
	)
	db := database.NewMemoryDriver(events)

	rs, err := (&ProductRecommendationsReport{Thresholds: thresholds}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("product_recommendations: %v", err)
	}

	byProduct := map[string][]interface{}{}
	for _, row := range rs.Rows {
		byProduct[row[0].(string)] = row
	}

	p1 := byProduct["p1"]
	if ratio := p1[4].(*float64); ratio == nil || math.Abs(*ratio-0.05) > 1e-9 {
		t.Fatalf("p1 ratio = %v, want 0.05", ratio)
	}
	if p1[6] != "review pricing" {
		t.Errorf("p1 advice = %v, want review pricing", p1[6])
	}

	p2 := byProduct["p2"]
	if ratio := p2[4].(*float64); ratio != nil {
		t.Errorf("p2 ratio = %v, want nil (zero views)", *ratio)
	}
	if p2[6] != "healthy" {
		t.Errorf("p2 advice = %v, want healthy", p2[6])
	}
}

func TestRevenueBySource_MatchesTotals(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("e1", "u1", model.Purchase, "2024-03-01 10:00:00", "p1", 10, "organic"),
		ev("e2", "u2", model.Purchase, "2024-03-01 11:00:00", "p1", 20, "organic"),
		ev("e3", "u3", model.Purchase, "2024-03-01 12:00:00", "p2", 5, "email"),
		ev("e4", "u1", model.PageView, "2024-03-01 09:00:00", "p1", 0, "organic"),
	})

	rs, err := (&RevenueBySourceReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("revenue_by_source: %v", err)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("got %d sources, want 2", len(rs.Rows))
	}
	// Ordered by revenue descending.
	if rs.Rows[0][0] != "organic" || rs.Rows[0][3].(float64) != 30 {
		t.Errorf("first row = %v", rs.Rows[0])
	}
	if rs.Rows[1][0] != "email" || rs.Rows[1][3].(float64) != 5 {
		t.Errorf("second row = %v", rs.Rows[1])
	}
	if buyers := rs.Rows[0][2].(int64); buyers != 2 {
		t.Errorf("organic buyers = %d, want 2", buyers)
	}
}

func TestHourlyActivity_Buckets(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("e1", "u1", model.PageView, "2024-03-01 09:10:00", "p1", 0, "organic"),
		ev("e2", "u2", model.PageView, "2024-03-02 09:45:00", "p1", 0, "organic"),
		ev("e3", "u1", model.Purchase, "2024-03-01 23:59:59", "p1", 10, "organic"),
	})

	rs, err := (&HourlyActivityReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("hourly_activity: %v", err)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rs.Rows))
	}
	// Hour 9 across both dates.
	if rs.Rows[0][0].(int64) != 9 || rs.Rows[0][1].(int64) != 2 {
		t.Errorf("hour 9 row = %v", rs.Rows[0])
	}
	if rs.Rows[1][0].(int64) != 23 || rs.Rows[1][2].(int64) != 1 {
		t.Errorf("hour 23 row = %v", rs.Rows[1])
	}
}

func TestRevenueByDay_SortedDates(t *testing.T) {
	db := database.NewMemoryDriver([]model.Event{
		ev("e1", "u1", model.Purchase, "2024-03-05 10:00:00", "p1", 10, "organic"),
		ev("e2", "u2", model.Purchase, "2024-03-01 11:00:00", "p1", 20, "organic"),
	})

	rs, err := (&RevenueByDayReport{}).Run(context.Background(), db)
	if err != nil {
		t.Fatalf("revenue_by_day: %v", err)
	}
	if rs.Rows[0][0] != "2024-03-01" || rs.Rows[1][0] != "2024-03-05" {
		t.Errorf("days out of order: %v, %v", rs.Rows[0][0], rs.Rows[1][0])
	}
}

func TestCatalog_NamesUniqueAndFindable(t *testing.T) {
	cfg := config.Default()
	seen := map[string]bool{}
	for _, rep := range Catalog(cfg) {
		if seen[rep.Name()] {
			t.Errorf("duplicate report name %q", rep.Name())
		}
		seen[rep.Name()] = true
		if _, ok := Find(cfg, rep.Name()); !ok {
			t.Errorf("Find(%q) failed", rep.Name())
		}
	}
	if _, ok := Find(cfg, "nonexistent"); ok {
		t.Error("Find should miss unknown names")
	}
}
