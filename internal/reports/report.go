package reports

import (
	"context"

	"event-analytics/internal/config"
	"event-analytics/internal/database"
)

// ResultSet is one report's tabular output. Cell values are strings,
// int64 counts, float64 amounts, or *float64 for rates that can be
// NULL (a nil pointer renders as null, never as an error).
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

// Report is one read-only query over the full event set. Reports do
// not depend on each other and never write, so any subset may run in
// any order or concurrently with identical results.
type Report interface {
	Name() string
	Title() string
	Run(ctx context.Context, db database.Driver) (*ResultSet, error)
}

// Catalog returns every report, configured from cfg.
func Catalog(cfg *config.Config) []Report {
	return []Report{
		&FunnelReport{},
		&RevenueBySourceReport{},
		&RevenueByDayReport{},
		&RevenueByProductReport{},
		&CartAbandonmentReport{},
		&SegmentsReport{},
		&TopCustomersReport{Limit: cfg.ReportSettings.TopCustomers},
		&CohortReport{Thresholds: cfg.Thresholds},
		&HourlyActivityReport{},
		&ProductRecommendationsReport{Thresholds: cfg.Thresholds},
	}
}

// Find looks a report up by name.
func Find(cfg *config.Config, name string) (Report, bool) {
	for _, r := range Catalog(cfg) {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}
