package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"

	"event-analytics/internal/database"
	"event-analytics/internal/reports"
)

type ReportResult struct {
	Name     string
	Title    string
	Result   *reports.ResultSet
	Duration time.Duration
}

// RunAll executes the given reports concurrently. Every report is
// read-only, so concurrent execution returns the same result sets as
// sequential execution; order of the output matches the input order.
func RunAll(ctx context.Context, db database.Driver, catalog []reports.Report) ([]ReportResult, error) {
	results := make([]ReportResult, len(catalog))
	errs := make([]error, len(catalog))

	var wg sync.WaitGroup
	for i, rep := range catalog {
		wg.Add(1)
		go func(i int, rep reports.Report) {
			defer wg.Done()
			start := time.Now()
			rs, err := rep.Run(ctx, db)
			results[i] = ReportResult{
				Name:     rep.Name(),
				Title:    rep.Title(),
				Result:   rs,
				Duration: time.Since(start),
			}
			errs[i] = err
		}(i, rep)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", catalog[i].Name(), err)
		}
	}
	return results, nil
}

type ProfileResult struct {
	Report         string        `json:"report"`
	Operations     int64         `json:"operations"`
	TotalTime      time.Duration `json:"total_time"`
	AverageLatency time.Duration `json:"average_latency"`
	P50Latency     time.Duration `json:"p50_latency"`
	P95Latency     time.Duration `json:"p95_latency"`
	P99Latency     time.Duration `json:"p99_latency"`
}

// Profile repeats one report and reports latency percentiles from an
// HDR histogram (1µs to 1min range, 3 significant figures).
func Profile(ctx context.Context, db database.Driver, rep reports.Report, iterations int) (*ProfileResult, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("profile iterations must be positive, got %d", iterations)
	}

	hist := hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
	start := time.Now()

	for i := 0; i < iterations; i++ {
		t0 := time.Now()
		if _, err := rep.Run(ctx, db); err != nil {
			return nil, fmt.Errorf("report %s: %w", rep.Name(), err)
		}
		us := time.Since(t0).Microseconds()
		if us < 1 {
			us = 1
		}
		if err := hist.RecordValue(us); err != nil {
			// Out of histogram range; clamp to the maximum bucket.
			_ = hist.RecordValue(hist.HighestTrackableValue())
		}
	}

	return &ProfileResult{
		Report:         rep.Name(),
		Operations:     int64(iterations),
		TotalTime:      time.Since(start),
		AverageLatency: time.Duration(hist.Mean()) * time.Microsecond,
		P50Latency:     time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P95Latency:     time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
		P99Latency:     time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
	}, nil
}
