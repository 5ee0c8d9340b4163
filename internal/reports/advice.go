package reports

import (
	"strings"

	"event-analytics/internal/config"
)

// Priority buckets a cohort by revenue per user against the
// configured cutoffs. A nil rate (empty cohort) is low priority.
func Priority(revenuePerUser *float64, t config.Thresholds) string {
	switch {
	case revenuePerUser == nil:
		return "low priority"
	case *revenuePerUser > t.HighRevenuePerUser:
		return "high priority"
	case *revenuePerUser > t.MediumRevenuePerUser:
		return "medium priority"
	default:
		return "low priority"
	}
}

// ProductAdvice applies the fixed product rules: a purchase/view
// ratio under the cutoff suggests a pricing problem, an abandonment
// rate over the cutoff suggests a checkout problem. A nil ratio
// (zero views) triggers neither rule.
func ProductAdvice(purchaseViewRatio, abandonmentPct *float64, t config.Thresholds) string {
	var advice []string
	if purchaseViewRatio != nil && *purchaseViewRatio < t.PurchaseViewRatio {
		advice = append(advice, "review pricing")
	}
	if abandonmentPct != nil && *abandonmentPct > t.AbandonmentRate {
		advice = append(advice, "review checkout")
	}
	if len(advice) == 0 {
		return "healthy"
	}
	return strings.Join(advice, "; ")
}
