package reports

// Pct returns 100*num/den, or nil when den is zero. A nil rate
// surfaces as NULL in the result set, mirroring NULLIF division in
// the SQL engines.
func Pct(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := 100 * num / den
	return &v
}

// Ratio returns num/den, or nil when den is zero.
func Ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}
