package analytics

import "math"

// Trend directions for KPI cards.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// PercentChange returns the change from previous to current as a percentage
// rounded to one decimal. A zero previous period has no meaningful baseline,
// so the result is nil rather than infinity.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := round1((current - previous) / previous * 100.0)
	return &change
}

// TrendDirection maps a percent change onto an up/down/neutral arrow.
// Inverted metrics (bounce rate) flip the sign first: a falling bounce rate
// trends up.
func TrendDirection(change *float64, invert bool) string {
	if change == nil {
		return TrendNeutral
	}
	value := *change
	if invert {
		value = -value
	}
	switch {
	case value > 0:
		return TrendUp
	case value < 0:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// SharePercent returns part as a percentage of total rounded to one decimal,
// 0.0 when the total is zero.
func SharePercent(part, total int64) float64 {
	if total == 0 {
		return 0.0
	}
	return round1(float64(part) / float64(total) * 100.0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
