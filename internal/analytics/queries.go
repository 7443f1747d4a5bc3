// Package analytics runs the aggregation queries behind the admin
// dashboard. Everything reads straight from the append-only pageview
// table; there are no precomputed rollups at this traffic scale.
package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"brightholme/internal/timeframe"
)

// Totals are the headline counters for one reporting window.
type Totals struct {
	PageViews      int64
	UniqueVisitors int64
	Sessions       int64
}

// GetTotalsInTimeFrame counts pageviews, unique visitors, and sessions.
func GetTotalsInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) (Totals, error) {
	var result Totals

	query := `
    SELECT
        COUNT(*) as page_views,
        COUNT(DISTINCT visitor_id) as unique_visitors,
        COUNT(DISTINCT session_id) as sessions
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&result).Error
	if err != nil {
		return Totals{}, fmt.Errorf("error fetching totals: %w", err)
	}

	return result, nil
}

// SessionSummary breaks sessions down by depth for the bounce rate.
type SessionSummary struct {
	SinglePageSessions int64
	TotalSessions      int64
}

// BounceRate is the share of sessions that saw exactly one page, as a
// percentage rounded to one decimal. No sessions means 0.0.
func (s SessionSummary) BounceRate() float64 {
	return SharePercent(s.SinglePageSessions, s.TotalSessions)
}

// GetSessionSummaryInTimeFrame groups events per session and counts how
// many sessions stopped after one page.
func GetSessionSummaryInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) (SessionSummary, error) {
	var result SessionSummary

	query := `
    SELECT
        COALESCE(SUM(CASE WHEN views = 1 THEN 1 ELSE 0 END), 0) as single_page_sessions,
        COUNT(*) as total_sessions
    FROM (
        SELECT session_id, COUNT(*) as views
        FROM analytics_events
        WHERE created_at >= ? AND created_at < ?
        GROUP BY session_id
    )
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&result).Error
	if err != nil {
		return SessionSummary{}, fmt.Errorf("error fetching session summary: %w", err)
	}

	return result, nil
}

// GetNewVisitorsInTimeFrame counts visitors whose very first event across
// all history falls inside the window. The subquery scans the full table on
// purpose: a visitor returning after six months is not new.
func GetNewVisitorsInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) (int64, error) {
	var count int64

	query := `
    SELECT COUNT(*)
    FROM (
        SELECT visitor_id, MIN(created_at) as first_seen
        FROM analytics_events
        GROUP BY visitor_id
        HAVING first_seen >= ? AND first_seen < ?
    )
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error fetching new visitors: %w", err)
	}

	return count, nil
}
