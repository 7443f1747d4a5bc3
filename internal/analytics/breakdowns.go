package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"brightholme/internal/timeframe"
)

// Breakdown row limits; the dashboard tables show only the head of each
// distribution.
const (
	topCountriesLimit = 10
	topReferrersLimit = 10
	topPagesLimit     = 10
	topTimezonesLimit = 8
)

// DailyStat is one day of traffic, keyed "2006-01-02".
type DailyStat struct {
	Day            string
	PageViews      int64
	Sessions       int64
	UniqueVisitors int64
}

// GetDailyStatsInTimeFrame groups traffic by calendar day. Days without
// events are absent; the report layer zero-fills.
func GetDailyStatsInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]DailyStat, error) {
	var results []DailyStat

	query := `
    SELECT
        DATE(created_at) as day,
        COUNT(*) as page_views,
        COUNT(DISTINCT session_id) as sessions,
        COUNT(DISTINCT visitor_id) as unique_visitors
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    GROUP BY day
    ORDER BY day
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching daily stats: %w", err)
	}

	return results, nil
}

// HourlyStat is traffic volume for one hour of the day ("00".."23"),
// summed over the whole window.
type HourlyStat struct {
	Hour   string
	Visits int64
}

// GetHourlyStatsInTimeFrame groups traffic by hour of day (UTC).
func GetHourlyStatsInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]HourlyStat, error) {
	var results []HourlyStat

	query := `
    SELECT
        STRFTIME('%H', created_at) as hour,
        COUNT(*) as visits
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    GROUP BY hour
    ORDER BY hour
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching hourly stats: %w", err)
	}

	return results, nil
}

// CategoryStat is a generic label/count pair for single-dimension
// breakdowns (device type, OS, traffic source, timezone).
type CategoryStat struct {
	Label  string
	Visits int64
}

// GetDeviceBreakdownInTimeFrame counts events per device type, busiest first.
func GetDeviceBreakdownInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]CategoryStat, error) {
	return categoryBreakdown(db, tf, "COALESCE(NULLIF(device_type, ''), 'Unknown')", 0)
}

// GetOSBreakdownInTimeFrame counts events per operating system, busiest first.
func GetOSBreakdownInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]CategoryStat, error) {
	return categoryBreakdown(db, tf, "COALESCE(NULLIF(device_os, ''), 'Other')", 0)
}

// GetTrafficSourceBreakdownInTimeFrame counts events per traffic source.
func GetTrafficSourceBreakdownInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]CategoryStat, error) {
	return categoryBreakdown(db, tf, "COALESCE(NULLIF(traffic_source, ''), 'Direct')", 0)
}

// GetTimezoneBreakdownInTimeFrame counts events per client timezone.
func GetTimezoneBreakdownInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]CategoryStat, error) {
	return categoryBreakdown(db, tf, "COALESCE(NULLIF(timezone, ''), 'Unknown')", topTimezonesLimit)
}

func categoryBreakdown(db *gorm.DB, tf timeframe.TimeFrame, labelExpr string, limit int) ([]CategoryStat, error) {
	var results []CategoryStat

	query := fmt.Sprintf(`
    SELECT
        %s as label,
        COUNT(*) as visits
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    GROUP BY label
    ORDER BY visits DESC
    `, labelExpr)

	args := []any{tf.From.UTC(), tf.To.UTC()}
	if limit > 0 {
		query += "LIMIT ?"
		args = append(args, limit)
	}

	err := db.Raw(query, args...).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching %s breakdown: %w", labelExpr, err)
	}

	return results, nil
}

// CountryStat is one country's traffic with its unique-visitor count.
type CountryStat struct {
	Country        string
	Visits         int64
	UniqueVisitors int64
}

// GetCountryBreakdownInTimeFrame returns the busiest countries.
func GetCountryBreakdownInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]CountryStat, error) {
	var results []CountryStat

	query := `
    SELECT
        COALESCE(NULLIF(country, ''), 'Unknown') as country,
        COUNT(*) as visits,
        COUNT(DISTINCT visitor_id) as unique_visitors
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    GROUP BY country
    ORDER BY visits DESC
    LIMIT ?
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC(), topCountriesLimit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching country breakdown: %w", err)
	}

	return results, nil
}

// ReferrerStat is one referrer domain's traffic. Direct traffic has no
// domain, so the traffic source stands in as the label.
type ReferrerStat struct {
	Domain        string
	TrafficSource string
	Visits        int64
}

// GetReferrerBreakdownInTimeFrame returns the busiest referrer domains.
func GetReferrerBreakdownInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]ReferrerStat, error) {
	var results []ReferrerStat

	query := `
    SELECT
        COALESCE(NULLIF(referrer_domain, ''), traffic_source) as domain,
        traffic_source,
        COUNT(*) as visits
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    GROUP BY domain, traffic_source
    ORDER BY visits DESC
    LIMIT ?
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC(), topReferrersLimit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching referrer breakdown: %w", err)
	}

	return results, nil
}

// PageStat is one page's traffic for the top-pages table.
type PageStat struct {
	PageSlug  string
	PageTitle string
	PagePath  string
	Views     int64
	Sessions  int64
}

// GetTopPagesInTimeFrame returns the most viewed pages.
func GetTopPagesInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) ([]PageStat, error) {
	var results []PageStat

	query := `
    SELECT
        page_slug,
        page_title,
        page_path,
        COUNT(*) as views,
        COUNT(DISTINCT session_id) as sessions
    FROM analytics_events
    WHERE created_at >= ? AND created_at < ?
    GROUP BY page_slug, page_title, page_path
    ORDER BY views DESC
    LIMIT ?
    `

	err := db.Raw(query, tf.From.UTC(), tf.To.UTC(), topPagesLimit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top pages: %w", err)
	}

	return results, nil
}
