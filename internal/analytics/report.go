package analytics

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"brightholme/internal/leads"
	"brightholme/internal/pages"
	"brightholme/internal/timeframe"
)

// countryChartLimit caps the country chart; the table below it still shows
// the full top-10 breakdown.
const countryChartLimit = 6

// Value formats understood by the dashboard frontend.
const (
	FormatNumber  = "number"
	FormatDecimal = "decimal"
	FormatPercent = "percent"
)

// KPICard is one headline metric with its period-over-period trend.
type KPICard struct {
	Label          string   `json:"label"`
	Value          float64  `json:"value"`
	Trend          *float64 `json:"trend"`
	TrendDirection string   `json:"trend_direction"`
	Caption        string   `json:"caption"`
	Format         string   `json:"format"`
	Supplement     string   `json:"supplement,omitempty"`
}

// DailyChart plots pageviews, sessions, and uniques per day, zero-filled.
type DailyChart struct {
	Labels         []string `json:"labels"`
	PageViews      []int64  `json:"page_views"`
	Sessions       []int64  `json:"sessions"`
	UniqueVisitors []int64  `json:"unique"`
}

// LabelledChart is a simple label/value bar or donut chart.
type LabelledChart struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

// PageRow is one entry of the top-pages table.
type PageRow struct {
	Title    string  `json:"title"`
	Slug     string  `json:"slug"`
	Views    int64   `json:"views"`
	Sessions int64   `json:"sessions"`
	Share    float64 `json:"share"`
	URL      string  `json:"url"`
}

// CountryRow is one entry of the top-countries table.
type CountryRow struct {
	Country string  `json:"country"`
	Visits  int64   `json:"visits"`
	Unique  int64   `json:"unique"`
	Share   float64 `json:"share"`
}

// ReferrerRow is one entry of the referrers table.
type ReferrerRow struct {
	Domain string `json:"domain"`
	Visits int64  `json:"visits"`
	Source string `json:"source"`
}

// TimezoneRow is one entry of the timezones table.
type TimezoneRow struct {
	Timezone string `json:"timezone"`
	Visits   int64  `json:"visits"`
}

// ShareRow is one entry of the device/OS/traffic tables.
type ShareRow struct {
	Label  string  `json:"label"`
	Visits int64   `json:"visits"`
	Share  float64 `json:"share"`
}

// DashboardReport is the full JSON view model for one reporting window.
type DashboardReport struct {
	RangeDays       int    `json:"range_days"`
	RangeLabel      string `json:"range_label"`
	ComparisonLabel string `json:"comparison_label"`
	RangeOptions    []int  `json:"range_options"`

	KPICards []KPICard `json:"kpi_cards"`

	DailyChart   DailyChart    `json:"daily_chart"`
	HourlyChart  LabelledChart `json:"hourly_chart"`
	DeviceChart  LabelledChart `json:"device_chart"`
	TrafficChart LabelledChart `json:"traffic_chart"`
	CountryChart LabelledChart `json:"country_chart"`

	TopPages      []PageRow     `json:"top_pages"`
	TopCountries  []CountryRow  `json:"top_countries"`
	ReferrerTable []ReferrerRow `json:"referrer_table"`
	TimezoneTable []TimezoneRow `json:"timezone_table"`
	DeviceTable   []ShareRow    `json:"device_table"`
	OSTable       []ShareRow    `json:"os_table"`
	TrafficTable  []ShareRow    `json:"traffic_table"`

	PageViews          int64   `json:"page_views"`
	Sessions           int64   `json:"sessions_total"`
	UniqueVisitors     int64   `json:"unique_visitors"`
	BounceRate         float64 `json:"bounce_rate"`
	AvgPagesPerSession float64 `json:"avg_pages_per_session"`
	LeadCount          int64   `json:"lead_count"`
	ConversionRate     float64 `json:"conversion_rate"`
	NewVisitors        int64   `json:"new_visitors"`
	ReturningVisitors  int64   `json:"returning_visitors"`
	NewVisitorRate     float64 `json:"new_visitor_rate"`
}

// BuildDashboardReport aggregates one reporting window and its preceding
// window into the dashboard view model.
func BuildDashboardReport(db *gorm.DB, now time.Time, rangeDays int) (*DashboardReport, error) {
	current := timeframe.TrailingWindow(now, rangeDays)
	previous := current.Previous()
	comparisonLabel := fmt.Sprintf("vs previous %d days", rangeDays)

	totals, err := GetTotalsInTimeFrame(db, current)
	if err != nil {
		return nil, err
	}
	prevTotals, err := GetTotalsInTimeFrame(db, previous)
	if err != nil {
		return nil, err
	}

	sessionSummary, err := GetSessionSummaryInTimeFrame(db, current)
	if err != nil {
		return nil, err
	}
	prevSessionSummary, err := GetSessionSummaryInTimeFrame(db, previous)
	if err != nil {
		return nil, err
	}

	leadCount, err := leads.CountLeadsInTimeFrame(db, current)
	if err != nil {
		return nil, err
	}
	prevLeadCount, err := leads.CountLeadsInTimeFrame(db, previous)
	if err != nil {
		return nil, err
	}

	newVisitors, err := GetNewVisitorsInTimeFrame(db, current)
	if err != nil {
		return nil, err
	}
	prevNewVisitors, err := GetNewVisitorsInTimeFrame(db, previous)
	if err != nil {
		return nil, err
	}

	bounceRate := sessionSummary.BounceRate()
	prevBounceRate := prevSessionSummary.BounceRate()

	avgPagesPerSession := 0.0
	if totals.Sessions > 0 {
		avgPagesPerSession = round2(float64(totals.PageViews) / float64(totals.Sessions))
	}
	prevAvgPagesPerSession := 0.0
	if prevTotals.Sessions > 0 {
		prevAvgPagesPerSession = round2(float64(prevTotals.PageViews) / float64(prevTotals.Sessions))
	}

	conversionRate := SharePercent(leadCount, totals.Sessions)
	prevConversionRate := SharePercent(prevLeadCount, prevTotals.Sessions)

	returningVisitors := totals.UniqueVisitors - newVisitors
	if returningVisitors < 0 {
		returningVisitors = 0
	}
	newVisitorRate := SharePercent(newVisitors, totals.UniqueVisitors)
	prevNewVisitorRate := SharePercent(prevNewVisitors, prevTotals.UniqueVisitors)

	avgDailyViews := round1(float64(totals.PageViews) / float64(rangeDays))
	prevAvgDailyViews := round1(float64(prevTotals.PageViews) / float64(rangeDays))

	buildCard := func(label string, value, prevValue float64, format string, invert bool, supplement string) KPICard {
		change := PercentChange(value, prevValue)
		return KPICard{
			Label:          label,
			Value:          value,
			Trend:          change,
			TrendDirection: TrendDirection(change, invert),
			Caption:        comparisonLabel,
			Format:         format,
			Supplement:     supplement,
		}
	}

	report := &DashboardReport{
		RangeDays:       rangeDays,
		RangeLabel:      fmt.Sprintf("Last %d days", rangeDays),
		ComparisonLabel: comparisonLabel,
		RangeOptions:    timeframe.AllowedRangeDays,
		KPICards: []KPICard{
			buildCard("Page Views", float64(totals.PageViews), float64(prevTotals.PageViews), FormatNumber, false, ""),
			buildCard("Sessions", float64(totals.Sessions), float64(prevTotals.Sessions), FormatNumber, false, ""),
			buildCard("Unique Visitors", float64(totals.UniqueVisitors), float64(prevTotals.UniqueVisitors), FormatNumber, false, ""),
			buildCard("Bounce Rate", bounceRate, prevBounceRate, FormatPercent, true, ""),
			buildCard("Pages / Session", avgPagesPerSession, prevAvgPagesPerSession, FormatDecimal, false, ""),
			buildCard("Lead Conversion", conversionRate, prevConversionRate, FormatPercent, false, ""),
			buildCard("New Visitor Share", newVisitorRate, prevNewVisitorRate, FormatPercent, false,
				fmt.Sprintf("%s new / %s unique", humanize.Comma(newVisitors), humanize.Comma(totals.UniqueVisitors))),
			buildCard("Avg Daily Views", avgDailyViews, prevAvgDailyViews, FormatDecimal, false, ""),
		},
		PageViews:          totals.PageViews,
		Sessions:           totals.Sessions,
		UniqueVisitors:     totals.UniqueVisitors,
		BounceRate:         bounceRate,
		AvgPagesPerSession: avgPagesPerSession,
		LeadCount:          leadCount,
		ConversionRate:     conversionRate,
		NewVisitors:        newVisitors,
		ReturningVisitors:  returningVisitors,
		NewVisitorRate:     newVisitorRate,
	}

	if err := fillCharts(db, report, current); err != nil {
		return nil, err
	}
	if err := fillTables(db, report, current, totals.PageViews); err != nil {
		return nil, err
	}

	return report, nil
}

func fillCharts(db *gorm.DB, report *DashboardReport, tf timeframe.TimeFrame) error {
	dailyStats, err := GetDailyStatsInTimeFrame(db, tf)
	if err != nil {
		return err
	}

	dayMap := make(map[string]DailyStat, len(dailyStats))
	for _, stat := range dailyStats {
		dayMap[stat.Day] = stat
	}

	for _, key := range tf.DayKeys() {
		stat := dayMap[key]
		report.DailyChart.Labels = append(report.DailyChart.Labels, timeframe.DayLabel(key))
		report.DailyChart.PageViews = append(report.DailyChart.PageViews, stat.PageViews)
		report.DailyChart.Sessions = append(report.DailyChart.Sessions, stat.Sessions)
		report.DailyChart.UniqueVisitors = append(report.DailyChart.UniqueVisitors, stat.UniqueVisitors)
	}

	hourlyStats, err := GetHourlyStatsInTimeFrame(db, tf)
	if err != nil {
		return err
	}

	hourMap := make(map[string]int64, len(hourlyStats))
	for _, stat := range hourlyStats {
		hourMap[stat.Hour] = stat.Visits
	}

	for _, key := range timeframe.HourKeys() {
		report.HourlyChart.Labels = append(report.HourlyChart.Labels, timeframe.HourLabel(key))
		report.HourlyChart.Values = append(report.HourlyChart.Values, hourMap[key])
	}

	return nil
}

func fillTables(db *gorm.DB, report *DashboardReport, tf timeframe.TimeFrame, pageViews int64) error {
	deviceStats, err := GetDeviceBreakdownInTimeFrame(db, tf)
	if err != nil {
		return err
	}
	report.DeviceTable = toShareRows(deviceStats, pageViews)
	report.DeviceChart = toLabelledChart(deviceStats)

	osStats, err := GetOSBreakdownInTimeFrame(db, tf)
	if err != nil {
		return err
	}
	report.OSTable = toShareRows(osStats, pageViews)

	trafficStats, err := GetTrafficSourceBreakdownInTimeFrame(db, tf)
	if err != nil {
		return err
	}
	report.TrafficTable = toShareRows(trafficStats, pageViews)
	report.TrafficChart = toLabelledChart(trafficStats)

	countryStats, err := GetCountryBreakdownInTimeFrame(db, tf)
	if err != nil {
		return err
	}
	report.TopCountries = toCountryRows(countryStats, pageViews)
	report.CountryChart = LabelledChart{Labels: []string{}, Values: []int64{}}
	for i, row := range report.TopCountries {
		if i >= countryChartLimit {
			break
		}
		report.CountryChart.Labels = append(report.CountryChart.Labels, row.Country)
		report.CountryChart.Values = append(report.CountryChart.Values, row.Visits)
	}

	referrerStats, err := GetReferrerBreakdownInTimeFrame(db, tf)
	if err != nil {
		return err
	}
	report.ReferrerTable = make([]ReferrerRow, len(referrerStats))
	for i, stat := range referrerStats {
		report.ReferrerTable[i] = ReferrerRow{Domain: stat.Domain, Visits: stat.Visits, Source: stat.TrafficSource}
	}

	timezoneStats, err := GetTimezoneBreakdownInTimeFrame(db, tf)
	if err != nil {
		return err
	}
	report.TimezoneTable = make([]TimezoneRow, len(timezoneStats))
	for i, stat := range timezoneStats {
		report.TimezoneTable[i] = TimezoneRow{Timezone: stat.Label, Visits: stat.Visits}
	}

	pageStats, err := GetTopPagesInTimeFrame(db, tf)
	if err != nil {
		return err
	}

	registry, err := pages.LoadRegistry(db)
	if err != nil {
		return err
	}

	report.TopPages = make([]PageRow, len(pageStats))
	for i, stat := range pageStats {
		report.TopPages[i] = PageRow{
			Title:    registry.DisplayName(stat.PageSlug, stat.PageTitle, stat.PagePath),
			Slug:     stat.PageSlug,
			Views:    stat.Views,
			Sessions: stat.Sessions,
			Share:    SharePercent(stat.Views, pageViews),
			URL:      registry.PublicURL(stat.PageSlug, stat.PagePath),
		}
	}

	return nil
}

func toShareRows(stats []CategoryStat, pageViews int64) []ShareRow {
	rows := make([]ShareRow, len(stats))
	for i, stat := range stats {
		rows[i] = ShareRow{Label: stat.Label, Visits: stat.Visits, Share: SharePercent(stat.Visits, pageViews)}
	}
	return rows
}

func toLabelledChart(stats []CategoryStat) LabelledChart {
	chart := LabelledChart{Labels: []string{}, Values: []int64{}}
	for _, stat := range stats {
		chart.Labels = append(chart.Labels, stat.Label)
		chart.Values = append(chart.Values, stat.Visits)
	}
	return chart
}

// toCountryRows converts ISO codes into display names. Unknown stays as is;
// unrecognized codes are shown uppercased.
func toCountryRows(stats []CountryStat, pageViews int64) []CountryRow {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	rows := make([]CountryRow, len(stats))
	for i, stat := range stats {
		name := stat.Country
		if name != "Unknown" {
			if country, err := countries.FindCountryByAlpha(name); err == nil {
				name = country.Name.Common
			} else {
				name = caser.String(name)
			}
		}
		rows[i] = CountryRow{
			Country: name,
			Visits:  stat.Visits,
			Unique:  stat.UniqueVisitors,
			Share:   SharePercent(stat.Visits, pageViews),
		}
	}
	return rows
}
