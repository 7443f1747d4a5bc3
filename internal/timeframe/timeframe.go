// Package timeframe defines the reporting windows the dashboard can ask
// for. All window arithmetic happens in UTC; queries filter on half-open
// intervals [From, To) so adjacent windows never double-count an event.
package timeframe

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultRangeDays is used when the request omits or mangles the range.
const DefaultRangeDays = 30

// AllowedRangeDays is the closed set of selectable window sizes.
var AllowedRangeDays = []int{7, 30, 60, 90, 180}

// NormalizeRangeDays parses a raw range parameter and clamps it to the
// allowed set. Anything unparseable or out of set becomes the default,
// never an error: the dashboard always renders something.
func NormalizeRangeDays(raw string) int {
	days, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultRangeDays
	}
	for _, allowed := range AllowedRangeDays {
		if days == allowed {
			return days
		}
	}
	return DefaultRangeDays
}

// TimeFrame is a half-open UTC interval [From, To).
type TimeFrame struct {
	From time.Time
	To   time.Time
	Days int
}

// TrailingWindow returns the window covering the last `days` days ending
// now. The reference time is truncated to the second so SQL comparisons
// against stored timestamps stay stable within a request.
func TrailingWindow(now time.Time, days int) TimeFrame {
	to := now.UTC().Truncate(time.Second)
	return TimeFrame{
		From: to.AddDate(0, 0, -days),
		To:   to,
		Days: days,
	}
}

// Previous returns the window of equal length immediately before this one,
// used for period-over-period comparisons.
func (tf TimeFrame) Previous() TimeFrame {
	return TimeFrame{
		From: tf.From.AddDate(0, 0, -tf.Days),
		To:   tf.From,
		Days: tf.Days,
	}
}

// Contains reports whether t falls inside the interval.
func (tf TimeFrame) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(tf.From) && u.Before(tf.To)
}

// DayKeys returns exactly Days "2006-01-02" keys, oldest first, ending on
// the window's final calendar day. Charts zero-fill against these so days
// without traffic still appear.
func (tf TimeFrame) DayKeys() []string {
	keys := make([]string, 0, tf.Days)
	last := tf.To.Truncate(24 * time.Hour)
	for i := tf.Days - 1; i >= 0; i-- {
		keys = append(keys, last.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return keys
}

// DayLabel formats a day key ("2006-01-02") for chart axes, e.g. "02 Jan".
// A malformed key is returned unchanged.
func DayLabel(key string) string {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return key
	}
	return t.Format("02 Jan")
}

// HourKeys returns the 24 hour-of-day keys "00" through "23".
func HourKeys() []string {
	keys := make([]string, 24)
	for h := 0; h < 24; h++ {
		keys[h] = fmt.Sprintf("%02d", h)
	}
	return keys
}

// HourLabel formats an hour key for chart axes, e.g. "09" becomes "09:00".
func HourLabel(key string) string {
	return key + ":00"
}
