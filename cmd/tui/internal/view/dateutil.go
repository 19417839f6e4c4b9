package view

import (
	"time"

	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

type Timeframe int

const (
	TimeframeThisWeek  Timeframe = 0
	TimeframeLastWeek  Timeframe = 1
	TimeframeThisMonth Timeframe = 2
	TimeframeLastMonth Timeframe = 3
	TimeframeAll       Timeframe = 4
	TimeframeCustom    Timeframe = 5
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeThisWeek:
		return "This Week"
	case TimeframeLastWeek:
		return "Last Week"
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframeAll:
		return "All Time"
	case TimeframeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// TimeframeToDateRange resolves a preset relative to now. Weeks start on
// Monday. All and Custom yield zero times.
func TimeframeToDateRange(tf Timeframe, now time.Time) (time.Time, time.Time) {
	today := transaction.DateOf(now)

	offset := int(today.Weekday())
	if offset == 0 {
		offset = 7
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch tf {
	case TimeframeThisWeek:
		return today.AddDate(0, 0, -offset+1), today
	case TimeframeLastWeek:
		end := today.AddDate(0, 0, -offset)
		return end.AddDate(0, 0, -6), end
	case TimeframeThisMonth:
		return monthStart, today
	case TimeframeLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart.AddDate(0, 0, -1)
	}

	return time.Time{}, time.Time{}
}

// NormalizeDateRange truncates both bounds to calendar days and swaps them
// when given in reverse.
func NormalizeDateRange(start, end time.Time) (time.Time, time.Time) {
	start, end = transaction.DateOf(start), transaction.DateOf(end)
	if end.Before(start) {
		start, end = end, start
	}

	return start, end
}
