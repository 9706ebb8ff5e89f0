package filters

import (
	"time"

	"myfinance/models"
)

// PeriodRange derives [start, end] for a rolling period relative to now, in
// now's location. start is midnight of the period's first day and end is the
// last millisecond of now's day. Custom and unknown periods return zero times.
func PeriodRange(p models.Period, now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	end = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)

	switch p {
	case models.PeriodToday:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case models.PeriodWeek:
		start = time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	case models.PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case models.PeriodQuarter:
		quarter := (int(m) - 1) / 3
		start = time.Date(y, time.Month(quarter*3+1), 1, 0, 0, 0, 0, loc)
	case models.PeriodYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}, time.Time{}
	}
	return start, end
}
