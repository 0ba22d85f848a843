// Package calendar holds the pure date logic of the calendar: month grids,
// time-range overlap, birthday projection and timeline merging. Nothing in
// this package performs I/O.
package calendar

import (
	"time"

	"staffcalendar/internal/domain"
)

const daysPerWeek = 7

// BuildMonthGrid returns the Sunday-first display grid for a month. The
// result length is always a multiple of 7; cells outside the month have a
// nil Date. month must be in 1..12.
func BuildMonthGrid(month time.Month, year int) []domain.CalendarCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lead := int(first.Weekday())
	days := DaysInMonth(month, year)

	size := lead + days
	if rem := size % daysPerWeek; rem != 0 {
		size += daysPerWeek - rem
	}

	cells := make([]domain.CalendarCell, size)
	for d := 0; d < days; d++ {
		date := first.AddDate(0, 0, d)
		cells[lead+d] = domain.CalendarCell{Date: &date}
	}
	return cells
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the first and last day of a month at UTC midnight.
func MonthBounds(month time.Month, year int) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
