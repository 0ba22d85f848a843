package helpers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ParseMonthYear reads month and year from the query string. Missing values
// default to the current month in loc; present but non-numeric values are an error.
// Range checks are left to the service.
func ParseMonthYear(r *http.Request, now time.Time, loc *time.Location) (month, year int, err error) {
	today := now.In(loc)
	month, year = int(today.Month()), today.Year()
	q := r.URL.Query()
	if s := q.Get("month"); s != "" {
		if month, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("month must be a number")
		}
	}
	if s := q.Get("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("year must be a number")
		}
	}
	return month, year, nil
}

// DefaultRangeDays is the width of the range returned when no bounds are given.
const DefaultRangeDays = 7

// ParseDateRange reads start and end ("YYYY-MM-DD") from the query string.
// A missing start is today in loc; a missing end is start plus DefaultRangeDays.
func ParseDateRange(r *http.Request, now time.Time, loc *time.Location) (start, end string) {
	q := r.URL.Query()
	start = q.Get("start")
	if start == "" {
		start = now.In(loc).Format(time.DateOnly)
	}
	end = q.Get("end")
	if end == "" {
		if t, err := time.Parse(time.DateOnly, start); err == nil {
			end = t.AddDate(0, 0, DefaultRangeDays).Format(time.DateOnly)
		} else {
			end = start
		}
	}
	return start, end
}
