package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"staffcalendar/internal/domain"
)

const (
	birthdayStartTime    = "00:00:00"
	birthdayTitlePrefix  = "Aniversário - "
	birthdayDescPrefix   = "Aniversário de "
	anonymousDisplayName = "Usuário"
)

// ExpandResult is the outcome of a birthday projection.
type ExpandResult struct {
	Events []*domain.Event
	// Skipped lists the person IDs whose birth day could not be parsed.
	Skipped []string
}

// ExpandBirthdaysForMonth projects every record onto the given month.
func ExpandBirthdaysForMonth(records []domain.BirthdaySourceRecord, month time.Month, year int) ExpandResult {
	first, last := MonthBounds(month, year)
	return ExpandBirthdaysInRange(records, first, last)
}

// ExpandBirthdaysInRange projects every record onto the inclusive date window
// [start, end]. Only the calendar date of start and end is considered. A Feb 29
// birthday lands on Feb 28 in non-leap years. Records with a missing or
// malformed birth day are reported in Skipped and produce no event.
func ExpandBirthdaysInRange(records []domain.BirthdaySourceRecord, start, end time.Time) ExpandResult {
	var result ExpandResult
	start = truncateDate(start)
	end = truncateDate(end)
	if end.Before(start) {
		return result
	}

	for _, rec := range records {
		month, day, ok := parseMonthDay(rec.BirthMonthDay)
		if !ok {
			result.Skipped = append(result.Skipped, rec.PersonID)
			continue
		}
		for _, occ := range yearlyOccurrences(month, day, start, end) {
			result.Events = append(result.Events, birthdayEvent(rec, occ))
		}
	}
	return result
}

// yearlyOccurrences lists the dates of a yearly month/day rule inside
// [start, end]. Feb 29 is expressed as the last day of February.
func yearlyOccurrences(month time.Month, day int, start, end time.Time) []time.Time {
	monthDay := day
	if month == time.February && day == 29 {
		monthDay = -1
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.YEARLY,
		Dtstart:    time.Date(start.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		Bymonth:    []int{int(month)},
		Bymonthday: []int{monthDay},
	})
	if err != nil {
		return nil
	}
	return rule.Between(start, end, true)
}

func birthdayEvent(rec domain.BirthdaySourceRecord, date time.Time) *domain.Event {
	description := birthdayDescPrefix + firstNonBlank(rec.DisplayName, rec.Nickname)
	return &domain.Event{
		ID:          domain.BirthdayEventID(rec.PersonID),
		Title:       birthdayTitlePrefix + firstNonBlank(rec.Nickname, rec.DisplayName),
		Description: &description,
		EventDate:   date.Format(domain.DateLayout),
		StartTime:   birthdayStartTime,
		EndTime:     nil,
		Type:        domain.CategoryBirthday,
		CreatedBy:   rec.PersonID,
		Origin:      domain.OriginSynthesized,
	}
}

// parseMonthDay accepts "MM-DD" or "YYYY-MM-DD".
func parseMonthDay(raw *string) (time.Month, int, bool) {
	if raw == nil {
		return 0, 0, false
	}
	parts := strings.Split(strings.TrimSpace(*raw), "-")
	switch len(parts) {
	case 2:
	case 3:
		parts = parts[1:]
	default:
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	d, err := strconv.Atoi(parts[1])
	// 2000 is a leap year, so Feb 29 is accepted here.
	if err != nil || d < 1 || d > DaysInMonth(time.Month(m), 2000) {
		return 0, 0, false
	}
	return time.Month(m), d, true
}

func firstNonBlank(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && strings.TrimSpace(*c) != "" {
			return strings.TrimSpace(*c)
		}
	}
	return anonymousDisplayName
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
