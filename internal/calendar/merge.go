package calendar

import (
	"cmp"
	"slices"

	"staffcalendar/internal/domain"
)

// MergeEvents combines stored and synthesized events into one timeline
// ordered by (EventDate, StartTime). The sort is stable: events with equal
// keys keep their input order, stored events first.
func MergeEvents(stored, synthesized []*domain.Event) []*domain.Event {
	out := make([]*domain.Event, 0, len(stored)+len(synthesized))
	out = append(out, stored...)
	out = append(out, synthesized...)
	slices.SortStableFunc(out, compareEvents)
	return out
}

func compareEvents(a, b *domain.Event) int {
	if c := cmp.Compare(a.EventDate, b.EventDate); c != 0 {
		return c
	}
	return cmp.Compare(NormalizeTime(a.StartTime), NormalizeTime(b.StartTime))
}
