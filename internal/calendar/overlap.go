package calendar

import (
	"strings"
	"time"

	"staffcalendar/internal/domain"
)

const (
	timeLayout      = "15:04:05"
	shortTimeLayout = "15:04"
)

// Overlaps reports whether [startA, endA) and [startB, endB) share an
// instant. A nil or empty end means the range runs to 23:59:59. Ranges that
// only touch (one ends when the other starts) do not overlap.
func Overlaps(startA string, endA *string, startB string, endB *string) bool {
	sa, ea := normalize(startA), normalizeEnd(endA)
	sb, eb := normalize(startB), normalizeEnd(endB)
	return sa < eb && sb < ea
}

// EventsOverlap applies Overlaps to two events' time ranges.
func EventsOverlap(a, b *domain.Event) bool {
	return Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

// ParseTimeOfDay validates an "HH:MM" or "HH:MM:SS" value and returns it
// as "HH:MM:SS".
func ParseTimeOfDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{timeLayout, shortTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(timeLayout), true
		}
	}
	return "", false
}

// NormalizeTime pads "HH:MM" to "HH:MM:SS". Values it cannot interpret are
// returned trimmed so that comparison stays total.
func NormalizeTime(s string) string {
	return normalize(s)
}

func normalize(s string) string {
	if t, ok := ParseTimeOfDay(s); ok {
		return t
	}
	return strings.TrimSpace(s)
}

func normalizeEnd(end *string) string {
	if end == nil || strings.TrimSpace(*end) == "" {
		return domain.EndOfDay
	}
	return normalize(*end)
}
