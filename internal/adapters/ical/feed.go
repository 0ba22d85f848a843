// Package ical renders the calendar timeline as an iCalendar feed and caches
// rendered months until they expire or an event in them changes.
package ical

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"

	"staffcalendar/internal/calendar"
	"staffcalendar/internal/domain"
)

const productID = "-//staffcalendar//calendar feed//EN"

// RenderMonth serializes events as a VCALENDAR. Times are wall-clock times in
// loc; birthdays become all-day entries.
func RenderMonth(events []*domain.Event, month time.Month, year int, loc *time.Location, stamp time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(fmt.Sprintf("Staff calendar %04d-%02d", year, int(month)))
	cal.SetXWRTimezone(loc.String())

	for _, e := range events {
		day, err := time.ParseInLocation(domain.DateLayout, e.EventDate, loc)
		if err != nil {
			return "", fmt.Errorf("event %s: bad date %q: %w", e.ID, e.EventDate, err)
		}

		ve := cal.AddEvent(uid(e))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Title)
		if e.Description != nil && *e.Description != "" {
			ve.SetDescription(*e.Description)
		}
		ve.SetProperty(ics.ComponentPropertyCategories, string(e.Type))

		if e.IsSynthesized() {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		start, err := atTime(day, e.StartTime)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", e.ID, err)
		}
		end, err := atTime(day, e.EffectiveEnd())
		if err != nil {
			return "", fmt.Errorf("event %s: %w", e.ID, err)
		}
		ve.SetStartAt(start)
		ve.SetEndAt(end)
	}
	return cal.Serialize(), nil
}

// uid keeps yearly birthday entries distinct since they share an event ID.
func uid(e *domain.Event) string {
	if e.IsSynthesized() {
		return e.ID + "-" + e.EventDate + "@staffcalendar"
	}
	return e.ID + "@staffcalendar"
}

func atTime(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", calendar.NormalizeTime(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}

// feedEntry holds a rendered month and when it was rendered.
type feedEntry struct {
	body      string
	updatedAt time.Time
}

// FeedCache keeps rendered month feeds keyed by "YYYY-MM". It implements
// domain.CalendarInvalidator so mutations drop the affected months.
//
// Every month carries a generation that Invalidate bumps, cached or not. A
// render started before an invalidation is never stored.
type FeedCache struct {
	mu      sync.RWMutex
	entries map[string]feedEntry
	gens    map[string]uint64
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewFeedCache(ttl time.Duration, logger *slog.Logger) *FeedCache {
	return &FeedCache{
		entries: make(map[string]feedEntry),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

func monthKey(month time.Month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// Get returns a cached feed that has not yet expired.
func (c *FeedCache) Get(month time.Month, year int) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[monthKey(month, year)]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.updatedAt) >= c.ttl {
		return "", false
	}
	return entry.body, true
}

// Generation returns the month's current generation. Pass it to Put once the
// month has been rendered.
func (c *FeedCache) Generation(month time.Month, year int) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[monthKey(month, year)]
}

// Put stores body for the month unless the month was invalidated after gen
// was read. It reports whether the body was stored.
func (c *FeedCache) Put(month time.Month, year int, gen uint64, body string) bool {
	key := monthKey(month, year)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return false
	}
	c.entries[key] = feedEntry{body: body, updatedAt: c.now()}
	return true
}

// Invalidate drops the months containing the given "YYYY-MM-DD" dates.
func (c *FeedCache) Invalidate(ctx context.Context, dates ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		t, err := time.Parse(domain.DateLayout, d)
		if err != nil {
			c.logger.WarnContext(ctx, "feed cache: ignoring unparsable date", "date", d)
			continue
		}
		key := monthKey(t.Month(), t.Year())
		c.gens[key]++
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			c.logger.DebugContext(ctx, "feed cache invalidated", "month", key)
		}
	}
}

// Feed renders month feeds from the calendar service through the cache.
type Feed struct {
	service domain.CalendarService
	cache   *FeedCache
	loc     *time.Location
	logger  *slog.Logger
}

func NewFeed(service domain.CalendarService, cache *FeedCache, loc *time.Location, logger *slog.Logger) *Feed {
	return &Feed{service: service, cache: cache, loc: loc, logger: logger}
}

// Month returns the iCalendar document for the month. Callers must be
// authenticated; anonymous timelines are empty and would poison the cache.
func (f *Feed) Month(ctx context.Context, month, year int) (string, error) {
	if body, ok := f.cache.Get(time.Month(month), year); ok {
		return body, nil
	}

	gen := f.cache.Generation(time.Month(month), year)
	events, err := f.service.GetEvents(ctx, month, year)
	if err != nil {
		return "", err
	}
	body, err := RenderMonth(events, time.Month(month), year, f.loc, f.cache.now())
	if err != nil {
		return "", err
	}
	stored := f.cache.Put(time.Month(month), year, gen, body)
	f.logger.DebugContext(ctx, "feed rendered", "month", monthKey(time.Month(month), year), "events", len(events), "cached", stored)
	return body, nil
}
