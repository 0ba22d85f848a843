package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staffcalendar/internal/calendar"
	"staffcalendar/internal/domain"
)

// MaxRangeDays bounds how far past start a range read may reach.
const MaxRangeDays = 366

type calendarService struct {
	eventRepo      domain.EventRepository
	people         domain.PersonDirectory
	identity       domain.IdentityProvider
	invalidator    domain.CalendarInvalidator
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewCalendarService wires the calendar use cases to their collaborators.
// invalidator may be nil when no rendered view is cached.
func NewCalendarService(
	eventRepo domain.EventRepository,
	people domain.PersonDirectory,
	identity domain.IdentityProvider,
	invalidator domain.CalendarInvalidator,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CalendarService {
	return &calendarService{
		eventRepo:      eventRepo,
		people:         people,
		identity:       identity,
		invalidator:    invalidator,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *calendarService) GetGrid(month, year int) ([]domain.CalendarCell, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	return calendar.BuildMonthGrid(time.Month(month), year), nil
}

func (s *calendarService) GetEvents(ctx context.Context, month, year int) ([]*domain.Event, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	if _, ok := s.identity.CurrentActor(ctx); !ok {
		return []*domain.Event{}, nil
	}
	first, last := calendar.MonthBounds(time.Month(month), year)
	return s.timeline(ctx, first, last)
}

func (s *calendarService) GetEventsInRange(ctx context.Context, start, end string) ([]*domain.Event, error) {
	from, err := parseDate("start", start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("end", end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end must not be before start", domain.ErrValidation)
	}
	if to.After(from.AddDate(0, 0, MaxRangeDays)) {
		return nil, fmt.Errorf("%w: range must not exceed %d days", domain.ErrValidation, MaxRangeDays)
	}
	if _, ok := s.identity.CurrentActor(ctx); !ok {
		return []*domain.Event{}, nil
	}
	return s.timeline(ctx, from, to)
}

// timeline loads stored events and birthdays for [from, to] and merges them.
func (s *calendarService) timeline(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stored, err := s.eventRepo.Find(ctx, domain.EventFilter{
		DateFrom: from.Format(domain.DateLayout),
		DateTo:   to.Format(domain.DateLayout),
	})
	if err != nil {
		return nil, storeErr("list events", err)
	}

	sources, err := s.people.ListBirthdaySources(ctx)
	if err != nil {
		return nil, storeErr("list birthday sources", err)
	}

	expanded := calendar.ExpandBirthdaysInRange(sources, from, to)
	for _, personID := range expanded.Skipped {
		s.logger.WarnContext(ctx, "skipping birthday with unreadable birth date", "person_id", personID)
	}
	if n := len(expanded.Skipped); n > 0 {
		s.logger.InfoContext(ctx, "birthday expansion skipped records", "skipped", n, "total", len(sources))
	}

	return calendar.MergeEvents(stored, expanded.Events), nil
}

func (s *calendarService) GetEvent(ctx context.Context, rawID string) (*domain.Event, error) {
	id, err := domain.ParseEventID(rawID)
	if err != nil {
		return nil, err
	}
	if id.Origin == domain.OriginSynthesized {
		return nil, domain.ErrUnsupportedOperation
	}
	if _, ok := s.identity.CurrentActor(ctx); !ok {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id.Value)
	if err != nil {
		return nil, storeErr("get event", err)
	}
	s.attachOwnerName(ctx, event)
	return event, nil
}

func (s *calendarService) CreateEvent(ctx context.Context, input domain.CreateEventInput) (*domain.Event, error) {
	actor, ok := s.identity.CurrentActor(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	candidate, err := newEventFromInput(input, actor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.checkConflicts(ctx, candidate, ""); err != nil {
		return nil, err
	}

	created, err := s.eventRepo.Insert(ctx, candidate)
	if err != nil {
		return nil, storeErr("insert event", err)
	}

	s.attachOwnerName(ctx, created)
	s.invalidate(ctx, created.EventDate)
	s.logger.InfoContext(ctx, "event created",
		"event_id", created.ID,
		"event_date", created.EventDate,
		"type", created.Type,
		"actor", actor,
	)
	return created, nil
}

func (s *calendarService) UpdateEvent(ctx context.Context, rawID string, patch domain.EventPatch) (*domain.Event, error) {
	actor, ok := s.identity.CurrentActor(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	id, err := domain.ParseEventID(rawID)
	if err != nil {
		return nil, err
	}
	if id.Origin == domain.OriginSynthesized {
		return nil, domain.ErrUnsupportedOperation
	}
	if patch.IsEmpty() {
		return nil, domain.ErrNoChanges
	}

	patch, err = normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.eventRepo.GetByID(ctx, id.Value)
	if err != nil {
		return nil, storeErr("get event", err)
	}

	effective := applyPatch(current, patch)
	if err := validateTimeRange(effective.StartTime, effective.EndTime); err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, effective, current.ID); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, id.Value, patch)
	if err != nil {
		return nil, storeErr("update event", err)
	}

	s.attachOwnerName(ctx, updated)
	s.invalidate(ctx, current.EventDate, updated.EventDate)
	s.logger.InfoContext(ctx, "event updated",
		"event_id", updated.ID,
		"event_date", updated.EventDate,
		"actor", actor,
	)
	return updated, nil
}

func (s *calendarService) DeleteEvent(ctx context.Context, rawID string) error {
	actor, ok := s.identity.CurrentActor(ctx)
	if !ok {
		return domain.ErrUnauthenticated
	}

	id, err := domain.ParseEventID(rawID)
	if err != nil {
		return err
	}
	if id.Origin == domain.OriginSynthesized {
		return domain.ErrUnsupportedOperation
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.eventRepo.GetByID(ctx, id.Value)
	if err != nil {
		return storeErr("get event", err)
	}
	if err := s.eventRepo.Delete(ctx, id.Value); err != nil {
		return storeErr("delete event", err)
	}

	s.invalidate(ctx, current.EventDate)
	s.logger.InfoContext(ctx, "event deleted", "event_id", id.Value, "actor", actor)
	return nil
}

// checkConflicts loads the candidate's day and rejects any overlap with a
// slot-blocking event other than excludeID. Birthdays neither block nor get
// blocked, so a birthday candidate skips the lookup entirely.
func (s *calendarService) checkConflicts(ctx context.Context, candidate *domain.Event, excludeID string) error {
	if !candidate.Type.BlocksTimeSlot() {
		return nil
	}

	sameDay, err := s.eventRepo.Find(ctx, domain.EventFilter{Date: candidate.EventDate, ExcludeID: excludeID})
	if err != nil {
		return storeErr("load events for day", err)
	}

	for _, existing := range sameDay {
		if existing.ID == excludeID || !existing.Type.BlocksTimeSlot() {
			continue
		}
		if calendar.EventsOverlap(candidate, existing) {
			s.logger.InfoContext(ctx, "event time slot conflict",
				"event_date", candidate.EventDate,
				"start_time", candidate.StartTime,
				"end_time", candidate.EffectiveEnd(),
				"conflicting_event_id", existing.ID,
			)
			return domain.ErrConflict
		}
	}
	return nil
}

func (s *calendarService) attachOwnerName(ctx context.Context, event *domain.Event) {
	if event.CreatedBy == "" {
		return
	}
	name, err := s.people.ResolveDisplayName(ctx, event.CreatedBy)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve owner name failed", "person_id", event.CreatedBy, "err", err)
		return
	}
	event.CreatedByName = name
}

func (s *calendarService) invalidate(ctx context.Context, dates ...string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(ctx, dates...)
}

func newEventFromInput(in domain.CreateEventInput, actor string) (*domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.EventDate) == "" {
		return nil, fmt.Errorf("%w: event_date is required", domain.ErrValidation)
	}
	date, err := parseDate("event_date", in.EventDate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.StartTime) == "" {
		return nil, fmt.Errorf("%w: start_time is required", domain.ErrValidation)
	}
	start, err := parseTime("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	var end *string
	if in.EndTime != nil && strings.TrimSpace(*in.EndTime) != "" {
		e, err := parseTime("end_time", *in.EndTime)
		if err != nil {
			return nil, err
		}
		end = &e
	}
	if err := validateTimeRange(start, end); err != nil {
		return nil, err
	}

	category := in.Type
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, category)
	}

	return &domain.Event{
		Title:       title,
		Description: in.Description,
		EventDate:   date.Format(domain.DateLayout),
		StartTime:   start,
		EndTime:     end,
		Type:        category,
		CreatedBy:   actor,
		Origin:      domain.OriginStored,
	}, nil
}

// normalizePatch validates the supplied fields and rewrites dates and times
// into their canonical forms.
func normalizePatch(p domain.EventPatch) (domain.EventPatch, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return p, fmt.Errorf("%w: title must not be blank", domain.ErrValidation)
		}
		p.Title = &title
	}
	if p.EventDate != nil {
		date, err := parseDate("event_date", *p.EventDate)
		if err != nil {
			return p, err
		}
		formatted := date.Format(domain.DateLayout)
		p.EventDate = &formatted
	}
	if p.StartTime != nil {
		start, err := parseTime("start_time", *p.StartTime)
		if err != nil {
			return p, err
		}
		p.StartTime = &start
	}
	if p.Description != nil && p.ClearDescription {
		return p, fmt.Errorf("%w: description cannot be set and cleared at once", domain.ErrValidation)
	}
	if p.EndTime != nil {
		if p.ClearEndTime {
			return p, fmt.Errorf("%w: end_time cannot be set and cleared at once", domain.ErrValidation)
		}
		end, err := parseTime("end_time", *p.EndTime)
		if err != nil {
			return p, err
		}
		p.EndTime = &end
	}
	if p.Type != nil && !p.Type.Valid() {
		return p, fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, *p.Type)
	}
	return p, nil
}

// applyPatch overlays p onto a copy of current.
func applyPatch(current *domain.Event, p domain.EventPatch) *domain.Event {
	next := *current
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = p.Description
	}
	if p.ClearDescription {
		next.Description = nil
	}
	if p.EventDate != nil {
		next.EventDate = *p.EventDate
	}
	if p.StartTime != nil {
		next.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		next.EndTime = p.EndTime
	}
	if p.ClearEndTime {
		next.EndTime = nil
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	return &next
}

func validateTimeRange(start string, end *string) error {
	if end == nil {
		return nil
	}
	if calendar.NormalizeTime(*end) <= calendar.NormalizeTime(start) {
		return fmt.Errorf("%w: end_time must be after start_time", domain.ErrValidation)
	}
	return nil
}

func validateMonth(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", domain.ErrValidation)
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year must be between 1 and 9999", domain.ErrValidation)
	}
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrValidation, field)
	}
	return t, nil
}

func parseTime(field, s string) (string, error) {
	t, ok := calendar.ParseTimeOfDay(s)
	if !ok {
		return "", fmt.Errorf("%w: %s must be HH:MM or HH:MM:SS", domain.ErrValidation, field)
	}
	return t, nil
}

// storeErr passes domain outcomes through and wraps anything else as a store failure.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrStore) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
