package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DateLayout is the wire format of Event.EventDate.
const DateLayout = "2006-01-02"

// EndOfDay is the effective end of an event whose EndTime is nil.
const EndOfDay = "23:59:59"

// BirthdayIDPrefix prefixes the identifiers of synthesized birthday events.
const BirthdayIDPrefix = "birthday-"

// EventCategory is the closed set of event types.
type EventCategory string

const (
	CategoryCityEvent EventCategory = "CITY_EVENT"
	CategoryMeeting   EventCategory = "MEETING"
	CategoryTraining  EventCategory = "TRAINING"
	CategoryOther     EventCategory = "OTHER"
	CategoryBirthday  EventCategory = "BIRTHDAY"
)

// Valid reports whether c is one of the known categories.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryCityEvent, CategoryMeeting, CategoryTraining, CategoryOther, CategoryBirthday:
		return true
	}
	return false
}

// BlocksTimeSlot reports whether events of this category take part in
// same-day conflict checks. Birthdays never block and are never blocked.
func (c EventCategory) BlocksTimeSlot() bool {
	return c != CategoryBirthday
}

// EventOrigin tags an Event as a stored row or a synthesized occurrence.
type EventOrigin string

const (
	OriginStored      EventOrigin = "stored"
	OriginSynthesized EventOrigin = "synthesized"
)

// Event is a calendar entry. Stored events come from the EventRepository;
// synthesized events (birthdays) are derived at query time and never persisted.
// swagger:model Event
type Event struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   *string       `json:"description"`
	EventDate     string        `json:"event_date"`
	StartTime     string        `json:"start_time"`
	EndTime       *string       `json:"end_time"`
	Type          EventCategory `json:"type"`
	CreatedBy     string        `json:"created_by"`
	CreatedByName *string       `json:"created_by_name,omitempty"`
	Origin        EventOrigin   `json:"origin"`
}

// IsSynthesized reports whether e was derived rather than loaded from the store.
func (e *Event) IsSynthesized() bool {
	return e.Origin == OriginSynthesized
}

// EffectiveEnd returns the end time used for overlap checks.
func (e *Event) EffectiveEnd() string {
	if e.EndTime == nil || *e.EndTime == "" {
		return EndOfDay
	}
	return *e.EndTime
}

// EventID is a parsed event identifier. The origin is decided once, at the
// boundary, so mutations of synthesized events can be refused from the tag.
type EventID struct {
	Value  string
	Origin EventOrigin
}

// ParseEventID classifies raw as a synthesized birthday ID or a stored UUID.
func ParseEventID(raw string) (EventID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EventID{}, fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if strings.HasPrefix(raw, BirthdayIDPrefix) {
		return EventID{Value: raw, Origin: OriginSynthesized}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return EventID{}, fmt.Errorf("%w: malformed event id %q", ErrValidation, raw)
	}
	return EventID{Value: id.String(), Origin: OriginStored}, nil
}

// BirthdayEventID returns the synthesized event ID for a person.
func BirthdayEventID(personID string) string {
	return BirthdayIDPrefix + personID
}

func (id EventID) String() string { return id.Value }

// CreateEventInput carries the caller-supplied fields of a new event.
type CreateEventInput struct {
	Title       string
	Description *string
	EventDate   string
	StartTime   string
	EndTime     *string
	Type        EventCategory
}

// EventPatch lists the fields of an update; nil means unchanged.
// ClearEndTime turns the event into an open-ended one and ClearDescription
// removes the description.
type EventPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	EventDate        *string
	StartTime        *string
	EndTime          *string
	ClearEndTime     bool
	Type             *EventCategory
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription && p.EventDate == nil &&
		p.StartTime == nil && p.EndTime == nil && !p.ClearEndTime && p.Type == nil
}

// EventFilter selects stored events. Date narrows to a single day;
// DateFrom/DateTo bound an inclusive range. ExcludeID drops one row.
type EventFilter struct {
	Date      string
	DateFrom  string
	DateTo    string
	ExcludeID string
}

// EventRepository is the row store for persisted events.
type EventRepository interface {
	Find(ctx context.Context, filter EventFilter) ([]*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Insert(ctx context.Context, event *Event) (*Event, error)
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// CalendarInvalidator drops cached renderings of the calendar views that
// cover the given dates (YYYY-MM-DD).
type CalendarInvalidator interface {
	Invalidate(ctx context.Context, dates ...string)
}

// CalendarService is the calendar's business API used by the delivery layer.
type CalendarService interface {
	GetGrid(month, year int) ([]CalendarCell, error)
	GetEvents(ctx context.Context, month, year int) ([]*Event, error)
	GetEventsInRange(ctx context.Context, start, end string) ([]*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
