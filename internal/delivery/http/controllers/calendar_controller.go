package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"staffcalendar/internal/delivery/http/helpers"
	"staffcalendar/internal/domain"
)

// FeedRenderer produces the iCalendar document for a month.
type FeedRenderer interface {
	Month(ctx context.Context, month, year int) (string, error)
}

type CalendarController struct {
	Logger   *slog.Logger
	Service  domain.CalendarService
	Feed     FeedRenderer
	Location *time.Location
	Now      func() time.Time
}

func NewCalendarController(logger *slog.Logger, svc domain.CalendarService, feed FeedRenderer, loc *time.Location) *CalendarController {
	return &CalendarController{
		Logger:   logger,
		Service:  svc,
		Feed:     feed,
		Location: loc,
		Now:      time.Now,
	}
}

// NullableString distinguishes an omitted JSON field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// CreateEventRequest is the request body for POST /calendar/events.
type CreateEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventDate   string  `json:"event_date"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Type        string  `json:"type"`
}

// Validate implements Validator. Format checks happen in the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Title == "" {
		errs = append(errs, "title is required")
	}
	if c.EventDate == "" {
		errs = append(errs, "event_date is required")
	}
	if c.StartTime == "" {
		errs = append(errs, "start_time is required")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /calendar/events/{eventID}.
// Omitted fields are unchanged; a null description or end_time clears it.
type UpdateEventRequest struct {
	Title       *string        `json:"title"`
	Description NullableString `json:"description" swaggertype:"string"`
	EventDate   *string        `json:"event_date"`
	StartTime   *string        `json:"start_time"`
	EndTime     NullableString `json:"end_time" swaggertype:"string"`
	Type        *string        `json:"type"`
}

func (u UpdateEventRequest) toPatch() domain.EventPatch {
	p := domain.EventPatch{
		Title:     u.Title,
		EventDate: u.EventDate,
		StartTime: u.StartTime,
	}
	if u.Description.Set {
		if u.Description.Value == nil {
			p.ClearDescription = true
		} else {
			p.Description = u.Description.Value
		}
	}
	if u.EndTime.Set {
		if u.EndTime.Value == nil {
			p.ClearEndTime = true
		} else {
			p.EndTime = u.EndTime.Value
		}
	}
	if u.Type != nil {
		category := domain.EventCategory(*u.Type)
		p.Type = &category
	}
	return p
}

// GridResponse is the body of GET /calendar/grid.
type GridResponse struct {
	Month int                   `json:"month"`
	Year  int                   `json:"year"`
	Cells []domain.CalendarCell `json:"cells"`
}

// GridSuccessResponse is the success response envelope for GET /calendar/grid (200).
type GridSuccessResponse struct {
	Data  GridResponse      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventSuccessResponse is the success response envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for event lists.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteEventResponse is the response body for DELETE /calendar/events/{eventID}.
type DeleteEventResponse struct {
	Status string `json:"status"`
}

// GetGrid godoc
// @Summary Month grid
// @Description Returns the Sunday-first month grid. Leading and trailing padding cells have a null date. Defaults to the current month.
// @Tags calendar
// @Produce json
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {object} controllers.GridSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /calendar/grid [get]
func (c *CalendarController) GetGrid(w http.ResponseWriter, r *http.Request) {
	month, year, err := helpers.ParseMonthYear(r, c.Now(), c.Location)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	cells, err := c.Service.GetGrid(month, year)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, GridResponse{Month: month, Year: year, Cells: cells})
}

// ListEvents godoc
// @Summary Events of a month
// @Description Stored events and birthdays of the month, ordered by date then start time. Anonymous callers receive an empty list.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized (bad token)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/events [get]
func (c *CalendarController) ListEvents(w http.ResponseWriter, r *http.Request) {
	month, year, err := helpers.ParseMonthYear(r, c.Now(), c.Location)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	events, err := c.Service.GetEvents(r.Context(), month, year)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListEventsInRange godoc
// @Summary Events in a date range
// @Description Stored events and birthdays between start and end inclusive. Defaults to the next seven days.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param start query string false "First day (YYYY-MM-DD)"
// @Param end query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/events/range [get]
func (c *CalendarController) ListEventsInRange(w http.ResponseWriter, r *http.Request) {
	start, end := helpers.ParseDateRange(r, c.Now(), c.Location)
	events, err := c.Service.GetEventsInRange(r.Context(), start, end)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get a stored event
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 405 {object} helpers.APIResponse "error.code: unsupported_operation (birthday)"
// @Router /calendar/events/{eventID} [get]
func (c *CalendarController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the caller. Events other than birthdays may not overlap another event on the same day; an event without end_time runs to the end of the day.
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/events [post]
func (c *CalendarController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), domain.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Type:        domain.EventCategory(req.Type),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially updates a stored event. Omitted fields are unchanged; "end_time": null clears the end time. Birthdays cannot be updated.
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 405 {object} helpers.APIResponse "error.code: unsupported_operation"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: no_changes"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/events/{eventID} [patch]
func (c *CalendarController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, req.toPatch())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.DeleteEventResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 405 {object} helpers.APIResponse "error.code: unsupported_operation"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/events/{eventID} [delete]
func (c *CalendarController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{Status: "deleted"})
}

// GetFeed godoc
// @Summary iCalendar feed of a month
// @Tags calendar
// @Produce text/calendar
// @Security BearerAuth
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {string} string "VCALENDAR document"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/feed.ics [get]
func (c *CalendarController) GetFeed(w http.ResponseWriter, r *http.Request) {
	month, year, err := helpers.ParseMonthYear(r, c.Now(), c.Location)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	body, err := c.Feed.Month(r.Context(), month, year)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// writeServiceError maps service outcomes onto the error envelope.
func (c *CalendarController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if status, code, msg, ok := helpers.DomainError(err); ok {
		helpers.WriteJSONError(w, status, code, msg)
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
}
