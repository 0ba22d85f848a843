package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"staffcalendar/internal/domain"
)

// Dates and times are rendered by Postgres so they scan as canonical strings.
const eventColumns = `id, title, description, to_char(event_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), type, created_by`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{Origin: domain.OriginStored}
	var descNull, endNull sql.NullString
	var category string
	if err := row.Scan(&e.ID, &e.Title, &descNull, &e.EventDate, &e.StartTime, &endNull, &category, &e.CreatedBy); err != nil {
		return nil, err
	}
	e.Type = domain.EventCategory(category)
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if endNull.Valid {
		e.EndTime = &endNull.String
	}
	return e, nil
}

func (r *eventRepository) Find(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	var conds []string
	var args []any
	n := 1
	if filter.Date != "" {
		conds = append(conds, fmt.Sprintf("event_date = $%d", n))
		args = append(args, filter.Date)
		n++
	}
	if filter.DateFrom != "" {
		conds = append(conds, fmt.Sprintf("event_date >= $%d", n))
		args = append(args, filter.DateFrom)
		n++
	}
	if filter.DateTo != "" {
		conds = append(conds, fmt.Sprintf("event_date <= $%d", n))
		args = append(args, filter.DateTo)
		n++
	}
	if filter.ExcludeID != "" {
		conds = append(conds, fmt.Sprintf("id <> $%d", n))
		args = append(args, filter.ExcludeID)
	}

	query := "SELECT " + eventColumns + " FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY event_date, start_time"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapEventErr(err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE id = $1"
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapEventErr(err)
	}
	return e, nil
}

func (r *eventRepository) Insert(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	query := `
		INSERT INTO events (title, description, event_date, start_time, end_time, type, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + eventColumns
	created, err := scanEvent(r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.EventDate, e.StartTime, e.EndTime, string(e.Type), e.CreatedBy,
	))
	if err != nil {
		return nil, mapEventErr(err)
	}
	return created, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, p domain.EventPatch) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	} else if p.ClearDescription {
		setClauses = append(setClauses, "description = NULL")
	}
	if p.EventDate != nil {
		set("event_date", *p.EventDate)
	}
	if p.StartTime != nil {
		set("start_time", *p.StartTime)
	}
	if p.EndTime != nil {
		set("end_time", *p.EndTime)
	} else if p.ClearEndTime {
		setClauses = append(setClauses, "end_time = NULL")
	}
	if p.Type != nil {
		set("type", string(*p.Type))
	}
	if len(setClauses) == 1 {
		// Nothing to write; return the current row
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapEventErr(err)
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapEventErr(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapEventErr translates driver errors into domain outcomes.
func mapEventErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var perr *pq.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case "23P01": // exclusion_violation: a concurrent write took the slot
			return domain.ErrConflict
		case "22P02": // invalid_text_representation: id is not a uuid
			return domain.ErrNotFound
		}
	}
	return err
}
