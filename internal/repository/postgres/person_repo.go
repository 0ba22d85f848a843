package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"staffcalendar/internal/domain"
)

type personRepository struct {
	DB *sql.DB
}

// NewPersonRepository returns a domain.PersonDirectory backed by the profiles table.
func NewPersonRepository(db *sql.DB) domain.PersonDirectory {
	return &personRepository{DB: db}
}

// ListBirthdaySources returns every profile with a birth date on file. The
// birth date column is free text and is handed over as stored.
func (r *personRepository) ListBirthdaySources(ctx context.Context) ([]domain.BirthdaySourceRecord, error) {
	query := `
		SELECT id, display_name, nickname, birth_date
		FROM profiles
		WHERE birth_date IS NOT NULL
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.BirthdaySourceRecord, 0)
	for rows.Next() {
		var rec domain.BirthdaySourceRecord
		var nameNull, nickNull, birthNull sql.NullString
		if err := rows.Scan(&rec.PersonID, &nameNull, &nickNull, &birthNull); err != nil {
			return nil, err
		}
		rec.DisplayName = nullStringPtr(nameNull)
		rec.Nickname = nullStringPtr(nickNull)
		rec.BirthMonthDay = nullStringPtr(birthNull)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ResolveDisplayName returns nil without error when the person is unknown.
func (r *personRepository) ResolveDisplayName(ctx context.Context, personID string) (*string, error) {
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT display_name FROM profiles WHERE id = $1`, personID).Scan(&name)
	if err != nil {
		var perr *pq.Error
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &perr) && perr.Code == "22P02") {
			return nil, nil
		}
		return nil, err
	}
	return nullStringPtr(name), nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
