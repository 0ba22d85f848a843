package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"staffcalendar/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventRowColumns = []string{"id", "title", "description", "event_date", "start_time", "end_time", "type", "created_by"}

func strPtr(s string) *string { return &s }

func TestEventRepository_Find(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  domain.EventFilter
		mock    func(mock sqlmock.Sqlmock)
		want    []*domain.Event
		wantErr error
	}{
		{
			name:   "month range",
			filter: domain.EventFilter{DateFrom: "2025-03-01", DateTo: "2025-03-31"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE event_date >= \$1 AND event_date <= \$2 ORDER BY event_date, start_time`).
					WithArgs("2025-03-01", "2025-03-31").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Planning", "quarterly", "2025-03-02", "09:00:00", "10:00:00", "MEETING", "user-1").
						AddRow("ev-2", "Parade", nil, "2025-03-10", "14:00:00", nil, "CITY_EVENT", "user-2"))
			},
			want: []*domain.Event{
				{ID: "ev-1", Title: "Planning", Description: strPtr("quarterly"), EventDate: "2025-03-02", StartTime: "09:00:00", EndTime: strPtr("10:00:00"), Type: domain.CategoryMeeting, CreatedBy: "user-1", Origin: domain.OriginStored},
				{ID: "ev-2", Title: "Parade", EventDate: "2025-03-10", StartTime: "14:00:00", Type: domain.CategoryCityEvent, CreatedBy: "user-2", Origin: domain.OriginStored},
			},
		},
		{
			name:   "single day excluding self",
			filter: domain.EventFilter{Date: "2025-03-10", ExcludeID: "ev-9"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE event_date = \$1 AND id <> \$2 ORDER BY`).
					WithArgs("2025-03-10", "ev-9").
					WillReturnRows(sqlmock.NewRows(eventRowColumns))
			},
			want: []*domain.Event{},
		},
		{
			name:   "no filter",
			filter: domain.EventFilter{},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events ORDER BY event_date, start_time`).
					WillReturnRows(sqlmock.NewRows(eventRowColumns))
			},
			want: []*domain.Event{},
		},
		{
			name:   "db error",
			filter: domain.EventFilter{Date: "2025-03-10"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE event_date = \$1`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.Find(ctx, tt.filter)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Event
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Planning", nil, "2025-03-02", "09:00:00", nil, "OTHER", "user-1"))
			},
			want: &domain.Event{ID: "ev-1", Title: "Planning", EventDate: "2025-03-02", StartTime: "09:00:00", Type: domain.CategoryOther, CreatedBy: "user-1", Origin: domain.OriginStored},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "malformed uuid",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnError(&pq.Error{Code: "22P02"})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewEventRepository(db).GetByID(ctx, "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Insert(t *testing.T) {
	ctx := context.Background()
	in := &domain.Event{
		Title:     "Planning",
		EventDate: "2025-03-10",
		StartTime: "09:00:00",
		EndTime:   strPtr("10:00:00"),
		Type:      domain.CategoryMeeting,
		CreatedBy: "user-1",
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO events \(title, description, event_date, start_time, end_time, type, created_by\)`).
			WithArgs("Planning", nil, "2025-03-10", "09:00:00", "10:00:00", "MEETING", "user-1").
			WillReturnRows(sqlmock.NewRows(eventRowColumns).
				AddRow("8f14e45f-ceea-467a-9575-3e2b1f1a2b3c", "Planning", nil, "2025-03-10", "09:00:00", "10:00:00", "MEETING", "user-1"))

		got, err := NewEventRepository(db).Insert(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "8f14e45f-ceea-467a-9575-3e2b1f1a2b3c", got.ID)
		assert.Equal(t, domain.OriginStored, got.Origin)
		assert.Equal(t, strPtr("10:00:00"), got.EndTime)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exclusion constraint maps to conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO events`).
			WillReturnError(&pq.Error{Code: "23P01"})

		got, err := NewEventRepository(db).Insert(ctx, in)
		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Nil(t, got)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO events`).
			WillReturnError(errors.New("boom"))

		_, err = NewEventRepository(db).Insert(ctx, in)
		require.EqualError(t, err, "boom")
	})
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	category := domain.CategoryTraining

	tests := []struct {
		name    string
		patch   domain.EventPatch
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name:  "title only",
			patch: domain.EventPatch{Title: strPtr("Renamed")},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\), title = \$1\s+WHERE id = \$2`).
					WithArgs("Renamed", "ev-1").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Renamed", nil, "2025-03-10", "09:00:00", nil, "MEETING", "user-1"))
			},
		},
		{
			name:  "move and clear end",
			patch: domain.EventPatch{EventDate: strPtr("2025-03-11"), StartTime: strPtr("13:00:00"), ClearEndTime: true, Type: &category},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\), event_date = \$1, start_time = \$2, end_time = NULL, type = \$3\s+WHERE id = \$4`).
					WithArgs("2025-03-11", "13:00:00", "TRAINING", "ev-1").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Planning", nil, "2025-03-11", "13:00:00", nil, "TRAINING", "user-1"))
			},
		},
		{
			name:  "clear description",
			patch: domain.EventPatch{ClearDescription: true},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\), description = NULL\s+WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Planning", nil, "2025-03-10", "09:00:00", nil, "MEETING", "user-1"))
			},
		},
		{
			name:  "empty patch reads current row",
			patch: domain.EventPatch{},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Planning", nil, "2025-03-10", "09:00:00", nil, "MEETING", "user-1"))
			},
		},
		{
			name:  "not found",
			patch: domain.EventPatch{Title: strPtr("Renamed")},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET`).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:  "exclusion constraint",
			patch: domain.EventPatch{StartTime: strPtr("09:30:00")},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE events SET`).
					WillReturnError(&pq.Error{Code: "23P01"})
			},
			wantErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewEventRepository(db).Update(ctx, "ev-1", tt.patch)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "ev-1", got.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "no rows affected",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewEventRepository(db).Delete(ctx, "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
