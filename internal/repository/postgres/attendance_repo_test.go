package postgres

import (
	"context"
	"database/sql"
	"testing"

	"cleanuphub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepository_ReplaceForEvent(t *testing.T) {
	ctx := context.Background()

	records := []*domain.AttendanceRecord{
		{EventID: "ev-1", UserID: "user-1", Attended: true, Rating: 5},
		{EventID: "ev-1", UserID: "user-2", Attended: false, Rating: 0},
	}

	t.Run("success replaces all records", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM attendance_records WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO attendance_records`).
			WithArgs("ev-1", "user-1", true, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO attendance_records`).
			WithArgs("ev-1", "user-2", false, 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewAttendanceRepository(db)
		require.NoError(t, repo.ReplaceForEvent(ctx, "ev-1", records))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM attendance_records WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO attendance_records`).
			WithArgs("ev-1", "user-1", true, 5).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		repo := NewAttendanceRepository(db)
		require.Error(t, repo.ReplaceForEvent(ctx, "ev-1", records))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttendanceRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"event_id", "user_id", "attended", "rating"}).
		AddRow("ev-1", "user-1", true, 4).
		AddRow("ev-1", "user-2", false, 0)
	mock.ExpectQuery(`SELECT event_id, user_id, attended, rating`).
		WithArgs("ev-1").
		WillReturnRows(rows)

	repo := NewAttendanceRepository(db)
	got, err := repo.ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Attended)
	require.Equal(t, 4, got[0].Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}
