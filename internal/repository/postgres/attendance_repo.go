package postgres

import (
	"context"
	"database/sql"

	"cleanuphub/internal/domain"
)

type attendanceRepository struct {
	DB *sql.DB
}

func NewAttendanceRepository(db *sql.DB) domain.AttendanceRepository {
	return &attendanceRepository{DB: db}
}

// ReplaceForEvent runs delete-all-then-insert-all in one transaction so a
// failure never leaves a mix of old and new records.
func (r *attendanceRepository) ReplaceForEvent(ctx context.Context, eventID string, records []*domain.AttendanceRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (event_id, user_id, attended, rating)
			VALUES ($1, $2, $3, $4)
		`, eventID, rec.UserID, rec.Attended, rec.Rating)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *attendanceRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.AttendanceRecord, error) {
	query := `
		SELECT event_id, user_id, attended, rating
		FROM attendance_records
		WHERE event_id = $1
		ORDER BY user_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]*domain.AttendanceRecord, 0)
	for rows.Next() {
		rec := &domain.AttendanceRecord{}
		if err := rows.Scan(&rec.EventID, &rec.UserID, &rec.Attended, &rec.Rating); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
