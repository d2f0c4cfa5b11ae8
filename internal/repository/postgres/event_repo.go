package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cleanuphub/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, title, description, date, address, location_label, lat, lng, category, max_participants, creator_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var labelNull sql.NullString
	var category string
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date,
		&e.Location.Address, &labelNull, &e.Location.Lat, &e.Location.Lng,
		&category, &e.MaxParticipants, &e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
		&e.ParticipantsCount,
	)
	if err != nil {
		return nil, err
	}
	if labelNull.Valid {
		e.Location.Label = &labelNull.String
	}
	e.Category = domain.Category(category)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (title, description, date, address, location_label, lat, lng, category, max_participants, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var label sql.NullString
	if e.Location.Label != nil {
		label = sql.NullString{String: *e.Location.Label, Valid: true}
	}
	err = tx.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date,
		e.Location.Address, label, e.Location.Lat, e.Location.Lng,
		string(e.Category), e.MaxParticipants, e.CreatorID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return err
	}

	// Creator is the sole initial participant.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_participants (event_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`, e.ID, e.CreatorID, e.CreatedAt)
	if err != nil {
		return err
	}
	e.ParticipantsCount = 1

	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `,
			(SELECT COUNT(*) FROM event_participants p WHERE p.event_id = events.id) AS participants_count
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `,
			(SELECT COUNT(*) FROM event_participants p WHERE p.event_id = events.id) AS participants_count
		FROM events
		ORDER BY created_at, id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
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

func (r *eventRepository) ListJoinedByUser(ctx context.Context, userID string, past bool) ([]*domain.Event, error) {
	cmp := ">="
	if past {
		cmp = "<"
	}
	query := `
		SELECT ` + eventColumns + `,
			(SELECT COUNT(*) FROM event_participants p WHERE p.event_id = events.id) AS participants_count
		FROM events
		JOIN event_participants ep ON ep.event_id = events.id
		WHERE ep.user_id = $1 AND events.date ` + cmp + ` NOW()
		ORDER BY events.date
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
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

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE event_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = $1`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

// AddParticipant locks the event row and then runs a conditional insert. The
// row lock serializes joins per event: under READ COMMITTED two concurrent
// inserts by different users would each count a snapshot that misses the
// other's uncommitted row and overshoot capacity, so the capacity check is
// only safe once joins queue on the lock.
func (r *eventRepository) AddParticipant(ctx context.Context, eventID, userID string, maxParticipants int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO event_participants (event_id, user_id, joined_at)
		SELECT $1, $2, $3
		WHERE (SELECT COUNT(*) FROM event_participants WHERE event_id = $1) < $4
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, userID, time.Now(), maxParticipants)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 1 {
		return tx.Commit()
	}

	// Nothing inserted: either the user is already a member or the event is
	// at capacity. Classify for the caller.
	var joined bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM event_participants WHERE event_id = $1 AND user_id = $2)
	`, eventID, userID).Scan(&joined)
	if err != nil {
		return err
	}
	if joined {
		return domain.ErrAlreadyJoined
	}
	return domain.ErrEventFull
}

func (r *eventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	result, err := r.DB.ExecContext(ctx, `
		DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2
	`, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotParticipant
	}
	return nil
}

func (r *eventRepository) ListParticipants(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT event_id, user_id, position, joined_at
		FROM event_participants
		WHERE event_id = $1
		ORDER BY position
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p := &domain.Participant{}
		if err := rows.Scan(&p.EventID, &p.UserID, &p.Position, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
