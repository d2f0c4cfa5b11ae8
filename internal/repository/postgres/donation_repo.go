package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cleanuphub/internal/domain"
)

type donationRepository struct {
	DB *sql.DB
}

func NewDonationRepository(db *sql.DB) domain.DonationRepository {
	return &donationRepository{DB: db}
}

// Create inserts the donation. The unique constraint on payment_intent_id plus
// ON CONFLICT DO NOTHING makes duplicate webhook deliveries insert nothing;
// that case is reported as ErrDuplicateDonation.
func (r *donationRepository) Create(ctx context.Context, d *domain.Donation) error {
	query := `
		INSERT INTO donations (event_id, donor_id, amount_minor, payment_intent_id, is_anonymous, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_intent_id) DO NOTHING
		RETURNING id
	`
	var donor sql.NullString
	if d.DonorID != nil {
		donor = sql.NullString{String: *d.DonorID, Valid: true}
	}
	err := r.DB.QueryRowContext(ctx, query,
		d.EventID, donor, d.AmountMinor, d.PaymentIntentID, d.IsAnonymous, d.CreatedAt,
	).Scan(&d.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrDuplicateDonation
		}
		return err
	}
	return nil
}

func (r *donationRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Donation, error) {
	query := `
		SELECT id, event_id, donor_id, amount_minor, payment_intent_id, is_anonymous, created_at
		FROM donations
		WHERE payment_intent_id = $1
	`
	return scanDonation(r.DB.QueryRowContext(ctx, query, paymentIntentID))
}

func (r *donationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Donation, error) {
	query := `
		SELECT id, event_id, donor_id, amount_minor, payment_intent_id, is_anonymous, created_at
		FROM donations
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	donations := make([]*domain.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

func scanDonation(row interface{ Scan(...any) error }) (*domain.Donation, error) {
	d := &domain.Donation{}
	var donor sql.NullString
	err := row.Scan(&d.ID, &d.EventID, &donor, &d.AmountMinor, &d.PaymentIntentID, &d.IsAnonymous, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if donor.Valid {
		d.DonorID = &donor.String
	}
	return d, nil
}
