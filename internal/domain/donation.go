package domain

import (
	"context"
	"time"
)

// Donation is a recorded, completed monetary contribution tied to an event.
// AmountMinor is in minor currency units (cents). A donation is created
// exactly once, from the processor's asynchronous success notification, and
// never at checkout-initiation time.
// swagger:model Donation
type Donation struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	DonorID         *string   `json:"donor_id,omitempty"`
	AmountMinor     int64     `json:"amount_minor"`
	PaymentIntentID string    `json:"payment_intent_id"`
	IsAnonymous     bool      `json:"is_anonymous"`
	CreatedAt       time.Time `json:"created_at"`
}

// DonationRepository defines storage operations for donations.
// payment_intent_id is unique: Create returns ErrDuplicateDonation when a
// donation for the same payment intent already exists, which makes duplicate
// webhook deliveries safe.
type DonationRepository interface {
	Create(ctx context.Context, d *Donation) error
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Donation, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Donation, error)
}

// DonationService orchestrates checkout sessions, payment intents, connect
// account provisioning, and webhook reconciliation.
type DonationService interface {
	// CreateCheckoutSession opens a hosted payment session for a donation of
	// amountMajor (major currency units) to the event's creator. donorID is
	// empty for anonymous donors; when set it rides the session metadata so
	// reconciliation can attribute the donation. Fails with
	// ErrNoPaymentAccount before any processor call when the creator has no
	// linked sub-account.
	CreateCheckoutSession(ctx context.Context, eventID string, amountMajor int64, donorID, origin string) (*CheckoutSession, error)
	// CreatePaymentIntent creates a payment intent for amountMinor (minor
	// units) carrying event/donor metadata for later reconciliation.
	CreatePaymentIntent(ctx context.Context, amountMinor int64, eventID, donorID, donationType string) (*PaymentIntent, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionStatus, error)
	// ConnectAccount provisions a processor sub-account for the user and
	// returns an onboarding URL. Fails with ErrAccountAlreadyLinked when the
	// user already has one.
	ConnectAccount(ctx context.Context, userID, origin string) (onboardingURL string, err error)
	AccountStatus(ctx context.Context, userID string) (*AccountStatus, error)
	// HandleWebhook verifies the signed payload and reconciles completed
	// donation payments into donation records, exactly once per payment
	// intent. Returns ErrInvalidSignature without side effects when the
	// signature does not verify.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ListEventDonations(ctx context.Context, eventID, actorID string) ([]*Donation, error)
}
