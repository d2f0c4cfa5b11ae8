package domain

import "context"

// CheckoutSessionParams describes a hosted payment session to create. Amounts
// are minor currency units; FeeMinor is retained by the platform and the rest
// is transferred to DestinationAccountID.
type CheckoutSessionParams struct {
	AmountMinor          int64
	FeeMinor             int64
	EventID              string
	EventTitle           string
	DonorID              string
	DestinationAccountID string
	SuccessURL           string
	CancelURL            string
}

// CheckoutSession is a created hosted payment session.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutSessionStatus is the state of a previously created session.
type CheckoutSessionStatus struct {
	AmountTotal int64  `json:"amount_total"`
	Status      string `json:"status"`
	EventID     string `json:"event_id"`
}

// PaymentIntentParams describes a payment intent to create. Metadata is
// attached verbatim for webhook reconciliation.
type PaymentIntentParams struct {
	AmountMinor int64
	Metadata    map[string]string
}

// PaymentIntent is a created payment intent; ClientSecret is handed to the
// client for confirmation.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// AccountStatus reflects the onboarding state of a processor sub-account.
type AccountStatus struct {
	Status           string `json:"status"`
	DetailsSubmitted bool   `json:"details_submitted"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	ChargesEnabled   bool   `json:"charges_enabled"`
}

// WebhookEventType enumerates the processor notification types this service
// handles. Payloads of any other type are ignored explicitly.
type WebhookEventType string

const (
	WebhookPaymentIntentSucceeded WebhookEventType = "payment_intent.succeeded"
	WebhookPaymentIntentFailed    WebhookEventType = "payment_intent.payment_failed"
	WebhookCheckoutCompleted      WebhookEventType = "checkout.session.completed"
	WebhookAccountUpdated         WebhookEventType = "account.updated"
	WebhookIgnored                WebhookEventType = ""
)

// WebhookEvent is the verified, typed form of a processor notification. It is
// a tagged union over the handled types; unrecognized notifications arrive
// with Type == WebhookIgnored.
type WebhookEvent struct {
	Type            WebhookEventType
	PaymentIntentID string
	AmountMinor     int64
	AccountID       string
	Metadata        map[string]string
}

// PaymentGateway is the port to the external payment processor. A single
// implementation instance is shared across requests.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (*CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, p PaymentIntentParams) (*PaymentIntent, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionStatus, error)
	CreateConnectAccount(ctx context.Context, email string) (accountID string, err error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
	// VerifyWebhook checks the payload signature against the shared secret and
	// decodes the notification. Returns ErrInvalidSignature on verification
	// failure.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
