package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"cleanuphub/internal/domain"
)

// stripeGateway implements domain.PaymentGateway against the Stripe API. One
// instance is shared by all requests; the underlying client is safe for
// concurrent use.
type stripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway returns a PaymentGateway backed by Stripe.
func NewStripeGateway(secretKey, webhookSecret string) domain.PaymentGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// wrapErr converts a Stripe API error into a domain.ExternalServiceError.
func wrapErr(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &domain.ExternalServiceError{
			Service:    "stripe",
			StatusCode: sErr.HTTPStatusCode,
			Message:    sErr.Msg,
		}
	}
	return &domain.ExternalServiceError{Service: "stripe", Message: err.Error()}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p domain.CheckoutSessionParams) (*domain.CheckoutSession, error) {
	metadata := map[string]string{
		"type":     "donation",
		"event_id": p.EventID,
	}
	if p.DonorID != "" {
		metadata["donor_id"] = p.DonorID
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Donation to %s", p.EventTitle)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(p.FeeMinor),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccountID),
			},
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, p domain.PaymentIntentParams) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountMinor),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &domain.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *stripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &domain.CheckoutSessionStatus{
		AmountTotal: s.AmountTotal,
		Status:      string(s.Status),
		EventID:     s.Metadata["event_id"],
	}, nil
}

func (g *stripeGateway) CreateConnectAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
	}
	params.Context = ctx
	a, err := g.api.Accounts.New(params)
	if err != nil {
		return "", wrapErr(err)
	}
	return a.ID, nil
}

func (g *stripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", wrapErr(err)
	}
	return link.URL, nil
}

func (g *stripeGateway) GetAccountStatus(ctx context.Context, accountID string) (*domain.AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	a, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, wrapErr(err)
	}
	status := "pending"
	if a.ChargesEnabled && a.PayoutsEnabled {
		status = "active"
	}
	return &domain.AccountStatus{
		Status:           status,
		DetailsSubmitted: a.DetailsSubmitted,
		PayoutsEnabled:   a.PayoutsEnabled,
		ChargesEnabled:   a.ChargesEnabled,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret and decodes the handled notification types. Unrecognized types come
// back as WebhookIgnored rather than an error.
func (g *stripeGateway) VerifyWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		typ := domain.WebhookPaymentIntentSucceeded
		if event.Type == "payment_intent.payment_failed" {
			typ = domain.WebhookPaymentIntentFailed
		}
		return &domain.WebhookEvent{
			Type:            typ,
			PaymentIntentID: pi.ID,
			AmountMinor:     pi.Amount,
			Metadata:        pi.Metadata,
		}, nil
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		ev := &domain.WebhookEvent{
			Type:        domain.WebhookCheckoutCompleted,
			AmountMinor: cs.AmountTotal,
			Metadata:    cs.Metadata,
		}
		if cs.PaymentIntent != nil {
			ev.PaymentIntentID = cs.PaymentIntent.ID
		}
		return ev, nil
	case "account.updated":
		var a stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &a); err != nil {
			return nil, fmt.Errorf("failed to decode account: %w", err)
		}
		return &domain.WebhookEvent{
			Type:      domain.WebhookAccountUpdated,
			AccountID: a.ID,
		}, nil
	default:
		return &domain.WebhookEvent{Type: domain.WebhookIgnored}, nil
	}
}
