package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cleanuphub/internal/domain"
)

type donationService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	donationRepo   domain.DonationRepository
	gateway        domain.PaymentGateway
	emailService   domain.EmailService
	feePercent     int64
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewDonationService creates the donation orchestrator. feePercent is the
// platform fee in whole percent applied to checkout-session donations.
func NewDonationService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	donationRepo domain.DonationRepository,
	gateway domain.PaymentGateway,
	emailService domain.EmailService,
	feePercent int,
	logger *slog.Logger,
	timeout time.Duration,
) domain.DonationService {
	return &donationService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		donationRepo:   donationRepo,
		gateway:        gateway,
		emailService:   emailService,
		feePercent:     int64(feePercent),
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *donationService) CreateCheckoutSession(ctx context.Context, eventID string, amountMajor int64, donorID, origin string) (*domain.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if amountMajor <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrInvalidInput)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	creator, err := s.userRepo.GetByID(ctx, event.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("get event creator: %w", err)
	}
	// No session is created without a destination for the funds.
	if creator.PaymentAccountID == "" {
		return nil, domain.ErrNoPaymentAccount
	}

	amountMinor := amountMajor * 100
	fee := amountMinor * s.feePercent / 100

	session, err := s.gateway.CreateCheckoutSession(ctx, domain.CheckoutSessionParams{
		AmountMinor:          amountMinor,
		FeeMinor:             fee,
		EventID:              event.ID,
		EventTitle:           event.Title,
		DonorID:              donorID,
		DestinationAccountID: creator.PaymentAccountID,
		SuccessURL:           origin + "/events/" + event.ID + "?donation=success",
		CancelURL:            origin + "/events/" + event.ID + "?donation=cancelled",
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return session, nil
}

func (s *donationService) CreatePaymentIntent(ctx context.Context, amountMinor int64, eventID, donorID, donationType string) (*domain.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if amountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrInvalidInput)
	}
	if donationType == "" {
		donationType = "donation"
	}
	metadata := map[string]string{"type": donationType}
	if eventID != "" {
		if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		metadata["event_id"] = eventID
	}
	if donorID != "" {
		metadata["donor_id"] = donorID
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, domain.PaymentIntentParams{
		AmountMinor: amountMinor,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

func (s *donationService) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	status, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return status, nil
}

func (s *donationService) ConnectAccount(ctx context.Context, userID, origin string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if user.PaymentAccountID != "" {
		return "", domain.ErrAccountAlreadyLinked
	}

	accountID, err := s.gateway.CreateConnectAccount(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("create connect account: %w", err)
	}
	// If this write fails the processor account is orphaned but the user row
	// is untouched, so a re-invocation starts clean.
	if err := s.userRepo.SetPaymentAccountID(ctx, userID, accountID); err != nil {
		return "", fmt.Errorf("link payment account: %w", err)
	}

	link, err := s.gateway.CreateOnboardingLink(ctx, accountID, origin+"/account/payments", origin+"/account/payments?onboarded=1")
	if err != nil {
		return "", fmt.Errorf("create onboarding link: %w", err)
	}
	return link, nil
}

func (s *donationService) AccountStatus(ctx context.Context, userID string) (*domain.AccountStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.PaymentAccountID == "" {
		return &domain.AccountStatus{Status: "not_connected"}, nil
	}
	status, err := s.gateway.GetAccountStatus(ctx, user.PaymentAccountID)
	if err != nil {
		return nil, fmt.Errorf("get account status: %w", err)
	}
	return status, nil
}

// HandleWebhook verifies and reconciles a processor notification. Donation
// rows are written only for completed donation payments, exactly once per
// payment intent; everything else is logged or ignored.
func (s *donationService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ev, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			return domain.ErrInvalidSignature
		}
		return fmt.Errorf("verify webhook: %w", err)
	}

	switch ev.Type {
	case domain.WebhookPaymentIntentSucceeded, domain.WebhookCheckoutCompleted:
		return s.recordDonation(ctx, ev)
	case domain.WebhookPaymentIntentFailed:
		s.logger.Info("payment failed", "payment_intent", ev.PaymentIntentID)
		return nil
	case domain.WebhookAccountUpdated:
		s.logger.Info("connect account updated", "account", ev.AccountID)
		return nil
	default:
		s.logger.Debug("ignoring webhook event", "payment_intent", ev.PaymentIntentID)
		return nil
	}
}

func (s *donationService) recordDonation(ctx context.Context, ev *domain.WebhookEvent) error {
	if ev.Metadata["type"] != "donation" {
		s.logger.Debug("ignoring non-donation payment", "payment_intent", ev.PaymentIntentID)
		return nil
	}
	eventID := ev.Metadata["event_id"]
	if eventID == "" || ev.PaymentIntentID == "" {
		return fmt.Errorf("donation notification missing event_id or payment intent: %w", domain.ErrInvalidInput)
	}

	// Processors redeliver; a donation already recorded for this intent is
	// acknowledged without touching the store again.
	if _, err := s.donationRepo.GetByPaymentIntentID(ctx, ev.PaymentIntentID); err == nil {
		s.logger.Info("duplicate webhook delivery", "payment_intent", ev.PaymentIntentID)
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check donation: %w", err)
	}

	var donorID *string
	if id := ev.Metadata["donor_id"]; id != "" {
		donorID = &id
	}
	donation := &domain.Donation{
		EventID:         eventID,
		DonorID:         donorID,
		AmountMinor:     ev.AmountMinor,
		PaymentIntentID: ev.PaymentIntentID,
		IsAnonymous:     donorID == nil,
		CreatedAt:       time.Now(),
	}
	if err := s.donationRepo.Create(ctx, donation); err != nil {
		if errors.Is(err, domain.ErrDuplicateDonation) {
			// A concurrent delivery raced past the pre-check; the unique
			// constraint on payment_intent_id caught it.
			s.logger.Info("duplicate webhook delivery", "payment_intent", ev.PaymentIntentID)
			return nil
		}
		return fmt.Errorf("create donation: %w", err)
	}
	s.logger.Info("donation recorded", "event_id", eventID, "amount_minor", donation.AmountMinor, "anonymous", donation.IsAnonymous)

	s.sendReceipt(ctx, donation)
	return nil
}

// sendReceipt is best effort; reconciliation never fails on email problems.
func (s *donationService) sendReceipt(ctx context.Context, d *domain.Donation) {
	if s.emailService == nil || d.DonorID == nil {
		return
	}
	donor, err := s.userRepo.GetByID(ctx, *d.DonorID)
	if err != nil {
		s.logger.Warn("donation receipt: donor lookup failed", "donor_id", *d.DonorID, "err", err)
		return
	}
	event, err := s.eventRepo.GetByID(ctx, d.EventID)
	if err != nil {
		s.logger.Warn("donation receipt: event lookup failed", "event_id", d.EventID, "err", err)
		return
	}
	data := &domain.DonationReceiptEmailData{
		Email:       donor.Email,
		Name:        donor.Name,
		EventTitle:  event.Title,
		AmountMinor: d.AmountMinor,
	}
	if err := s.emailService.SendDonationReceipt(ctx, data); err != nil {
		s.logger.Warn("donation receipt: send failed", "donor_id", *d.DonorID, "err", err)
	}
}

func (s *donationService) ListEventDonations(ctx context.Context, eventID, actorID string) ([]*domain.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != actorID {
		return nil, domain.ErrForbidden
	}
	donations, err := s.donationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	if donations == nil {
		donations = []*domain.Donation{}
	}
	return donations, nil
}
