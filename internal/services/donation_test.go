package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"cleanuphub/internal/domain"

	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID   map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) SetPaymentAccountID(ctx context.Context, userID, accountID string) error {
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PaymentAccountID = accountID
	return nil
}

// fakeDonationRepo is an in-memory DonationRepository keyed by payment intent.
type fakeDonationRepo struct {
	byIntent    map[string]*domain.Donation
	nextID      int
	createCalls int
}

func newFakeDonationRepo() *fakeDonationRepo {
	return &fakeDonationRepo{byIntent: make(map[string]*domain.Donation), nextID: 1}
}

func (f *fakeDonationRepo) Create(ctx context.Context, d *domain.Donation) error {
	f.createCalls++
	if _, ok := f.byIntent[d.PaymentIntentID]; ok {
		return domain.ErrDuplicateDonation
	}
	d.ID = fmt.Sprintf("don-%d", f.nextID)
	f.nextID++
	f.byIntent[d.PaymentIntentID] = d
	return nil
}

func (f *fakeDonationRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Donation, error) {
	if d, ok := f.byIntent[paymentIntentID]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDonationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Donation, error) {
	out := make([]*domain.Donation, 0)
	for _, d := range f.byIntent {
		if d.EventID == eventID {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeGateway records calls and plays back configured responses.
type fakeGateway struct {
	checkoutParams *domain.CheckoutSessionParams
	intentParams   *domain.PaymentIntentParams
	webhookEvent   *domain.WebhookEvent
	webhookErr     error
	accountStatus  *domain.AccountStatus
	calls          int
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, p domain.CheckoutSessionParams) (*domain.CheckoutSession, error) {
	f.calls++
	f.checkoutParams = &p
	return &domain.CheckoutSession{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil
}

func (f *fakeGateway) CreatePaymentIntent(ctx context.Context, p domain.PaymentIntentParams) (*domain.PaymentIntent, error) {
	f.calls++
	f.intentParams = &p
	return &domain.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (f *fakeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionStatus, error) {
	return &domain.CheckoutSessionStatus{AmountTotal: 2500, Status: "complete", EventID: "ev-1"}, nil
}

func (f *fakeGateway) CreateConnectAccount(ctx context.Context, email string) (string, error) {
	f.calls++
	return "acct_new", nil
}

func (f *fakeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://onboard.example.com/" + accountID, nil
}

func (f *fakeGateway) GetAccountStatus(ctx context.Context, accountID string) (*domain.AccountStatus, error) {
	if f.accountStatus != nil {
		return f.accountStatus, nil
	}
	return &domain.AccountStatus{Status: "active", ChargesEnabled: true, PayoutsEnabled: true}, nil
}

func (f *fakeGateway) VerifyWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	return f.webhookEvent, nil
}

// fakeEmailSvc records sent receipts.
type fakeEmailSvc struct {
	welcomes int
	receipts []*domain.DonationReceiptEmailData
}

func (f *fakeEmailSvc) SendWelcome(ctx context.Context, data *domain.WelcomeEmailData) error {
	f.welcomes++
	return nil
}

func (f *fakeEmailSvc) SendDonationReceipt(ctx context.Context, data *domain.DonationReceiptEmailData) error {
	f.receipts = append(f.receipts, data)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type donationFixture struct {
	eventRepo    *fakeEventRepo
	userRepo     *fakeUserRepo
	donationRepo *fakeDonationRepo
	gateway      *fakeGateway
	email        *fakeEmailSvc
	svc          domain.DonationService
	event        *domain.Event
	creator      *domain.User
}

func newDonationFixture(t *testing.T) *donationFixture {
	t.Helper()
	ctx := context.Background()
	f := &donationFixture{
		eventRepo:    newFakeEventRepo(),
		userRepo:     newFakeUserRepo(),
		donationRepo: newFakeDonationRepo(),
		gateway:      &fakeGateway{},
		email:        &fakeEmailSvc{},
	}
	f.creator = domain.NewUser("creator@example.com", "Creator", "hash", time.Now(), time.Now())
	require.NoError(t, f.userRepo.Create(ctx, f.creator))
	f.creator.PaymentAccountID = "acct_creator"

	f.event = validEvent(f.creator.ID)
	require.NoError(t, f.eventRepo.Create(ctx, f.event))

	f.svc = NewDonationService(f.eventRepo, f.userRepo, f.donationRepo, f.gateway, f.email, 8, testLogger(), time.Second)
	return f
}

func TestDonationService_CreateCheckoutSession(t *testing.T) {
	ctx := context.Background()

	t.Run("applies platform fee", func(t *testing.T) {
		f := newDonationFixture(t)
		session, err := f.svc.CreateCheckoutSession(ctx, f.event.ID, 25, "", "https://app.example.com")
		require.NoError(t, err)
		require.Equal(t, "cs_1", session.ID)

		p := f.gateway.checkoutParams
		require.NotNil(t, p)
		require.Equal(t, int64(2500), p.AmountMinor)
		require.Equal(t, int64(200), p.FeeMinor)
		require.Equal(t, "acct_creator", p.DestinationAccountID)
		require.Equal(t, "https://app.example.com/events/"+f.event.ID+"?donation=success", p.SuccessURL)
		require.Equal(t, "https://app.example.com/events/"+f.event.ID+"?donation=cancelled", p.CancelURL)
	})

	t.Run("attaches donor for attribution", func(t *testing.T) {
		f := newDonationFixture(t)
		_, err := f.svc.CreateCheckoutSession(ctx, f.event.ID, 25, "donor-1", "https://app.example.com")
		require.NoError(t, err)
		require.Equal(t, "donor-1", f.gateway.checkoutParams.DonorID)
	})

	t.Run("anonymous donor stays empty", func(t *testing.T) {
		f := newDonationFixture(t)
		_, err := f.svc.CreateCheckoutSession(ctx, f.event.ID, 25, "", "https://app.example.com")
		require.NoError(t, err)
		require.Empty(t, f.gateway.checkoutParams.DonorID)
	})

	t.Run("creator without payment account", func(t *testing.T) {
		f := newDonationFixture(t)
		f.creator.PaymentAccountID = ""
		_, err := f.svc.CreateCheckoutSession(ctx, f.event.ID, 25, "", "https://app.example.com")
		require.ErrorIs(t, err, domain.ErrNoPaymentAccount)
		// The processor is never contacted without a destination account.
		require.Zero(t, f.gateway.calls)
	})

	t.Run("missing event", func(t *testing.T) {
		f := newDonationFixture(t)
		_, err := f.svc.CreateCheckoutSession(ctx, "ev-missing", 25, "", "https://app.example.com")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		f := newDonationFixture(t)
		_, err := f.svc.CreateCheckoutSession(ctx, f.event.ID, 0, "", "https://app.example.com")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDonationService_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("carries reconciliation metadata", func(t *testing.T) {
		f := newDonationFixture(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, 2500, f.event.ID, "donor-1", "donation")
		require.NoError(t, err)
		require.Equal(t, "pi_1", intent.ID)
		require.NotEmpty(t, intent.ClientSecret)

		p := f.gateway.intentParams
		require.NotNil(t, p)
		require.Equal(t, int64(2500), p.AmountMinor)
		require.Equal(t, "donation", p.Metadata["type"])
		require.Equal(t, f.event.ID, p.Metadata["event_id"])
		require.Equal(t, "donor-1", p.Metadata["donor_id"])
	})

	t.Run("missing event", func(t *testing.T) {
		f := newDonationFixture(t)
		_, err := f.svc.CreatePaymentIntent(ctx, 2500, "ev-missing", "", "donation")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDonationService_ConnectAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions and links", func(t *testing.T) {
		f := newDonationFixture(t)
		user := domain.NewUser("new@example.com", "New", "hash", time.Now(), time.Now())
		require.NoError(t, f.userRepo.Create(ctx, user))

		link, err := f.svc.ConnectAccount(ctx, user.ID, "https://app.example.com")
		require.NoError(t, err)
		require.Equal(t, "https://onboard.example.com/acct_new", link)
		require.Equal(t, "acct_new", user.PaymentAccountID)
	})

	t.Run("already linked", func(t *testing.T) {
		f := newDonationFixture(t)
		_, err := f.svc.ConnectAccount(ctx, f.creator.ID, "https://app.example.com")
		require.ErrorIs(t, err, domain.ErrAccountAlreadyLinked)
	})
}

func TestDonationService_AccountStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("not connected", func(t *testing.T) {
		f := newDonationFixture(t)
		user := domain.NewUser("plain@example.com", "Plain", "hash", time.Now(), time.Now())
		require.NoError(t, f.userRepo.Create(ctx, user))

		status, err := f.svc.AccountStatus(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "not_connected", status.Status)
	})

	t.Run("linked account", func(t *testing.T) {
		f := newDonationFixture(t)
		status, err := f.svc.AccountStatus(ctx, f.creator.ID)
		require.NoError(t, err)
		require.Equal(t, "active", status.Status)
	})
}

func TestDonationService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid signature has no side effects", func(t *testing.T) {
		f := newDonationFixture(t)
		f.gateway.webhookErr = domain.ErrInvalidSignature

		err := f.svc.HandleWebhook(ctx, []byte("payload"), "bad-sig")
		require.ErrorIs(t, err, domain.ErrInvalidSignature)
		require.Empty(t, f.donationRepo.byIntent)
	})

	t.Run("succeeded intent records donation once", func(t *testing.T) {
		f := newDonationFixture(t)
		f.gateway.webhookEvent = &domain.WebhookEvent{
			Type:            domain.WebhookPaymentIntentSucceeded,
			PaymentIntentID: "pi_1",
			AmountMinor:     2500,
			Metadata:        map[string]string{"type": "donation", "event_id": f.event.ID, "donor_id": f.creator.ID},
		}

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
		require.Len(t, f.donationRepo.byIntent, 1)
		d := f.donationRepo.byIntent["pi_1"]
		require.Equal(t, int64(2500), d.AmountMinor)
		require.False(t, d.IsAnonymous)
		require.Len(t, f.email.receipts, 1)
		require.Equal(t, "creator@example.com", f.email.receipts[0].Email)

		// Duplicate delivery is acknowledged without a second record. The
		// redelivery is caught by the payment-intent lookup before any insert
		// is attempted.
		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
		require.Len(t, f.donationRepo.byIntent, 1)
		require.Len(t, f.email.receipts, 1)
		require.Equal(t, 1, f.donationRepo.createCalls)
	})

	t.Run("anonymous donation gets no receipt", func(t *testing.T) {
		f := newDonationFixture(t)
		f.gateway.webhookEvent = &domain.WebhookEvent{
			Type:            domain.WebhookCheckoutCompleted,
			PaymentIntentID: "pi_2",
			AmountMinor:     1000,
			Metadata:        map[string]string{"type": "donation", "event_id": f.event.ID},
		}

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
		d := f.donationRepo.byIntent["pi_2"]
		require.True(t, d.IsAnonymous)
		require.Nil(t, d.DonorID)
		require.Empty(t, f.email.receipts)
	})

	t.Run("non-donation payment ignored", func(t *testing.T) {
		f := newDonationFixture(t)
		f.gateway.webhookEvent = &domain.WebhookEvent{
			Type:            domain.WebhookPaymentIntentSucceeded,
			PaymentIntentID: "pi_3",
			AmountMinor:     9900,
			Metadata:        map[string]string{"type": "subscription"},
		}

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
		require.Empty(t, f.donationRepo.byIntent)
	})

	t.Run("failed intent records nothing", func(t *testing.T) {
		f := newDonationFixture(t)
		f.gateway.webhookEvent = &domain.WebhookEvent{
			Type:            domain.WebhookPaymentIntentFailed,
			PaymentIntentID: "pi_4",
		}

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
		require.Empty(t, f.donationRepo.byIntent)
	})

	t.Run("unrecognized type ignored", func(t *testing.T) {
		f := newDonationFixture(t)
		f.gateway.webhookEvent = &domain.WebhookEvent{Type: domain.WebhookIgnored}

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
		require.Empty(t, f.donationRepo.byIntent)
	})
}

func TestDonationService_ListEventDonations(t *testing.T) {
	ctx := context.Background()

	f := newDonationFixture(t)
	donor := f.creator.ID
	require.NoError(t, f.donationRepo.Create(ctx, &domain.Donation{
		EventID: f.event.ID, DonorID: &donor, AmountMinor: 2500, PaymentIntentID: "pi_1",
	}))

	_, err := f.svc.ListEventDonations(ctx, f.event.ID, "stranger")
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.ListEventDonations(ctx, f.event.ID, f.creator.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2500), got[0].AmountMinor)
}
