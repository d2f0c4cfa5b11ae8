package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cleanuphub/internal/delivery/http/helpers"
	"cleanuphub/internal/delivery/http/middleware"
	"cleanuphub/internal/domain"
)

// maxWebhookBody bounds the webhook payload read. Stripe events are small;
// anything larger is not a legitimate event.
const maxWebhookBody = 1 << 20

// CreateCheckoutSessionRequest is the request body for POST /donations/checkout-session.
// Amount is in major currency units (whole dollars).
type CreateCheckoutSessionRequest struct {
	EventID string `json:"event_id"`
	Amount  int64  `json:"amount"`
}

// Validate implements Validator.
func (c CreateCheckoutSessionRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.EventID) == "" {
		errs = append(errs, "event_id is required")
	}
	if c.Amount < 1 {
		errs = append(errs, "amount must be at least 1")
	}
	return errs
}

// CheckoutSessionSuccessResponse is the success response envelope for POST /donations/checkout-session (201).
type CheckoutSessionSuccessResponse struct {
	Data  *domain.CheckoutSession `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// CreatePaymentIntentRequest is the request body for POST /donations/payment-intent.
// AmountMinor is in minor currency units (cents).
type CreatePaymentIntentRequest struct {
	EventID      string `json:"event_id"`
	AmountMinor  int64  `json:"amount_minor"`
	DonationType string `json:"donation_type"`
	IsAnonymous  bool   `json:"is_anonymous"`
}

// Validate implements Validator.
func (c CreatePaymentIntentRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.EventID) == "" {
		errs = append(errs, "event_id is required")
	}
	if c.AmountMinor < 50 {
		errs = append(errs, "amount_minor must be at least 50")
	}
	return errs
}

// PaymentIntentSuccessResponse is the success response envelope for POST /donations/payment-intent (201).
type PaymentIntentSuccessResponse struct {
	Data  *domain.PaymentIntent `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// SessionStatusSuccessResponse is the success response envelope for GET /donations/sessions/{sessionID} (200).
type SessionStatusSuccessResponse struct {
	Data  *domain.CheckoutSessionStatus `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

// ConnectAccountResponse is the data payload for POST /donations/connect-account (201).
type ConnectAccountResponse struct {
	OnboardingURL string `json:"onboarding_url"`
}

// ConnectAccountSuccessResponse is the success response envelope for POST /donations/connect-account (201).
type ConnectAccountSuccessResponse struct {
	Data  ConnectAccountResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// AccountStatusSuccessResponse is the success response envelope for GET /donations/accounts/{userID}/status (200).
type AccountStatusSuccessResponse struct {
	Data  *domain.AccountStatus `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ListDonationsSuccessResponse is the success response envelope for GET /events/{eventID}/donations (200).
type ListDonationsSuccessResponse struct {
	Data  []*domain.Donation `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type DonationController struct {
	Logger  *slog.Logger
	Service domain.DonationService
	// FallbackOrigin builds redirect URLs when the request carries no Origin
	// header (curl, server-to-server callers).
	FallbackOrigin string
}

func NewDonationController(logger *slog.Logger, svc domain.DonationService, fallbackOrigin string) *DonationController {
	return &DonationController{Logger: logger, Service: svc, FallbackOrigin: fallbackOrigin}
}

func (c *DonationController) origin(r *http.Request) string {
	if o := strings.TrimSuffix(r.Header.Get("Origin"), "/"); o != "" {
		return o
	}
	return strings.TrimSuffix(c.FallbackOrigin, "/")
}

func (c *DonationController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var extErr *domain.ExternalServiceError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoPaymentAccount):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "event creator has no payment account")
	case errors.Is(err, domain.ErrAccountAlreadyLinked):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "payment account already linked")
	case errors.As(err, &extErr):
		c.Logger.ErrorContext(r.Context(), "payment provider error", "path", r.URL.Path, "service", extErr.Service, "err", err)
		helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeBadGateway, "payment provider error")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// CreateCheckoutSession godoc
// @Summary Open a hosted donation checkout session
// @Description Creates a hosted payment page for a donation to the event's creator. The donor id is taken from the Bearer token when present; anonymous callers donate without one. Fails with 400 when the creator has no linked payment account.
// @Tags donations
// @Accept json
// @Produce json
// @Param body body CreateCheckoutSessionRequest true "Event and amount (major units)"
// @Success 201 {object} controllers.CheckoutSessionSuccessResponse "data contains the session id and redirect URL"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (no payment account, invalid amount)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (payment provider error)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donations/checkout-session [post]
func (c *DonationController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutSessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	donorID, _ := middleware.UserIDFromContext(r.Context())
	session, err := c.Service.CreateCheckoutSession(r.Context(), req.EventID, req.Amount, donorID, c.origin(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, session)
}

// CreatePaymentIntent godoc
// @Summary Create a donation payment intent
// @Description Creates a payment intent carrying event and donor metadata for webhook reconciliation. The donor id is taken from the Bearer token when present; anonymous donations omit it.
// @Tags donations
// @Accept json
// @Produce json
// @Param body body CreatePaymentIntentRequest true "Event, amount (minor units), and donation type"
// @Success 201 {object} controllers.PaymentIntentSuccessResponse "data contains the intent id and client secret"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (payment provider error)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donations/payment-intent [post]
func (c *DonationController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentIntentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	donorID := ""
	if !req.IsAnonymous {
		if id, ok := middleware.UserIDFromContext(r.Context()); ok {
			donorID = id
		}
	}
	donationType := strings.TrimSpace(req.DonationType)
	if donationType == "" {
		donationType = "donation"
	}
	intent, err := c.Service.CreatePaymentIntent(r.Context(), req.AmountMinor, req.EventID, donorID, donationType)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, intent)
}

// GetCheckoutSession godoc
// @Summary Get checkout session status
// @Description Returns the payment status and amount of a checkout session. Used by the frontend landing page after redirect.
// @Tags donations
// @Produce json
// @Param sessionID path string true "Checkout session ID"
// @Success 200 {object} controllers.SessionStatusSuccessResponse "data contains status, amount, and event id"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (payment provider error)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donations/sessions/{sessionID} [get]
func (c *DonationController) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if sessionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing sessionID")
		return
	}
	status, err := c.Service.GetCheckoutSession(r.Context(), sessionID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// ConnectAccount godoc
// @Summary Provision a payment sub-account
// @Description Creates an Express sub-account for the authenticated user and returns the onboarding URL. Fails with 409 when the user already has one.
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Success 201 {object} controllers.ConnectAccountSuccessResponse "data contains the onboarding URL"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (account already linked)"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (payment provider error)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donations/connect-account [post]
func (c *DonationController) ConnectAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	url, err := c.Service.ConnectAccount(r.Context(), userID, c.origin(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ConnectAccountResponse{OnboardingURL: url})
}

// AccountStatus godoc
// @Summary Get a user's payment account status
// @Description Returns "not_connected", "pending", or "active" for the user's payment sub-account.
// @Tags donations
// @Produce json
// @Param userID path string true "User ID (UUID)"
// @Success 200 {object} controllers.AccountStatusSuccessResponse "data contains the account status"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (payment provider error)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /donations/accounts/{userID}/status [get]
func (c *DonationController) AccountStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if userID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	status, err := c.Service.AccountStatus(r.Context(), userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// ListEventDonations godoc
// @Summary List donations received by an event
// @Description Returns the event's recorded donations. Only the event creator can list.
// @Tags donations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListDonationsSuccessResponse "data is an array of donations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/donations [get]
func (c *DonationController) ListEventDonations(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	donations, err := c.Service.ListEventDonations(r.Context(), eventID, actorID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if donations == nil {
		donations = []*domain.Donation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, donations)
}

// HandleWebhook godoc
// @Summary Payment provider webhook
// @Description Verifies the signed payload and reconciles completed payments into donation records. Responds 400 on signature failure without side effects. The body is read raw; no middleware touches it.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid signature)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /webhooks/payment [post]
func (c *DonationController) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "cannot read body")
		return
	}
	signature := r.Header.Get("Stripe-Signature")
	if err := c.Service.HandleWebhook(r.Context(), payload, signature); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid signature")
			return
		}
		c.Logger.ErrorContext(r.Context(), "webhook failed", "path", r.URL.Path, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "webhook processing failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "received"})
}
