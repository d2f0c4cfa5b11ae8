package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"cleanuphub/internal/delivery/http/controllers"
	"cleanuphub/internal/delivery/http/middleware"
	"cleanuphub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// The webhook route is registered without any auth wrapper so the handler
// reads the request body byte-for-byte as the provider signed it.
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	userController *controllers.UserController,
	donationController *controllers.DonationController,
) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Event queries (public)
	mux.HandleFunc("GET /events/closest", eventController.ListClosest)
	mux.HandleFunc("GET /events/newest", eventController.ListNewest)
	mux.HandleFunc("GET /events/upcoming", eventController.ListUpcoming)
	mux.HandleFunc("GET /events/popular", eventController.ListMostPopular)
	mux.HandleFunc("GET /events/search", eventController.SearchEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEventByID)
	mux.HandleFunc("GET /events/{eventID}/participants", eventController.ListParticipants)

	// Event participation (authenticated)
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/join", auth(eventController.JoinEvent))
	mux.HandleFunc("DELETE /events/{eventID}/join", auth(eventController.LeaveEvent))
	mux.HandleFunc("POST /events/{eventID}/attendance", auth(eventController.SubmitAttendance))
	mux.HandleFunc("GET /events/{eventID}/attendance", auth(eventController.ListAttendance))
	mux.HandleFunc("GET /events/{eventID}/donations", auth(donationController.ListEventDonations))

	// Users
	mux.HandleFunc("GET /users/me", auth(userController.Me))
	mux.HandleFunc("PATCH /users/me", auth(userController.UpdateMe))
	mux.HandleFunc("GET /users/{userID}/events", auth(eventController.ListUserEvents))
	mux.HandleFunc("GET /users/{userID}/events/history", auth(eventController.ListUserEventHistory))
	mux.HandleFunc("POST /uploads", auth(userController.Upload))

	// Donations
	mux.HandleFunc("POST /donations/checkout-session", optionalAuth(donationController.CreateCheckoutSession))
	mux.HandleFunc("POST /donations/payment-intent", optionalAuth(donationController.CreatePaymentIntent))
	mux.HandleFunc("GET /donations/sessions/{sessionID}", donationController.GetCheckoutSession)
	mux.HandleFunc("POST /donations/connect-account", auth(donationController.ConnectAccount))
	mux.HandleFunc("GET /donations/accounts/{userID}/status", donationController.AccountStatus)

	// Webhooks
	mux.HandleFunc("POST /webhooks/payment", donationController.HandleWebhook)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
