package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"cleanuphub/config"
	"cleanuphub/internal/adapters/auth"
	"cleanuphub/internal/adapters/email"
	"cleanuphub/internal/adapters/payment"
	"cleanuphub/internal/adapters/storage"
	delivery "cleanuphub/internal/delivery/http"
	"cleanuphub/internal/delivery/http/controllers"
	"cleanuphub/internal/delivery/http/middleware"
	"cleanuphub/internal/repository/postgres"
	"cleanuphub/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title CleanupHub API
// @version 1.0
// @description Community cleanup events with participation, attendance, and donations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)
	donationRepo := postgres.NewDonationRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Email.AccessKeyID,
			SecretAccessKey: cfg.Email.SecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	hasher := auth.NewBcryptHasher(0)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	files := storage.NewS3Store(storage.S3Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
	})

	tokenExpiry := time.Duration(cfg.TokenExpiryHours) * time.Hour
	userService := services.NewUserService(userRepo, hasher, issuer, tokenExpiry, emailService)
	eventService := services.NewEventService(eventRepo, serviceTimeout)
	queryService := services.NewEventQueryService(eventRepo, serviceTimeout)
	attendanceService := services.NewAttendanceService(eventRepo, attendanceRepo, serviceTimeout)
	donationService := services.NewDonationService(eventRepo, userRepo, donationRepo, gateway, emailService, cfg.PlatformFeePercent, logger, serviceTimeout)

	mux := delivery.NewRouter(
		verifier,
		controllers.NewAuthController(logger, userService),
		controllers.NewEventController(logger, eventService, queryService, attendanceService),
		controllers.NewUserController(logger, userService, files),
		controllers.NewDonationController(logger, donationService, cfg.PublicBaseURL),
	)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.Logging(logger, mux))

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Environment)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
