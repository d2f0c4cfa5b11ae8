package services

import (
	"context"
	"fmt"
	"log"

	"cleanuphub/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendWelcome sends a welcome email using the "welcome" template and the given data.
func (s *emailService) SendWelcome(ctx context.Context, data *domain.WelcomeEmailData) error {
	if data == nil {
		return fmt.Errorf("welcome email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("welcome", data)
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	log.Printf("[EMAIL] Welcome email sent to %s", data.Email)
	return nil
}

// SendDonationReceipt sends a receipt using the "donation_receipt" template.
func (s *emailService) SendDonationReceipt(ctx context.Context, data *domain.DonationReceiptEmailData) error {
	if data == nil {
		return fmt.Errorf("donation receipt data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("donation_receipt", data)
	if err != nil {
		return fmt.Errorf("failed to render donation_receipt template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send donation receipt: %w", err)
	}
	log.Printf("[EMAIL] Donation receipt sent to %s", data.Email)
	return nil
}
