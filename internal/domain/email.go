package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeEmailData holds data for the welcome email.
type WelcomeEmailData struct {
	Email string
	Name  string
}

// DonationReceiptEmailData holds data for the donation receipt email sent to
// non-anonymous donors after reconciliation.
type DonationReceiptEmailData struct {
	Email       string
	Name        string
	EventTitle  string
	AmountMinor int64
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcome(ctx context.Context, data *WelcomeEmailData) error
	SendDonationReceipt(ctx context.Context, data *DonationReceiptEmailData) error
}
