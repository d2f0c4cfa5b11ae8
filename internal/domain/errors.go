package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Controllers map these to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")

	// Participation
	ErrAlreadyJoined  = errors.New("already joined")
	ErrNotParticipant = errors.New("not a participant")
	ErrEventFull      = errors.New("event is full")

	// Donations
	ErrNoPaymentAccount     = errors.New("creator has no linked payment account")
	ErrAccountAlreadyLinked = errors.New("payment account already linked")
	ErrDuplicateDonation    = errors.New("donation already recorded for payment intent")
	ErrInvalidSignature     = errors.New("webhook signature verification failed")
)

// ExternalServiceError wraps a failure reported by an external collaborator
// (payment processor, object storage). StatusCode is the collaborator's HTTP
// status when known, zero otherwise.
type ExternalServiceError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}
