package domain

import (
	"context"
	"time"
)

// User represents a registered user. PaymentAccountID is the external payment
// processor sub-account; when empty the user cannot receive donations.
// swagger:model User
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	PaymentAccountID string    `json:"-"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is set by the
// repository on create.
func NewUser(email, name, passwordHash string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// PasswordHasher hashes and verifies passwords. Implementations may use
// bcrypt, argon2, etc.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	// SetPaymentAccountID links the processor sub-account to the user.
	SetPaymentAccountID(ctx context.Context, userID, accountID string) error
}

// UserService defines signup, login, and profile operations.
type UserService interface {
	SignUp(ctx context.Context, email, name, password string) (token string, user *User, err error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, name, avatarURL *string) (*User, error)
}
