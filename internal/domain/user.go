package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity providers.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User-specific validation errors.
var (
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrEmptyUserName    = errors.New("user name cannot be empty")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrInvalidRole      = errors.New("role must be admin or user")
	ErrInvalidProvider  = errors.New("provider must be local or google")
)

// User represents a registered user of the application.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose the password hash in JSON
	Role           string    `json:"role"`
	Avatar         string    `json:"avatar,omitempty"`
	Provider       string    `json:"provider"`
	GoogleID       string    `json:"-"`
	XP             int       `json:"xp"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new local User with the given name, email and password.
// It generates a new UUID for the user ID and sets the creation/update
// timestamps. The caller (the user store) is responsible for hashing the
// password before storage.
func NewUser(name, email, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  password,
		Role:      RoleUser,
		Provider:  ProviderLocal,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NewGoogleUser creates a User record for a federated Google identity.
// Federated users carry a provider-derived password so the local-login path
// can never match them by guesswork.
func NewGoogleUser(name, email, googleID, avatar string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  googleID + "-google",
		Role:      RoleUser,
		Avatar:    avatar,
		Provider:  ProviderGoogle,
		GoogleID:  googleID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Name == "" {
		return ErrEmptyUserName
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	switch u.Role {
	case RoleAdmin, RoleUser:
	default:
		return ErrInvalidRole
	}

	switch u.Provider {
	case ProviderLocal, ProviderGoogle:
	default:
		return ErrInvalidProvider
	}

	if u.Password != "" {
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		if len(u.Password) > 72 { // bcrypt's practical limit
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the database carry only the hash.
		return ErrEmptyPassword
	}

	return nil
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
func validateEmailFormat(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
