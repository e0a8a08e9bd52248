package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("valid user", func(t *testing.T) {
		t.Parallel()

		user, err := domain.NewUser("Ada", "Ada@Example.COM", "password123")
		require.NoError(t, err)

		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "ada@example.com", user.Email, "email should be lowercased")
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.Equal(t, domain.ProviderLocal, user.Provider)
		assert.Zero(t, user.XP)
	})

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "empty name",
			userName: "",
			email:    "a@example.com",
			password: "password123",
			wantErr:  domain.ErrEmptyUserName,
		},
		{
			name:     "invalid email",
			userName: "Ada",
			email:    "not-an-email",
			password: "password123",
			wantErr:  domain.ErrInvalidEmail,
		},
		{
			name:     "password too short",
			userName: "Ada",
			email:    "a@example.com",
			password: "short",
			wantErr:  domain.ErrPasswordTooShort,
		},
		{
			name:     "password beyond bcrypt limit",
			userName: "Ada",
			email:    "a@example.com",
			password: strings.Repeat("x", 73),
			wantErr:  domain.ErrPasswordTooLong,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NewUser(tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewGoogleUser(t *testing.T) {
	t.Parallel()

	user, err := domain.NewGoogleUser("Grace", "grace@example.com", "google-sub-123", "https://example.com/pic.png")
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderGoogle, user.Provider)
	assert.Equal(t, "google-sub-123", user.GoogleID)
	assert.Equal(t, "https://example.com/pic.png", user.Avatar)
	// The derived password keys off the Google subject so local login can
	// never be guessed for a federated account.
	assert.Equal(t, "google-sub-123-google", user.Password)
}
