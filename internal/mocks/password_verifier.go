package mocks

import (
	"errors"

	"github.com/taskhive/taskhive-api/internal/service/auth"
)

// PlainPasswordVerifier pairs with MemoryUserStore's "hashed:" prefixing so
// handler tests can log in without paying for bcrypt.
type PlainPasswordVerifier struct{}

var _ auth.PasswordVerifier = PlainPasswordVerifier{}

// Compare implements auth.PasswordVerifier.
func (PlainPasswordVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return errors.New("password mismatch")
}
