package mocks

import (
	"context"
	"errors"

	"github.com/taskhive/taskhive-api/internal/service/auth"
)

// StaticGoogleVerifier is an auth.GoogleVerifier backed by a fixed
// token-to-identity table.
type StaticGoogleVerifier struct {
	Identities map[string]*auth.GoogleIdentity
}

var _ auth.GoogleVerifier = (*StaticGoogleVerifier)(nil)

// Verify implements auth.GoogleVerifier.
func (v *StaticGoogleVerifier) Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error) {
	if identity, ok := v.Identities[idToken]; ok {
		return identity, nil
	}
	return nil, errors.New("unknown id token")
}
