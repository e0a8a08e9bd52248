package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable time function
// for predictable expiry testing. The refresh lifetime is four times the
// access lifetime.
func NewTestJWTService(secret string, tokenLifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        tokenLifetime,
		refreshTokenLifetime: 4 * tokenLifetime,
		timeFunc:             timeFunc,
		clockSkew:            0,
	}
}
