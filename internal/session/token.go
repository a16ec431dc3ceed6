package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The backend owns verification; the portal only needs to know when to stop
// treating the token as a live session.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenTTL is how long token should be kept from now. Tokens without an exp
// claim get fallback.
func tokenTTL(token string, now time.Time, fallback time.Duration) time.Duration {
	if exp, ok := tokenExpiry(token); ok {
		return exp.Sub(now)
	}
	return fallback
}
