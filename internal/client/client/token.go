package client

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no expiry")

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client never holds the signing key; the value is only used to decide
// when to ask for a fresh token.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// TokenExpired reports whether token expires within skew of now. Tokens that
// cannot be parsed or carry no expiry are treated as still valid.
func TokenExpired(token string, now time.Time, skew time.Duration) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return !now.Add(skew).Before(exp)
}
