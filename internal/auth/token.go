package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims parses the bearer token without verifying its signature. The
// client never holds the signing key; the server is the authority and the
// client only reads the expiry and subject claims.
func Claims(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return claims, nil
}

// Expired reports whether the token's exp claim is in the past. A token
// that cannot be parsed is treated as expired.
func Expired(tokenString string) bool {
	claims, err := Claims(tokenString)
	if err != nil {
		return true
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}

	return time.Now().After(time.Unix(int64(exp), 0))
}

// Subject returns the token's sub claim, the account email.
func Subject(tokenString string) (string, error) {
	claims, err := Claims(tokenString)
	if err != nil {
		return "", err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing subject claim")
	}

	return sub, nil
}
