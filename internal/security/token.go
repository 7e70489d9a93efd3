package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ConfirmationKey derives the opaque key stored with a join invitation:
// a hex digest of a random salt plus the invited address. Unguessable,
// and unique per invitation even for repeated invites to one address.
func ConfirmationKey(email string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := sha256.Sum256(append(salt, []byte(email)...))
	return hex.EncodeToString(sum[:]), nil
}

type acceptClaims struct {
	ConfirmationKey string `json:"key"`
	jwt.RegisteredClaims
}

// AcceptToken wraps a confirmation key in a signed token suitable for
// embedding in the accept URL of an invitation email.
func AcceptToken(confirmationKey, secret string, ttl time.Duration) (string, error) {
	claims := &acceptClaims{
		ConfirmationKey: confirmationKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ErrTokenExpired is returned by ParseAcceptToken for structurally valid
// but expired tokens, so callers can mark the invitation expired.
var ErrTokenExpired = jwt.ErrTokenExpired

// ParseAcceptToken validates an accept-URL token and returns the
// confirmation key it carries.
func ParseAcceptToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &acceptClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		// An expired token still identifies its invitation; surface the
		// key so the caller can mark that invitation expired.
		if errors.Is(err, jwt.ErrTokenExpired) && token != nil {
			if claims, ok := token.Claims.(*acceptClaims); ok && claims.ConfirmationKey != "" {
				return claims.ConfirmationKey, ErrTokenExpired
			}
		}
		return "", err
	}

	claims, ok := token.Claims.(*acceptClaims)
	if !ok || !token.Valid || claims.ConfirmationKey == "" {
		return "", fmt.Errorf("invalid accept token")
	}

	return claims.ConfirmationKey, nil
}
