package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type GuestClaims struct {
	SessionID string `json:"sid"`
	ProjectID string `json:"pid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// NewGuestSessionToken mints the token handed to a guest after a successful
// verification outcome; it scopes the guest to a single session and project.
func NewGuestSessionToken(sessionID, projectID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := GuestClaims{
		SessionID: sessionID,
		ProjectID: projectID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"guestlobby-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseGuestSessionToken(tokenString, secret string) (*GuestClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &GuestClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*GuestClaims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
