package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"peerchat/domain"
	"peerchat/errors"
)

// Claims defines the structure of the data stored inside the JWT.
// Email doubles as the participant identity.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenValidator checks bearer tokens issued by the account service.
// This subsystem only ever validates; GenerateToken exists for tests
// and the local terminal client.
type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(secret string) TokenValidator {
	return TokenValidator{secret: []byte(secret)}
}

// Validate parses the token, checks signature and expiration, and
// returns the identity it was issued to.
func (v TokenValidator) Validate(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", errors.ErrInvalidCredential
	}
	return domain.Identity(claims.Email), nil
}

// GenerateToken creates a signed JWT for a participant, HS256.
func GenerateToken(secret, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "peerchat",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
