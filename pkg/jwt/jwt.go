package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	SessionToken TokenType = "profile_session"
)

// Claims carries the handle of an encrypted profile. StoreKey is the
// base64 data key; the server never stores it.
type Claims struct {
	StoreID   string    `json:"sid"`
	StoreKey  string    `json:"key"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session token for the given store handle
func GenerateSessionToken(storeID, storeKey, secret string, now time.Time, duration time.Duration) (string, error) {
	claims := Claims{
		StoreID:   storeID,
		StoreKey:  storeKey,
		TokenType: SessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a JWT token against the clock reading now and
// returns the claims
func ValidateToken(tokenString string, secret string, now time.Time) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ValidateSessionToken validates a token and checks it is a session token
func ValidateSessionToken(tokenString, secret string, now time.Time) (*Claims, error) {
	claims, err := ValidateToken(tokenString, secret, now)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != SessionToken {
		return nil, errors.New("unexpected token type")
	}
	if claims.StoreID == "" || claims.StoreKey == "" {
		return nil, errors.New("incomplete session token")
	}
	return claims, nil
}
