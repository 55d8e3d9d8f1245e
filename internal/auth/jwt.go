package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaim is the signed payload of the session cookie. It only points at
// the server-side session; revoking the session invalidates the token.
type SessionClaim struct {
	SessionId string `json:"sid"`
	UserId    string `json:"uid"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a token for sessionID that expires after ttl.
func GenerateSessionToken(secret []byte, sessionID, userID string, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("session secret is not configured")
	}

	now := time.Now()
	expirationTime := now.Add(ttl)
	claims := SessionClaim{
		SessionId: sessionID,
		UserId:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

// ValidateSessionToken checks the signature and expiry of a session token.
func ValidateSessionToken(secret []byte, signedToken string) (SessionClaim, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SessionClaim{},
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return SessionClaim{}, err
	}

	claim, ok := token.Claims.(*SessionClaim)
	if !ok || !token.Valid {
		return SessionClaim{}, errors.New("couldn't parse claims")
	}
	if claim.SessionId == "" {
		return SessionClaim{}, errors.New("token carries no session")
	}
	return *claim, nil
}
