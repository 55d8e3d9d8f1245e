package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var SESSION_NAME = "____sf"

const sessionKeyPrefix = "session:"

type UserSession struct {
	Id        string             `json:"id"`
	ExpiresAt time.Time          `json:"expiresAt"`
	UserId    primitive.ObjectID `json:"userId"`
	Email     string             `json:"email"`
}

func (s UserSession) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

func (s *UserSession) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// Checks if user session is expired.
func (s UserSession) Expired() bool {
	return s.ExpiresAt.Before(time.Now())
}

// SessionStore keeps login sessions in Redis and hands the client a signed
// token naming the session.
type SessionStore struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, secret string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, secret: []byte(secret), ttl: ttl}
}

// Create stores a new session for the user and sets the session cookie.
// The signed token is returned for clients that prefer a bearer header.
func (s *SessionStore) Create(c *gin.Context, userID primitive.ObjectID, email string) (string, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := GenerateSessionToken(s.secret, sessionID, userID.Hex(), s.ttl)
	if err != nil {
		return "", err
	}

	value := UserSession{
		Id:        sessionID,
		UserId:    userID,
		Email:     email,
		ExpiresAt: expiresAt,
	}
	if err := s.client.Set(c.Request.Context(), sessionKeyPrefix+sessionID, value, s.ttl).Err(); err != nil {
		return "", errors.Wrap(err, "store session")
	}

	c.SetCookie(SESSION_NAME, token, int(s.ttl.Seconds()), "/", "", isHTTPS(c), true)
	return token, nil
}

// Load resolves the session of the current request from the cookie or the
// Authorization header.
func (s *SessionStore) Load(c *gin.Context) (UserSession, error) {
	token, err := ExtractSessionToken(c)
	if err != nil {
		return UserSession{}, errors.Wrap(util.ErrUnauthorized, err.Error())
	}
	claim, err := ValidateSessionToken(s.secret, token)
	if err != nil {
		return UserSession{}, errors.Wrap(util.ErrUnauthorized, err.Error())
	}
	return s.get(c.Request.Context(), claim.SessionId)
}

func (s *SessionStore) get(ctx context.Context, sessionID string) (UserSession, error) {
	var session UserSession
	err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Scan(&session)
	if errors.Is(err, redis.Nil) {
		return UserSession{}, errors.Wrap(util.ErrUnauthorized, "session expired")
	}
	if err != nil {
		return UserSession{}, err
	}
	if session.Expired() {
		return UserSession{}, errors.Wrap(util.ErrUnauthorized, "session expired")
	}
	return session, nil
}

// Delete revokes the current session, if any, and clears the cookie.
func (s *SessionStore) Delete(c *gin.Context) {
	if token, err := ExtractSessionToken(c); err == nil {
		if claim, err := ValidateSessionToken(s.secret, token); err == nil {
			err := s.client.Del(c.Request.Context(), sessionKeyPrefix+claim.SessionId).Err()
			util.LogError("delete session", err)
		}
	}
	c.SetCookie(SESSION_NAME, "", -1, "/", "", isHTTPS(c), true)
}

func isHTTPS(ctx *gin.Context) bool {
	if ctx.Request.TLS != nil {
		return true
	}

	if ctx.GetHeader("X-Forwarded-Proto") == "https" {
		return true
	}

	return ctx.GetHeader("X-Forwarded-Ssl") == "on"
}

// ExtractSessionToken reads the session token from the cookie, falling back
// to the Authorization header.
func ExtractSessionToken(ctx *gin.Context) (string, error) {
	if cookie, err := ctx.Cookie(SESSION_NAME); err == nil && cookie != "" {
		return cookie, nil
	}
	return ExtractBearerToken(ctx.GetHeader("Authorization"))
}

// ExtractBearerToken extracts the Bearer token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is empty")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("authorization header does not start with 'Bearer '")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", fmt.Errorf("token is empty")
	}

	return token, nil
}
