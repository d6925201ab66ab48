package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const userKey ctxKey = 1

// Claims is the verified identity carried by a token: the stable user ID
// plus the display name shown to other room members.
type Claims struct {
	UserID   string
	Username string
}

// WithUser adds the verified claims to the context
func WithUser(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userKey, c)
}

// User extracts the verified claims from the context; ok is false for
// unauthenticated requests.
func User(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(userKey).(Claims)
	return c, ok
}

// JWT wraps a signing secret for issuing/verifying tokens
type JWT struct{ secret []byte }

// New creates a new JWT signer/verifier.
func New(secret string) *JWT { return &JWT{secret: []byte(secret)} }

// Verify checks a token and returns the identity claims
func (j *JWT) Verify(tok string) (Claims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	uid, _ := claims["sub"].(string)
	if uid == "" {
		return Claims{}, errors.New("no sub")
	}
	name, _ := claims["name"].(string)
	return Claims{UserID: uid, Username: name}, nil
}

// Sign creates a token for the identity with the given TTL
func (j *JWT) Sign(c Claims, ttl time.Duration) (string, error) {
	if c.UserID == "" {
		return "", errors.New("empty uid")
	}
	claims := jwt.MapClaims{
		"sub":  c.UserID,
		"name": c.Username,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(j.secret)
}
