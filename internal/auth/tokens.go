// Package auth issues and validates the session tokens handed out after a
// backend login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

const (
	defaultTTL = 12 * time.Hour
	issuer     = "archery-score-client"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingSecret    = errors.New("token secret not configured")
)

// Claims is the JWT payload. Subject carries the backend identity id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

// Principal is the caller resolved from a valid token.
type Principal struct {
	ID   int
	Role rounds.Role
	Name string
}

// Principal converts validated claims.
func (c *Claims) Principal() (Principal, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return Principal{}, ErrInvalidToken
	}
	role := rounds.Role(c.Role)
	if role != rounds.RoleArcher && role != rounds.RoleRecorder {
		return Principal{}, ErrInvalidToken
	}
	return Principal{ID: id, Role: role, Name: c.Name}, nil
}

// Token is a signed token with its expiry.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Tokens signs and checks HS256 tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens builds a token service. A non-positive ttl uses the default.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for a backend identity.
func (t *Tokens) Issue(id rounds.Identity) (Token, error) {
	if len(t.secret) == 0 {
		return Token{}, ErrMissingSecret
	}
	now := t.now()
	expires := now.Add(t.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.Itoa(id.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: string(id.Role),
		Name: joinName(id.FirstName, id.LastName),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expires}, nil
}

// Validate parses a token and returns its principal.
func (t *Tokens) Validate(raw string) (Principal, error) {
	if len(t.secret) == 0 {
		return Principal{}, ErrMissingSecret
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Principal{}, ErrInvalidSignature
		}
		return Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	return claims.Principal()
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

type principalKey struct{}

// WithPrincipal stores the caller in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
