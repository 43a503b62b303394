// Package auth issues and verifies session tokens and checks credentials for
// the login endpoint and the websocket handshake.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

var (
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned when a login does not match an account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned for paused or deleted staff accounts.
	ErrAccountDisabled = errors.New("account disabled")
)

// Claims are the signed session claims.
type Claims struct {
	Role      models.Role      `json:"role"`
	StaffRole models.StaffRole `json:"staffRole,omitempty"`
	Name      string           `json:"name"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token codec. ttl must be positive.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for actor.
func (t *Tokens) Issue(actor models.Actor) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		Role:      actor.Role,
		StaffRole: actor.StaffRole,
		Name:      actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature and expiry of raw and returns its actor.
func (t *Tokens) Verify(raw string) (models.Actor, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	switch claims.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		if !claims.StaffRole.Valid() || claims.Subject == "" {
			return models.Actor{}, ErrInvalidToken
		}
	default:
		return models.Actor{}, ErrInvalidToken
	}

	return models.Actor{
		ID:        claims.Subject,
		Name:      claims.Name,
		Role:      claims.Role,
		StaffRole: claims.StaffRole,
	}, nil
}
