package utils // package utils provides the token codecs and password hashing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	// ErrInvalidToken covers bad signatures, wrong algorithms and malformed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned once the exp claim has passed.
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the subset of a user that session tokens carry.
type Identity struct {
	UUID      uuid.UUID
	Email     string
	FirstName string
	LastName  string
}

// SessionClaims are the signed claims of an access or refresh token.
type SessionClaims struct {
	TokenType TokenType `json:"token_type"`
	UUID      string    `json:"uuid"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	jwt.RegisteredClaims
}

// UserID parses the uuid claim.
func (c *SessionClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.UUID)
}

// SessionCodec signs and verifies HS256 session tokens. It holds its key and
// clock; nothing is read from the environment.
type SessionCodec struct {
	secret []byte
	now    func() time.Time
}

// NewSessionCodec returns a codec keyed by secret using the wall clock.
func NewSessionCodec(secret string) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *SessionCodec) WithClock(now func() time.Time) *SessionCodec {
	return &SessionCodec{secret: c.secret, now: now}
}

// Issue signs a token of the given type for id that expires ttl from now.
func (c *SessionCodec) Issue(id Identity, ttl time.Duration, typ TokenType) (string, time.Time, error) {
	// exp is absolute: issue time plus ttl.
	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		TokenType: typ,
		UUID:      id.UUID.String(),
		Email:     id.Email,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	// Sign with HMAC-SHA256 under the session secret.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the claims. A token is
// valid strictly before its exp instant. The clock is read once per call.
func (c *SessionCodec) Verify(raw string) (*SessionClaims, error) {
	now := c.now()
	claims := &SessionClaims{}
	// Only HS256 is accepted, exp must be present, and every time check
	// uses the single clock reading above.
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		// Keep expiry distinguishable from tampering for callers that care.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	// A valid signature over nonsense claims is still an invalid token.
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad uuid claim", ErrInvalidToken)
	}
	if claims.TokenType != TokenAccess && claims.TokenType != TokenRefresh {
		return nil, fmt.Errorf("%w: unknown token_type %q", ErrInvalidToken, claims.TokenType)
	}
	return claims, nil
}
