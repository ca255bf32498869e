package utils

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// RegistrationClaims is the pending registration carried inside the
// confirmation link. It is never persisted.
type RegistrationClaims struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegistrationCodec seals RegistrationClaims into a compact JWE using direct
// key agreement and AES-256-GCM.
type RegistrationCodec struct {
	key []byte
}

// NewRegistrationCodec derives the 256-bit content key from secret.
func NewRegistrationCodec(secret string) (*RegistrationCodec, error) {
	if secret == "" {
		return nil, errors.New("registration secret is empty")
	}
	sum := sha256.Sum256([]byte(secret))
	return &RegistrationCodec{key: sum[:]}, nil
}

// Encode returns a compact JWE. Its alphabet (base64url and dots) is safe
// in a URL path segment.
func (c *RegistrationCodec) Encode(claims RegistrationClaims) (string, error) {
	// Serialize the whole pending registration; the token is its only copy.
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	// "dir" uses the derived key as the content key; no key wrapping.
	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: jose.DIRECT, Key: c.key}, nil)
	if err != nil {
		return "", fmt.Errorf("build encrypter: %w", err)
	}
	obj, err := enc.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return obj.CompactSerialize()
}

// Decode opens a token produced by Encode. Any structural, key or
// authentication failure yields ErrInvalidToken.
func (c *RegistrationCodec) Decode(token string) (RegistrationClaims, error) {
	// Pin the algorithms so a token cannot choose its own.
	obj, err := jose.ParseEncryptedCompact(token,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return RegistrationClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// GCM authenticates as it decrypts: a flipped bit fails here.
	plain, err := obj.Decrypt(c.key)
	if err != nil {
		return RegistrationClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// Decrypted but unusable payloads are invalid tokens too.
	var claims RegistrationClaims
	if err := json.Unmarshal(plain, &claims); err != nil {
		return RegistrationClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return RegistrationClaims{}, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}
	return claims, nil
}
