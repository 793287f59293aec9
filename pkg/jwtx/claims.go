package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed reports a token that is not a three-segment compact JWT
	// with a JSON claim set.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrExpired reports a token whose exp claim is not in the future.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrNoExpiry reports a token with no exp claim at all. The backend always
	// sets one, so its absence is treated as invalid rather than eternal.
	ErrNoExpiry = errors.New("jwtx: token has no expiry")
)

// Claims is the claim set the medrec backend embeds in its access tokens.
// The subject is the login username; user_id is the stable record ID.
type Claims struct {
	jwt.RegisteredClaims

	Role     string `json:"role,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Decode extracts the claim set from a compact token without verifying the
// signature. Verification is the server's job; the client only needs the
// claims for its local user projection and expiry checks. Any malformed
// input yields ErrMalformed, never a panic.
func Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformed
	}

	return &claims, nil
}

// decodeSegment base64url-decodes a JWT segment, tolerating padded input
// from non-strict issuers.
func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
}

// ValidateExpiry ensures the token's exp claim is strictly after now. The
// comparison is purely local; no network round-trip is involved.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrNoExpiry
	}

	if !c.ExpiresAt.Time.After(now) {
		return ErrExpired
	}

	return nil
}

// Expiry returns the exp claim as a time, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
