// Package security signs the short lived grants that let the admin browser
// upload straight to the bucket and register the result afterwards.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidGrant = errors.New("invalid upload grant")
	ErrGrantExpired = errors.New("upload grant expired")
)

// UploadGrantClaims binds an object key to the event it was issued for.
type UploadGrantClaims struct {
	EventID   uint   `json:"event_id"`
	ObjectKey string `json:"key"`
	FileName  string `json:"name"`
	MaxBytes  int64  `json:"max_bytes"`
	ExpiresAt int64  `json:"exp"`
}

func sign(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// GenerateUploadGrant returns "<payload>.<signature>", both base64url.
func GenerateUploadGrant(claims UploadGrantClaims, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for grant generation")
	}
	claims.ExpiresAt = time.Now().Add(ttl).Unix()
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s",
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString(sign(payload, secret))), nil
}

// VerifyUploadGrant checks signature and expiry and returns the claims.
func VerifyUploadGrant(token, secret string) (*UploadGrantClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for grant verification")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidGrant
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidGrant
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidGrant
	}
	if !hmac.Equal(sig, sign(payload, secret)) {
		return nil, ErrInvalidGrant
	}
	var claims UploadGrantClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidGrant
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, ErrGrantExpired
	}
	return &claims, nil
}
