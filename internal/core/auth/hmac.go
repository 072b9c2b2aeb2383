package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix and KeyVersion lead every console API key.
const (
	KeyPrefix  = "tpa"
	KeyVersion = "v1"
)

const (
	secretIDLen = 32 // hex, a UUID without hyphens
	randomLen   = 64 // hex, 256 bits
)

// APIKey is a parsed console key: tpa-v1-<secret_id>-<random>, 104 chars.
// SecretID names the HMAC secret the key's hash was computed with.
type APIKey struct {
	SecretID string
	Random   string
}

// NewAPIKey draws fresh key material for secretID.
func NewAPIKey(secretID string) (APIKey, error) {
	if len(secretID) != secretIDLen || !isLowerHex(secretID) {
		return APIKey{}, fmt.Errorf("secret id %q: %w", secretID, ErrInvalidKeyFormat)
	}
	buf := make([]byte, randomLen/2)
	if _, err := rand.Read(buf); err != nil {
		return APIKey{}, fmt.Errorf("generate key material: %w", err)
	}
	return APIKey{SecretID: secretID, Random: hex.EncodeToString(buf)}, nil
}

// ParseAPIKey splits a presented key. Any deviation from the format is
// ErrInvalidKeyFormat.
func ParseAPIKey(key string) (APIKey, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != KeyPrefix || parts[1] != KeyVersion {
		return APIKey{}, ErrInvalidKeyFormat
	}
	k := APIKey{SecretID: parts[2], Random: parts[3]}
	if len(k.SecretID) != secretIDLen || len(k.Random) != randomLen {
		return APIKey{}, ErrInvalidKeyFormat
	}
	if !isLowerHex(k.SecretID) || !isLowerHex(k.Random) {
		return APIKey{}, ErrInvalidKeyFormat
	}
	return k, nil
}

func (k APIKey) String() string {
	return KeyPrefix + "-" + KeyVersion + "-" + k.SecretID + "-" + k.Random
}

// Hash is the HMAC-SHA256 of the full key under secret. Only the hash is stored.
func (k APIKey) Hash(secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(k.String()))
	return h.Sum(nil)
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
