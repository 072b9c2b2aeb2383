package auth

import "errors"

// Authentication errors map onto transport codes in one place (StatusCode, GRPCCode).
// Missing, malformed and unknown keys are indistinguishable to the caller;
// a revoked key confirms the key exists but is blocked.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key header")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")

	// ErrStore wraps failures of the key store itself.
	ErrStore = errors.New("api key store unavailable")
)
