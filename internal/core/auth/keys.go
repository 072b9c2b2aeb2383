package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solatis/tpaconsole/internal/types"
)

// KeyStore persists API key records. Implemented by *db.Queries.
type KeyStore interface {
	ExecContext(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
}

// IssuedKey is a freshly minted API key. Key is shown once and never stored.
type IssuedKey struct {
	ID       string
	ClientID string
	Name     string
	Key      string
}

// IssueKey mints a key signed by secretID and stores only its HMAC.
func IssueKey(ctx context.Context, store KeyStore, secretID string, secret []byte, clientID, name string) (*IssuedKey, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	key, err := NewAPIKey(secretID)
	if err != nil {
		return nil, err
	}

	issued := &IssuedKey{
		ID:       uuid.Must(uuid.NewV7()).String(),
		ClientID: clientID,
		Name:     name,
		Key:      key.String(),
	}

	_, err = store.ExecContext(ctx, "insert-api-key",
		issued.ID, clientID, name, secretID, key.Hash(secret), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("store api key: %w", err)
	}
	return issued, nil
}

// RevokeKey marks a key revoked. Revoking an unknown or already revoked key
// returns types.ErrNotFound.
func RevokeKey(ctx context.Context, store KeyStore, keyID string) error {
	res, err := store.ExecContext(ctx, "revoke-api-key", time.Now().UTC(), keyID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("api key %s: %w", keyID, types.ErrNotFound)
	}
	return nil
}
