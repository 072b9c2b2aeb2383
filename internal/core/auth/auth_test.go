package auth

import (
	"context"
	"crypto/hmac"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/tpaconsole/internal/core/db"
	"github.com/solatis/tpaconsole/internal/types"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

var testSecret = []byte("testsecret1234567890abcdefghijklmnop")

func newTestStore(t *testing.T) *db.Queries {
	t.Helper()
	conn, err := db.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.MigrateUp(conn); err != nil {
		t.Fatal(err)
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatal(err)
	}
	return queries
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "tpa-v1-" + testSecretID + "-" + random, false},
		{"legacy prefix", "tk-v1-" + testSecretID + "-" + random, true},
		{"wrong version", "tpa-v2-" + testSecretID + "-" + random, true},
		{"short secret id", "tpa-v1-0123-" + random, true},
		{"short random", "tpa-v1-" + testSecretID + "-abcd", true},
		{"uppercase hex", "tpa-v1-" + strings.ToUpper(testSecretID) + "-" + random, true},
		{"extra segment", "tpa-v1-" + testSecretID + "-" + random + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKeyFormat) {
				t.Errorf("ParseAPIKey() error = %v, want ErrInvalidKeyFormat", err)
			}
			if !tt.wantErr && (key.SecretID != testSecretID || key.Random != random || key.String() != tt.key) {
				t.Errorf("ParseAPIKey() = %+v", key)
			}
		})
	}
}

func TestNewAPIKey(t *testing.T) {
	key, err := NewAPIKey(testSecretID)
	if err != nil {
		t.Fatal(err)
	}
	if len(key.String()) != 104 {
		t.Errorf("len(key) = %d, want 104", len(key.String()))
	}
	parsed, err := ParseAPIKey(key.String())
	if err != nil || parsed != key {
		t.Errorf("ParseAPIKey(%s) = %+v, %v", key, parsed, err)
	}
	if !hmac.Equal(key.Hash(testSecret), parsed.Hash(testSecret)) {
		t.Error("Hash() differs for the same key and secret")
	}
	if hmac.Equal(key.Hash(testSecret), key.Hash([]byte("other"))) {
		t.Error("Hash() equal under different secrets")
	}

	other, err := NewAPIKey(testSecretID)
	if err != nil || other.Random == key.Random {
		t.Errorf("NewAPIKey() repeated key material: %v", err)
	}
	if _, err := NewAPIKey("not-hex"); !errors.Is(err, ErrInvalidKeyFormat) {
		t.Errorf("NewAPIKey(bad id) error = %v, want ErrInvalidKeyFormat", err)
	}
}

func TestAuthenticate_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	authn := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, store)

	issued, err := IssueKey(ctx, store, testSecretID, testSecret, "client-a", "ci")
	if err != nil {
		t.Fatalf("IssueKey() error = %v", err)
	}

	clientID, err := authn.Authenticate(ctx, issued.Key)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if clientID != "client-a" {
		t.Errorf("Authenticate() = %s, want client-a", clientID)
	}

	// Second call hits the last_used throttle path
	if _, err := authn.Authenticate(ctx, issued.Key); err != nil {
		t.Fatalf("second Authenticate() error = %v", err)
	}

	if err := RevokeKey(ctx, store, issued.ID); err != nil {
		t.Fatalf("RevokeKey() error = %v", err)
	}
	if _, err := authn.Authenticate(ctx, issued.Key); !errors.Is(err, ErrKeyRevoked) {
		t.Errorf("Authenticate(revoked) error = %v, want ErrKeyRevoked", err)
	}
	if err := RevokeKey(ctx, store, issued.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("RevokeKey(twice) error = %v, want ErrNotFound", err)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	authn := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, store)

	random := strings.Repeat("cd", 32)
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"missing", "", ErrMissingKey},
		{"malformed", "not-a-key", ErrInvalidKeyFormat},
		{"unknown secret", APIKey{SecretID: "fedcba9876543210fedcba9876543210", Random: random}.String(), ErrUnknownKey},
		{"never issued", APIKey{SecretID: testSecretID, Random: random}.String(), ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authn.Authenticate(ctx, tt.key)
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.want)
			}
			if StatusCode(err) != http.StatusUnauthorized || GRPCCode(err) != codes.Unauthenticated {
				t.Errorf("codes = %d/%s, want 401/Unauthenticated", StatusCode(err), GRPCCode(err))
			}
		})
	}
}

// brokenStore fails every lookup.
type brokenStore struct{}

func (brokenStore) GetContext(context.Context, string, interface{}, ...interface{}) error {
	return errors.New("connection refused")
}

func (brokenStore) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	authn := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, brokenStore{})
	_, err := authn.Authenticate(context.Background(), APIKey{SecretID: testSecretID, Random: strings.Repeat("ef", 32)}.String())

	if !errors.Is(err, ErrStore) {
		t.Fatalf("Authenticate() error = %v, want ErrStore", err)
	}
	if StatusCode(err) != http.StatusServiceUnavailable || GRPCCode(err) != codes.Unavailable {
		t.Errorf("codes = %d/%s, want 503/Unavailable", StatusCode(err), GRPCCode(err))
	}
}

func TestMiddleware(t *testing.T) {
	store := newTestStore(t)
	authn := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, store)
	issued, err := IssueKey(context.Background(), store, testSecretID, testSecret, "client-b", "ui")
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	handler := authn.Middleware(nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, ClientIDFromContext(c.Request().Context()))
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{"x-api-key", "X-API-Key", issued.Key, http.StatusOK, "client-b"},
		{"bearer", echo.HeaderAuthorization, "Bearer " + issued.Key, http.StatusOK, "client-b"},
		{"missing", "", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/factors", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			err := handler(e.NewContext(req, rec))

			if tt.wantStatus == http.StatusOK {
				if err != nil {
					t.Fatalf("handler error = %v", err)
				}
				if rec.Body.String() != tt.wantBody {
					t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
				}
				return
			}
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tt.wantStatus {
				t.Errorf("handler error = %v, want HTTP %d", err, tt.wantStatus)
			}
		})
	}
}

func TestUnaryInterceptor(t *testing.T) {
	store := newTestStore(t)
	authn := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, store)
	issued, err := IssueKey(context.Background(), store, testSecretID, testSecret, "client-c", "grpc")
	if err != nil {
		t.Fatal(err)
	}

	interceptor := authn.UnaryInterceptor()
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return ClientIDFromContext(ctx), nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/tpaconsole.rules.v1.RuleService/CompileRule"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataKey, issued.Key))
	got, err := interceptor(ctx, nil, info, handler)
	if err != nil || got != "client-c" {
		t.Errorf("interceptor() = %v, %v; want client-c", got, err)
	}

	_, err = interceptor(context.Background(), nil, info, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("interceptor(no metadata) code = %s, want Unauthenticated", status.Code(err))
	}

	health := &grpc.UnaryServerInfo{FullMethod: healthCheckMethod}
	if _, err := interceptor(context.Background(), nil, health, handler); err != nil {
		t.Errorf("health check must bypass auth, got %v", err)
	}
}

func TestStripKey(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		authz     string
		wantAuthz string
	}{
		{"x-api-key only", "tpa-v1-abc", "", ""},
		{"console bearer", "", "Bearer tpa-v1-abc", ""},
		{"console bearer padded", "", "Bearer   tpa-v1-abc ", ""},
		{"foreign bearer", "", "Bearer backend-token", "Bearer backend-token"},
		{"basic", "", "Basic dXNlcjpwYXNz", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.apiKey != "" {
				h.Set(MetadataKey, tt.apiKey)
			}
			if tt.authz != "" {
				h.Set(echo.HeaderAuthorization, tt.authz)
			}
			StripKey(h)
			if h.Get(MetadataKey) != "" {
				t.Errorf("%s header kept", MetadataKey)
			}
			if got := h.Get(echo.HeaderAuthorization); got != tt.wantAuthz {
				t.Errorf("Authorization = %q, want %q", got, tt.wantAuthz)
			}
		})
	}
}
