package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solatis/tpaconsole/internal/types"
)

func TestClient_PostDecodesJSON(t *testing.T) {
	var gotBody map[string]any
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api"+PathDecision {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"eligible":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", time.Second)
	ctx := WithRequestID(context.Background(), "req-1")
	out, err := c.Post(ctx, PathDecision, map[string]any{"drugPackId": 7})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	data, ok := out.(map[string]any)["data"].(map[string]any)
	if !ok || data["eligible"] != true {
		t.Errorf("Post() = %#v", out)
	}
	if gotBody["drugPackId"] != 7.0 {
		t.Errorf("body = %v", gotBody)
	}
	if gotRequestID != "req-1" {
		t.Errorf("X-Request-ID = %q, want req-1", gotRequestID)
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"priority must be unique"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Put(context.Background(), PathDosageRules+"/4", map[string]any{})
	if !errors.Is(err, types.ErrUpstreamStatus) {
		t.Fatalf("Put() error = %v, want ErrUpstreamStatus", err)
	}
	se, ok := AsStatusError(err)
	if !ok || se.Status != http.StatusUnprocessableEntity {
		t.Fatalf("AsStatusError() = %+v, %v", se, ok)
	}
	if se.Message() != "priority must be unique" {
		t.Errorf("Message() = %q", se.Message())
	}
}

func TestStatusError_MessageFallback(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"bad"}`, "bad"},
		{`{"detail":"missing"}`, "missing"},
		{" plain text\n", "plain text"},
		{`{"message":""}`, `{"message":""}`},
	}
	for _, tt := range tests {
		se := &StatusError{Body: []byte(tt.body)}
		if got := se.Message(); got != tt.want {
			t.Errorf("Message(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestClient_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).Get(context.Background(), PathDrugRules+"/1")
	if err != nil || out != nil {
		t.Errorf("Get() = %v, %v; want nil, nil", out, err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Get(context.Background(), PathDrugRules)
	if !errors.Is(err, types.ErrUpstreamUnavailable) {
		t.Errorf("Get() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Get(context.Background(), PathDrugRules)
	if err == nil || errors.Is(err, types.ErrUpstreamStatus) {
		t.Errorf("Get() error = %v, want decode error", err)
	}
}

func TestClient_ResponseSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", maxResponseSize, false},
		{"over limit", maxResponseSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A JSON string literal of exactly tt.size bytes
			body := make([]byte, tt.size)
			for i := range body {
				body[i] = 'a'
			}
			body[0], body[len(body)-1] = '"', '"'

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			out, err := New(srv.URL, 10*time.Second).Get(context.Background(), PathDrugRules)
			if tt.wantErr {
				if !errors.Is(err, types.ErrUpstreamUnavailable) {
					t.Errorf("Get() error = %v, want ErrUpstreamUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if s, _ := out.(string); len(s) != tt.size-2 {
				t.Errorf("decoded %d bytes, want %d", len(s), tt.size-2)
			}
		})
	}
}
