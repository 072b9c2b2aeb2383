package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/tpaconsole/internal/core/auth"
	"github.com/solatis/tpaconsole/internal/core/config"
	"github.com/solatis/tpaconsole/internal/core/db"
	"github.com/solatis/tpaconsole/internal/core/metrics"
	"github.com/solatis/tpaconsole/internal/factors"
	"github.com/solatis/tpaconsole/internal/rules"
)

func newRuleService(t *testing.T) *RuleService {
	t.Helper()
	svc, err := NewRuleService(rules.NewCompiler(factors.Default(), "USD"))
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

// startGRPC serves on an in-memory listener and returns a connected client.
func startGRPC(t *testing.T, authenticator *auth.Authenticator) *grpc.ClientConn {
	t.Helper()

	srv, err := NewGRPCServer(config.DefaultConsoleConfig(), newRuleService(t), authenticator, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewGRPCServer_NilArgs(t *testing.T) {
	if _, err := NewGRPCServer(nil, newRuleService(t), nil, nil, zerolog.Nop()); err == nil {
		t.Error("NewGRPCServer(nil cfg) must fail")
	}
	if _, err := NewGRPCServer(config.DefaultConsoleConfig(), nil, nil, nil, zerolog.Nop()); err == nil {
		t.Error("NewGRPCServer(nil service) must fail")
	}
	if _, err := NewRuleService(nil); err == nil {
		t.Error("NewRuleService(nil) must fail")
	}
}

func TestRuleService_CompileRule(t *testing.T) {
	client := NewRuleServiceClient(startGRPC(t, nil))
	ctx := context.Background()

	req := mustStruct(t, map[string]any{
		"name":      "Consult",
		"basePrice": 120,
		"factors": []any{
			map[string]any{"key": "visit_type", "value": "OPD"},
			map[string]any{"key": "gender", "value": "F"},
			map[string]any{"key": "patient_age", "value": 45},
		},
	})
	resp, err := client.CompileRule(ctx, req)
	if err != nil {
		t.Fatalf("CompileRule() error = %v", err)
	}

	payload := resp.Fields["payload"].GetStructValue()
	if payload.Fields["name"].GetStringValue() != "Consult" {
		t.Errorf("payload.name = %v", payload.Fields["name"])
	}
	conds := payload.Fields["conditions"].GetListValue().GetValues()
	if len(conds) != 3 {
		t.Fatalf("len(conditions) = %d, want 3", len(conds))
	}
	// List-form factors keep their order across the wire
	if got := conds[0].GetStructValue().Fields["factor"].GetStringValue(); got != "visit_type" {
		t.Errorf("conditions[0].factor = %s, want visit_type", got)
	}
	age := conds[2].GetStructValue().Fields
	if age["factor"].GetStringValue() != "patient_age" || age["value"].GetNumberValue() != 45 {
		t.Errorf("conditions[2] = %v, want patient_age = 45", age)
	}
	if issues := resp.Fields["issues"].GetListValue().GetValues(); len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
}

func TestRuleService_CompileRuleInvalid(t *testing.T) {
	client := NewRuleServiceClient(startGRPC(t, nil))

	_, err := client.CompileRule(context.Background(), mustStruct(t, map[string]any{"factors": 5}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("CompileRule(factors=5) code = %s, want InvalidArgument", status.Code(err))
	}
}

func TestRuleService_Normalizers(t *testing.T) {
	client := NewRuleServiceClient(startGRPC(t, nil))
	ctx := context.Background()

	rule, err := client.NormalizeDosageRule(ctx, mustStruct(t, map[string]any{
		"data": map[string]any{"dosageRuleId": 5, "valid_from": []any{2024, 1, 2}, "active": false},
	}))
	if err != nil {
		t.Fatalf("NormalizeDosageRule() error = %v", err)
	}
	if rule.Fields["id"].GetStringValue() != "5" || rule.Fields["validFrom"].GetStringValue() != "2024-01-02" {
		t.Errorf("rule = %v", rule)
	}
	if rule.Fields["isActive"].GetBoolValue() {
		t.Error("isActive = true, want false")
	}

	decision, err := client.NormalizeDecision(ctx, mustStruct(t, map[string]any{"isEligible": true}))
	if err != nil {
		t.Fatalf("NormalizeDecision() error = %v", err)
	}
	if !decision.Fields["eligible"].GetBoolValue() {
		t.Error("eligible = false, want true")
	}
	for _, key := range []string{"reasons", "warnings", "clinicalNotes"} {
		if decision.Fields[key].GetListValue() == nil {
			t.Errorf("%s = %v, want empty list", key, decision.Fields[key])
		}
	}
	if _, ok := decision.Fields["pricing"].GetKind().(*structpb.Value_NullValue); !ok {
		t.Errorf("pricing = %v, want null", decision.Fields["pricing"])
	}
}

func TestGRPC_Auth(t *testing.T) {
	conn, err := db.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "grpc.db"))
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

	secretID := "0123456789abcdef0123456789abcdef"
	secret := []byte("grpc-test-secret-0123456789abcdef")
	issued, err := auth.IssueKey(context.Background(), queries, secretID, secret, "client-grpc", "test")
	if err != nil {
		t.Fatal(err)
	}

	cc := startGRPC(t, auth.NewAuthenticator(map[string][]byte{secretID: secret}, queries))
	client := NewRuleServiceClient(cc)
	req := mustStruct(t, map[string]any{"name": "x"})

	if _, err := client.CompileRule(context.Background(), req); status.Code(err) != codes.Unauthenticated {
		t.Errorf("CompileRule(no key) code = %s, want Unauthenticated", status.Code(err))
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), auth.MetadataKey, issued.Key)
	if _, err := client.CompileRule(ctx, req); err != nil {
		t.Errorf("CompileRule(valid key) error = %v", err)
	}

	health, err := grpc_health_v1.NewHealthClient(cc).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health Check() error = %v", err)
	}
	if health.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("health = %s, want SERVING", health.Status)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := recoveryInterceptor(zerolog.Nop())
	info := &grpc.UnaryServerInfo{FullMethod: "/" + RuleServiceName + "/CompileRule"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %s, want Internal", status.Code(err))
	}
}

func TestLoggingInterceptor_Metrics(t *testing.T) {
	m := metrics.New()
	interceptor := loggingInterceptor(zerolog.Nop(), m)
	info := &grpc.UnaryServerInfo{FullMethod: "/" + RuleServiceName + "/CompileRule"}

	ok := func(context.Context, interface{}) (interface{}, error) { return "done", nil }
	bad := func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "bad draft")
	}
	if resp, err := interceptor(context.Background(), nil, info, ok); err != nil || resp != "done" {
		t.Fatalf("interceptor(ok) = %v, %v", resp, err)
	}
	if _, err := interceptor(context.Background(), nil, info, bad); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("interceptor(bad) code = %s, want InvalidArgument", status.Code(err))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rec.Body.String()
	for _, code := range []string{"OK", "InvalidArgument"} {
		want := fmt.Sprintf(`tpaconsole_grpc_requests_total{code=%q,method="/%s/CompileRule"} 1`, code, RuleServiceName)
		if !strings.Contains(out, want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}

func TestHTTPServer_Lifecycle(t *testing.T) {
	cfg := config.DefaultConsoleConfig()
	e := echo.New()
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	srv, err := NewHTTPServer(cfg, e)
	if err != nil {
		t.Fatal(err)
	}
	if e.Server.WriteTimeout != cfg.RequestTimeout {
		t.Errorf("WriteTimeout = %v, want %v", e.Server.WriteTimeout, cfg.RequestTimeout)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()

	var addr net.Addr
	for i := 0; i < 100 && addr == nil; i++ {
		addr = srv.Addr()
		time.Sleep(10 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("server never started listening")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("GET /health = %d %q", resp.StatusCode, body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil after Shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after Shutdown")
	}
}
