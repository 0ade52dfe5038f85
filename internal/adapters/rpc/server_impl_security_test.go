package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roman-numerals/go-backend/internal/bootstrap/daemonconfig"
	"roman-numerals/go-backend/internal/testutil/fsperm"
)

func TestNewServerWithService_RequiresTokenInProduction(t *testing.T) {
	cfg := daemonconfig.Default()
	cfg.Env = "production"
	cfg.RPCToken = ""
	s := NewServerWithService(cfg, nil)
	if err := s.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "ROMAN_RPC_TOKEN") {
		t.Fatalf("expected token requirement error, got %v", err)
	}
}

func TestAuthorize_RejectsMissingToken(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *daemonconfig.Config) {
		cfg.Env = "production"
		cfg.RPCToken = "secret"
	})
	rec := doGet(t, s, "/romannumerals/convertfromint/5", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthorize_AcceptsHeaderAndBearer(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *daemonconfig.Config) {
		cfg.Env = "production"
		cfg.RPCToken = "secret"
	})
	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set(rpcTokenHeader, "secret") },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/romannumerals/convertfromint/5", nil)
		set(req)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}

func TestAuthorize_HealthIsOpen(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *daemonconfig.Config) {
		cfg.Env = "production"
		cfg.RPCToken = "secret"
	})
	if rec := doGet(t, s, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", rec.Code)
	}
}

func TestExtractRPCToken_PrefersCustomHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/rpc", nil)
	req.Header.Set(rpcTokenHeader, "header-token")
	req.Header.Set("Authorization", "Bearer bearer-token")

	s := &Server{}
	got := s.extractRPCToken(req)
	if got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}
}

func TestExtractRPCToken_UsesBearerHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/rpc", nil)
	req.Header.Set("Authorization", "Bearer bearer-token")

	s := &Server{}
	got := s.extractRPCToken(req)
	if got != "bearer-token" {
		t.Fatalf("expected bearer token, got %q", got)
	}
}

func TestIsAllowedOrigin_LocalhostAndConfigured(t *testing.T) {
	s := &Server{allowedOrigins: originSet([]string{"https://app.example.com/"})}
	cases := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://127.0.0.1:8787", true},
		{"http://[::1]:8787", true},
		{"https://app.example.com", true},
		{"https://example.com", false},
		{"null", false},
		{"not-a-url", false},
	}
	for _, tc := range cases {
		if got := s.isAllowedOrigin(tc.origin); got != tc.want {
			t.Fatalf("origin %q: got %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestCORS_RejectsForeignOrigin(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/romannumerals/convertfromint/5", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodOptions, "/rpc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestResolveRPCToken_AutoRotatesAndPersistsToFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "runtime", "rpc.token")

	token, err := resolveRPCToken("auto", tokenFile)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if token == "" || token == "auto" || !strings.HasPrefix(token, "rpc_") {
		t.Fatalf("expected generated token, got %q", token)
	}

	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if string(raw) != token {
		t.Fatalf("unexpected token file content")
	}
	fsperm.AssertPrivateFilePerm(t, tokenFile)
	fsperm.AssertPrivateDirPerm(t, filepath.Dir(tokenFile))
}

func TestResolveRPCToken_StaticTokenPassesThrough(t *testing.T) {
	token, err := resolveRPCToken("  static-token ", "")
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if token != "static-token" {
		t.Fatalf("expected static token, got %q", token)
	}
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *daemonconfig.Config) {
		cfg.RateLimit = daemonconfig.RateLimitConfig{Enabled: true, RPS: 0.5, Burst: 1}
	})
	if rec := doGet(t, s, "/romannumerals/convertfromint/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := doGet(t, s, "/romannumerals/convertfromint/1", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("unexpected Retry-After %q", got)
	}
}

func TestRateLimit_IgnoresUncheckedTokens(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *daemonconfig.Config) {
		cfg.RateLimit = daemonconfig.RateLimitConfig{Enabled: true, RPS: 0.5, Burst: 1}
	})
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/romannumerals/convertfromint/1", nil)
		req.Header.Set(rpcTokenHeader, fmt.Sprintf("junk-%d", i))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK {
		t.Fatalf("first request: %v", codes)
	}
	for _, code := range codes[1:] {
		if code != http.StatusTooManyRequests {
			t.Fatalf("rotating tokens escaped the limit: %v", codes)
		}
	}
	if n := s.rpcLimiter.Len(); n != 1 {
		t.Fatalf("expected one bucket for one client, got %d", n)
	}
}

func TestClientKey_UsesOnlyAuthenticatedToken(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *daemonconfig.Config) {
		cfg.Env = "production"
		cfg.RPCToken = "secret"
	})
	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set(rpcTokenHeader, "secret")
	if got := s.clientKey(req); got != "token:secret" {
		t.Fatalf("unexpected key %q", got)
	}
	req.Header.Set(rpcTokenHeader, "wrong")
	if got := s.clientKey(req); got != "ip:10.0.0.7" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestReconfigure_EnablesRateLimit(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for i := 0; i < 5; i++ {
		if rec := doGet(t, s, "/romannumerals/convertfromint/2", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d with limiting disabled: %d", i, rec.Code)
		}
	}

	cfg := daemonconfig.Default()
	cfg.RateLimit = daemonconfig.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}
	s.Reconfigure(cfg)
	if rps, burst := s.rpcLimiter.Limits(); rps != 1 || burst != 1 {
		t.Fatalf("limits not applied: rps=%v burst=%d", rps, burst)
	}

	codes := []int{
		doGet(t, s, "/romannumerals/convertfromint/2", "").Code,
		doGet(t, s, "/romannumerals/convertfromint/2", "").Code,
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %v", codes)
	}
}

func TestRPCRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	if got := rpcRateLimitKey(req, ""); got != "ip:10.0.0.7" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := rpcRateLimitKey(req, "tok"); got != "token:tok" {
		t.Fatalf("unexpected key %q", got)
	}
}
