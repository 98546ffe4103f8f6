package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

func TestValidateRequestAuth(t *testing.T) {
	cfg := AuthConfig{Enabled: true, BearerToken: "secret-token"}

	tests := []struct {
		name    string
		setup   func(r *http.Request)
		wantErr bool
	}{
		{
			name:    "valid bearer header",
			setup:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") },
			wantErr: false,
		},
		{
			name:    "case insensitive scheme",
			setup:   func(r *http.Request) { r.Header.Set("Authorization", "bearer secret-token") },
			wantErr: false,
		},
		{
			name: "valid cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "secret-token"})
			},
			wantErr: false,
		},
		{
			name:    "valid query token",
			setup:   func(r *http.Request) { r.URL.RawQuery = "token=secret-token" },
			wantErr: false,
		},
		{
			name:    "wrong token",
			setup:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong") },
			wantErr: true,
		},
		{
			name:    "missing credentials",
			setup:   func(r *http.Request) {},
			wantErr: true,
		},
		{
			name:    "wrong scheme",
			setup:   func(r *http.Request) { r.Header.Set("Authorization", "Basic secret-token") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/machines/health", nil)
			tt.setup(r)

			err := ValidateRequestAuth(r, cfg)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRequestAuth_Disabled(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)

	if err := ValidateRequestAuth(r, AuthConfig{Enabled: false}); err != nil {
		t.Fatalf("disabled auth must allow request, got %v", err)
	}
}

func TestValidateRequestAuth_EmptyConfiguredToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	r.Header.Set("Authorization", "Bearer ")

	if err := ValidateRequestAuth(r, AuthConfig{Enabled: true, BearerToken: ""}); err == nil {
		t.Fatal("enabled auth without configured token must reject request")
	}
}

func TestAuthMiddleware_RejectsWithChallenge(t *testing.T) {
	log := logger.New("error")
	handler := Auth(AuthConfig{Enabled: true, BearerToken: "secret-token"}, log)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/machines/critical", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
}
