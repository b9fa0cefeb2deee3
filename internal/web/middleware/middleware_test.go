package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seduc-am/planoacao/internal/core"
)

type stubAuth map[string]core.User

func (s stubAuth) Authenticate(_ context.Context, token string) (core.User, error) {
	u, ok := s[token]
	if !ok {
		return core.User{}, core.ErrUnauthorized
	}
	return u, nil
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := core.PrincipalFrom(r.Context()); !ok {
		http.Error(w, "no principal", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(r); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestAuthenticateAndRoles(t *testing.T) {
	auth := stubAuth{
		"admin":  {ID: 1, Roles: core.Roles{Admin: true}},
		"sec":    {ID: 2, Roles: core.Roles{Secretaria: true}},
		"school": {ID: 3, Roles: core.Roles{PEscola: true}},
		"none":   {ID: 4},
	}

	tests := []struct {
		name  string
		guard func(http.Handler) http.Handler
		token string
		want  int
	}{
		{"no token", RequirePermissions, "", http.StatusUnauthorized},
		{"bad token", RequirePermissions, "nope", http.StatusUnauthorized},
		{"admin passes admin", RequireAdmin, "admin", http.StatusNoContent},
		{"secretariat blocked from admin", RequireAdmin, "sec", http.StatusForbidden},
		{"secretariat passes admin-or-secretariat", RequireAdminOrSecretariat, "sec", http.StatusNoContent},
		{"school blocked from admin-or-secretariat", RequireAdminOrSecretariat, "school", http.StatusForbidden},
		{"school has permissions", RequirePermissions, "school", http.StatusNoContent},
		{"no roles", RequirePermissions, "none", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticate(auth)(tt.guard(http.HandlerFunc(okHandler)))
			r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusForbidden && !strings.Contains(w.Body.String(), "Acesso negado.") {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps remote", []string{"10.0.0.0/8"}, "203.0.113.9:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:5000"},
		{"trusted uses x-real-ip", []string{"10.0.0.0/8"}, "10.1.2.3:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted uses first xff hop", []string{"10.1.2.3"}, "10.1.2.3:5000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:5000", map[string]string{"X-Real-IP": "garbage"}, "10.1.2.3:5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec, status: http.StatusOK}
	w.WriteHeader(http.StatusTeapot)
	w.WriteHeader(http.StatusInternalServerError)
	if w.status != http.StatusTeapot || rec.Code != http.StatusTeapot {
		t.Errorf("status = %d / %d", w.status, rec.Code)
	}
}
