package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/logging"
)

// Authenticator resolves a bearer token to the active user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.User, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate rejects requests without a valid bearer token and stores the
// user on the request context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				slog.Warn("auth: missing bearer token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				deny(w, http.StatusUnauthorized, core.ErrUnauthorized)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				slog.Warn("auth: rejected token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				deny(w, http.StatusUnauthorized, core.ErrUnauthorized)
				return
			}

			ctx := core.WithPrincipal(r.Context(), user)
			ctx = logging.WithUser(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles lets a request through when allow accepts the principal's
// role flags. It must run after Authenticate.
func RequireRoles(allow func(core.Roles) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := core.PrincipalFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, core.ErrUnauthorized)
				return
			}
			if !allow(user.Roles) {
				logging.FromContext(r.Context()).Warn("auth: access denied", "path", r.URL.Path, "method", r.Method)
				deny(w, http.StatusForbidden, core.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits administrators.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(func(r core.Roles) bool { return r.Admin })(next)
}

// RequireAdminOrSecretariat admits administrators and the secretariat.
func RequireAdminOrSecretariat(next http.Handler) http.Handler {
	return RequireRoles(func(r core.Roles) bool { return r.Admin || r.Secretaria })(next)
}

// RequirePermissions admits any user with at least one role flag.
func RequirePermissions(next http.Handler) http.Handler {
	return RequireRoles(core.Roles.Any)(next)
}

func deny(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  false,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
