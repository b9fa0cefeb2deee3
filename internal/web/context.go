package web

import (
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

// clientIP is the address rate limiting keys on; RemoteAddr has already
// been rewritten by TrustedRealIP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// principal returns the authenticated user. Routes behind Authenticate
// always have one.
func principal(r *http.Request) core.User {
	u, _ := core.PrincipalFrom(r.Context())
	return u
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, ok := core.ParseID(chi.URLParam(r, name))
	if !ok {
		return 0, core.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
