package web

// errors.go writes the JSON envelopes of the API.
//
// Every failure goes through respondError, which:
//  1. maps the error to a user message with core.MapError
//  2. picks the HTTP status from the sentinel the error wraps
//  3. logs the technical error with the request id
//  4. writes {"status": false, "message", "action", "code"}

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/logging"
)

// envelope is the body of every JSON response.
type envelope map[string]any

var errRateLimited = errors.New("rate limit exceeded")

// statusFor chooses the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrEmailTaken):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrStructuralMismatch), errors.Is(err, core.ErrReportRequiresCompletion):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrTooManyUploads), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped failure envelope.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	body := envelope{
		"status":  false,
		"message": msg.Message,
		"code":    msg.Code,
	}
	if msg.Action != "" {
		body["action"] = msg.Action
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		body["errors"] = verr.Fields
	}
	writeJSON(w, r, status, body)
}

// respondOK writes a success envelope: status, message and payload merged.
func respondOK(w http.ResponseWriter, r *http.Request, status int, message string, payload envelope) {
	body := envelope{"status": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, r, status, body)
}

// pageFields flattens pagination metadata into an envelope.
func pageFields[T any](p core.Page[T]) envelope {
	return envelope{
		"current_page": p.CurrentPage,
		"per_page":     p.PerPage,
		"total":        p.Total,
		"last_page":    p.LastPage,
		"data":         p.Data,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// decodeJSON reads a JSON body of at most 1 MB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return core.NewValidationError("body", "invalid json: "+err.Error())
	}
	return nil
}
