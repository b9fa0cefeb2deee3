package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "wrapped not found", err: fmt.Errorf("get plan 9: %w", ErrNotFound), wantCode: "DB008"},
		{name: "mismatch error", err: &MismatchError{Line: 3, Got: 17, Expected: 18}, wantCode: "CSV001"},
		{name: "report requires completion", err: ErrReportRequiresCompletion, wantCode: "VAL008"},
		{name: "invalid credentials", err: ErrInvalidCredentials, wantCode: "AUTH001"},
		{name: "forbidden", err: fmt.Errorf("coord: %w", ErrForbidden), wantCode: "AUTH003"},
		{name: "email taken", err: ErrEmailTaken, wantCode: "USR001"},
		{name: "too many imports", err: ErrTooManyUploads, wantCode: "UPL002"},
		{name: "file too large beats validation", err: fmt.Errorf("%w: file too large", ErrValidation), wantCode: "FILE001"},
		{name: "unsupported type", err: fmt.Errorf("%w: unsupported file type image/png", ErrValidation), wantCode: "FILE006"},
		{name: "field validation", err: NewValidationError("email", "required"), wantCode: "VAL007"},
		{name: "invalid date field", err: NewValidationError("prev_inicio", `invalid date "x"`), wantCode: "VAL001"},
		{name: "duplicate key", err: errors.New("ERROR: duplicate key value violates unique constraint"), wantCode: "DB001"},
		{name: "not null", err: errors.New(`null value in column "prev_inicio" violates not-null constraint`), wantCode: "VAL003"},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), wantCode: "DB004"},
		{name: "case insensitive", err: errors.New("DEADLOCK detected"), wantCode: "DB007"},
		{name: "unknown error", err: errors.New("some random internal error"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_ReportMessage(t *testing.T) {
	got := MapError(ErrReportRequiresCompletion)
	if got.Message != "A ação precisa estar CONCLUIDO." {
		t.Errorf("MapError() message = %q", got.Message)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNotFound)
	want := "Registro não encontrado. (Code: DB008). Verifique o identificador informado"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"known sentinel", ErrForbidden, true},
		{"known pattern", errors.New("duplicate key"), true},
		{"unknown", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "required", "a": "min=6"}}
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationError should match ErrValidation")
	}
	want := "validation failed: a: min=6; b: required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
