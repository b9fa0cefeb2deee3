package core

// validation.go rejects bad input before any work starts.
//
// Two kinds of input are checked here:
//  1. Uploaded files: presence, size ceiling, extension and sniffed MIME type
//  2. JSON request bodies: struct tags evaluated by go-playground/validator

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// DepartmentEmailDomain is the only domain accepted for user accounts.
const DepartmentEmailDomain = "@educacao.am.gov.br"

var allowedExtensions = map[string]bool{".csv": true, ".txt": true}

var allowedMIMEs = []string{"text/csv", "text/plain"}

// ValidateUpload checks an uploaded spreadsheet. Every failure matches
// ErrValidation.
func ValidateUpload(fileName string, data []byte, maxSize int64) error {
	if fileName == "" && data == nil {
		return fmt.Errorf("%w: no file provided", ErrValidation)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return fmt.Errorf("%w: file too large (%d bytes, max %d)", ErrValidation, len(data), maxSize)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty file", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported file type %q", ErrValidation, ext)
	}

	mime := mimetype.Detect(data)
	if !isTextMIME(mime) {
		return fmt.Errorf("%w: unsupported file type %s", ErrValidation, mime.String())
	}
	return nil
}

func isTextMIME(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		for _, allowed := range allowedMIMEs {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("deptemail", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(strings.ToLower(fl.Field().String()), DepartmentEmailDomain)
	})

	return v
}

// validateStruct runs the tag rules of s and converts failures into a
// ValidationError keyed by JSON field name.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		out.Fields[fe.Field()] = reason
	}
	return out
}
