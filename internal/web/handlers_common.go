package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/logging"
)

// multipartOverhead is allowed on top of the file limit for the form
// boundaries and other fields.
const multipartOverhead = 1 << 20

// readUpload reads the "file" field of a multipart form and validates it.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: file too large (max %d bytes)", core.ErrValidation, maxSize)
		}
		return "", nil, core.ValidateUpload("", nil, maxSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, core.ValidateUpload("", nil, maxSize)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if err := core.ValidateUpload(header.Filename, data, maxSize); err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

// writeExport renders e as CSV, or XLSX with ?format=xlsx, as a download
// named base plus the extension.
func writeExport(w http.ResponseWriter, r *http.Request, e core.Export, base string) {
	format := core.ParseExportFormat(r.URL.Query().Get("format"))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, base, format.Extension()))

	if err := e.Write(w, format); err != nil {
		// headers are already sent
		logging.FromContext(r.Context()).Error("export write failed", "export", base, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, envelope{
			"status":  false,
			"message": "store unavailable",
			"uploads": s.service.LimiterStatus(),
		})
		return
	}
	respondOK(w, r, http.StatusOK, "ok", envelope{"uploads": s.service.LimiterStatus()})
}
