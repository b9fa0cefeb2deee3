package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seduc-am/planoacao/internal/logging"
)

// handleImportPlans validates the file and schedules an import-mode job.
// Failures of the job itself are recorded on the job, not returned here.
func (s *Server) handleImportPlans(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	jobID, err := s.service.StartImport(r.Context(), name, data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusCreated, "Importação iniciada.", envelope{"job_id": jobID})
}

func (s *Server) handleImportJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.ImportJobStatus(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": job})
}

// handleUpdatePlans runs update mode synchronously.
func (s *Server) handleUpdatePlans(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := s.service.UpdatePlans(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Dados atualizados com sucesso.", envelope{
		"upserted": res.Upserted,
		"skipped":  res.Skipped,
	})
}

// handlePreviewUpdate reports what update mode would do, without writing.
func (s *Server) handlePreviewUpdate(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	preview, err := s.service.PreviewUpdate(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("update preview", "summary", preview.Summary.String())
	respondOK(w, r, http.StatusOK, "", envelope{"data": preview})
}

func (s *Server) handleExportTemplate(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.ExportTemplate(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeExport(w, r, e, "planos_acao")
}

func (s *Server) handleExportData(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.ExportData(r.Context(), planFilterFromQuery(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeExport(w, r, e, "dados")
}

func (s *Server) handleImportCoordinators(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	n, err := s.service.ImportCoordinators(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusCreated, "Coordenadorias importadas com sucesso.", envelope{"inserted": n})
}

func (s *Server) handleImportSchools(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	n, err := s.service.ImportSchools(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusCreated, "Escolas importadas com sucesso.", envelope{"inserted": n})
}
