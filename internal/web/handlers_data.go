package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

// planFilterFromQuery reads the optional ?ano= filter of data exports.
func planFilterFromQuery(r *http.Request) core.PlanFilter {
	var f core.PlanFilter
	if year, err := strconv.Atoi(r.URL.Query().Get("ano")); err == nil && year > 0 {
		f.Year = year
	}
	return f
}

// Schools

func (s *Server) handleListSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := s.service.ListSchools(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": schools})
}

func (s *Server) handleSchoolsWithPlans(w http.ResponseWriter, r *http.Request) {
	views, err := s.service.SchoolsWithPlans(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": views})
}

func (s *Server) handleSchoolsForUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		respondError(w, r, err)
		return
	}
	views, err := s.service.SchoolsForUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": views})
}

func (s *Server) handleSchoolWithPlans(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.SchoolWithPlans(r.Context(), chi.URLParam(r, "sigeam"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": view})
}

func (s *Server) handleSchoolPlans(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.SchoolPlans(r.Context(),
		chi.URLParam(r, "tipo"), chi.URLParam(r, "sigeam"), parseIntParam(r, "page", 1))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", pageFields(page))
}

func (s *Server) handleExportUserData(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := s.service.ExportDataForUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeExport(w, r, e, "dados_usuario_"+strconv.FormatInt(id, 10))
}

func (s *Server) handleExportSchoolData(w http.ResponseWriter, r *http.Request) {
	sigeam := chi.URLParam(r, "sigeam")
	e, err := s.service.ExportDataForSchool(r.Context(), sigeam)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeExport(w, r, e, "dados_escola_"+sigeam)
}

// Coordinators

func (s *Server) handleListCoordinators(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListCoordinators(r.Context(), parseIntParam(r, "page", 1))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", pageFields(page))
}

func (s *Server) handleCoordinatorsByUser(w http.ResponseWriter, r *http.Request) {
	s.listCoordinatorsFor(w, r, s.service.CoordinatorsByUser)
}

func (s *Server) handleCoordinatorsByAdvisor(w http.ResponseWriter, r *http.Request) {
	s.listCoordinatorsFor(w, r, s.service.CoordinatorsByAdvisor)
}

func (s *Server) listCoordinatorsFor(w http.ResponseWriter, r *http.Request,
	load func(ctx context.Context, userID int64) ([]core.Coordinator, error)) {
	id, err := pathID(r, "user")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows, err := load(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": rows})
}

func (s *Server) handleAssignCoordinator(w http.ResponseWriter, r *http.Request) {
	s.assign(w, r, core.AssignCoordinator, "Coordenador atribuído com sucesso.")
}

func (s *Server) handleAssignAdvisor(w http.ResponseWriter, r *http.Request) {
	s.assign(w, r, core.AssignAdvisor, "Assessor atribuído com sucesso.")
}

func (s *Server) assign(w http.ResponseWriter, r *http.Request, role core.AssignRole, message string) {
	id, err := pathID(r, "user")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req core.AssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	n, err := s.service.Assign(r.Context(), id, role, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, message, envelope{"updated": n})
}

func (s *Server) handleDeleteCoordinator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeleteCoordinator(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Coordenadoria removida com sucesso.", nil)
}

func (s *Server) handleExportCoordinators(w http.ResponseWriter, r *http.Request) {
	writeExport(w, r, core.CoordinatorTemplate(), "coordenadores")
}
