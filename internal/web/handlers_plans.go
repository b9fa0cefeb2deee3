package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListPlans(r.Context(), 0, parseIntParam(r, "page", 1))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", pageFields(page))
}

func (s *Server) handleListPlansByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "ano"))
	if err != nil || year < 1 {
		respondError(w, r, core.NewValidationError("ano", "must be a year"))
		return
	}
	page, err := s.service.ListPlans(r.Context(), year, parseIntParam(r, "page", 1))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", pageFields(page))
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req core.CreatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	plan, err := s.service.CreatePlan(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusCreated, "Plano de ação criado com sucesso.", envelope{"data": plan})
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req core.UpdatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	plan, err := s.service.UpdatePlan(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Plano de ação atualizado com sucesso.", envelope{"data": plan})
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeletePlan(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Plano de ação removido com sucesso.", nil)
}
