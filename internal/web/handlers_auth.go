package web

import (
	"net/http"

	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/logging"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, r, &core.ValidationError{Fields: map[string]string{"email": "required", "password": "required"}})
		return
	}

	res, err := s.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Login realizado com sucesso.", envelope{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Logout(r.Context(), principal(r).ID); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Logout realizado com sucesso.", nil)
}

func (s *Server) handleLogoutUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.Logout(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("sessions revoked", "target_user", id)
	respondOK(w, r, http.StatusOK, "Sessões do usuário encerradas.", nil)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, http.StatusOK, "", envelope{"user": principal(r)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": users})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	u, err := s.service.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "", envelope{"data": u})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req core.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := s.service.CreateUser(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusCreated, "Usuário criado com sucesso.", envelope{"data": u})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req core.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := s.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Usuário atualizado com sucesso.", envelope{"data": u})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeleteUser(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, r, http.StatusOK, "Usuário removido com sucesso.", nil)
}
