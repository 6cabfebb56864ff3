package rest

import (
	"net/http"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/platform/httpx"
	"github.com/louisbranch/taskmanager/internal/platform/requestctx"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	result, err := s.accounts.Register(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, "User registered successfully", result)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input user.LoginInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	result, err := s.accounts.Login(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "Login successful", result)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requestctx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperrors.New(apperrors.CodeUnauthenticated, msgMissingToken))
		return
	}
	profile, err := s.accounts.Profile(r.Context(), identity.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "", profile)
}
