package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pixelwallet/internal/core"
	applog "pixelwallet/internal/log"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  core.PublicUser `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed request body", core.ErrInvalidInput))
		return
	}

	if err := s.authSvc.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "User registered", applog.FieldUsername, req.Username)
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed request body", core.ErrInvalidInput))
		return
	}

	token, user, err := s.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "User logged in",
		applog.FieldUserID, user.ID,
		applog.FieldUsername, user.Username)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
