package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/api/response"
	"github.com/hackarena/portal/internal/api/validation"
	"github.com/hackarena/portal/internal/auth"
)

// LoginService resolves credentials to a session token.
type LoginService interface {
	Login(ctx context.Context, identifier, password string) (string, *auth.Identity, error)
}

// AuthHandler handles the POST /auth/login endpoint.
type AuthHandler struct {
	svc LoginService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc LoginService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token  string  `json:"token"`
	Role   string  `json:"role"`
	TeamID *string `json:"teamId,omitempty"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	token, identity, err := h.svc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Unknown identifier or wrong password", requestID)
			return
		}
		slog.Error("login failed", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	resp := loginResponse{Token: token, Role: identity.Role}
	if identity.TeamID != nil {
		id := identity.TeamID.String()
		resp.TeamID = &id
	}

	response.Success(w, http.StatusOK, resp, requestID)
}
