package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/pkg/logger"
)

// AuthHandler handles sign-in endpoints.
type AuthHandler struct {
	sso    *auth.SSO
	issuer *auth.Issuer
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sso *auth.SSO, issuer *auth.Issuer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		sso:    sso,
		issuer: issuer,
		logger: log,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.sso.Login(r.Context(), req.Role)
	if err != nil {
		writeServiceError(w, h.logger, "sign in", err)
		return
	}

	token, expires, err := h.issuer.Issue(user)
	if err != nil {
		writeServiceError(w, h.logger, "sign in", err)
		return
	}

	h.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	writeJSON(w, http.StatusOK, &model.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      user,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, id.User)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so the
// client discards its token; the server only records the event.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.FromContext(r.Context()); ok {
		h.logger.Info("user signed out", zap.String("user_id", id.ID))
	}
	w.WriteHeader(http.StatusNoContent)
}
