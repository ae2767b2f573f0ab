package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/kmezhov/authgate"
	"github.com/kmezhov/authgate/jwt"
	"github.com/kmezhov/authgate/middleware"
	"github.com/kmezhov/authgate/session"
	"go.uber.org/zap"
)

type handlers struct {
	manager *authgate.Manager
	log     *zap.Logger
	secure  bool
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.manager.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		IsVerified:  user.IsVerified,
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.manager.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	middleware.SetTokenCookies(w, pair, h.manager.AccessTTL(), h.manager.RefreshTTL(), h.secure)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// refresh accepts the refresh token from the cookie or a JSON body. When the
// gate sent the caller here with a redirect_url, fresh cookies are set and
// the caller is bounced back to where they came from.
func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(middleware.RefreshCookie); err == nil {
		token = c.Value
	}
	if token == "" && r.Body != nil {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			token = body.RefreshToken
		}
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	pair, err := h.manager.Refresh(r.Context(), token)
	if err != nil {
		middleware.ClearTokenCookies(w, h.secure)
		h.writeDomainError(w, err)
		return
	}

	middleware.SetTokenCookies(w, pair, h.manager.AccessTTL(), h.manager.RefreshTTL(), h.secure)

	if target := r.URL.Query().Get("redirect_url"); target != "" && target[0] == '/' {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.manager.Logout(r.Context(), identity.UserID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	middleware.ClearTokenCookies(w, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{"detail": "logged out"})
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := h.manager.ListSessions(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *handlers) terminateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.manager.TerminateSession(r.Context(), userID); err != nil {
		if errors.Is(err, authgate.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": "session terminated"})
}

func (h *handlers) terminateAllSessions(w http.ResponseWriter, r *http.Request) {
	count, err := h.manager.TerminateAllSessions(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"terminated": count})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "session backend unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authgate.ErrNotAuthenticated),
		errors.Is(err, authgate.ErrSessionNotFound),
		errors.Is(err, authgate.ErrInvalidTokenType),
		errors.Is(err, jwt.ErrExpiredSignature),
		errors.Is(err, jwt.ErrInvalidSignature),
		errors.Is(err, jwt.ErrMalformed):
		writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, authgate.ErrLoginRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
	case errors.Is(err, authgate.ErrConflict):
		writeError(w, http.StatusConflict, "username or email already registered")
	case errors.Is(err, authgate.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, authgate.ErrStoreUnavailable),
		errors.Is(err, session.ErrRedisUnavailable):
		h.log.Error("backend unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "backend unavailable")
	default:
		h.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
