// Package session exposes token refresh and logout.
package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shelfmark/shelfmark/internal/http/middleware"
	"github.com/shelfmark/shelfmark/internal/httputil"
	"github.com/shelfmark/shelfmark/pkg/auth"
	"github.com/shelfmark/shelfmark/pkg/domain"
)

// Handler handles session endpoints.
type Handler struct {
	sessionService *auth.SessionService
	users          auth.UserStore
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(sessionService *auth.SessionService, users auth.UserStore, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		sessionService: sessionService,
		users:          users,
		cookieConfig:   cookieConfig,
	}
}

// RefreshRequest represents a token refresh request (mobile clients).
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents a token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// LogoutRequest represents a logout request (mobile clients).
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /v1/auth/refresh.
//
// Web clients carry the refresh token in a cookie and get new cookies
// back; mobile clients use the request and response bodies.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string

	if httputil.IsMobileClient(r) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		refreshToken = req.RefreshToken
	} else {
		var ok bool
		refreshToken, ok = httputil.GetRefreshTokenFromCookie(r)
		if !ok {
			httputil.Error(w, http.StatusUnauthorized, "refresh token not found")
			return
		}
	}

	if refreshToken == "" {
		httputil.Error(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.sessionService.RefreshSession(r.Context(), refreshToken, h.users.FindByID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) ||
			errors.Is(err, domain.ErrSessionExpired) ||
			errors.Is(err, domain.ErrSessionRevoked) {
			if !httputil.IsMobileClient(r) {
				httputil.ClearAuthCookies(w, h.cookieConfig)
			}
			httputil.Error(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	resp := TokenResponse{TokenType: tokens.TokenType, ExpiresIn: tokens.ExpiresIn}
	if httputil.IsMobileClient(r) {
		resp.AccessToken = tokens.AccessToken
		resp.RefreshToken = tokens.RefreshToken
	} else {
		httputil.SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken,
			h.sessionService.AccessTokenTTL(), h.sessionService.RefreshTokenTTL(), h.cookieConfig)
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Logout handles POST /v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var refreshToken string

	if httputil.IsMobileClient(r) {
		var req LogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		refreshToken = req.RefreshToken
	} else {
		refreshToken, _ = httputil.GetRefreshTokenFromCookie(r)
	}

	if refreshToken != "" {
		// Ignore revocation errors so responses cannot be used to probe
		// which tokens exist.
		_ = h.sessionService.RevokeSession(r.Context(), refreshToken)
	}

	if !httputil.IsMobileClient(r) {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll handles POST /v1/auth/logout/all. Requires authentication.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessionService.RevokeAllSessions(r.Context(), userID); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to revoke sessions")
		return
	}

	if !httputil.IsMobileClient(r) {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}

	w.WriteHeader(http.StatusNoContent)
}
