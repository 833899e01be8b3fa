// Package account exposes registration and email verification.
package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shelfmark/shelfmark/internal/httputil"
	"github.com/shelfmark/shelfmark/internal/notification"
	"github.com/shelfmark/shelfmark/pkg/auth"
	"github.com/shelfmark/shelfmark/pkg/domain"
)

// Handler handles account endpoints.
type Handler struct {
	logger         *slog.Logger
	accountService *auth.AccountService
	mailer         notification.Mailer // nil when mail is disabled
	appBaseURL     string
}

// NewHandler creates a new account handler.
func NewHandler(logger *slog.Logger, accountService *auth.AccountService, mailer notification.Mailer, appBaseURL string) *Handler {
	return &Handler{
		logger:         logger,
		accountService: accountService,
		mailer:         mailer,
		appBaseURL:     appBaseURL,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username,omitempty"`
}

// RegisterResponse represents a registration response.
type RegisterResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	VerificationSent bool   `json:"verification_sent"`
}

// Register handles POST /v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accountService.Register(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			httputil.Error(w, http.StatusConflict, "an account with this email already exists")
		case errors.Is(err, domain.ErrUsernameAlreadyExists):
			httputil.Error(w, http.StatusConflict, "username is taken")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, "password does not meet the minimum requirements")
		default:
			h.logger.Error("registration failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	sent := h.sendVerification(r, user)

	httputil.JSON(w, http.StatusCreated, RegisterResponse{
		ID:               user.ID.String(),
		Email:            user.Email,
		VerificationSent: sent,
	})
}

// VerifyEmail handles GET /v1/auth/verify-email?token=...
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.accountService.VerifyEmail(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, domain.ErrVerificationTokenNotFound):
			httputil.Error(w, http.StatusNotFound, "unknown verification token")
		case errors.Is(err, domain.ErrVerificationTokenExpired):
			httputil.Error(w, http.StatusGone, "verification token has expired")
		case errors.Is(err, domain.ErrVerificationTokenConsumed):
			httputil.Error(w, http.StatusGone, "verification token was already used")
		default:
			h.logger.Error("email verification failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *Handler) sendVerification(r *http.Request, user *domain.User) bool {
	if h.mailer == nil {
		return false
	}

	token, err := h.accountService.CreateEmailVerificationToken(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to create verification token", "user_id", user.ID, "error", err)
		return false
	}
	verifyURL := h.appBaseURL + "/v1/auth/verify-email?token=" + token
	if err := h.mailer.SendVerificationEmail(user.Email, verifyURL); err != nil {
		h.logger.Error("failed to send verification email", "user_id", user.ID, "error", err)
		return false
	}
	return true
}
