// Package login exposes the credential + second-factor login endpoint.
package login

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shelfmark/shelfmark/internal/httputil"
	"github.com/shelfmark/shelfmark/internal/notification"
	"github.com/shelfmark/shelfmark/pkg/auth"
	"github.com/shelfmark/shelfmark/pkg/domain"
)

// Handler handles login requests.
type Handler struct {
	logger         *slog.Logger
	loginService   *auth.LoginService
	sessionService *auth.SessionService
	accountService *auth.AccountService
	mailer         notification.Mailer // nil when mail is disabled
	appBaseURL     string
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new login handler.
func NewHandler(
	logger *slog.Logger,
	loginService *auth.LoginService,
	sessionService *auth.SessionService,
	accountService *auth.AccountService,
	mailer notification.Mailer,
	appBaseURL string,
	cookieConfig httputil.CookieConfig,
) *Handler {
	return &Handler{
		logger:         logger,
		loginService:   loginService,
		sessionService: sessionService,
		accountService: accountService,
		mailer:         mailer,
		appBaseURL:     appBaseURL,
		cookieConfig:   cookieConfig,
	}
}

// LoginRequest represents a login request. TOTPCode is empty on the
// first attempt; clients resubmit the same credentials with the code
// after a totp_required response.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	TOTPCode   string `json:"totp_code,omitempty"`
}

// UserResponse is the user summary returned on successful login.
type UserResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Username      *string `json:"username,omitempty"`
	Name          *string `json:"name,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	TOTPEnabled   bool    `json:"totp_enabled"`
}

// LoginResponse represents a successful login response.
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
}

// TOTPRequiredResponse asks the client to resubmit with a code.
type TOTPRequiredResponse struct {
	TOTPRequired bool `json:"totp_required"`
}

// LockedResponse reports an account lockout.
type LockedResponse struct {
	Error       string    `json:"error"`
	LockedUntil time.Time `json:"locked_until"`
}

// Login handles POST /v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identifier == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	result, err := h.loginService.Login(ctx, req.Identifier, req.Password, req.TOTPCode)
	if err != nil {
		h.logger.Error("login failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	switch result.Status {
	case domain.LoginSuccess:
		h.issueTokens(w, r, result.User)

	case domain.LoginTOTPRequired:
		httputil.JSON(w, http.StatusOK, TOTPRequiredResponse{TOTPRequired: true})

	case domain.LoginAccountLocked:
		resp := LockedResponse{Error: "account is temporarily locked"}
		if result.LockedUntil != nil {
			resp.LockedUntil = *result.LockedUntil
		}
		httputil.JSON(w, http.StatusForbidden, resp)

	case domain.LoginAccountInactive:
		httputil.Error(w, http.StatusForbidden, "account is deactivated")

	case domain.LoginEmailUnverified:
		h.resendVerification(r, result.Email)
		httputil.Error(w, http.StatusForbidden, "email address is not verified")

	case domain.LoginInvalidTOTP:
		httputil.Error(w, http.StatusUnauthorized, "invalid verification code")

	default:
		httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
	}
}

func (h *Handler) issueTokens(w http.ResponseWriter, r *http.Request, user *domain.User) {
	tokens, err := h.sessionService.IssueSession(r.Context(), user, auth.IssueSessionOpts{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.logger.Error("failed to issue session", "user_id", user.ID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	resp := LoginResponse{
		User: UserResponse{
			ID:            user.ID.String(),
			Email:         user.Email,
			Username:      user.Username,
			Name:          user.Name,
			EmailVerified: user.EmailVerified,
			TOTPEnabled:   user.TOTPEnabled,
		},
		TokenType: tokens.TokenType,
		ExpiresIn: tokens.ExpiresIn,
	}

	if httputil.IsMobileClient(r) {
		resp.AccessToken = tokens.AccessToken
		resp.RefreshToken = tokens.RefreshToken
	} else {
		httputil.SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken,
			h.sessionService.AccessTokenTTL(), h.sessionService.RefreshTokenTTL(), h.cookieConfig)
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// resendVerification sends a fresh confirmation link so a user stuck on
// an unverified address can get out. Delivery failures only get logged;
// the login response is the same either way.
func (h *Handler) resendVerification(r *http.Request, email string) {
	if h.mailer == nil || email == "" {
		return
	}

	user, err := h.accountService.FindUserByEmail(r.Context(), email)
	if err != nil {
		return
	}
	token, err := h.accountService.CreateEmailVerificationToken(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to create verification token", "user_id", user.ID, "error", err)
		return
	}
	verifyURL := h.appBaseURL + "/v1/auth/verify-email?token=" + token
	if err := h.mailer.SendVerificationEmail(email, verifyURL); err != nil {
		h.logger.Error("failed to send verification email", "user_id", user.ID, "error", err)
	}
}
