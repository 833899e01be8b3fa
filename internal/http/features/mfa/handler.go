// Package mfa exposes the two-step TOTP enrollment endpoints.
package mfa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/shelfmark/shelfmark/internal/http/middleware"
	"github.com/shelfmark/shelfmark/internal/httputil"
	"github.com/shelfmark/shelfmark/pkg/auth"
	"github.com/shelfmark/shelfmark/pkg/domain"
	"github.com/shelfmark/shelfmark/pkg/otp"
)

// Handler handles MFA-related HTTP requests.
type Handler struct {
	logger     *slog.Logger
	mfaService *auth.MFAService
	users      auth.UserStore
	passwords  auth.PasswordVerifier
	totpWindow int
}

// NewHandler creates a new MFA handler.
func NewHandler(logger *slog.Logger, mfaService *auth.MFAService, users auth.UserStore, passwords auth.PasswordVerifier, totpWindow int) *Handler {
	if totpWindow == 0 {
		totpWindow = otp.DefaultWindow
	}
	return &Handler{
		logger:     logger,
		mfaService: mfaService,
		users:      users,
		passwords:  passwords,
		totpWindow: totpWindow,
	}
}

// SetupRequest represents the request body for MFA setup.
type SetupRequest struct {
	Password string `json:"password"`
}

// SetupResponse represents the response body for MFA setup. The secret
// and backup codes are shown exactly once, here.
type SetupResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	QRCode          string   `json:"qr_code"`
	BackupCodes     []string `json:"backup_codes"`
}

// Setup handles POST /v1/me/mfa/setup. It stores a fresh secret with
// 2FA still off; Activate flips it on once the authenticator proves out.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.verifyPassword(ctx, userID, req.Password) {
		httputil.Error(w, http.StatusUnauthorized, "invalid password")
		return
	}

	setup, err := h.mfaService.EnableTOTP(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrTOTPAlreadyEnabled) {
			httputil.Error(w, http.StatusConflict, "two-factor authentication is already enabled")
			return
		}
		h.logger.Error("failed to set up TOTP", "user_id", userID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to set up two-factor authentication")
		return
	}

	httputil.JSON(w, http.StatusOK, SetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
		QRCode:          qrDataURI(h.logger, setup.ProvisioningURI),
		BackupCodes:     setup.BackupCodes,
	})
}

// ActivateRequest represents the request body for activating MFA.
type ActivateRequest struct {
	Code string `json:"code"`
}

// Activate handles POST /v1/me/mfa/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		httputil.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	activated, err := h.mfaService.ConfirmTOTP(ctx, userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTOTPAlreadyEnabled):
			httputil.Error(w, http.StatusConflict, "two-factor authentication is already enabled")
		case errors.Is(err, domain.ErrTOTPNotConfigured):
			httputil.Error(w, http.StatusBadRequest, "run setup before activating")
		default:
			h.logger.Error("failed to activate TOTP", "user_id", userID, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to activate two-factor authentication")
		}
		return
	}
	if !activated {
		httputil.Error(w, http.StatusUnauthorized, "invalid verification code")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"totp_enabled": true})
}

// DisableRequest represents the request body for disabling MFA. Both
// the password and a current code are required.
type DisableRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Disable handles POST /v1/me/mfa/disable.
func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user", "user_id", userID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to disable two-factor authentication")
		return
	}
	if !user.TOTPEnabled {
		httputil.Error(w, http.StatusBadRequest, "two-factor authentication is not enabled")
		return
	}
	if !h.passwords.Verify(req.Password, user.PasswordHash) {
		httputil.Error(w, http.StatusUnauthorized, "invalid password")
		return
	}
	if !otp.Verify(user.TOTPSecret, req.Code, h.totpWindow) {
		httputil.Error(w, http.StatusUnauthorized, "invalid verification code")
		return
	}

	if err := h.mfaService.DisableTOTP(ctx, userID); err != nil {
		h.logger.Error("failed to disable TOTP", "user_id", userID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to disable two-factor authentication")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"totp_enabled": false})
}

// RegenerateRequest represents the request body for regenerating backup codes.
type RegenerateRequest struct {
	Password string `json:"password"`
}

// RegenerateResponse carries the fresh backup-code batch.
type RegenerateResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// RegenerateBackupCodes handles POST /v1/me/mfa/backup-codes.
func (h *Handler) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.verifyPassword(ctx, userID, req.Password) {
		httputil.Error(w, http.StatusUnauthorized, "invalid password")
		return
	}

	codes, err := h.mfaService.RegenerateBackupCodes(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrTOTPNotEnabled) {
			httputil.Error(w, http.StatusBadRequest, "two-factor authentication is not enabled")
			return
		}
		h.logger.Error("failed to regenerate backup codes", "user_id", userID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to regenerate backup codes")
		return
	}

	httputil.JSON(w, http.StatusOK, RegenerateResponse{BackupCodes: codes})
}

func (h *Handler) verifyPassword(ctx context.Context, userID uuid.UUID, password string) bool {
	if password == "" {
		return false
	}
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return false
	}
	return h.passwords.Verify(password, user.PasswordHash)
}

// qrDataURI renders the provisioning URI as a PNG data URI. A render
// failure degrades to an empty string; clients still have the URI.
func qrDataURI(logger *slog.Logger, uri string) string {
	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		logger.Error("failed to render QR code", "error", err)
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
