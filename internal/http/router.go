// Package http wires the feature handlers into a single router.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/http/features/account"
	"github.com/shelfmark/shelfmark/internal/http/features/library"
	"github.com/shelfmark/shelfmark/internal/http/features/login"
	"github.com/shelfmark/shelfmark/internal/http/features/mfa"
	"github.com/shelfmark/shelfmark/internal/http/features/session"
	"github.com/shelfmark/shelfmark/internal/http/middleware"
	"github.com/shelfmark/shelfmark/internal/httputil"
	"github.com/shelfmark/shelfmark/internal/notification"
	"github.com/shelfmark/shelfmark/pkg/auth"
	"github.com/shelfmark/shelfmark/pkg/repository"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger         *slog.Logger
	LoginService   *auth.LoginService
	SessionService *auth.SessionService
	AccountService *auth.AccountService
	MFAService     *auth.MFAService
	Users          auth.UserStore
	Passwords      auth.PasswordVerifier
	ItemsRepo      *repository.ItemsRepository
	Mailer         notification.Mailer // nil disables outbound mail

	AppBaseURL      string
	TOTPWindow      int
	LoginRateLimit  int
	LoginRateWindow time.Duration
	CookieSecure    bool
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestSizeLimit(maxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	cookieConfig := httputil.DefaultCookieConfig()
	cookieConfig.Secure = cfg.CookieSecure

	loginLimiter := middleware.NoRateLimit()
	if cfg.LoginRateLimit > 0 {
		loginLimiter = middleware.RateLimit(middleware.RateLimitConfig{
			Requests: cfg.LoginRateLimit,
			Window:   cfg.LoginRateWindow,
			Logger:   cfg.Logger,
		})
	}

	loginHandler := login.NewHandler(cfg.Logger, cfg.LoginService, cfg.SessionService,
		cfg.AccountService, cfg.Mailer, cfg.AppBaseURL, cookieConfig)
	accountHandler := account.NewHandler(cfg.Logger, cfg.AccountService, cfg.Mailer, cfg.AppBaseURL)
	r.Group(func(r chi.Router) {
		r.Use(loginLimiter)
		r.Post("/v1/auth/login", loginHandler.Login)
		r.Post("/v1/auth/register", accountHandler.Register)
	})
	r.Get("/v1/auth/verify-email", accountHandler.VerifyEmail)

	sessionHandler := session.NewHandler(cfg.SessionService, cfg.Users, cookieConfig)
	r.Post("/v1/auth/refresh", sessionHandler.Refresh)
	r.Post("/v1/auth/logout", sessionHandler.Logout)

	requireAuth := middleware.Auth(cfg.SessionService)
	r.With(requireAuth).Post("/v1/auth/logout/all", sessionHandler.LogoutAll)

	mfaHandler := mfa.NewHandler(cfg.Logger, cfg.MFAService, cfg.Users, cfg.Passwords, cfg.TOTPWindow)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/v1/me/mfa/setup", mfaHandler.Setup)
		r.Post("/v1/me/mfa/activate", mfaHandler.Activate)
		r.Post("/v1/me/mfa/disable", mfaHandler.Disable)
		r.Post("/v1/me/mfa/backup-codes", mfaHandler.RegenerateBackupCodes)
	})

	libraryHandler := library.NewHandler(cfg.Logger, cfg.ItemsRepo)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/v1/items", libraryHandler.Create)
		r.Get("/v1/items", libraryHandler.List)
		r.Get("/v1/items/{id}", libraryHandler.Get)
		r.Put("/v1/items/{id}", libraryHandler.Update)
		r.Delete("/v1/items/{id}", libraryHandler.Delete)
	})

	return r
}
