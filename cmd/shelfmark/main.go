package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shelfmark/shelfmark/internal/config"
	httpserver "github.com/shelfmark/shelfmark/internal/http"
	"github.com/shelfmark/shelfmark/internal/notification"
	"github.com/shelfmark/shelfmark/pkg/auth"
	"github.com/shelfmark/shelfmark/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// TOTP secrets are encrypted at rest when a key is configured.
	var cipher *repository.SecretCipher
	if key, _ := cfg.EncryptionKey(); key != nil {
		cipher, err = repository.NewSecretCipher(key)
		if err != nil {
			logger.Error("failed to initialize secret cipher", "error", err)
			os.Exit(1)
		}
		logger.Info("TOTP secret encryption enabled")
	}

	usersRepo := repository.NewUsersRepository(db, cipher)
	sessionsRepo := repository.NewSessionsRepository(db)
	tokensRepo := repository.NewVerificationTokensRepository(db)
	itemsRepo := repository.NewItemsRepository(db)

	passwords := auth.Argon2Verifier{}

	loginService := auth.NewLoginService(auth.LoginConfig{
		MaxFailedAttempts: cfg.MaxFailedLogins,
		LockoutDuration:   cfg.LockoutDuration,
		TOTPWindow:        cfg.TOTPWindow,
	}, usersRepo, passwords)

	sessionService := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		JWTSecret:       []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
	}, sessionsRepo)

	accountService := auth.NewAccountService(auth.AccountConfig{
		EmailVerificationTTL: cfg.EmailVerificationTTL,
	}, usersRepo, tokensRepo)

	mfaService := auth.NewMFAService(auth.MFAConfig{
		Issuer:     cfg.TOTPIssuer,
		TOTPWindow: cfg.TOTPWindow,
	}, usersRepo)

	var mailer notification.Mailer
	if cfg.HasSMTP() {
		mailer = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			FromName: cfg.TOTPIssuer,
		})
		logger.Info("email delivery enabled")
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		LoginService:    loginService,
		SessionService:  sessionService,
		AccountService:  accountService,
		MFAService:      mfaService,
		Users:           usersRepo,
		Passwords:       passwords,
		ItemsRepo:       itemsRepo,
		Mailer:          mailer,
		AppBaseURL:      cfg.AppBaseURL,
		TOTPWindow:      cfg.TOTPWindow,
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
		CookieSecure:    strings.HasPrefix(cfg.AppBaseURL, "https://"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
