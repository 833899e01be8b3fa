package httputil

import (
	"net/http"
	"time"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // true in production (HTTPS)
	SameSite http.SameSite
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

func setCookie(w http.ResponseWriter, cfg CookieConfig, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// SetAuthCookies sets HttpOnly cookies for access and refresh tokens.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration, cfg CookieConfig) {
	setCookie(w, cfg, accessCookie, accessToken, int(accessTTL.Seconds()))
	setCookie(w, cfg, refreshCookie, refreshToken, int(refreshTTL.Seconds()))
}

// ClearAuthCookies clears auth cookies.
func ClearAuthCookies(w http.ResponseWriter, cfg CookieConfig) {
	setCookie(w, cfg, accessCookie, "", -1)
	setCookie(w, cfg, refreshCookie, "", -1)
}

// GetRefreshTokenFromCookie extracts the refresh token from its cookie.
func GetRefreshTokenFromCookie(r *http.Request) (string, bool) {
	return cookieValue(r, refreshCookie)
}

// GetAccessTokenFromCookie extracts the access token from its cookie.
func GetAccessTokenFromCookie(r *http.Request) (string, bool) {
	return cookieValue(r, accessCookie)
}

func cookieValue(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// IsMobileClient checks if the request is from a mobile client. Mobile
// clients set the header X-Client-Type: mobile and receive tokens in
// the response body instead of cookies.
func IsMobileClient(r *http.Request) bool {
	return r.Header.Get("X-Client-Type") == "mobile"
}
