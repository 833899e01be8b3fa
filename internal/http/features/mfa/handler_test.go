package mfa

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/internal/http/middleware"
)

func newTestHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, nil, nil, nil, 0)
}

func authedRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	return req.WithContext(ctx)
}

func TestSetup_Unauthenticated(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/v1/me/mfa/setup", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	handler.Setup(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestActivate_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "invalid json",
			body:           `{invalid}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "missing code",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "code is required",
		},
	}

	handler := newTestHandler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Activate(rec, authedRequest(http.MethodPost, "/v1/me/mfa/activate", tt.body))

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}

			var response map[string]string
			json.NewDecoder(rec.Body).Decode(&response)
			if response["error"] != tt.expectedError {
				t.Errorf("Error = %q, want %q", response["error"], tt.expectedError)
			}
		})
	}
}

func TestQRDataURI(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	uri := qrDataURI(logger, "otpauth://totp/Shelfmark:alice@example.com?secret=ABC&issuer=Shelfmark")
	if uri == "" {
		t.Fatal("qrDataURI returned empty string")
	}
	const prefix = "data:image/png;base64,"
	if len(uri) <= len(prefix) || uri[:len(prefix)] != prefix {
		t.Errorf("qrDataURI should return a PNG data URI, got %.40q", uri)
	}
}
