package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/venue-finder/internal/auth"
	"github.com/octobees/venue-finder/internal/dto"
	"github.com/octobees/venue-finder/internal/service"
)

func newAuthHandler(t *testing.T, email string) (*AuthHandler, *auth.JWTManager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := service.NewAuthService(email, string(hash), jwtManager)
	return NewAuthHandler(svc, jwtManager.TTL()), jwtManager
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login(t *testing.T) {
	e := echo.New()

	tests := map[string]struct {
		email      string
		body       string
		expectCode int
	}{
		"invalid payload":     {email: "ops@example.com", body: "{", expectCode: http.StatusBadRequest},
		"missing fields":      {email: "ops@example.com", body: `{"email":" "}`, expectCode: http.StatusBadRequest},
		"wrong password":      {email: "ops@example.com", body: `{"email":"ops@example.com","password":"nope"}`, expectCode: http.StatusUnauthorized},
		"unknown email":       {email: "ops@example.com", body: `{"email":"x@example.com","password":"password"}`, expectCode: http.StatusUnauthorized},
		"operator not set up": {email: "", body: `{"email":"ops@example.com","password":"password"}`, expectCode: http.StatusServiceUnavailable},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			handler, _ := newAuthHandler(t, tt.email)
			c, rec := postJSON(e, "/auth/login", tt.body)
			if err := handler.Login(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.expectCode {
				t.Fatalf("expected %d, got %d", tt.expectCode, rec.Code)
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		handler, manager := newAuthHandler(t, "ops@example.com")
		c, rec := postJSON(e, "/auth/login", `{"email":"ops@example.com","password":"password"}`)
		if err := handler.Login(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var payload struct {
			Status string            `json:"status"`
			Data   dto.LoginResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Data.TokenType != "Bearer" || payload.Data.ExpiresIn != 3600 {
			t.Fatalf("unexpected response: %+v", payload.Data)
		}
		claims, err := manager.ParseToken(payload.Data.AccessToken)
		if err != nil {
			t.Fatalf("parse token: %v", err)
		}
		if claims.Role != auth.RoleOperator {
			t.Fatalf("expected operator role, got %q", claims.Role)
		}
	})
}
