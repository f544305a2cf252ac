package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/venue-finder/internal/auth"
	"github.com/octobees/venue-finder/internal/config"
	"github.com/octobees/venue-finder/internal/entity"
	"github.com/octobees/venue-finder/internal/handler"
	"github.com/octobees/venue-finder/internal/i18n"
	"github.com/octobees/venue-finder/internal/service"
	"github.com/octobees/venue-finder/internal/service/search"
	"github.com/octobees/venue-finder/internal/telegram"
)

type emptySearcher struct{}

func (emptySearcher) Search(ctx context.Context, p search.Params) ([]entity.Place, error) {
	return []entity.Place{}, nil
}

type countingSubmitter struct{ n int }

func (s *countingSubmitter) Submit(ctx context.Context, u telegram.Update) { s.n++ }

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	tr, err := i18n.New(i18n.DefaultLanguage)
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}

	cfg := &config.Config{
		BotMode:         config.ModeWebhook,
		RateLimitSearch: config.RateLimitConfig{Requests: 1, Interval: time.Minute},
	}
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	submitter := &countingSubmitter{}

	e := echo.New()
	Register(e, cfg, jwtManager, Handlers{
		Auth:    handler.NewAuthHandler(service.NewAuthService("ops@example.com", string(hash), jwtManager), jwtManager.TTL()),
		Search:  handler.NewSearchHandler(emptySearcher{}, tr, nil),
		Webhook: handler.NewWebhookHandler(submitter, "", nil),
	})

	if rec := do(e, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	if rec := do(e, http.MethodPost, WebhookPath, `{"update_id":1}`, ""); rec.Code != http.StatusOK || submitter.n != 1 {
		t.Fatalf("webhook: expected 200 and one submitted update, got %d/%d", rec.Code, submitter.n)
	}

	const searchBody = `{"latitude":55.75,"longitude":37.61,"radius_meters":100,"rating_min":4,"rating_max":5}`
	if rec := do(e, http.MethodPost, "/api/search", searchBody, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("search without token: expected 401, got %d", rec.Code)
	}

	rec := do(e, http.MethodPost, "/auth/login", `{"email":"ops@example.com","password":"password"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	if rec := do(e, http.MethodPost, "/api/search", searchBody, login.Data.AccessToken); rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodPost, "/api/search", searchBody, login.Data.AccessToken); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("search: expected 429 on second call, got %d", rec.Code)
	}

	otherRole, _ := jwtManager.GenerateToken("u", "u@example.com", "viewer")
	if rec := do(e, http.MethodPost, "/api/search", searchBody, otherRole); rec.Code != http.StatusForbidden {
		t.Fatalf("search with wrong role: expected 403, got %d", rec.Code)
	}
}

func TestRegister_PollingWithoutOperator(t *testing.T) {
	e := echo.New()
	Register(e, &config.Config{BotMode: config.ModePolling}, auth.NewJWTManager("secret", 0), Handlers{})

	if rec := do(e, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	for _, path := range []string{WebhookPath, "/auth/login", "/api/search"} {
		if rec := do(e, http.MethodPost, path, "{}", ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}
