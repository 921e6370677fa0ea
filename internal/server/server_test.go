package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/auth"
	"github.com/emilythestrangee/devflow/backend/internal/config"
	"github.com/emilythestrangee/devflow/backend/internal/handlers"
	"github.com/emilythestrangee/devflow/backend/internal/middleware"
	"github.com/emilythestrangee/devflow/backend/internal/service"
	"github.com/emilythestrangee/devflow/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDB struct {
	status string
}

func (f fakeDB) Health() map[string]string { return map[string]string{"status": f.status} }
func (fakeDB) Close() error                { return nil }
func (fakeDB) GetDB() *gorm.DB             { return nil }

func newTestServer(db fakeDB, limiter *middleware.Limiter) (*Server, *auth.Tokens) {
	tokens := auth.NewTokens("secret", time.Hour)
	svc := service.New(store.New(nil), tokens, nil)
	cfg := config.Default()
	cfg.ClientURLs = []string{"http://localhost:3000"}

	return &Server{cfg: cfg, deps: Deps{
		DB:      db,
		Handler: handlers.NewHandler(svc, nil, ""),
		Tokens:  tokens,
		Limiter: limiter,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}}, tokens
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(fakeDB{status: "up"}, nil)
	w := serve(s.RegisterRoutes(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"up"}`, w.Body.String())

	s, _ = newTestServer(fakeDB{status: "down"}, nil)
	w = serve(s.RegisterRoutes(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(fakeDB{status: "up"}, nil)

	w := serve(s.RegisterRoutes(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "devflow_atomic_aborts_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s, _ := newTestServer(fakeDB{status: "up"}, nil)
	r := s.RegisterRoutes()

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/questions"},
		{http.MethodPut, "/api/questions/1"},
		{http.MethodDelete, "/api/questions/1"},
		{http.MethodPost, "/api/questions/1/answers"},
		{http.MethodDelete, "/api/answers/1"},
		{http.MethodPost, "/api/votes"},
		{http.MethodGet, "/api/votes"},
		{http.MethodPost, "/api/collections"},
		{http.MethodGet, "/api/collections"},
		{http.MethodGet, "/api/collections/1"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"error":{"message":"unauthorized"}}`, w.Body.String())
		})
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	s, tokens := newTestServer(fakeDB{status: "up"}, middleware.NewLimiter(0.001, 1))
	r := s.RegisterRoutes()
	token, err := tokens.Issue(3, "gopher", "gopher@example.com")
	require.NoError(t, err)

	vote := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/votes", bytes.NewBufferString("not json"))
		req.Header.Set("Authorization", "Bearer "+token)
		return serve(r, req)
	}

	assert.Equal(t, http.StatusBadRequest, vote().Code)
	w := vote()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestAnonymousViewsAreRateLimited(t *testing.T) {
	s, _ := newTestServer(fakeDB{status: "up"}, middleware.NewLimiter(0.001, 1))
	r := s.RegisterRoutes()

	view := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/questions/abc/views", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req)
	}

	assert.Equal(t, http.StatusBadRequest, view("10.0.0.1").Code)
	w := view("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusBadRequest, view("10.0.0.2").Code, "other clients keep their own budget")
}

func TestOAuthDisabledWithoutSecret(t *testing.T) {
	s, _ := newTestServer(fakeDB{status: "up"}, nil)

	w := serve(s.RegisterRoutes(), httptest.NewRequest(http.MethodPost, "/api/auth/oauth", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(fakeDB{status: "up"}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := serve(s.RegisterRoutes(), req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServerAddr(t *testing.T) {
	cfg := config.Default()
	cfg.Port = "9999"

	srv := NewServer(cfg, Deps{
		DB:      fakeDB{status: "up"},
		Handler: handlers.NewHandler(service.New(store.New(nil), auth.NewTokens("s", time.Hour), nil), nil, ""),
		Tokens:  auth.NewTokens("s", time.Hour),
	})

	assert.Equal(t, "0.0.0.0:9999", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
