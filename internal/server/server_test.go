package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memberhub/apiserver/config"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		ServerPort:  0,
		CORSOrigins: []string{"https://app.example"},
		Database:    config.DatabaseConfig{Driver: config.DriverMemory, QueryTimeout: 1},
		Auth:        config.AuthConfig{JWTSecret: "server-secret", JWTIssuer: "memberhub", AdminPasscode: "011090"},
		MQ:          config.MQConfig{Backend: config.BackendNone, EventsChannel: "memberhub.events"},
		Storage:     config.StorageConfig{Backend: config.BackendNone},
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.JWTSecret = ""

	_, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNew_MemoryDriverServesRoutes(t *testing.T) {
	srv, err := New(context.Background(), memoryConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	assert.Equal(t, ":8080", srv.httpServer.Addr)

	for _, path := range []string{"/healthz", "/api/healthz"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	body := `{"username":"alice","email":"alice@x.com","password":"secret1"}`
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCORS(t *testing.T) {
	srv, err := New(context.Background(), memoryConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
