package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/internal/store/memstore"
	"github.com/stretchr/testify/require"
)

const testPasscode = "011090"

type testAPI struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := memstore.New()
	issuer := auth.NewIssuer("handler-secret", "memberhub", testPasscode)
	log := logging.Discard()

	svc := Services{
		Users:    services.NewUserService(db.Users(), db.Ledger(), issuer, nil),
		Ledger:   services.NewLedgerService(db.Ledger(), nil),
		Vouchers: services.NewVoucherService(db.Vouchers(), nil),
		Chat:     services.NewChatService(db.Chat(), nil),
		Exports:  services.NewExportService(db.Ledger(), nil, log),
	}
	r := chi.NewRouter()
	Mount(r, svc, issuer, log)
	return &testAPI{t: t, router: r}
}

// do sends a JSON request and decodes the JSON response into a map.
func (a *testAPI) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	}
	return rec.Code, out
}

func (a *testAPI) registerAndLogin(username, password string) string {
	a.t.Helper()
	email := username + "@x.com"
	status, _ := a.do(http.MethodPost, "/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(a.t, http.StatusCreated, status)

	status, body := a.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/admin-login", "", map[string]string{"passcode": testPasscode})
	require.Equal(a.t, http.StatusOK, status)
	return body["token"].(string)
}

func (a *testAPI) balance(token string) float64 {
	a.t.Helper()
	status, body := a.do(http.MethodGet, "/profile", token, nil)
	require.Equal(a.t, http.StatusOK, status)
	return body["balance"].(float64)
}
