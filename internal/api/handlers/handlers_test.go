package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgetbook/backend/internal/api/middleware"
	"github.com/budgetbook/backend/internal/domain"
	"github.com/budgetbook/backend/internal/identity"
	identitymem "github.com/budgetbook/backend/internal/identity/memory"
	"github.com/budgetbook/backend/internal/lifecycle"
	"github.com/budgetbook/backend/internal/store"
	storemem "github.com/budgetbook/backend/internal/store/memory"
)

type testEnv struct {
	store *storemem.Store
	ids   *identitymem.Service
	mux   http.Handler
}

// newTestEnv wires the full authenticated API surface against in-memory
// fakes, mirroring the cmd/server routing.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := storemem.NewStore()
	ids := identitymem.NewService()
	log := zerolog.Nop()

	svc := lifecycle.New(st, ids, log)
	accountHandler := NewAccountHandler(svc, log)
	settingsHandler := NewSettingsHandler(st, log)
	transactionsHandler := NewTransactionsHandler(st, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/account/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			accountHandler.DeleteAccount(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/v1/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settingsHandler.GetSettings(w, r)
		case http.MethodPut:
			settingsHandler.SaveSettings(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.AddTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/v1/transactions/", func(w http.ResponseWriter, r *http.Request) {
		transactionID := strings.TrimPrefix(r.URL.Path, "/v1/transactions/")
		if r.Method == http.MethodDelete && transactionID != "" {
			transactionsHandler.DeleteTransaction(w, r, transactionID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})

	return &testEnv{
		store: st,
		ids:   ids,
		mux:   middleware.Auth(ids)(mux),
	}
}

func (e *testEnv) addUser(t *testing.T, uid, token string, anonymous bool) {
	t.Helper()
	e.ids.AddUser(identity.User{UID: uid, Anonymous: anonymous})
	e.ids.AddToken(token, uid)
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func TestDeleteAccount_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/account/delete", "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != middleware.CodeUnauthenticated {
		t.Errorf("code = %v, want %q", body["code"], middleware.CodeUnauthenticated)
	}

	// No side effects before authentication.
	if _, err := env.store.GetSettings(context.Background(), "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unexpected settings state: %v", err)
	}
}

func TestDeleteAccount_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(t, "alice", "token-alice", false)
	if err := env.store.SaveSettings(ctx, "alice", &domain.Settings{Budget: 500, Currency: "$"}); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := env.store.AddTransaction(ctx, "alice", &domain.Transaction{
			Description: "tx", Type: domain.TypeExpense, Amount: 1, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("AddTransaction() failed: %v", err)
		}
	}

	rec := env.do(http.MethodPost, "/v1/account/delete", "token-alice", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	want := "Successfully deleted user alice and all associated data."
	if body["message"] != want {
		t.Errorf("message = %v, want %q", body["message"], want)
	}

	if _, err := env.store.GetSettings(ctx, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("settings survived deletion: %v", err)
	}
	if env.ids.Exists("alice") {
		t.Error("identity survived deletion")
	}
}

func TestDeleteAccount_IgnoresBodySuppliedUID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(t, "alice", "token-alice", false)
	env.addUser(t, "bob", "token-bob", false)
	if err := env.store.SaveSettings(ctx, "bob", &domain.Settings{Budget: 100, Currency: "$"}); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}

	// Alice tries to delete bob; the UID in the body must be ignored.
	rec := env.do(http.MethodPost, "/v1/account/delete", "token-alice", `{"uid":"bob"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if !env.ids.Exists("bob") {
		t.Error("bob's identity was deleted by alice's request")
	}
	if _, err := env.store.GetSettings(ctx, "bob"); err != nil {
		t.Errorf("bob's settings were deleted by alice's request: %v", err)
	}
	if env.ids.Exists("alice") {
		t.Error("alice's identity was not deleted")
	}
}

func TestDeleteAccount_AlreadyDeleted(t *testing.T) {
	env := newTestEnv(t)

	env.addUser(t, "alice", "token-alice", false)

	if rec := env.do(http.MethodPost, "/v1/account/delete", "token-alice", ""); rec.Code != http.StatusOK {
		t.Fatalf("first delete status = %d, want 200", rec.Code)
	}

	// The token is still verifiable in the fake; the identity is gone.
	rec := env.do(http.MethodPost, "/v1/account/delete", "token-alice", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != middleware.CodeNotFound {
		t.Errorf("code = %v, want %q", body["code"], middleware.CodeNotFound)
	}
}

func TestSettings_SaveAndGet(t *testing.T) {
	env := newTestEnv(t)

	env.addUser(t, "alice", "token-alice", false)

	rec := env.do(http.MethodPut, "/v1/settings", "token-alice", `{"budget":500,"currency":"$","appTitle":"Family Budget"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/v1/settings", "token-alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["budget"] != float64(500) || body["currency"] != "$" {
		t.Errorf("settings = %v, want budget 500 and currency $", body)
	}
}

func TestSettings_GetMissingIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	env.addUser(t, "alice", "token-alice", false)

	rec := env.do(http.MethodGet, "/v1/settings", "token-alice", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSettings_SaveValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "token-alice", false)

	tests := []struct {
		name string
		body string
	}{
		{name: "negative budget", body: `{"budget":-5,"currency":"$"}`},
		{name: "missing currency", body: `{"budget":100}`},
		{name: "malformed json", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPut, "/v1/settings", "token-alice", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestTransactions_AddListDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(t, "alice", "token-alice", false)
	if err := env.store.SaveSettings(ctx, "alice", &domain.Settings{Budget: 500, Currency: "$"}); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}

	rec := env.do(http.MethodPost, "/v1/transactions", "token-alice", `{"description":"groceries","type":"expense","amount":42.5,"notes":"weekly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	transactionID, _ := created["id"].(string)
	if transactionID == "" {
		t.Fatal("created transaction has no ID")
	}

	rec = env.do(http.MethodGet, "/v1/transactions", "token-alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}

	rec = env.do(http.MethodDelete, "/v1/transactions/"+transactionID, "token-alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}

	rec = env.do(http.MethodGet, "/v1/transactions", "token-alice", "")
	if body := decodeBody(t, rec); body["count"] != float64(0) {
		t.Errorf("count after delete = %v, want 0", body["count"])
	}
}

func TestTransactions_AddValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "token-alice", false)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing description", body: `{"amount":10}`},
		{name: "zero amount", body: `{"description":"x","amount":0}`},
		{name: "negative amount", body: `{"description":"x","amount":-3}`},
		{name: "unknown type", body: `{"description":"x","amount":3,"type":"transfer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/transactions", "token-alice", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactions_AddStampsActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(t, "alice", "token-alice", false)

	stale := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env.store.SetClock(func() time.Time { return stale })
	if err := env.store.SaveSettings(ctx, "alice", &domain.Settings{Budget: 500, Currency: "$"}); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}

	rec := env.do(http.MethodPost, "/v1/transactions", "token-alice", `{"description":"coffee","amount":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201", rec.Code)
	}

	settings, err := env.store.GetSettings(ctx, "alice")
	if err != nil {
		t.Fatalf("GetSettings() failed: %v", err)
	}
	if settings.LastActivity.Equal(stale) {
		t.Error("LastActivity was not refreshed by adding a transaction")
	}
}
