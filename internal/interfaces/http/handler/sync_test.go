package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncapp "github.com/meditrack/backend/internal/application/sync"
	"github.com/meditrack/backend/internal/cloudsim"
	"github.com/meditrack/backend/internal/infrastructure/config"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
	"github.com/meditrack/backend/internal/interfaces/http/handler"
	"github.com/meditrack/backend/internal/interfaces/http/router"
)

// newEngine builds the daemon's HTTP surface over an in-memory store and
// an in-process cloud. serverURL may be empty to simulate a daemon with
// no replication configured.
func newEngine(t *testing.T, serverURL string) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	adapter := persistence.NewSQLiteAdapter(persistence.SQLiteConfig{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, adapter.Connect(ctx))
	t.Cleanup(func() { _ = adapter.Disconnect() })
	require.NoError(t, adapter.Initialize(ctx))

	branches := persistence.NewBranchRepository(adapter)
	users := persistence.NewUserRepository(adapter)
	medicines := persistence.NewMedicineRepository(adapter)
	customers := persistence.NewCustomerRepository(adapter)
	suppliers := persistence.NewSupplierRepository(adapter)
	outboxRepo := persistence.NewOutboxRepository(adapter)
	settings := persistence.NewSettingsRepository(adapter)

	client := syncapp.NewClient(5*time.Second, zap.NewNop())
	pusher := syncapp.NewPusher(client, syncapp.Repositories{
		Outbox:         outboxRepo,
		Branches:       branches,
		Users:          users,
		Medicines:      medicines,
		Customers:      customers,
		Suppliers:      suppliers,
		Sales:          persistence.NewSaleRepository(adapter),
		PurchaseOrders: persistence.NewPurchaseOrderRepository(adapter),
		GRNs:           persistence.NewGRNRepository(adapter),
	}, 100, zap.NewNop())
	puller := syncapp.NewPuller(client, branches, users, medicines, customers, suppliers, settings, zap.NewNop())
	orch := syncapp.NewOrchestrator(client, pusher, puller, outboxRepo, settings, adapter, config.SyncConfig{
		ServerURL:       serverURL,
		BatchSize:       100,
		RequestTimeout:  5 * time.Second,
		OutboxRetention: 24 * time.Hour,
	}, zap.NewNop())

	db := persistence.NewDatabaseWithAdapter(adapter, zap.NewNop())
	return router.New(handler.NewSyncHandler(orch, zap.NewNop()), handler.NewSystemHandler(db), zap.NewNop())
}

func newCloud(t *testing.T) *httptest.Server {
	t.Helper()
	sim := cloudsim.New("handler-secret", zap.NewNop())
	require.NoError(t, sim.AddAccount("dev@example.com", "password1", "Dev", "admin"))
	srv := httptest.NewServer(sim.Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	engine := newEngine(t, "")

	w := do(engine, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "sqlite", out["database"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStatusEndpoint(t *testing.T) {
	engine := newEngine(t, "http://cloud.example.com")

	w := do(engine, http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status syncapp.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
	assert.False(t, status.Authenticated)
	assert.False(t, status.Syncing)
	assert.Zero(t, status.PendingCount)
}

func TestTriggerUnconfigured(t *testing.T) {
	engine := newEngine(t, "")

	w := do(engine, http.MethodPost, "/api/sync/trigger", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "unconfigured", out["kind"])
}

func TestTriggerUnauthenticated(t *testing.T) {
	engine := newEngine(t, newCloud(t).URL)

	w := do(engine, http.MethodPost, "/api/sync/trigger", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginValidation(t *testing.T) {
	engine := newEngine(t, newCloud(t).URL)

	w := do(engine, http.MethodPost, "/api/sync/login", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	engine := newEngine(t, newCloud(t).URL)

	w := do(engine, http.MethodPost, "/api/sync/login", map[string]string{
		"email":    "dev@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginThenTrigger(t *testing.T) {
	engine := newEngine(t, newCloud(t).URL)

	w := do(engine, http.MethodPost, "/api/sync/login", map[string]string{
		"email":    "dev@example.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(engine, http.MethodPost, "/api/sync/trigger", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Success bool           `json:"success"`
		Result  syncapp.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Success)
	require.NotNil(t, out.Result.Pull)
	assert.True(t, out.Result.Pull.Full)

	// Logout drops the session; the next trigger is unauthenticated.
	w = do(engine, http.MethodPost, "/api/sync/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(engine, http.MethodPost, "/api/sync/trigger", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
