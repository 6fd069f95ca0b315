package cloudsim

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncapp "github.com/meditrack/backend/internal/application/sync"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sim := New("unit-secret", zap.NewNop())
	require.NoError(t, sim.AddAccount("dev@example.com", "password1", "Dev", "admin"))
	srv := httptest.NewServer(sim.Router())
	t.Cleanup(srv.Close)
	return sim, srv
}

func authenticate(t *testing.T, srv *httptest.Server, email, password string) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/sync/auth", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAuthIssuesToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp, out := authenticate(t, srv, "dev@example.com", "password1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])

	raw, _ := out["token"].(string)
	require.NotEmpty(t, raw)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte("unit-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", claims["email"])
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	_, srv := newTestServer(t)

	resp, out := authenticate(t, srv, "dev@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, out["success"])

	resp, _ = authenticate(t, srv, "nobody@example.com", "password1")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPullRequiresBearerToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/sync")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/sync", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer forged-token")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestPullFiltersByWatermark(t *testing.T) {
	sim, srv := newTestServer(t)
	_, out := authenticate(t, srv, "dev@example.com", "password1")
	token, _ := out["token"].(string)

	sim.SeedSupplier(syncapp.SupplierRecord{ID: uuid.New(), Name: "Seeded Supplier"})

	pull := func(since string) syncapp.PullResponse {
		url := srv.URL + "/api/sync"
		if since != "" {
			url += "?lastSyncAt=" + since
		}
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body syncapp.PullResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	full := pull("")
	require.True(t, full.Success)
	assert.Len(t, full.Data.Suppliers, 1)
	assert.False(t, full.SyncedAt.IsZero())

	// A watermark after the seed yields an empty delta.
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano)
	delta := pull(future)
	assert.Empty(t, delta.Data.Suppliers)
}

func TestPushStoresRecordsAndDeletions(t *testing.T) {
	sim, srv := newTestServer(t)
	_, out := authenticate(t, srv, "dev@example.com", "password1")
	token, _ := out["token"].(string)

	keepID := uuid.New()
	dropID := uuid.New()
	sim.SeedMedicine(syncapp.MedicineRecord{ID: dropID, Name: "To Drop", BatchNo: "B-0"})

	payload := syncapp.PushRequest{
		Medicines: []syncapp.MedicineRecord{{ID: keepID, Name: "To Keep", BatchNo: "B-1"}},
		Deletions: []syncapp.DeletionRecord{{EntityType: "MEDICINE", EntityID: dropID}},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/sync", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pushed syncapp.PushResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushed))
	assert.True(t, pushed.Success)
	assert.Equal(t, int64(1), pushed.Results["medicines"])
	assert.Equal(t, int64(1), pushed.Results["deletions"])

	meds := sim.Medicines()
	require.Len(t, meds, 1)
	assert.Equal(t, keepID, meds[0].ID)

	dels := sim.Deletions()
	require.Len(t, dels, 1)
	assert.Equal(t, dropID, dels[0].EntityID)
}
