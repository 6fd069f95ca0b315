package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Session is the resolved connection state for one sync call
type Session struct {
	ServerURL string
	Token     string
}

// AuthResult is the server response to a successful login
type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// AuthUser identifies the cloud account behind a session token
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PullData is the per-entity payload of a pull response
type PullData struct {
	Branches  []BranchRecord   `json:"branches"`
	Users     []UserRecord     `json:"users"`
	Medicines []MedicineRecord `json:"medicines"`
	Customers []CustomerRecord `json:"customers"`
	Suppliers []SupplierRecord `json:"suppliers"`
}

// PullResponse is the body of GET /api/sync
type PullResponse struct {
	Success  bool      `json:"success"`
	SyncedAt time.Time `json:"syncedAt"`
	Data     PullData  `json:"data"`
}

// PushRequest is the body of POST /api/sync. Only populated collections
// are serialized.
type PushRequest struct {
	Branches       []BranchRecord        `json:"branches,omitempty"`
	Users          []UserRecord          `json:"users,omitempty"`
	Medicines      []MedicineRecord      `json:"medicines,omitempty"`
	Customers      []CustomerRecord      `json:"customers,omitempty"`
	Suppliers      []SupplierRecord      `json:"suppliers,omitempty"`
	Sales          []SaleRecord          `json:"sales,omitempty"`
	PurchaseOrders []PurchaseOrderRecord `json:"purchaseOrders,omitempty"`
	GRNs           []GRNRecord           `json:"grns,omitempty"`
	Deletions      []DeletionRecord      `json:"deletions,omitempty"`
}

// PushResponse is the body of a successful upload
type PushResponse struct {
	Success bool             `json:"success"`
	Results map[string]int64 `json:"results"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    AuthUser `json:"user"`
	Message string   `json:"message"`
}

// Client speaks the cloud replication protocol
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a protocol client with the given per-request timeout
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Authenticate exchanges credentials for a bearer token
func (c *Client) Authenticate(ctx context.Context, serverURL, email, password string) (*AuthResult, error) {
	if serverURL == "" {
		return nil, errUnconfigured()
	}
	body, err := json.Marshal(authRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(serverURL, "/")+"/api/sync/auth", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errTransient("auth request failed", err)
	}
	defer resp.Body.Close()

	var out authResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Token == "" {
		return nil, errUnauthenticated("login rejected: "+out.Message, nil)
	}
	return &AuthResult{Token: out.Token, User: out.User}, nil
}

// Pull fetches records changed since the watermark. A zero since means
// never pulled and requests the full snapshot.
func (c *Client) Pull(ctx context.Context, session Session, since time.Time) (*PullResponse, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(session.ServerURL, "/") + "/api/sync"
	if !since.IsZero() {
		q := url.Values{}
		q.Set("lastSyncAt", since.UTC().Format(time.RFC3339Nano))
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errTransient("pull request failed", err)
	}
	defer resp.Body.Close()

	var out PullResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errRejected("server refused pull", nil)
	}
	return &out, nil
}

// Push uploads a batch of entity snapshots
func (c *Client) Push(ctx context.Context, session Session, payload PushRequest) (*PushResponse, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(session.ServerURL, "/")+"/api/sync", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errTransient("push request failed", err)
	}
	defer resp.Body.Close()

	var out PushResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errRejected("server refused push", nil)
	}
	return &out, nil
}

// checkSession validates the session before any request goes out. The
// token expiry check is local only: the signature is the server's to
// verify, but a token known to be expired is not worth a round trip.
func checkSession(session Session) error {
	if session.ServerURL == "" {
		return errUnconfigured()
	}
	if session.Token == "" {
		return errUnauthenticated("no auth token stored", nil)
	}
	if expired, err := tokenExpired(session.Token); err == nil && expired {
		return errUnauthenticated("stored token has expired", nil)
	}
	return nil
}

// tokenExpired inspects the token's exp claim without verifying the
// signature. Malformed tokens are left for the server to reject.
func tokenExpired(token string) (bool, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return exp.Before(time.Now()), nil
}

// decodeResponse maps the HTTP status to the failure taxonomy and
// unmarshals the body on success
func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return errTransient("reading response body", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errUnauthenticated(fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return errTransient(fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return errRejected(fmt.Sprintf("server returned %d: %s", resp.StatusCode, truncate(raw, 200)), nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errRejected("malformed response body", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
