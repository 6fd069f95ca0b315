package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/outbox"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/infrastructure/config"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

// Status is the snapshot surfaced to the UI and the companion API
type Status struct {
	Configured    bool       `json:"configured"`
	Connected     bool       `json:"connected"`
	Authenticated bool       `json:"authenticated"`
	Syncing       bool       `json:"syncing"`
	LastSyncAt    *time.Time `json:"lastSyncAt,omitempty"`
	PendingCount  int64      `json:"pendingCount"`
	SyncErrors    int64      `json:"syncErrors"`
}

// Result is the outcome of one full cycle
type Result struct {
	Push *PushStats `json:"push"`
	Pull *PullStats `json:"pull"`
}

// Orchestrator coordinates push-then-pull under a real mutual-exclusion
// guard, so a manual trigger and a periodic cycle can never interleave
// their merges.
type Orchestrator struct {
	mu       sync.Mutex
	client   *Client
	pusher   *Pusher
	puller   *Puller
	outbox   outbox.Repository
	settings *persistence.SettingsRepository
	adapter  persistence.Adapter
	cfg      config.SyncConfig
	logger   *zap.Logger

	syncing    atomic.Bool
	syncErrors atomic.Int64
}

// NewOrchestrator wires the sync engine together
func NewOrchestrator(
	client *Client,
	pusher *Pusher,
	puller *Puller,
	outboxRepo outbox.Repository,
	settings *persistence.SettingsRepository,
	adapter persistence.Adapter,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		client:   client,
		pusher:   pusher,
		puller:   puller,
		outbox:   outboxRepo,
		settings: settings,
		adapter:  adapter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Login authenticates against the configured server and persists the
// session token for subsequent cycles
func (o *Orchestrator) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	serverURL, err := o.serverURL(ctx)
	if err != nil {
		return nil, err
	}
	if serverURL == "" {
		return nil, errUnconfigured()
	}

	result, err := o.client.Authenticate(ctx, serverURL, email, password)
	if err != nil {
		return nil, err
	}

	if err := o.settings.Set(ctx, KeyServerURL, serverURL); err != nil {
		return nil, err
	}
	if err := o.settings.Set(ctx, KeyAuthToken, result.Token); err != nil {
		return nil, err
	}
	o.logger.Info("cloud login succeeded", zap.String("email", email))
	return result, nil
}

// Logout discards the stored session token
func (o *Orchestrator) Logout(ctx context.Context) error {
	return o.settings.Delete(ctx, KeyAuthToken)
}

// Sync runs one push-then-pull cycle. A second caller arriving while a
// cycle runs gets ErrSyncInProgress instead of queueing.
func (o *Orchestrator) Sync(ctx context.Context, progress ProgressFunc) (*Result, error) {
	if !o.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer o.mu.Unlock()

	o.syncing.Store(true)
	defer o.syncing.Store(false)

	session, err := o.session(ctx)
	if err != nil {
		o.syncErrors.Add(1)
		return nil, err
	}

	result := &Result{}

	result.Push, err = o.pusher.Run(ctx, session)
	if err != nil {
		o.syncErrors.Add(1)
		return result, err
	}

	result.Pull, err = o.puller.Run(ctx, session, progress)
	if err != nil {
		o.syncErrors.Add(1)
		return result, err
	}
	o.syncErrors.Add(int64(result.Pull.Errors))

	return result, nil
}

// Status reports current connectivity, authentication and queue depth
func (o *Orchestrator) Status(ctx context.Context) Status {
	st := Status{
		Connected: o.adapter.IsConnected(),
		Syncing:   o.syncing.Load(),
	}

	serverURL, err := o.serverURL(ctx)
	if err == nil && serverURL != "" {
		st.Configured = true
	}

	token, err := o.settings.Get(ctx, KeyAuthToken)
	if err == nil && token != "" {
		expired, perr := tokenExpired(token)
		st.Authenticated = perr != nil || !expired
	}

	if last, err := o.settings.GetTime(ctx, KeyLastSyncAt); err == nil && !last.IsZero() {
		st.LastSyncAt = &last
	}

	if pending, err := o.outbox.CountPending(ctx); err == nil {
		st.PendingCount = pending
	} else {
		o.logger.Warn("counting pending outbox entries", zap.Error(err))
	}

	st.SyncErrors = o.syncErrors.Load()
	return st
}

// CollectGarbage purges synced outbox rows older than the retention
// window and returns how many were removed
func (o *Orchestrator) CollectGarbage(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-o.cfg.OutboxRetention)
	removed, err := o.outbox.DeleteSyncedOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		o.logger.Info("outbox garbage collected", zap.Int64("removed", removed))
	}
	return removed, nil
}

// RunPeriodic drives cycles on the configured interval until ctx ends.
// A zero interval disables the loop.
func (o *Orchestrator) RunPeriodic(ctx context.Context) {
	if o.cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.Sync(ctx, nil); err != nil && !errors.Is(err, ErrSyncInProgress) {
				o.logger.Warn("periodic sync failed", zap.Error(err))
			}
			if _, err := o.CollectGarbage(ctx); err != nil {
				o.logger.Warn("outbox garbage collection failed", zap.Error(err))
			}
		}
	}
}

// serverURL prefers the stored value and falls back to configuration
func (o *Orchestrator) serverURL(ctx context.Context) (string, error) {
	stored, err := o.settings.Get(ctx, KeyServerURL)
	if err == nil && stored != "" {
		return stored, nil
	}
	if err != nil && err != shared.ErrNotFound {
		return "", err
	}
	return o.cfg.ServerURL, nil
}

// session assembles the connection state for one cycle
func (o *Orchestrator) session(ctx context.Context) (Session, error) {
	serverURL, err := o.serverURL(ctx)
	if err != nil {
		return Session{}, err
	}
	if serverURL == "" {
		return Session{}, errUnconfigured()
	}
	token, err := o.settings.Get(ctx, KeyAuthToken)
	if err == shared.ErrNotFound || token == "" {
		return Session{}, errUnauthenticated("no auth token stored", nil)
	}
	if err != nil {
		return Session{}, err
	}
	return Session{ServerURL: serverURL, Token: token}, nil
}
