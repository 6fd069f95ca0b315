package persistence

import (
	"context"
	"time"

	"github.com/meditrack/backend/internal/domain/shared"
)

// SettingsRepository stores key/value configuration rows. Besides the
// seeded business settings it holds the replication state: the cloud
// session token and the pull watermark.
type SettingsRepository struct {
	q Queryer
}

// NewSettingsRepository creates a settings repository
func NewSettingsRepository(q Queryer) *SettingsRepository {
	return &SettingsRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *SettingsRepository) WithTx(tx Queryer) *SettingsRepository {
	return &SettingsRepository{q: tx}
}

// Get returns the value for key, or shared.ErrNotFound
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "settings",
		Columns: []string{"value"},
		Where:   Eq("key", key),
		Limit:   1,
	})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", shared.ErrNotFound
	}
	return Str(rows[0], "value"), nil
}

// Set writes the value for key, inserting the row if it is new
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "settings",
		Set: map[string]any{
			"value":      value,
			"updated_at": BindTime(time.Now()),
		},
		Where: Eq("key", key),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected > 0 {
		return nil
	}
	_, err = r.q.Execute(ctx, ExecSpec{
		Kind:  ExecInsert,
		Table: "settings",
		Values: map[string]any{
			"key":        key,
			"value":      value,
			"updated_at": BindTime(time.Now()),
		},
	})
	return err
}

// Delete removes the row for key. Missing keys are not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "settings",
		Where: Eq("key", key),
	})
	return err
}

// GetTime parses the value for key as a timestamp. Absent or blank
// values return a zero time and no error.
func (r *SettingsRepository) GetTime(ctx context.Context, key string) (time.Time, error) {
	v, err := r.Get(ctx, key)
	if err == shared.ErrNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}

// SetTime stores a timestamp under key
func (r *SettingsRepository) SetTime(ctx context.Context, key string, t time.Time) error {
	return r.Set(ctx, key, t.UTC().Format(time.RFC3339Nano))
}

// IsEmpty reports whether no settings rows exist yet
func (r *SettingsRepository) IsEmpty(ctx context.Context) (bool, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:      "settings",
		Aggregates: []Aggregate{{Func: AggCount, Column: "*", Alias: "n"}},
	})
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return true, nil
	}
	return I64(rows[0], "n") == 0, nil
}
