package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

// Settings keys holding replication state
const (
	KeyServerURL  = "sync.server_url"
	KeyAuthToken  = "sync.auth_token"
	KeyLastSyncAt = "sync.last_sync_at"
)

// Stage names reported while a pull runs
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageProcessing  Stage = "processing"
	StageSyncing     Stage = "syncing"
	StageComplete    Stage = "complete"
)

// Progress is one fire-and-forget progress event for UI consumption
type Progress struct {
	Stage  Stage
	Entity string
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(Progress)

// PullStats summarizes one pull cycle
type PullStats struct {
	Full     bool
	Merged   int
	Skipped  int
	Errors   int
	SyncedAt time.Time
}

// errSkipRecord marks a record intentionally not merged, such as a
// pulled user with no local account
var errSkipRecord = errors.New("record skipped")

// Puller downloads cloud records and merges them into local storage
type Puller struct {
	client    *Client
	branches  identity.BranchRepository
	users     identity.UserRepository
	medicines catalog.MedicineRepository
	customers partner.CustomerRepository
	suppliers partner.SupplierRepository
	settings  *persistence.SettingsRepository
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewPuller creates a pull synchronizer
func NewPuller(
	client *Client,
	branches identity.BranchRepository,
	users identity.UserRepository,
	medicines catalog.MedicineRepository,
	customers partner.CustomerRepository,
	suppliers partner.SupplierRepository,
	settings *persistence.SettingsRepository,
	logger *zap.Logger,
) *Puller {
	return &Puller{
		client:    client,
		branches:  branches,
		users:     users,
		medicines: medicines,
		customers: customers,
		suppliers: suppliers,
		settings:  settings,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Run executes one pull cycle. Per-record merge errors are logged and
// counted but never abort the batch; the watermark advances once the
// whole batch has been attempted, so failed records are retried only if
// the cloud reports them again. A crash mid-pull re-fetches from the old
// watermark, which is safe because every merge is an upsert.
func (p *Puller) Run(ctx context.Context, session Session, progress ProgressFunc) (*PullStats, error) {
	emit := func(stage Stage, entity string) {
		if progress != nil {
			progress(Progress{Stage: stage, Entity: entity})
		}
	}

	since, err := p.settings.GetTime(ctx, KeyLastSyncAt)
	if err != nil {
		return nil, fmt.Errorf("reading watermark: %w", err)
	}

	emit(StageDownloading, "")
	resp, err := p.client.Pull(ctx, session, since)
	if err != nil {
		return nil, err
	}
	emit(StageProcessing, "")

	stats := &PullStats{Full: since.IsZero(), SyncedAt: resp.SyncedAt}

	// Branches first: users, medicines and customers reference them
	p.mergeAll(ctx, "branches", len(resp.Data.Branches), stats, emit, func(i int) error {
		return p.mergeBranch(ctx, resp.Data.Branches[i])
	})
	p.mergeAll(ctx, "users", len(resp.Data.Users), stats, emit, func(i int) error {
		return p.mergeUser(ctx, resp.Data.Users[i])
	})
	p.mergeAll(ctx, "suppliers", len(resp.Data.Suppliers), stats, emit, func(i int) error {
		return p.mergeSupplier(ctx, resp.Data.Suppliers[i])
	})
	p.mergeAll(ctx, "medicines", len(resp.Data.Medicines), stats, emit, func(i int) error {
		return p.mergeMedicine(ctx, resp.Data.Medicines[i])
	})
	p.mergeAll(ctx, "customers", len(resp.Data.Customers), stats, emit, func(i int) error {
		return p.mergeCustomer(ctx, resp.Data.Customers[i])
	})

	// The watermark advances even when individual records failed:
	// retrying them depends on the cloud resending, trading completeness
	// for never wedging the pipeline on one bad record.
	if err := p.settings.SetTime(ctx, KeyLastSyncAt, resp.SyncedAt); err != nil {
		return stats, fmt.Errorf("advancing watermark: %w", err)
	}

	emit(StageComplete, "")
	p.logger.Info("pull complete",
		zap.Bool("full", stats.Full),
		zap.Int("merged", stats.Merged),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
		zap.Time("synced_at", stats.SyncedAt))
	return stats, nil
}

func (p *Puller) mergeAll(ctx context.Context, entity string, n int, stats *PullStats, emit func(Stage, string), merge func(int) error) {
	if n == 0 {
		return
	}
	emit(StageSyncing, entity)
	for i := 0; i < n; i++ {
		switch err := merge(i); {
		case err == nil:
			stats.Merged++
		case errors.Is(err, errSkipRecord):
			stats.Skipped++
		default:
			stats.Errors++
			p.logger.Warn("merge failed",
				zap.String("entity", entity),
				zap.Int("index", i),
				zap.Error(err))
		}
	}
}

// mergeBranch matches by id first, then by the unique code. A cloud
// branch whose code already exists locally under a different id updates
// that row in place instead of violating the code constraint.
func (p *Puller) mergeBranch(ctx context.Context, rec BranchRecord) error {
	if err := p.validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid branch record: %w", err)
	}

	existing, err := p.branches.FindByID(ctx, rec.ID)
	if err != nil && err != shared.ErrNotFound {
		return err
	}
	if err == shared.ErrNotFound {
		existing, err = p.branches.FindByCode(ctx, rec.Code)
		if err != nil && err != shared.ErrNotFound {
			return err
		}
	}

	if existing != nil {
		existing.Code = rec.Code
		existing.Name = rec.Name
		existing.Address = rec.Address
		existing.Phone = rec.Phone
		existing.Email = rec.Email
		existing.IsMain = rec.IsMain
		if rec.Status != "" {
			existing.Status = identity.BranchStatus(rec.Status)
		}
		return p.branches.Update(ctx, existing)
	}

	branch := &identity.Branch{
		BaseEntity: shared.BaseEntity{ID: rec.ID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Code:       rec.Code,
		Name:       rec.Name,
		Address:    rec.Address,
		Phone:      rec.Phone,
		Email:      rec.Email,
		Status:     identity.BranchStatusActive,
		IsMain:     rec.IsMain,
	}
	if rec.Status != "" {
		branch.Status = identity.BranchStatus(rec.Status)
	}
	return p.branches.Create(ctx, branch)
}

// mergeUser updates profile fields of an existing account and never
// creates one: the wire record has no password hash, so a pulled-in
// account could never log in.
func (p *Puller) mergeUser(ctx context.Context, rec UserRecord) error {
	if err := p.validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid user record: %w", err)
	}

	existing, err := p.users.FindByID(ctx, rec.ID)
	if err == shared.ErrNotFound {
		return errSkipRecord
	}
	if err != nil {
		return err
	}

	existing.Name = rec.Name
	existing.Email = rec.Email
	existing.Phone = rec.Phone
	existing.Role = identity.UserRole(rec.Role)
	existing.BranchID = rec.BranchID
	if rec.Status != "" {
		existing.Status = identity.UserStatus(rec.Status)
	}
	return p.users.UpdateProfile(ctx, existing)
}

// mergeMedicine maps the cloud shape onto the local one. unitPrice
// becomes the selling price, and a missing batch number gets a synthetic
// one to satisfy the local uniqueness constraint.
func (p *Puller) mergeMedicine(ctx context.Context, rec MedicineRecord) error {
	if err := p.validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid medicine record: %w", err)
	}

	batchNo := rec.BatchNo
	if batchNo == "" {
		batchNo = catalog.SyntheticBatchNo(rec.ID)
	}

	medicine := &catalog.Medicine{
		BaseEntity:   shared.BaseEntity{ID: rec.ID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:         rec.Name,
		GenericName:  rec.GenericName,
		BatchNo:      batchNo,
		Barcode:      rec.Barcode,
		Category:     rec.Category,
		Manufacturer: rec.Manufacturer,
		SupplierID:   rec.SupplierID,
		BranchID:     rec.BranchID,
		Quantity:     rec.Quantity,
		ReorderLevel: rec.ReorderLevel,
		CostPrice:    rec.CostPrice,
		SellingPrice: rec.UnitPrice,
		ExpiryDate:   rec.ExpiryDate,
	}
	return p.medicines.Upsert(ctx, medicine)
}

// mergeCustomer is a plain last-write-wins upsert. Loyalty points and
// credit balance accrued locally since the last push are overwritten by
// the cloud value; known limitation pending a field-level merge.
func (p *Puller) mergeCustomer(ctx context.Context, rec CustomerRecord) error {
	if err := p.validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid customer record: %w", err)
	}

	customer := &partner.Customer{
		BaseEntity:    shared.BaseEntity{ID: rec.ID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:          rec.Name,
		Phone:         rec.Phone,
		Email:         rec.Email,
		Address:       rec.Address,
		BranchID:      rec.BranchID,
		LoyaltyPoints: rec.LoyaltyPoints,
		CreditBalance: rec.CreditBalance,
	}
	return p.customers.Upsert(ctx, customer)
}

// mergeSupplier is a plain last-write-wins upsert, balance included
func (p *Puller) mergeSupplier(ctx context.Context, rec SupplierRecord) error {
	if err := p.validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid supplier record: %w", err)
	}

	supplier := &partner.Supplier{
		BaseEntity:  shared.BaseEntity{ID: rec.ID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:        rec.Name,
		ContactName: rec.ContactName,
		Phone:       rec.Phone,
		Email:       rec.Email,
		Address:     rec.Address,
		Balance:     rec.Balance,
	}
	return p.suppliers.Upsert(ctx, supplier)
}
