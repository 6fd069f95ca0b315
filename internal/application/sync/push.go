package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/outbox"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/domain/trade"
)

// Repositories collects everything the pusher reads snapshots from
type Repositories struct {
	Outbox         outbox.Repository
	Branches       identity.BranchRepository
	Users          identity.UserRepository
	Medicines      catalog.MedicineRepository
	Customers      partner.CustomerRepository
	Suppliers      partner.SupplierRepository
	Sales          trade.SaleRepository
	PurchaseOrders trade.PurchaseOrderRepository
	GRNs           trade.GRNRepository
}

// PushStats summarizes one push cycle
type PushStats struct {
	Entries   int // outbox rows drained
	Uploaded  int // snapshots included in the request
	Skipped   int // rows superseded by a later DELETE, or rows whose entity vanished
	Deletions int
}

// Pusher drains the outbox and uploads current entity snapshots
type Pusher struct {
	client    *Client
	repos     Repositories
	batchSize int
	logger    *zap.Logger
}

// NewPusher creates a push synchronizer
func NewPusher(client *Client, repos Repositories, batchSize int, logger *zap.Logger) *Pusher {
	return &Pusher{client: client, repos: repos, batchSize: batchSize, logger: logger}
}

// entityKey identifies one replicated row across outbox entries
type entityKey struct {
	Type outbox.EntityType
	ID   uuid.UUID
}

// Run executes one push cycle. The outbox payload is only a hint: the
// current row is re-fetched so the server always receives the latest
// state. The whole batch succeeds or fails as a unit; on failure every
// included row stays PENDING with attempts incremented.
//
// A CREATE or UPDATE superseded by a later DELETE for the same entity is
// not uploaded (the row no longer exists to snapshot), but the DELETE
// itself is. The superseded rows are still marked SYNCED with the batch.
func (p *Pusher) Run(ctx context.Context, session Session) (*PushStats, error) {
	entries, err := p.repos.Outbox.FindPending(ctx, p.batchSize)
	if err != nil {
		return nil, err
	}
	stats := &PushStats{Entries: len(entries)}
	if len(entries) == 0 {
		return stats, nil
	}

	deleted := make(map[entityKey]bool)
	for _, e := range entries {
		if e.Operation == outbox.OperationDelete {
			deleted[entityKey{e.EntityType, e.EntityID}] = true
		}
	}

	var payload PushRequest
	ids := make([]uuid.UUID, 0, len(entries))
	seen := make(map[entityKey]bool)

	for _, e := range entries {
		ids = append(ids, e.ID)
		key := entityKey{e.EntityType, e.EntityID}

		if e.Operation == outbox.OperationDelete {
			payload.Deletions = append(payload.Deletions, DeletionRecord{
				EntityType: string(e.EntityType),
				EntityID:   e.EntityID,
			})
			stats.Deletions++
			continue
		}
		if deleted[key] || seen[key] {
			stats.Skipped++
			continue
		}
		seen[key] = true

		included, err := p.appendSnapshot(ctx, &payload, key)
		if err != nil {
			return stats, err
		}
		if included {
			stats.Uploaded++
		} else {
			// Entity gone without a DELETE row; nothing left to upload
			stats.Skipped++
		}
	}

	if _, err := p.client.Push(ctx, session, payload); err != nil {
		if markErr := p.repos.Outbox.MarkFailed(ctx, ids, err.Error()); markErr != nil {
			p.logger.Error("recording push failure", zap.Error(markErr))
		}
		return stats, err
	}

	if err := p.repos.Outbox.MarkSynced(ctx, ids, time.Now()); err != nil {
		return stats, err
	}
	p.logger.Info("push complete",
		zap.Int("entries", stats.Entries),
		zap.Int("uploaded", stats.Uploaded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("deletions", stats.Deletions))
	return stats, nil
}

// appendSnapshot re-fetches the current row for key and adds it to the
// payload. Returns false when the row no longer exists.
func (p *Pusher) appendSnapshot(ctx context.Context, payload *PushRequest, key entityKey) (bool, error) {
	notFound := func(err error) (bool, error) {
		if err == shared.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	switch key.Type {
	case outbox.EntityBranch:
		b, err := p.repos.Branches.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.Branches = append(payload.Branches, branchRecord(b))
	case outbox.EntityUser:
		u, err := p.repos.Users.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.Users = append(payload.Users, userRecord(u))
	case outbox.EntityMedicine:
		m, err := p.repos.Medicines.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.Medicines = append(payload.Medicines, medicineRecord(m))
	case outbox.EntityCustomer:
		c, err := p.repos.Customers.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.Customers = append(payload.Customers, customerRecord(c))
	case outbox.EntitySupplier:
		s, err := p.repos.Suppliers.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.Suppliers = append(payload.Suppliers, supplierRecord(s))
	case outbox.EntitySale:
		s, err := p.repos.Sales.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.Sales = append(payload.Sales, saleRecord(s))
	case outbox.EntityPurchaseOrder:
		o, err := p.repos.PurchaseOrders.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.PurchaseOrders = append(payload.PurchaseOrders, purchaseOrderRecord(o))
	case outbox.EntityGRN:
		g, err := p.repos.GRNs.FindByID(ctx, key.ID)
		if err != nil {
			return notFound(err)
		}
		payload.GRNs = append(payload.GRNs, grnRecord(g))
	default:
		p.logger.Warn("unknown entity type in outbox", zap.String("type", string(key.Type)))
		return false, nil
	}
	return true, nil
}
