package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/trade"
)

// Wire shapes for the cloud protocol. The cloud schema is not the local
// schema: field names diverge (a medicine's selling price travels as
// unitPrice) and user records never carry password hashes.

// BranchRecord is a branch as it travels over the wire
type BranchRecord struct {
	ID        uuid.UUID  `json:"id" validate:"required"`
	Code      string     `json:"code" validate:"required"`
	Name      string     `json:"name" validate:"required"`
	Address   string     `json:"address"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Status    string     `json:"status"`
	IsMain    bool       `json:"isMain"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// UserRecord is a user as it travels over the wire. No password hash.
type UserRecord struct {
	ID        uuid.UUID  `json:"id" validate:"required"`
	Name      string     `json:"name" validate:"required"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone"`
	Role      string     `json:"role" validate:"required"`
	BranchID  *uuid.UUID `json:"branchId,omitempty"`
	Status    string     `json:"status"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// MedicineRecord is a medicine as it travels over the wire. unitPrice
// maps to the local selling price; batchNo may be absent.
type MedicineRecord struct {
	ID           uuid.UUID       `json:"id" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	GenericName  string          `json:"genericName"`
	BatchNo      string          `json:"batchNo"`
	Barcode      string          `json:"barcode"`
	Category     string          `json:"category"`
	Manufacturer string          `json:"manufacturer"`
	SupplierID   *uuid.UUID      `json:"supplierId,omitempty"`
	BranchID     *uuid.UUID      `json:"branchId,omitempty"`
	Quantity     int64           `json:"quantity" validate:"gte=0"`
	ReorderLevel int64           `json:"reorderLevel" validate:"gte=0"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
}

// CustomerRecord is a customer as it travels over the wire
type CustomerRecord struct {
	ID            uuid.UUID       `json:"id" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Address       string          `json:"address"`
	BranchID      *uuid.UUID      `json:"branchId,omitempty"`
	LoyaltyPoints int64           `json:"loyaltyPoints"`
	CreditBalance decimal.Decimal `json:"creditBalance"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

// SupplierRecord is a supplier as it travels over the wire
type SupplierRecord struct {
	ID          uuid.UUID       `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	ContactName string          `json:"contactName"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Address     string          `json:"address"`
	Balance     decimal.Decimal `json:"balance"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// SaleRecord is an uploaded sale with its lines
type SaleRecord struct {
	ID            uuid.UUID        `json:"id" validate:"required"`
	InvoiceNo     string           `json:"invoiceNo" validate:"required"`
	BranchID      *uuid.UUID       `json:"branchId,omitempty"`
	UserID        *uuid.UUID       `json:"userId,omitempty"`
	CustomerID    *uuid.UUID       `json:"customerId,omitempty"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Discount      decimal.Decimal  `json:"discount"`
	Tax           decimal.Decimal  `json:"tax"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"paymentMethod"`
	Status        string           `json:"status"`
	SoldAt        time.Time        `json:"soldAt"`
	Items         []SaleItemRecord `json:"items"`
}

// SaleItemRecord is one uploaded sale line
type SaleItemRecord struct {
	ID         uuid.UUID       `json:"id"`
	MedicineID uuid.UUID       `json:"medicineId"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Total      decimal.Decimal `json:"total"`
}

// PurchaseOrderRecord is an uploaded purchase order with its lines
type PurchaseOrderRecord struct {
	ID         uuid.UUID                 `json:"id" validate:"required"`
	OrderNo    string                    `json:"orderNo" validate:"required"`
	SupplierID *uuid.UUID                `json:"supplierId,omitempty"`
	BranchID   *uuid.UUID                `json:"branchId,omitempty"`
	Status     string                    `json:"status"`
	Total      decimal.Decimal           `json:"total"`
	Items      []PurchaseOrderItemRecord `json:"items"`
}

// PurchaseOrderItemRecord is one uploaded purchase order line
type PurchaseOrderItemRecord struct {
	ID         uuid.UUID       `json:"id"`
	MedicineID uuid.UUID       `json:"medicineId"`
	Quantity   int64           `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unitCost"`
	Total      decimal.Decimal `json:"total"`
}

// GRNRecord is an uploaded goods received note with its lines
type GRNRecord struct {
	ID              uuid.UUID       `json:"id" validate:"required"`
	GRNNo           string          `json:"grnNo" validate:"required"`
	PurchaseOrderID *uuid.UUID      `json:"purchaseOrderId,omitempty"`
	SupplierID      *uuid.UUID      `json:"supplierId,omitempty"`
	BranchID        *uuid.UUID      `json:"branchId,omitempty"`
	ReceivedAt      time.Time       `json:"receivedAt"`
	Total           decimal.Decimal `json:"total"`
	Items           []GRNItemRecord `json:"items"`
}

// GRNItemRecord is one uploaded received line
type GRNItemRecord struct {
	ID         uuid.UUID       `json:"id"`
	MedicineID uuid.UUID       `json:"medicineId"`
	Quantity   int64           `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unitCost"`
	BatchNo    string          `json:"batchNo"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"`
}

// DeletionRecord notifies the server that an entity was deleted locally
type DeletionRecord struct {
	EntityType string    `json:"entityType" validate:"required"`
	EntityID   uuid.UUID `json:"entityId" validate:"required"`
}

// snapshot converters, local domain to wire

func branchRecord(b *identity.Branch) BranchRecord {
	t := b.UpdatedAt
	return BranchRecord{
		ID:        b.ID,
		Code:      b.Code,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Email:     b.Email,
		Status:    string(b.Status),
		IsMain:    b.IsMain,
		UpdatedAt: &t,
	}
}

func userRecord(u *identity.User) UserRecord {
	t := u.UpdatedAt
	return UserRecord{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		BranchID:  u.BranchID,
		Status:    string(u.Status),
		UpdatedAt: &t,
	}
}

func medicineRecord(m *catalog.Medicine) MedicineRecord {
	t := m.UpdatedAt
	return MedicineRecord{
		ID:           m.ID,
		Name:         m.Name,
		GenericName:  m.GenericName,
		BatchNo:      m.BatchNo,
		Barcode:      m.Barcode,
		Category:     m.Category,
		Manufacturer: m.Manufacturer,
		SupplierID:   m.SupplierID,
		BranchID:     m.BranchID,
		Quantity:     m.Quantity,
		ReorderLevel: m.ReorderLevel,
		UnitPrice:    m.SellingPrice,
		CostPrice:    m.CostPrice,
		ExpiryDate:   m.ExpiryDate,
		UpdatedAt:    &t,
	}
}

func customerRecord(c *partner.Customer) CustomerRecord {
	t := c.UpdatedAt
	return CustomerRecord{
		ID:            c.ID,
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Address:       c.Address,
		BranchID:      c.BranchID,
		LoyaltyPoints: c.LoyaltyPoints,
		CreditBalance: c.CreditBalance,
		UpdatedAt:     &t,
	}
}

func supplierRecord(s *partner.Supplier) SupplierRecord {
	t := s.UpdatedAt
	return SupplierRecord{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Phone:       s.Phone,
		Email:       s.Email,
		Address:     s.Address,
		Balance:     s.Balance,
		UpdatedAt:   &t,
	}
}

func saleRecord(s *trade.Sale) SaleRecord {
	items := make([]SaleItemRecord, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemRecord{
			ID:         it.ID,
			MedicineID: it.MedicineID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Total:      it.Total,
		}
	}
	return SaleRecord{
		ID:            s.ID,
		InvoiceNo:     s.InvoiceNo,
		BranchID:      s.BranchID,
		UserID:        s.UserID,
		CustomerID:    s.CustomerID,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Tax:           s.Tax,
		Total:         s.Total,
		PaymentMethod: string(s.PaymentMethod),
		Status:        string(s.Status),
		SoldAt:        s.SoldAt,
		Items:         items,
	}
}

func purchaseOrderRecord(p *trade.PurchaseOrder) PurchaseOrderRecord {
	items := make([]PurchaseOrderItemRecord, len(p.Items))
	for i, it := range p.Items {
		items[i] = PurchaseOrderItemRecord{
			ID:         it.ID,
			MedicineID: it.MedicineID,
			Quantity:   it.Quantity,
			UnitCost:   it.UnitCost,
			Total:      it.Total,
		}
	}
	return PurchaseOrderRecord{
		ID:         p.ID,
		OrderNo:    p.OrderNo,
		SupplierID: p.SupplierID,
		BranchID:   p.BranchID,
		Status:     string(p.Status),
		Total:      p.Total,
		Items:      items,
	}
}

func grnRecord(g *trade.GoodsReceivedNote) GRNRecord {
	items := make([]GRNItemRecord, len(g.Items))
	for i, it := range g.Items {
		items[i] = GRNItemRecord{
			ID:         it.ID,
			MedicineID: it.MedicineID,
			Quantity:   it.Quantity,
			UnitCost:   it.UnitCost,
			BatchNo:    it.BatchNo,
			ExpiryDate: it.ExpiryDate,
		}
	}
	return GRNRecord{
		ID:              g.ID,
		GRNNo:           g.GRNNo,
		PurchaseOrderID: g.PurchaseOrderID,
		SupplierID:      g.SupplierID,
		BranchID:        g.BranchID,
		ReceivedAt:      g.ReceivedAt,
		Total:           g.Total,
		Items:           items,
	}
}
