package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is one stock-keeping unit. Shopify variants are stored as
// separate items grouped by Handle.
type InventoryItem struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string          `json:"tenantId" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_inventory_tenant_sku"`
	SKU          string          `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex:idx_inventory_tenant_sku"`
	Name         string          `json:"name" gorm:"type:varchar(255);not null"`
	Handle       string          `json:"handle,omitempty" gorm:"type:varchar(255);index"`
	Category     string          `json:"category" gorm:"type:varchar(255)"`
	Quantity     int64           `json:"quantity" gorm:"not null;default:0"`
	SellingPrice decimal.Decimal `json:"sellingPrice" gorm:"type:decimal(12,2);not null;default:0"`
	CostPrice    decimal.Decimal `json:"costPrice" gorm:"type:decimal(12,2);not null;default:0"`
	ReorderLevel int64           `json:"reorderLevel" gorm:"not null;default:10"`
	Location     string          `json:"location" gorm:"type:varchar(255)"`
	Supplier     string          `json:"supplier,omitempty" gorm:"type:varchar(255)"`
	Description  string          `json:"description,omitempty" gorm:"type:text"`
	Sizes        StringList      `json:"sizes,omitempty" gorm:"type:jsonb"`
	Colors       StringList      `json:"colors,omitempty" gorm:"type:jsonb"`
	Source       string          `json:"source" gorm:"type:varchar(50)"`
	ImportID     *uuid.UUID      `json:"importId,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`
}

// RevenueEntry is one sold order line.
type RevenueEntry struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string          `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Source          string          `json:"source" gorm:"type:varchar(50)"`
	OrderName       string          `json:"orderName" gorm:"type:varchar(100);not null;index"`
	LineItemName    string          `json:"lineItemName" gorm:"type:varchar(255);not null"`
	SKU             string          `json:"sku,omitempty" gorm:"type:varchar(100);index"`
	Quantity        int64           `json:"quantity" gorm:"not null"`
	UnitPrice       decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency        string          `json:"currency,omitempty" gorm:"type:varchar(10)"`
	FinancialStatus string          `json:"financialStatus,omitempty" gorm:"type:varchar(50)"`
	PaymentMethod   string          `json:"paymentMethod,omitempty" gorm:"type:varchar(100)"`
	CustomerName    string          `json:"customerName,omitempty" gorm:"type:varchar(255)"`
	OrderedAt       string          `json:"orderedAt,omitempty" gorm:"type:varchar(50)"`
	ImportID        *uuid.UUID      `json:"importId,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy *string   `json:"createdBy,omitempty"`
}

// ShipmentRecord is one carrier delivery.
type ShipmentRecord struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string          `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_shipment_tenant_tracking"`
	Provider       string          `json:"provider" gorm:"type:varchar(50);not null;uniqueIndex:idx_shipment_tenant_tracking"`
	TrackingNumber string          `json:"trackingNumber" gorm:"type:varchar(100);not null;uniqueIndex:idx_shipment_tenant_tracking"`
	Status         string          `json:"status" gorm:"type:varchar(100)"`
	State          string          `json:"state" gorm:"type:varchar(20);index"`
	CODAmount      decimal.Decimal `json:"codAmount" gorm:"type:decimal(12,2);not null;default:0"`
	ShippingFees   decimal.Decimal `json:"shippingFees" gorm:"type:decimal(12,2);not null;default:0"`
	CustomerName   string          `json:"customerName,omitempty" gorm:"type:varchar(255)"`
	CustomerPhone  string          `json:"customerPhone,omitempty" gorm:"type:varchar(50)"`
	City           string          `json:"city,omitempty" gorm:"type:varchar(100)"`
	Address        string          `json:"address,omitempty" gorm:"type:text"`
	OrderReference string          `json:"orderReference,omitempty" gorm:"type:varchar(100)"`
	ShippedAt      string          `json:"shippedAt,omitempty" gorm:"type:varchar(50)"`
	DeliveredAt    string          `json:"deliveredAt,omitempty" gorm:"type:varchar(50)"`
	ImportID       *uuid.UUID      `json:"importId,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlanLimit caps a resource for a tenant. A missing row or Limit -1 is unlimited.
type PlanLimit struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_plan_limit_resource"`
	Resource string    `json:"resource" gorm:"type:varchar(50);not null;uniqueIndex:idx_plan_limit_resource"`
	Limit    int       `json:"limit" gorm:"column:limit_value;not null;default:-1"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// ImportHistory is the audit row written after every commit.
type ImportHistory struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	UserID    string    `json:"userId" gorm:"type:varchar(255)"`
	Format    string    `json:"format" gorm:"type:varchar(50);not null"`
	Filename  string    `json:"filename" gorm:"type:varchar(255)"`
	TotalRows int       `json:"totalRows"`
	Selected  int       `json:"selected"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Stats     *JSON     `json:"stats,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName implementations
func (InventoryItem) TableName() string {
	return "inventory_items"
}

func (RevenueEntry) TableName() string {
	return "revenue_entries"
}

func (ShipmentRecord) TableName() string {
	return "shipment_records"
}

func (PlanLimit) TableName() string {
	return "plan_limits"
}

func (ImportHistory) TableName() string {
	return "import_histories"
}
