package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QCStatus is the quality-control state of a raw or cooked batch.
type QCStatus string

const (
	QCPending QCStatus = "PENDING"
	QCPass    QCStatus = "PASS"
	QCFail    QCStatus = "FAIL"
)

// IsResult reports whether s is a valid QC decision.
func (s QCStatus) IsResult() bool {
	return s == QCPass || s == QCFail
}

// RawMaterialSupply is one purchase request produced by planning or by a
// failed batch replacement.
type RawMaterialSupply struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MaterialID      string          `json:"material_id" gorm:"type:varchar(36);not null;index"`
	MaterialName    string          `json:"material_name"`
	SupplierID      string          `json:"supplier_id" gorm:"type:varchar(36);not null"`
	SupplierName    string          `json:"supplier_name"`
	BaseQuantity    decimal.Decimal `json:"base_quantity" gorm:"type:decimal(15,4);not null"`
	BufferQuantity  decimal.Decimal `json:"buffer_quantity" gorm:"type:decimal(15,4);not null"`
	TotalQuantity   decimal.Decimal `json:"total_quantity" gorm:"type:decimal(15,4);not null"`
	Unit            string          `json:"unit"`
	SupplyDate      time.Time       `json:"supply_date" gorm:"type:date;not null;index"`
	ReplacesBatchID *string         `json:"replaces_batch_id,omitempty" gorm:"type:varchar(36)"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (RawMaterialSupply) TableName() string { return "raw_material_supplies" }

// RawBatch is a bounded slice of a supply awaiting QC.
type RawBatch struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SupplyID        string          `json:"supply_id" gorm:"type:varchar(36);not null;index"`
	MaterialID      string          `json:"material_id" gorm:"type:varchar(36);not null"`
	MaterialName    string          `json:"material_name"`
	BatchNumber     string          `json:"batch_number" gorm:"not null;uniqueIndex"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	Unit            string          `json:"unit"`
	BatchDate       time.Time       `json:"batch_date" gorm:"type:date;not null;index"`
	SupplierID      string          `json:"supplier_id" gorm:"type:varchar(36);not null;index"`
	SupplierName    string          `json:"supplier_name"`
	QCStatus        QCStatus        `json:"qc_status" gorm:"type:varchar(10);not null;index"`
	QCBy            *string         `json:"qc_by,omitempty" gorm:"type:varchar(36)"`
	QCAt            *time.Time      `json:"qc_date,omitempty"`
	Notes           string          `json:"notes"`
	ReplacedBatchID *string         `json:"replaced_batch_id,omitempty" gorm:"type:varchar(36);index"`
	Version         int             `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (RawBatch) TableName() string { return "raw_batches" }

// RawBatchFilter narrows raw batch listings. Zero fields are ignored.
type RawBatchFilter struct {
	Status     QCStatus
	BatchDate  *time.Time
	SupplierID string
}

func (f RawBatchFilter) Matches(b RawBatch) bool {
	if f.Status != "" && b.QCStatus != f.Status {
		return false
	}
	if f.BatchDate != nil && !DateOf(b.BatchDate).Equal(DateOf(*f.BatchDate)) {
		return false
	}
	if f.SupplierID != "" && b.SupplierID != f.SupplierID {
		return false
	}
	return true
}

// WasteLog records material discarded after a failed QC.
type WasteLog struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MaterialID   string          `json:"material_id" gorm:"type:varchar(36);not null"`
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	Unit         string          `json:"unit"`
	WasteDate    time.Time       `json:"waste_date" gorm:"type:date;not null;index"`
	Reason       string          `json:"reason"`
	LoggedBy     string          `json:"logged_by" gorm:"type:varchar(36)"`
	BatchID      string          `json:"batch_id" gorm:"type:varchar(36);index"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (WasteLog) TableName() string { return "waste_logs" }

// KitchenInventory is the central kitchen's stock of one raw material.
type KitchenInventory struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MaterialID   string          `json:"material_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	Unit         string          `json:"unit"`
	Version      int             `json:"version" gorm:"not null;default:1"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (KitchenInventory) TableName() string { return "kitchen_inventory" }

// BatchConsumption traces material deducted to produce an order.
type BatchConsumption struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string          `json:"order_id" gorm:"type:varchar(36);not null;index"`
	MaterialID   string          `json:"material_id" gorm:"type:varchar(36);not null"`
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	Unit         string          `json:"unit"`
	ConsumedBy   string          `json:"consumed_by" gorm:"type:varchar(36)"`
	ConsumedAt   time.Time       `json:"consumed_at"`
}

func (BatchConsumption) TableName() string { return "batch_consumptions" }

// CookedBatchItem is one product line inside a cooked batch.
type CookedBatchItem struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	WeightPerUnit decimal.Decimal `json:"weight_per_unit"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
}

// FailedItem is a product line rejected by cooked QC.
type FailedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

// CookedBatch is a bounded-weight slice of an order produced together.
type CookedBatch struct {
	ID           string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string            `json:"order_id" gorm:"type:varchar(36);not null;index"`
	StoreStaffID string            `json:"store_id" gorm:"type:varchar(36);not null"`
	BatchNumber  int               `json:"batch_number" gorm:"not null"`
	TotalBatches int               `json:"total_batches" gorm:"not null"`
	Items        []CookedBatchItem `json:"items" gorm:"serializer:json;type:jsonb"`
	TotalWeight  decimal.Decimal   `json:"total_weight" gorm:"type:decimal(15,4);not null"`
	QCStatus     QCStatus          `json:"qc_status" gorm:"type:varchar(10);not null;index"`
	QCBy         *string           `json:"qc_by,omitempty" gorm:"type:varchar(36)"`
	QCAt         *time.Time        `json:"qc_date,omitempty"`
	QCNotes      string            `json:"qc_notes"`
	FailedItems  []FailedItem      `json:"failed_items,omitempty" gorm:"serializer:json;type:jsonb"`
	CookedBy     string            `json:"cooked_by" gorm:"type:varchar(36)"`
	CookedAt     time.Time         `json:"cooked_at"`
	Version      int               `json:"version" gorm:"not null;default:1"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (CookedBatch) TableName() string { return "cooked_batches" }

// CookedQCRecord is the audit trail of one cooked QC decision.
type CookedQCRecord struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BatchID     string       `json:"batch_id" gorm:"type:varchar(36);not null;index"`
	OrderID     string       `json:"order_id" gorm:"type:varchar(36);not null"`
	Result      QCStatus     `json:"qc_status" gorm:"type:varchar(10);not null"`
	QCBy        string       `json:"qc_by" gorm:"type:varchar(36)"`
	QCAt        time.Time    `json:"qc_date"`
	Notes       string       `json:"notes"`
	FailedItems []FailedItem `json:"failed_items" gorm:"serializer:json;type:jsonb"`
}

func (CookedQCRecord) TableName() string { return "cooked_qc_records" }
