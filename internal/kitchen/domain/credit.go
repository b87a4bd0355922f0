package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreInventory is a store's stock of one product.
type StoreInventory struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	StoreStaffID   string     `json:"store_staff_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_store_product"`
	ProductID      string     `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_store_product;index"`
	ProductName    string     `json:"product_name"`
	Quantity       int        `json:"quantity" gorm:"not null;default:0"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	LastUpdated    time.Time  `json:"last_updated"`
	Version        int        `json:"version" gorm:"not null;default:1"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (StoreInventory) TableName() string { return "store_inventory" }

// Expired reports whether the stock is past its expiration at now.
func (s StoreInventory) Expired(now time.Time) bool {
	return s.ExpirationDate != nil && !now.Before(*s.ExpirationDate)
}

// CreditStatus is the spend state of a store credit.
type CreditStatus string

const (
	CreditActive    CreditStatus = "ACTIVE"
	CreditFullyUsed CreditStatus = "FULLY_USED"
)

// CreditSource names what granted a store credit.
type CreditSource string

const (
	CreditFromRiskPool CreditSource = "RISK_POOL"
	CreditFromDispute  CreditSource = "DISPUTE"
)

// StoreCredit is a spendable balance granted to a store-staff account.
type StoreCredit struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	StoreStaffID    string          `json:"store_staff_id" gorm:"type:varchar(36);not null;index"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(15,4);not null"`
	RemainingAmount decimal.Decimal `json:"remaining_amount" gorm:"type:decimal(15,4);not null"`
	UsedAmount      decimal.Decimal `json:"used_amount" gorm:"type:decimal(15,4);not null"`
	Status          CreditStatus    `json:"status" gorm:"type:varchar(12);not null"`
	Source          CreditSource    `json:"source" gorm:"type:varchar(12);not null"`
	OrderID         string          `json:"order_id,omitempty" gorm:"type:varchar(36)"`
	BatchID         *string         `json:"batch_id,omitempty" gorm:"type:varchar(36)"`
	DisputeID       *string         `json:"dispute_id,omitempty" gorm:"type:varchar(36)"`
	ProductID       *string         `json:"product_id,omitempty" gorm:"type:varchar(36)"`
	Quantity        int             `json:"quantity,omitempty"`
	Notes           string          `json:"notes"`
	IssuedBy        string          `json:"issued_by" gorm:"type:varchar(36)"`
	Version         int             `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (StoreCredit) TableName() string { return "store_credits" }

// NewStoreCredit returns an ACTIVE credit whose full amount is unspent.
func NewStoreCredit(storeStaffID string, amount decimal.Decimal, source CreditSource, now time.Time) StoreCredit {
	return StoreCredit{
		ID:              NewID(),
		StoreStaffID:    storeStaffID,
		Amount:          amount,
		RemainingAmount: amount,
		UsedAmount:      decimal.Zero,
		Status:          CreditActive,
		Source:          source,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CreditUsage is one debit against a store credit.
type CreditUsage struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreditID     string          `json:"credit_id" gorm:"type:varchar(36);not null;index"`
	StoreStaffID string          `json:"store_staff_id" gorm:"type:varchar(36);not null"`
	OrderID      string          `json:"order_id,omitempty" gorm:"type:varchar(36)"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(15,4);not null"`
	UsedBy       string          `json:"used_by" gorm:"type:varchar(36)"`
	UsedAt       time.Time       `json:"used_at"`
}

func (CreditUsage) TableName() string { return "credit_usages" }

// RiskPoolTransfer records stock moved from a store to cover a failed cooked batch.
type RiskPoolTransfer struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BatchID          string          `json:"batch_id" gorm:"type:varchar(36);not null;index"`
	OrderID          string          `json:"order_id" gorm:"type:varchar(36);not null"`
	ProductID        string          `json:"product_id" gorm:"type:varchar(36);not null"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	FromStoreStaffID string          `json:"from_store_staff_id" gorm:"type:varchar(36);not null"`
	CreditAwarded    decimal.Decimal `json:"credit_awarded" gorm:"type:decimal(15,4);not null"`
	CreditID         string          `json:"credit_id" gorm:"type:varchar(36)"`
	Reason           string          `json:"reason"`
	TransferredBy    string          `json:"transferred_by" gorm:"type:varchar(36)"`
	TransferredAt    time.Time       `json:"transfer_date"`
}

func (RiskPoolTransfer) TableName() string { return "risk_pool_transfers" }
