package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item produced by the kitchen.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string          `json:"product_name" gorm:"not null"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(15,4);not null"`
	WeightPerUnit decimal.Decimal `json:"weight_per_unit" gorm:"type:decimal(15,4);not null"`
	ShelfLifeDays int             `json:"shelf_life_days" gorm:"not null;default:0"`
	Active        bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// UnitWeight returns the product weight per unit, falling back to def when unset.
func (p Product) UnitWeight(def decimal.Decimal) decimal.Decimal {
	if p.WeightPerUnit.IsPositive() {
		return p.WeightPerUnit
	}
	return def
}

// ShelfLife returns the shelf life in days, falling back to def when unset.
func (p Product) ShelfLife(def int) int {
	if p.ShelfLifeDays > 0 {
		return p.ShelfLifeDays
	}
	return def
}

// RecipeIngredient is the amount of one raw material needed per product unit.
type RecipeIngredient struct {
	MaterialID      string          `json:"material_id"`
	MaterialName    string          `json:"material_name"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	Unit            string          `json:"unit"`
}

// Recipe is the bill of materials of a product. Each product has at most one.
type Recipe struct {
	ID          string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID   string             `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	Ingredients []RecipeIngredient `json:"ingredients" gorm:"serializer:json;type:jsonb"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (Recipe) TableName() string { return "recipes" }

// RawMaterial is an ingredient bought from suppliers.
type RawMaterial struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"material_name" gorm:"not null"`
	Unit      string    `json:"unit" gorm:"not null;default:'kg'"`
	CreatedAt time.Time `json:"created_at"`
}

func (RawMaterial) TableName() string { return "raw_materials" }

// Supplier delivers raw materials.
type Supplier struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"supplier_name" gorm:"not null"`
	Contact   string    `json:"contact"`
	Active    bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Supplier) TableName() string { return "suppliers" }

// User is an account of the identity provider.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role" gorm:"not null"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// StoreStaff links a store-staff user to the store they order for.
type StoreStaff struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	StoreName string    `json:"store_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (StoreStaff) TableName() string { return "store_staff" }
