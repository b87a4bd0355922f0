package domain

import "time"

// OrderItem is one ordered line.
type OrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Order is a store's request for delivery of products on a date.
type Order struct {
	ID           string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	StoreStaffID string      `json:"store_staff_id" gorm:"type:varchar(36);not null;index"`
	Status       OrderStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	DeliveryDate time.Time   `json:"delivery_date" gorm:"type:date;not null;index"`
	Items        []OrderItem `json:"items" gorm:"serializer:json;type:jsonb"`
	Notes        string      `json:"notes"`
	Version      int         `json:"version" gorm:"not null;default:1"`
	CreatedAt    time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// QuantityOf returns the ordered quantity of productID, or false if absent.
func (o Order) QuantityOf(productID string) (int, bool) {
	total, found := 0, false
	for _, item := range o.Items {
		if item.ProductID == productID {
			total += item.Quantity
			found = true
		}
	}
	return total, found
}

// OrderHistory is an append-only audit record of one transition.
// FromStatus is empty for the creation entry.
type OrderHistory struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string      `json:"order_id" gorm:"type:varchar(36);not null;index"`
	FromStatus  OrderStatus `json:"from_status_id,omitempty" gorm:"type:varchar(10)"`
	ToStatus    OrderStatus `json:"to_status_id" gorm:"type:varchar(10);not null"`
	ActorUserID string      `json:"changed_by_user_id" gorm:"type:varchar(36)"`
	ActorRole   Role        `json:"changed_by_role_id"`
	Notes       string      `json:"notes"`
	CreatedAt   time.Time   `json:"created_at" gorm:"index"`
}

func (OrderHistory) TableName() string { return "order_history" }

// OrderFilter narrows order listings. Zero fields are ignored.
type OrderFilter struct {
	StoreStaffID string
	Status       OrderStatus
	DeliveryDate *time.Time
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// Matches applies the filter to o.
func (f OrderFilter) Matches(o Order) bool {
	if f.StoreStaffID != "" && o.StoreStaffID != f.StoreStaffID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.DeliveryDate != nil && !DateOf(o.DeliveryDate).Equal(DateOf(*f.DeliveryDate)) {
		return false
	}
	if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !o.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	return true
}
