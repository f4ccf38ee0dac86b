package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents a supplier's standing in the directory.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// Supplier is a directory entry owned by the actor who registered it.
type Supplier struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OwnerID       snowflake.ID `gorm:"not null;index"`
	Name          string       `gorm:"type:text;not null"`
	ContactPerson string       `gorm:"type:text"`
	Email         string       `gorm:"type:text"`
	Phone         string       `gorm:"type:text"`
	Address       string       `gorm:"type:text"`
	Status        Status       `gorm:"type:text;not null;default:'active'"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Supplier) TableName() string { return "suppliers" }

// Response is the API shape of a supplier.
type Response struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToResponse converts the persisted entity into its API shape.
func (s *Supplier) ToResponse() *Response {
	return &Response{
		ID:            s.ID.String(),
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Email:         s.Email,
		Phone:         s.Phone,
		Address:       s.Address,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// PerformanceSnapshot is derived per supplier on demand, never stored.
type PerformanceSnapshot struct {
	SupplierID           string  `json:"supplier_id"`
	TotalOrders          int64   `json:"total_orders"`
	DeliveredOrders      int64   `json:"delivered_orders"`
	OrderFulfillmentRate float64 `json:"order_fulfillment_rate"`
	// OverallScore currently equals the fulfillment rate: no delivery-date
	// field exists to compute a true timeliness signal, so the single ratio
	// is the only performance input.
	OverallScore float64 `json:"overall_score"`
}
