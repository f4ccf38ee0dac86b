package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusPending            Status = "pending"
	StatusApproved           Status = "approved"
	StatusSentToSupplier     Status = "sent_to_supplier"
	StatusConfirmed          Status = "confirmed"
	StatusPartiallyDelivered Status = "partially_delivered"
	StatusDelivered          Status = "delivered"
	StatusCancelled          Status = "cancelled"
)

// transitions is the exhaustive legal-transition table. The lifecycle is a
// single forward path with two absorbing states: delivered (success) and
// cancelled (failure, reachable from any non-terminal state).
// partially_delivered is the only state allowed to re-enter itself.
var transitions = map[Status][]Status{
	StatusPending:            {StatusApproved, StatusCancelled},
	StatusApproved:           {StatusSentToSupplier, StatusCancelled},
	StatusSentToSupplier:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:          {StatusPartiallyDelivered, StatusDelivered, StatusCancelled},
	StatusPartiallyDelivered: {StatusPartiallyDelivered, StatusDelivered, StatusCancelled},
	StatusDelivered:          {},
	StatusCancelled:          {},
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from→to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Adjustments are the three order-level amounts applied on top of the line
// item subtotal, in minor currency units.
type Adjustments struct {
	TaxAmount      int64 `json:"tax_amount"`
	ShippingAmount int64 `json:"shipping_amount"`
	DiscountAmount int64 `json:"discount_amount"`
}

// PurchaseOrder is an order placed against a supplier, optionally originating
// from an approved purchase request. All monetary fields are minor units and
// always derived from the line items plus adjustments.
type PurchaseOrder struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	OwnerID    snowflake.ID  `gorm:"not null;index"`
	SupplierID snowflake.ID  `gorm:"not null;index"`
	RequestID  *snowflake.ID `gorm:"index"`

	Status         Status `gorm:"type:text;not null;default:'pending'"`
	Subtotal       int64  `gorm:"not null"`
	TaxAmount      int64  `gorm:"not null;default:0"`
	ShippingAmount int64  `gorm:"not null;default:0"`
	DiscountAmount int64  `gorm:"not null;default:0"`
	TotalAmount    int64  `gorm:"not null"`
	Notes          string `gorm:"type:text"`

	ApproverID *snowflake.ID
	ApprovedAt *time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PurchaseOrder) TableName() string { return "purchase_orders" }

// PurchaseOrderItem is one line of an order.
type PurchaseOrderItem struct {
	ID          snowflake.ID  `gorm:"primaryKey"`
	OrderID     snowflake.ID  `gorm:"not null;index"`
	ProductID   *snowflake.ID `gorm:"index"`
	Description string        `gorm:"type:text;not null"`
	Quantity    int64         `gorm:"not null"`
	UnitPrice   int64         `gorm:"not null"`
	LineTotal   int64         `gorm:"not null"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PurchaseOrderItem) TableName() string { return "purchase_order_items" }

// Recompute rederives subtotal and total from the current line items and
// adjustments. Totals are never hand-edited independent of the items.
func (o *PurchaseOrder) Recompute() {
	var subtotal int64
	for i := range o.Items {
		o.Items[i].LineTotal = o.Items[i].Quantity * o.Items[i].UnitPrice
		subtotal += o.Items[i].LineTotal
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}

// ItemResponse is the API shape of an order line.
type ItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id,omitempty"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

// Response is the API shape of an order.
type Response struct {
	ID             string         `json:"id"`
	SupplierID     string         `json:"supplier_id"`
	RequestID      string         `json:"request_id,omitempty"`
	Status         Status         `json:"status"`
	Subtotal       int64          `json:"subtotal"`
	TaxAmount      int64          `json:"tax_amount"`
	ShippingAmount int64          `json:"shipping_amount"`
	DiscountAmount int64          `json:"discount_amount"`
	TotalAmount    int64          `json:"total_amount"`
	Notes          string         `json:"notes,omitempty"`
	ApproverID     string         `json:"approver_id,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	Items          []ItemResponse `json:"items"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ToResponse converts the persisted entity into its API shape.
func (o *PurchaseOrder) ToResponse() *Response {
	resp := &Response{
		ID:             o.ID.String(),
		SupplierID:     o.SupplierID.String(),
		Status:         o.Status,
		Subtotal:       o.Subtotal,
		TaxAmount:      o.TaxAmount,
		ShippingAmount: o.ShippingAmount,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		Notes:          o.Notes,
		ApprovedAt:     o.ApprovedAt,
		Items:          make([]ItemResponse, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.RequestID != nil {
		resp.RequestID = o.RequestID.String()
	}
	if o.ApproverID != nil {
		resp.ApproverID = o.ApproverID.String()
	}
	for i := range o.Items {
		item := &o.Items[i]
		line := ItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
		if item.ProductID != nil {
			line.ProductID = item.ProductID.String()
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
