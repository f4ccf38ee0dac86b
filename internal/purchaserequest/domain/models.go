package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the purchase request lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusConverted Status = "converted"
)

// transitions: pending may be decided either way, and only an approved
// request can be converted into an order. Everything else is illegal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusConverted},
	StatusRejected:  {},
	StatusConverted: {},
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

// PurchaseRequest is a departmental ask for goods, owned by the requesting
// actor. TotalAmount is always recomputed from the line items.
type PurchaseRequest struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OwnerID    snowflake.ID `gorm:"not null;index"`
	Department string       `gorm:"type:text"`

	Status      Status `gorm:"type:text;not null;default:'pending'"`
	TotalAmount int64  `gorm:"not null"`

	ApproverID    *snowflake.ID
	DecidedAt     *time.Time
	DecisionNotes string `gorm:"type:text"`

	Items []PurchaseRequestItem `gorm:"foreignKey:RequestID"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PurchaseRequest) TableName() string { return "purchase_requests" }

// PurchaseRequestItem is one requested line, priced with an estimate.
type PurchaseRequestItem struct {
	ID                 snowflake.ID  `gorm:"primaryKey"`
	RequestID          snowflake.ID  `gorm:"not null;index"`
	ProductID          *snowflake.ID `gorm:"index"`
	Description        string        `gorm:"type:text;not null"`
	Quantity           int64         `gorm:"not null"`
	EstimatedUnitPrice int64         `gorm:"not null"`
	LineTotal          int64         `gorm:"not null"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PurchaseRequestItem) TableName() string { return "purchase_request_items" }

// Recompute rederives the request total from its current line items.
func (r *PurchaseRequest) Recompute() {
	var total int64
	for i := range r.Items {
		r.Items[i].LineTotal = r.Items[i].Quantity * r.Items[i].EstimatedUnitPrice
		total += r.Items[i].LineTotal
	}
	r.TotalAmount = total
}

// ItemResponse is the API shape of a request line.
type ItemResponse struct {
	ID                 string `json:"id"`
	ProductID          string `json:"product_id,omitempty"`
	Description        string `json:"description"`
	Quantity           int64  `json:"quantity"`
	EstimatedUnitPrice int64  `json:"estimated_unit_price"`
	LineTotal          int64  `json:"line_total"`
}

// Response is the API shape of a purchase request.
type Response struct {
	ID            string         `json:"id"`
	Department    string         `json:"department,omitempty"`
	Status        Status         `json:"status"`
	TotalAmount   int64          `json:"total_amount"`
	ApproverID    string         `json:"approver_id,omitempty"`
	DecidedAt     *time.Time     `json:"decided_at,omitempty"`
	DecisionNotes string         `json:"decision_notes,omitempty"`
	Items         []ItemResponse `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ToResponse converts the persisted entity into its API shape.
func (r *PurchaseRequest) ToResponse() *Response {
	resp := &Response{
		ID:            r.ID.String(),
		Department:    r.Department,
		Status:        r.Status,
		TotalAmount:   r.TotalAmount,
		DecidedAt:     r.DecidedAt,
		DecisionNotes: r.DecisionNotes,
		Items:         make([]ItemResponse, 0, len(r.Items)),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ApproverID != nil {
		resp.ApproverID = r.ApproverID.String()
	}
	for i := range r.Items {
		item := &r.Items[i]
		line := ItemResponse{
			ID:                 item.ID.String(),
			Description:        item.Description,
			Quantity:           item.Quantity,
			EstimatedUnitPrice: item.EstimatedUnitPrice,
			LineTotal:          item.LineTotal,
		}
		if item.ProductID != nil {
			line.ProductID = item.ProductID.String()
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
