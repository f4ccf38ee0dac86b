package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ItemInput is one requested order line. Quantity must be positive and each
// line needs a resolvable product or a free-form description.
type ItemInput struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type CreateRequest struct {
	SupplierID  string      `json:"supplier_id"`
	Items       []ItemInput `json:"items"`
	Adjustments Adjustments `json:"adjustments"`
	Notes       string      `json:"notes"`
}

type UpdateRequest struct {
	ID             string      `json:"id"`
	Items          []ItemInput `json:"items,omitempty"`
	TaxAmount      *int64      `json:"tax_amount,omitempty"`
	ShippingAmount *int64      `json:"shipping_amount,omitempty"`
	DiscountAmount *int64      `json:"discount_amount,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
}

type SetStatusRequest struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Notes  string `json:"notes"`
}

type ListRequest struct {
	Status     string `form:"status"`
	SupplierID string `form:"supplier_id"`
}

// Service owns the purchase order lifecycle.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	SetStatus(ctx context.Context, req SetStatusRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("purchase_order_not_found")
	ErrIllegalTransition = errors.New("illegal_transition")
	ErrInvalidSupplier   = errors.New("invalid_supplier")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidItems      = errors.New("invalid_items")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
)

// ValidateItems checks line item inputs before any persistence write.
func ValidateItems(items []ItemInput) error {
	if len(items) == 0 {
		return ErrInvalidItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if strings.TrimSpace(item.Description) == "" && strings.TrimSpace(item.ProductID) == "" {
			return ErrInvalidItems
		}
		if item.UnitPrice < 0 {
			return ErrInvalidItems
		}
	}
	return nil
}
