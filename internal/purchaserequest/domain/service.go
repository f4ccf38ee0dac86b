package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
)

// ItemInput is one requested line. Quantity must be positive and each line
// needs a resolvable product or a free-form description.
type ItemInput struct {
	ProductID          string `json:"product_id"`
	Description        string `json:"description"`
	Quantity           int64  `json:"quantity"`
	EstimatedUnitPrice int64  `json:"estimated_unit_price"`
}

type SubmitRequest struct {
	Department string      `json:"department"`
	Items      []ItemInput `json:"items"`
}

// Decision is the approve/reject outcome for a pending request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

type DecideRequest struct {
	ID       string   `json:"id"`
	Decision Decision `json:"decision"`
	Notes    string   `json:"notes"`
}

// ConvertRequest turns an approved request into a purchase order. Estimated
// unit prices carry forward unless overridden per request item id.
type ConvertRequest struct {
	ID                 string                  `json:"id"`
	SupplierID         string                  `json:"supplier_id"`
	Adjustments        orderdomain.Adjustments `json:"adjustments"`
	UnitPriceOverrides map[string]int64        `json:"unit_price_overrides,omitempty"`
	Notes              string                  `json:"notes"`
}

type ListRequest struct {
	Status string `form:"status"`
}

// Service owns the purchase request lifecycle.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Response, error)
	Decide(ctx context.Context, req DecideRequest) (*Response, error)
	ConvertToOrder(ctx context.Context, req ConvertRequest) (*orderdomain.Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("purchase_request_not_found")
	ErrIllegalTransition = errors.New("illegal_transition")
	ErrInvalidDecision   = errors.New("invalid_decision")
	ErrInvalidSupplier   = errors.New("invalid_supplier")
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
		if item.EstimatedUnitPrice < 0 {
			return ErrInvalidItems
		}
	}
	return nil
}
