package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/actorctx"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/events"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Publisher events.Publisher
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	publisher events.Publisher
}

func NewService(p ServiceParam) orderdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("purchaseorder.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *Service) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, orderdomain.ErrInvalidActor
	}
	supplierID, err := orderdomain.ParseID(req.SupplierID)
	if err != nil {
		return nil, orderdomain.ErrInvalidSupplier
	}
	if err := orderdomain.ValidateItems(req.Items); err != nil {
		return nil, err
	}

	items, err := s.buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &orderdomain.PurchaseOrder{
		ID:             s.genID.Generate(),
		OwnerID:        actor,
		SupplierID:     supplierID,
		Status:         orderdomain.StatusPending,
		TaxAmount:      req.Adjustments.TaxAmount,
		ShippingAmount: req.Adjustments.ShippingAmount,
		DiscountAmount: req.Adjustments.DiscountAmount,
		Notes:          strings.TrimSpace(req.Notes),
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range record.Items {
		record.Items[i].OrderID = record.ID
		record.Items[i].CreatedAt = now
	}
	record.Recompute()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkSupplier(ctx, tx, actor, supplierID); err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeOrders, events.EventPurchaseOrderCreated, resp)
	s.publisher.PublishToActor(actor.String(), events.EventPurchaseOrderCreated, resp)
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req orderdomain.UpdateRequest) (*orderdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, orderdomain.ErrInvalidActor
	}
	id, err := orderdomain.ParseID(req.ID)
	if err != nil {
		return nil, orderdomain.ErrInvalidID
	}

	var record orderdomain.PurchaseOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.load(ctx, tx, actor, id, &record); err != nil {
			return err
		}
		if record.Status.Terminal() {
			return orderdomain.ErrIllegalTransition
		}

		if req.Items != nil {
			if err := orderdomain.ValidateItems(req.Items); err != nil {
				return err
			}
			items, err := s.buildItems(req.Items)
			if err != nil {
				return err
			}
			now := s.clock.Now()
			for i := range items {
				items[i].OrderID = record.ID
				items[i].CreatedAt = now
			}
			if err := tx.Where("order_id = ?", record.ID).Delete(&orderdomain.PurchaseOrderItem{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
			record.Items = items
		}
		if req.TaxAmount != nil {
			record.TaxAmount = *req.TaxAmount
		}
		if req.ShippingAmount != nil {
			record.ShippingAmount = *req.ShippingAmount
		}
		if req.DiscountAmount != nil {
			record.DiscountAmount = *req.DiscountAmount
		}
		if req.Notes != nil {
			record.Notes = strings.TrimSpace(*req.Notes)
		}

		record.Recompute()
		record.UpdatedAt = s.clock.Now()
		return tx.Omit("Items").Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeOrders, events.EventPurchaseOrderUpdated, resp)
	return resp, nil
}

// SetStatus moves an order along the lifecycle. The current status is always
// re-read inside the transaction so two racing transitions cannot both
// commit; the transition table is a hard invariant.
func (s *Service) SetStatus(ctx context.Context, req orderdomain.SetStatusRequest) (*orderdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, orderdomain.ErrInvalidActor
	}
	id, err := orderdomain.ParseID(req.ID)
	if err != nil {
		return nil, orderdomain.ErrInvalidID
	}
	if !req.Status.Valid() {
		return nil, orderdomain.ErrInvalidStatus
	}

	var record orderdomain.PurchaseOrder
	var oldStatus orderdomain.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.load(ctx, tx, actor, id, &record); err != nil {
			return err
		}
		oldStatus = record.Status
		if !orderdomain.CanTransition(oldStatus, req.Status) {
			return orderdomain.ErrIllegalTransition
		}

		now := s.clock.Now()
		record.Status = req.Status
		record.UpdatedAt = now
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			record.Notes = notes
		}
		if req.Status == orderdomain.StatusApproved {
			approver := actor
			record.ApproverID = &approver
			record.ApprovedAt = &now
		}
		return tx.Omit("Items").Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeOrders, events.EventPurchaseOrderStatus, events.OrderStatusChangedPayload{
		OrderID:   resp.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(record.Status),
		Order:     resp,
	})
	if record.Status == orderdomain.StatusDelivered {
		// Inventory receipt itself is out of scope; the delivery event is
		// the hook inventory-facing consumers subscribe to.
		s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeOrders, events.EventPurchaseOrderDelivered, events.OrderDeliveredPayload{
			OrderID:    resp.ID,
			SupplierID: resp.SupplierID,
			Order:      resp,
		})
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context, req orderdomain.ListRequest) ([]orderdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, orderdomain.ErrInvalidActor
	}

	query := s.db.WithContext(ctx).Preload("Items").Where("owner_id = ?", actor)
	if status := strings.TrimSpace(req.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if raw := strings.TrimSpace(req.SupplierID); raw != "" {
		supplierID, err := orderdomain.ParseID(raw)
		if err != nil {
			return nil, orderdomain.ErrInvalidSupplier
		}
		query = query.Where("supplier_id = ?", supplierID)
	}

	var records []orderdomain.PurchaseOrder
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	out := make([]orderdomain.Response, 0, len(records))
	for i := range records {
		out = append(out, *records[i].ToResponse())
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*orderdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, orderdomain.ErrInvalidActor
	}
	orderID, err := orderdomain.ParseID(id)
	if err != nil {
		return nil, orderdomain.ErrInvalidID
	}

	var record orderdomain.PurchaseOrder
	if err := s.load(ctx, s.db, actor, orderID, &record); err != nil {
		return nil, err
	}
	return record.ToResponse(), nil
}

func (s *Service) buildItems(inputs []orderdomain.ItemInput) ([]orderdomain.PurchaseOrderItem, error) {
	items := make([]orderdomain.PurchaseOrderItem, 0, len(inputs))
	for _, input := range inputs {
		item := orderdomain.PurchaseOrderItem{
			ID:          s.genID.Generate(),
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
		}
		if raw := strings.TrimSpace(input.ProductID); raw != "" {
			productID, err := snowflake.ParseString(raw)
			if err != nil {
				return nil, orderdomain.ErrInvalidItems
			}
			item.ProductID = &productID
		}
		items = append(items, item)
	}
	return items, nil
}

// load fetches an order scoped to its owner. Missing and cross-tenant rows
// are indistinguishable to the caller.
func (s *Service) load(ctx context.Context, db *gorm.DB, actor, id snowflake.ID, out *orderdomain.PurchaseOrder) error {
	err := db.WithContext(ctx).Preload("Items").Where("id = ? AND owner_id = ?", id, actor).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return orderdomain.ErrNotFound
	}
	return err
}

func (s *Service) checkSupplier(ctx context.Context, tx *gorm.DB, actor, supplierID snowflake.ID) error {
	var count int64
	err := tx.WithContext(ctx).
		Table("suppliers").
		Where("id = ? AND owner_id = ?", supplierID, actor).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return orderdomain.ErrInvalidSupplier
	}
	return nil
}
