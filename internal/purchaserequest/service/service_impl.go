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
	requestdomain "github.com/smallbiznis/procura/internal/purchaserequest/domain"
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

func NewService(p ServiceParam) requestdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("purchaserequest.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *Service) Submit(ctx context.Context, req requestdomain.SubmitRequest) (*requestdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, requestdomain.ErrInvalidActor
	}
	if err := requestdomain.ValidateItems(req.Items); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &requestdomain.PurchaseRequest{
		ID:         s.genID.Generate(),
		OwnerID:    actor,
		Department: strings.TrimSpace(req.Department),
		Status:     requestdomain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, input := range req.Items {
		item := requestdomain.PurchaseRequestItem{
			ID:                 s.genID.Generate(),
			RequestID:          record.ID,
			Description:        strings.TrimSpace(input.Description),
			Quantity:           input.Quantity,
			EstimatedUnitPrice: input.EstimatedUnitPrice,
			CreatedAt:          now,
		}
		if raw := strings.TrimSpace(input.ProductID); raw != "" {
			productID, err := snowflake.ParseString(raw)
			if err != nil {
				return nil, requestdomain.ErrInvalidItems
			}
			item.ProductID = &productID
		}
		record.Items = append(record.Items, item)
	}
	record.Recompute()

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeRequests, events.EventPurchaseRequestCreated, resp)
	s.publisher.PublishToActor(actor.String(), events.EventPurchaseRequestCreated, resp)
	return resp, nil
}

// Decide approves or rejects a pending request. The current status is
// re-read inside the transaction, so a racing second decision fails instead
// of silently overwriting the first.
func (s *Service) Decide(ctx context.Context, req requestdomain.DecideRequest) (*requestdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, requestdomain.ErrInvalidActor
	}
	id, err := requestdomain.ParseID(req.ID)
	if err != nil {
		return nil, requestdomain.ErrInvalidID
	}

	var target requestdomain.Status
	switch req.Decision {
	case requestdomain.DecisionApproved:
		target = requestdomain.StatusApproved
	case requestdomain.DecisionRejected:
		target = requestdomain.StatusRejected
	default:
		return nil, requestdomain.ErrInvalidDecision
	}

	var record requestdomain.PurchaseRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.load(ctx, tx, actor, id, &record); err != nil {
			return err
		}
		if !requestdomain.CanTransition(record.Status, target) {
			return requestdomain.ErrIllegalTransition
		}

		now := s.clock.Now()
		approver := actor
		record.Status = target
		record.ApproverID = &approver
		record.DecidedAt = &now
		record.DecisionNotes = strings.TrimSpace(req.Notes)
		record.UpdatedAt = now
		return tx.Omit("Items").Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	eventType := events.EventPurchaseRequestApproved
	if target == requestdomain.StatusRejected {
		eventType = events.EventPurchaseRequestRejected
	}
	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeRequests, eventType, resp)
	s.publisher.PublishToActor(record.OwnerID.String(), eventType, resp)
	return resp, nil
}

// ConvertToOrder copies an approved request's line items into a new purchase
// order. The request's status change and the order creation commit together
// or not at all.
func (s *Service) ConvertToOrder(ctx context.Context, req requestdomain.ConvertRequest) (*orderdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, requestdomain.ErrInvalidActor
	}
	id, err := requestdomain.ParseID(req.ID)
	if err != nil {
		return nil, requestdomain.ErrInvalidID
	}
	supplierID, err := requestdomain.ParseID(req.SupplierID)
	if err != nil {
		return nil, requestdomain.ErrInvalidSupplier
	}

	var order *orderdomain.PurchaseOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record requestdomain.PurchaseRequest
		if err := s.load(ctx, tx, actor, id, &record); err != nil {
			return err
		}
		if !requestdomain.CanTransition(record.Status, requestdomain.StatusConverted) {
			return requestdomain.ErrIllegalTransition
		}

		var supplierCount int64
		if err := tx.Table("suppliers").Where("id = ? AND owner_id = ?", supplierID, actor).Count(&supplierCount).Error; err != nil {
			return err
		}
		if supplierCount == 0 {
			return requestdomain.ErrInvalidSupplier
		}

		now := s.clock.Now()
		order = &orderdomain.PurchaseOrder{
			ID:             s.genID.Generate(),
			OwnerID:        actor,
			SupplierID:     supplierID,
			RequestID:      &record.ID,
			Status:         orderdomain.StatusPending,
			TaxAmount:      req.Adjustments.TaxAmount,
			ShippingAmount: req.Adjustments.ShippingAmount,
			DiscountAmount: req.Adjustments.DiscountAmount,
			Notes:          strings.TrimSpace(req.Notes),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for i := range record.Items {
			reqItem := &record.Items[i]
			unitPrice := reqItem.EstimatedUnitPrice
			if override, ok := req.UnitPriceOverrides[reqItem.ID.String()]; ok {
				if override < 0 {
					return requestdomain.ErrInvalidItems
				}
				unitPrice = override
			}
			order.Items = append(order.Items, orderdomain.PurchaseOrderItem{
				ID:          s.genID.Generate(),
				OrderID:     order.ID,
				ProductID:   reqItem.ProductID,
				Description: reqItem.Description,
				Quantity:    reqItem.Quantity,
				UnitPrice:   unitPrice,
				CreatedAt:   now,
			})
		}
		order.Recompute()

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		record.Status = requestdomain.StatusConverted
		record.UpdatedAt = now
		return tx.Omit("Items").Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	resp := order.ToResponse()
	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeOrders, events.EventPurchaseOrderCreated, resp)
	s.publisher.PublishToActor(actor.String(), events.EventPurchaseOrderCreated, resp)
	return resp, nil
}

func (s *Service) List(ctx context.Context, req requestdomain.ListRequest) ([]requestdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, requestdomain.ErrInvalidActor
	}

	query := s.db.WithContext(ctx).Preload("Items").Where("owner_id = ?", actor)
	if status := strings.TrimSpace(req.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []requestdomain.PurchaseRequest
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	out := make([]requestdomain.Response, 0, len(records))
	for i := range records {
		out = append(out, *records[i].ToResponse())
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*requestdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, requestdomain.ErrInvalidActor
	}
	requestID, err := requestdomain.ParseID(id)
	if err != nil {
		return nil, requestdomain.ErrInvalidID
	}

	var record requestdomain.PurchaseRequest
	if err := s.load(ctx, s.db, actor, requestID, &record); err != nil {
		return nil, err
	}
	return record.ToResponse(), nil
}

// load fetches a request scoped to its owner. Missing and cross-tenant rows
// are indistinguishable to the caller.
func (s *Service) load(ctx context.Context, db *gorm.DB, actor, id snowflake.ID, out *requestdomain.PurchaseRequest) error {
	err := db.WithContext(ctx).Preload("Items").Where("id = ? AND owner_id = ?", id, actor).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return requestdomain.ErrNotFound
	}
	return err
}
