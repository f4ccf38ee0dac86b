package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/actorctx"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/events"
	supplierdomain "github.com/smallbiznis/procura/internal/supplier/domain"
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

func NewService(p ServiceParam) supplierdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("supplier.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *Service) Create(ctx context.Context, req supplierdomain.CreateRequest) (*supplierdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, supplierdomain.ErrInvalidActor
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, supplierdomain.ErrInvalidName
	}
	status := req.Status
	if status == "" {
		status = supplierdomain.StatusActive
	}
	if !status.Valid() {
		return nil, supplierdomain.ErrInvalidStatus
	}

	now := s.clock.Now()
	record := &supplierdomain.Supplier{
		ID:            s.genID.Generate(),
		OwnerID:       actor,
		Name:          name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	s.publisher.PublishToResource(events.ResourceSuppliers, record.ID.String(), events.EventSupplierCreated, resp)
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req supplierdomain.UpdateRequest) (*supplierdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, supplierdomain.ErrInvalidActor
	}
	id, err := supplierdomain.ParseID(req.ID)
	if err != nil {
		return nil, supplierdomain.ErrInvalidID
	}

	var record supplierdomain.Supplier
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner_id = ?", id, actor).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return supplierdomain.ErrNotFound
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return supplierdomain.ErrInvalidName
			}
			record.Name = name
		}
		if req.ContactPerson != nil {
			record.ContactPerson = strings.TrimSpace(*req.ContactPerson)
		}
		if req.Email != nil {
			record.Email = strings.TrimSpace(*req.Email)
		}
		if req.Phone != nil {
			record.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Address != nil {
			record.Address = strings.TrimSpace(*req.Address)
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return supplierdomain.ErrInvalidStatus
			}
			record.Status = *req.Status
		}
		record.UpdatedAt = s.clock.Now()

		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	resp := record.ToResponse()
	s.publisher.PublishToResource(events.ResourceSuppliers, record.ID.String(), events.EventSupplierUpdated, resp)
	return resp, nil
}

func (s *Service) List(ctx context.Context, req supplierdomain.ListRequest) ([]supplierdomain.Response, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, supplierdomain.ErrInvalidActor
	}

	query := s.db.WithContext(ctx).Where("owner_id = ?", actor)
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []supplierdomain.Supplier
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	out := make([]supplierdomain.Response, 0, len(records))
	for i := range records {
		out = append(out, *records[i].ToResponse())
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*supplierdomain.Response, error) {
	record, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return record.ToResponse(), nil
}

// Delete refuses to remove a supplier that purchase orders still reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return supplierdomain.ErrInvalidActor
	}
	supplierID, err := supplierdomain.ParseID(id)
	if err != nil {
		return supplierdomain.ErrInvalidID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record supplierdomain.Supplier
		if err := tx.Where("id = ? AND owner_id = ?", supplierID, actor).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return supplierdomain.ErrNotFound
			}
			return err
		}

		var dependents int64
		if err := tx.Table("purchase_orders").Where("supplier_id = ?", supplierID).Count(&dependents).Error; err != nil {
			return err
		}
		if dependents > 0 {
			return supplierdomain.ErrSupplierInUse
		}

		return tx.Delete(&record).Error
	})
}

// Performance derives the fulfillment snapshot from current order state.
func (s *Service) Performance(ctx context.Context, id string) (*supplierdomain.PerformanceSnapshot, error) {
	record, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var totals struct {
		Total     int64
		Delivered int64
	}
	err = s.db.WithContext(ctx).
		Table("purchase_orders").
		Select("COUNT(*) AS total, COUNT(CASE WHEN status = 'delivered' THEN 1 END) AS delivered").
		Where("supplier_id = ?", record.ID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	snapshot := &supplierdomain.PerformanceSnapshot{
		SupplierID:      record.ID.String(),
		TotalOrders:     totals.Total,
		DeliveredOrders: totals.Delivered,
	}
	if totals.Total > 0 {
		snapshot.OrderFulfillmentRate = float64(totals.Delivered) / float64(totals.Total)
	}
	snapshot.OverallScore = snapshot.OrderFulfillmentRate
	return snapshot, nil
}

func (s *Service) find(ctx context.Context, db *gorm.DB, raw string) (*supplierdomain.Supplier, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, supplierdomain.ErrInvalidActor
	}
	id, err := supplierdomain.ParseID(raw)
	if err != nil {
		return nil, supplierdomain.ErrInvalidID
	}

	var record supplierdomain.Supplier
	// Missing and cross-tenant rows are deliberately indistinguishable.
	if err := db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, actor).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, supplierdomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}
