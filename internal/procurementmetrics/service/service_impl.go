package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/actorctx"
	"github.com/smallbiznis/procura/internal/cache"
	"github.com/smallbiznis/procura/internal/events"
	metricsdomain "github.com/smallbiznis/procura/internal/procurementmetrics/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const snapshotTTL = 15 * time.Second

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Publisher events.Publisher
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	publisher events.Publisher
	snapshots *cache.TTLCache[snowflake.ID, *metricsdomain.Snapshot]
}

func NewService(p ServiceParam) metricsdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("procurementmetrics.service"),
		publisher: p.Publisher,
		snapshots: cache.NewTTLCache[snowflake.ID, *metricsdomain.Snapshot](),
	}
}

func (s *Service) Snapshot(ctx context.Context) (*metricsdomain.Snapshot, error) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return nil, metricsdomain.ErrInvalidActor
	}

	if cached, ok := s.snapshots.Get(actor); ok {
		return cached, nil
	}

	snapshot, err := s.compute(ctx, actor)
	if err != nil {
		return nil, err
	}
	s.snapshots.Set(actor, snapshot, snapshotTTL)
	return snapshot, nil
}

// PublishSnapshot recomputes the caller's metrics and broadcasts them. Any
// failure is logged and swallowed: metrics delivery is a side effect and
// must never fail the mutation that triggered it.
func (s *Service) PublishSnapshot(ctx context.Context) {
	actor := actorctx.ActorFromContext(ctx)
	if actor == 0 {
		return
	}

	s.snapshots.Delete(actor)
	snapshot, err := s.compute(ctx, actor)
	if err != nil {
		s.log.Warn("metrics snapshot failed", zap.String("actor_id", actor.String()), zap.Error(err))
		return
	}
	s.snapshots.Set(actor, snapshot, snapshotTTL)

	s.publisher.PublishToResource(events.ResourcePurchase, events.ScopeMetrics, events.EventPurchaseMetricsUpdated, snapshot)
	s.publisher.PublishToActor(actor.String(), events.EventPurchaseMetricsUpdated, snapshot)
}

func (s *Service) compute(ctx context.Context, actor snowflake.ID) (*metricsdomain.Snapshot, error) {
	snapshot := &metricsdomain.Snapshot{}

	var requests struct {
		Total    int64
		Pending  int64
		Approved int64
		Rejected int64
	}
	err := s.db.WithContext(ctx).
		Table("purchase_requests").
		Select(`COUNT(*) AS total,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending,
			COUNT(CASE WHEN status = 'approved' THEN 1 END) AS approved,
			COUNT(CASE WHEN status = 'rejected' THEN 1 END) AS rejected`).
		Where("owner_id = ?", actor).
		Scan(&requests).Error
	if err != nil {
		return nil, err
	}
	snapshot.TotalRequests = requests.Total
	snapshot.PendingRequests = requests.Pending
	snapshot.ApprovedRequests = requests.Approved
	snapshot.RejectedRequests = requests.Rejected

	var orders struct {
		Total        int64
		Pending      int64
		Delivered    int64
		TotalSpend   int64
		PendingSpend int64
	}
	err = s.db.WithContext(ctx).
		Table("purchase_orders").
		Select(`COUNT(*) AS total,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending,
			COUNT(CASE WHEN status = 'delivered' THEN 1 END) AS delivered,
			COALESCE(SUM(CASE WHEN status != 'cancelled' THEN total_amount END), 0) AS total_spend,
			COALESCE(SUM(CASE WHEN status NOT IN ('delivered', 'cancelled') THEN total_amount END), 0) AS pending_spend`).
		Where("owner_id = ?", actor).
		Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	snapshot.TotalOrders = orders.Total
	snapshot.PendingOrders = orders.Pending
	snapshot.DeliveredOrders = orders.Delivered
	snapshot.TotalSpend = orders.TotalSpend
	snapshot.PendingSpend = orders.PendingSpend

	if orders.Total > 0 {
		snapshot.AvgOrderValue = orders.TotalSpend / orders.Total
		rate := float64(orders.Delivered) / float64(orders.Total) * 100
		snapshot.OnTimeDeliveryRate = rate
		snapshot.SupplierPerformance = rate
	}
	return snapshot, nil
}
