package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/actorctx"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/events"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
	supplierdomain "github.com/smallbiznis/procura/internal/supplier/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type capturedEvent struct {
	resourceType string
	resourceID   string
	actorID      string
	eventType    string
	data         any
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturePublisher) PublishGlobal(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{eventType: eventType, data: data})
}

func (p *capturePublisher) PublishToResource(resourceType, resourceID, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{
		resourceType: resourceType,
		resourceID:   resourceID,
		eventType:    eventType,
		data:         data,
	})
}

func (p *capturePublisher) PublishToActor(actorID, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{actorID: actorID, eventType: eventType, data: data})
}

func (p *capturePublisher) byType(eventType string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, ev := range p.events {
		if ev.eventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&supplierdomain.Supplier{},
		&orderdomain.PurchaseOrder{},
		&orderdomain.PurchaseOrderItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (supplierdomain.Service, *gorm.DB, *capturePublisher) {
	t.Helper()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	pub := &capturePublisher{}
	svc := NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.Fixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Publisher: pub,
	})
	return svc, db, pub
}

func actorContext(id int64) context.Context {
	return actorctx.WithActor(context.Background(), snowflake.ID(id))
}

func TestCreateDefaultsAndPublishes(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := actorContext(42)

	resp, err := svc.Create(ctx, supplierdomain.CreateRequest{
		Name:  "  Acme Industrial  ",
		Email: " sales@acme.example ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Name != "Acme Industrial" {
		t.Fatalf("expected trimmed name, got %q", resp.Name)
	}
	if resp.Email != "sales@acme.example" {
		t.Fatalf("expected trimmed email, got %q", resp.Email)
	}
	if resp.Status != supplierdomain.StatusActive {
		t.Fatalf("expected default status active, got %q", resp.Status)
	}

	published := pub.byType(events.EventSupplierCreated)
	if len(published) != 1 {
		t.Fatalf("expected 1 supplier_created event, got %d", len(published))
	}
	if published[0].resourceType != events.ResourceSuppliers || published[0].resourceID != resp.ID {
		t.Fatalf("event scoped to (%s, %s), want (suppliers, %s)",
			published[0].resourceType, published[0].resourceID, resp.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), supplierdomain.CreateRequest{Name: "X"}); !errors.Is(err, supplierdomain.ErrInvalidActor) {
		t.Fatalf("expected invalid actor, got %v", err)
	}

	ctx := actorContext(42)
	if _, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "   "}); !errors.Is(err, supplierdomain.ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "X", Status: "bogus"}); !errors.Is(err, supplierdomain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := actorContext(42)

	created, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Initial", Phone: "555"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Renamed"
	status := supplierdomain.StatusInactive
	updated, err := svc.Update(ctx, supplierdomain.UpdateRequest{
		ID:     created.ID,
		Name:   &name,
		Status: &status,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" || updated.Status != supplierdomain.StatusInactive {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Phone != "555" {
		t.Fatalf("untouched field changed: %q", updated.Phone)
	}

	if len(pub.byType(events.EventSupplierUpdated)) != 1 {
		t.Fatalf("expected supplier_updated event")
	}

	empty := "  "
	if _, err := svc.Update(ctx, supplierdomain.UpdateRequest{ID: created.ID, Name: &empty}); !errors.Is(err, supplierdomain.ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}

func TestGetCrossTenantIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(actorContext(42), supplierdomain.CreateRequest{Name: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetByID(actorContext(99), created.ID); !errors.Is(err, supplierdomain.ErrNotFound) {
		t.Fatalf("expected not found for foreign actor, got %v", err)
	}
	if _, err := svc.GetByID(actorContext(42), "123456789"); !errors.Is(err, supplierdomain.ErrNotFound) {
		t.Fatalf("expected not found for missing id, got %v", err)
	}
}

func TestDeleteBlockedByOrders(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := actorContext(42)

	created, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Referenced"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	supplierID, _ := supplierdomain.ParseID(created.ID)

	order := &orderdomain.PurchaseOrder{
		ID:         snowflake.ID(777),
		OwnerID:    snowflake.ID(42),
		SupplierID: supplierID,
		Status:     orderdomain.StatusPending,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); !errors.Is(err, supplierdomain.ErrSupplierInUse) {
		t.Fatalf("expected supplier in use, got %v", err)
	}

	if err := db.Delete(order).Error; err != nil {
		t.Fatalf("remove order: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete after orders removed: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, supplierdomain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := actorContext(42)

	inactive := supplierdomain.StatusInactive
	if _, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Acme East"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Acme West", Status: inactive}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Globex"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(actorContext(7), supplierdomain.CreateRequest{Name: "Acme Foreign"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(ctx, supplierdomain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 own suppliers, got %d", len(all))
	}

	acme, err := svc.List(ctx, supplierdomain.ListRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(acme) != 2 {
		t.Fatalf("expected 2 Acme suppliers, got %d", len(acme))
	}

	filtered, err := svc.List(ctx, supplierdomain.ListRequest{Name: "Acme", Status: "inactive"})
	if err != nil {
		t.Fatalf("list by name and status: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "Acme West" {
		t.Fatalf("expected only Acme West, got %+v", filtered)
	}
}

func TestPerformanceSnapshot(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := actorContext(42)

	created, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Measured"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	supplierID, _ := supplierdomain.ParseID(created.ID)

	statuses := []orderdomain.Status{
		orderdomain.StatusDelivered,
		orderdomain.StatusDelivered,
		orderdomain.StatusDelivered,
		orderdomain.StatusConfirmed,
	}
	for i, status := range statuses {
		order := &orderdomain.PurchaseOrder{
			ID:         snowflake.ID(1000 + i),
			OwnerID:    snowflake.ID(42),
			SupplierID: supplierID,
			Status:     status,
		}
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("insert order: %v", err)
		}
	}

	snapshot, err := svc.Performance(ctx, created.ID)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if snapshot.TotalOrders != 4 || snapshot.DeliveredOrders != 3 {
		t.Fatalf("expected 3/4 delivered, got %d/%d", snapshot.DeliveredOrders, snapshot.TotalOrders)
	}
	if snapshot.OrderFulfillmentRate != 0.75 {
		t.Fatalf("expected fulfillment rate 0.75, got %v", snapshot.OrderFulfillmentRate)
	}
	if snapshot.OverallScore != snapshot.OrderFulfillmentRate {
		t.Fatalf("score diverged from fulfillment rate")
	}
}

func TestPerformanceNoOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := actorContext(42)

	created, err := svc.Create(ctx, supplierdomain.CreateRequest{Name: "Fresh"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshot, err := svc.Performance(ctx, created.ID)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if snapshot.TotalOrders != 0 || snapshot.OrderFulfillmentRate != 0 {
		t.Fatalf("expected zeroed snapshot, got %+v", snapshot)
	}
}
