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

type fixture struct {
	svc        orderdomain.Service
	db         *gorm.DB
	pub        *capturePublisher
	ctx        context.Context
	supplierID string
}

func newFixture(t *testing.T) *fixture {
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

	supplier := &supplierdomain.Supplier{
		ID:      node.Generate(),
		OwnerID: snowflake.ID(42),
		Name:    "Acme Industrial",
		Status:  supplierdomain.StatusActive,
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("insert supplier: %v", err)
	}

	return &fixture{
		svc:        svc,
		db:         db,
		pub:        pub,
		ctx:        actorctx.WithActor(context.Background(), snowflake.ID(42)),
		supplierID: supplier.ID.String(),
	}
}

func (f *fixture) createOrder(t *testing.T) *orderdomain.Response {
	t.Helper()
	resp, err := f.svc.Create(f.ctx, orderdomain.CreateRequest{
		SupplierID: f.supplierID,
		Items: []orderdomain.ItemInput{
			{Description: "Steel brackets", Quantity: 5, UnitPrice: 1000},
			{Description: "Hinges", Quantity: 2, UnitPrice: 2500},
		},
		Adjustments: orderdomain.Adjustments{TaxAmount: 800},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return resp
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	if resp.Status != orderdomain.StatusPending {
		t.Fatalf("new order status = %s, want pending", resp.Status)
	}
	if resp.Subtotal != 10000 {
		t.Fatalf("subtotal = %d, want 10000", resp.Subtotal)
	}
	if resp.TotalAmount != 10800 {
		t.Fatalf("total = %d, want 10800", resp.TotalAmount)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].LineTotal != 5000 || resp.Items[1].LineTotal != 5000 {
		t.Fatalf("line totals wrong: %+v", resp.Items)
	}

	created := f.pub.byType(events.EventPurchaseOrderCreated)
	if len(created) != 2 {
		t.Fatalf("expected resource and actor events, got %d", len(created))
	}
	if created[0].resourceType != events.ResourcePurchase || created[0].resourceID != events.ScopeOrders {
		t.Fatalf("event scoped to (%s, %s), want (purchase, orders)", created[0].resourceType, created[0].resourceID)
	}
	if created[1].actorID != "42" {
		t.Fatalf("actor event routed to %q, want 42", created[1].actorID)
	}
}

func TestCreateRejectsUnknownSupplier(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, orderdomain.CreateRequest{
		SupplierID: "987654321",
		Items:      []orderdomain.ItemInput{{Description: "Bolts", Quantity: 1, UnitPrice: 100}},
	})
	if !errors.Is(err, orderdomain.ErrInvalidSupplier) {
		t.Fatalf("expected invalid supplier, got %v", err)
	}
}

func TestCreateRejectsForeignSupplier(t *testing.T) {
	f := newFixture(t)

	foreign := actorctx.WithActor(context.Background(), snowflake.ID(99))
	_, err := f.svc.Create(foreign, orderdomain.CreateRequest{
		SupplierID: f.supplierID,
		Items:      []orderdomain.ItemInput{{Description: "Bolts", Quantity: 1, UnitPrice: 100}},
	})
	if !errors.Is(err, orderdomain.ErrInvalidSupplier) {
		t.Fatalf("expected invalid supplier for foreign actor, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		items []orderdomain.ItemInput
		want  error
	}{
		{"empty items", nil, orderdomain.ErrInvalidItems},
		{"zero quantity", []orderdomain.ItemInput{{Description: "X", Quantity: 0, UnitPrice: 10}}, orderdomain.ErrInvalidQuantity},
		{"negative quantity", []orderdomain.ItemInput{{Description: "X", Quantity: -1, UnitPrice: 10}}, orderdomain.ErrInvalidQuantity},
		{"negative price", []orderdomain.ItemInput{{Description: "X", Quantity: 1, UnitPrice: -5}}, orderdomain.ErrInvalidItems},
		{"no description or product", []orderdomain.ItemInput{{Quantity: 1, UnitPrice: 10}}, orderdomain.ErrInvalidItems},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, orderdomain.CreateRequest{
				SupplierID: f.supplierID,
				Items:      tc.items,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStatusWalkToDelivered(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	walk := []orderdomain.Status{
		orderdomain.StatusApproved,
		orderdomain.StatusSentToSupplier,
		orderdomain.StatusConfirmed,
		orderdomain.StatusPartiallyDelivered,
		orderdomain.StatusPartiallyDelivered,
		orderdomain.StatusDelivered,
	}
	for _, next := range walk {
		updated, err := f.svc.SetStatus(f.ctx, orderdomain.SetStatusRequest{ID: resp.ID, Status: next})
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("status = %s after transition to %s", updated.Status, next)
		}
	}

	final, err := f.svc.GetByID(f.ctx, resp.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.ApproverID == "" || final.ApprovedAt == nil {
		t.Fatalf("approval metadata not recorded: %+v", final)
	}

	changes := f.pub.byType(events.EventPurchaseOrderStatus)
	if len(changes) != len(walk) {
		t.Fatalf("expected %d status events, got %d", len(walk), len(changes))
	}
	first, ok := changes[0].data.(events.OrderStatusChangedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", changes[0].data)
	}
	if first.OldStatus != "pending" || first.NewStatus != "approved" {
		t.Fatalf("first transition payload %s→%s, want pending→approved", first.OldStatus, first.NewStatus)
	}

	delivered := f.pub.byType(events.EventPurchaseOrderDelivered)
	if len(delivered) != 1 {
		t.Fatalf("expected exactly one delivered event, got %d", len(delivered))
	}
	payload, ok := delivered[0].data.(events.OrderDeliveredPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", delivered[0].data)
	}
	if payload.OrderID != resp.ID || payload.SupplierID != f.supplierID {
		t.Fatalf("delivered payload wrong: %+v", payload)
	}
}

func TestIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	cases := []struct {
		name string
		from orderdomain.Status
		to   orderdomain.Status
	}{
		{"skip approval", orderdomain.StatusPending, orderdomain.StatusConfirmed},
		{"skip confirmation", orderdomain.StatusApproved, orderdomain.StatusDelivered},
		{"backwards", orderdomain.StatusConfirmed, orderdomain.StatusApproved},
		{"leave delivered", orderdomain.StatusDelivered, orderdomain.StatusCancelled},
		{"leave cancelled", orderdomain.StatusCancelled, orderdomain.StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.db.Model(&orderdomain.PurchaseOrder{}).
				Where("id = ?", resp.ID).
				Update("status", tc.from).Error
			if err != nil {
				t.Fatalf("force status: %v", err)
			}

			_, err = f.svc.SetStatus(f.ctx, orderdomain.SetStatusRequest{ID: resp.ID, Status: tc.to})
			if !errors.Is(err, orderdomain.ErrIllegalTransition) {
				t.Fatalf("expected illegal transition for %s→%s, got %v", tc.from, tc.to, err)
			}
		})
	}
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	f := newFixture(t)

	nonTerminal := []orderdomain.Status{
		orderdomain.StatusPending,
		orderdomain.StatusApproved,
		orderdomain.StatusSentToSupplier,
		orderdomain.StatusConfirmed,
		orderdomain.StatusPartiallyDelivered,
	}
	for _, from := range nonTerminal {
		resp := f.createOrder(t)
		err := f.db.Model(&orderdomain.PurchaseOrder{}).
			Where("id = ?", resp.ID).
			Update("status", from).Error
		if err != nil {
			t.Fatalf("force status: %v", err)
		}

		updated, err := f.svc.SetStatus(f.ctx, orderdomain.SetStatusRequest{ID: resp.ID, Status: orderdomain.StatusCancelled})
		if err != nil {
			t.Fatalf("cancel from %s: %v", from, err)
		}
		if updated.Status != orderdomain.StatusCancelled {
			t.Fatalf("status = %s, want cancelled", updated.Status)
		}
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	_, err := f.svc.SetStatus(f.ctx, orderdomain.SetStatusRequest{ID: resp.ID, Status: "shipped"})
	if !errors.Is(err, orderdomain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestUpdateReplacesItemsAndRecomputes(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	tax := int64(500)
	updated, err := f.svc.Update(f.ctx, orderdomain.UpdateRequest{
		ID: resp.ID,
		Items: []orderdomain.ItemInput{
			{Description: "Replacement line", Quantity: 3, UnitPrice: 2000},
		},
		TaxAmount: &tax,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("expected items replaced, got %d", len(updated.Items))
	}
	if updated.Subtotal != 6000 || updated.TotalAmount != 6500 {
		t.Fatalf("totals = %d/%d, want 6000/6500", updated.Subtotal, updated.TotalAmount)
	}

	var itemCount int64
	if err := f.db.Model(&orderdomain.PurchaseOrderItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if itemCount != 1 {
		t.Fatalf("expected old rows removed, found %d items", itemCount)
	}
}

func TestUpdateRejectsTerminalOrder(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	err := f.db.Model(&orderdomain.PurchaseOrder{}).
		Where("id = ?", resp.ID).
		Update("status", orderdomain.StatusCancelled).Error
	if err != nil {
		t.Fatalf("force status: %v", err)
	}

	notes := "too late"
	_, err = f.svc.Update(f.ctx, orderdomain.UpdateRequest{ID: resp.ID, Notes: &notes})
	if !errors.Is(err, orderdomain.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestGetCrossTenantIndistinguishable(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t)

	foreign := actorctx.WithActor(context.Background(), snowflake.ID(99))
	if _, err := f.svc.GetByID(foreign, resp.ID); !errors.Is(err, orderdomain.ErrNotFound) {
		t.Fatalf("expected not found for foreign actor, got %v", err)
	}
}

func TestListFiltersByStatusAndSupplier(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t)
	f.createOrder(t)

	if _, err := f.svc.SetStatus(f.ctx, orderdomain.SetStatusRequest{ID: first.ID, Status: orderdomain.StatusApproved}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	approved, err := f.svc.List(f.ctx, orderdomain.ListRequest{Status: "approved"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != first.ID {
		t.Fatalf("expected only approved order, got %+v", approved)
	}

	bySupplier, err := f.svc.List(f.ctx, orderdomain.ListRequest{SupplierID: f.supplierID})
	if err != nil {
		t.Fatalf("list by supplier: %v", err)
	}
	if len(bySupplier) != 2 {
		t.Fatalf("expected 2 orders for supplier, got %d", len(bySupplier))
	}
}
