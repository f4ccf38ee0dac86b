package events

// Event types emitted by the procurement workflow engine. Consumers
// pattern-match on these names, so they are a stable wire contract.
const (
	EventPurchaseRequestCreated  = "purchase_request_created"
	EventPurchaseRequestApproved = "purchase_request_approved"
	EventPurchaseRequestRejected = "purchase_request_rejected"
	EventPurchaseOrderCreated    = "purchase_order_created"
	EventPurchaseOrderUpdated    = "purchase_order_updated"
	EventPurchaseOrderStatus     = "purchase_order_status_changed"
	EventPurchaseOrderDelivered  = "purchase_order_delivered"
	EventSupplierCreated         = "supplier_created"
	EventSupplierUpdated         = "supplier_updated"
	EventPurchaseMetricsUpdated  = "purchase_metrics_updated"
)

// Resource scopes used when publishing workflow events.
const (
	ResourcePurchase  = "purchase"
	ResourceSuppliers = "suppliers"

	ScopeRequests = "requests"
	ScopeOrders   = "orders"
	ScopeMetrics  = "metrics"

	// ScopeAll is the wildcard resource id matching every id of a type.
	ScopeAll = "all"
)

// OrderStatusChangedPayload carries both sides of an order transition.
type OrderStatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Order     any    `json:"order,omitempty"`
}

// OrderDeliveredPayload is the inventory-facing delivery notification.
type OrderDeliveredPayload struct {
	OrderID    string `json:"order_id"`
	SupplierID string `json:"supplier_id"`
	Order      any    `json:"order,omitempty"`
}
