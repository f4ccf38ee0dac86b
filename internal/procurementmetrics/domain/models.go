package domain

// Snapshot is the dashboard view of one actor's procurement state, derived
// on demand and never stored.
type Snapshot struct {
	TotalRequests    int64 `json:"total_requests"`
	PendingRequests  int64 `json:"pending_requests"`
	ApprovedRequests int64 `json:"approved_requests"`
	RejectedRequests int64 `json:"rejected_requests"`

	TotalOrders     int64 `json:"total_orders"`
	PendingOrders   int64 `json:"pending_orders"`
	DeliveredOrders int64 `json:"delivered_orders"`

	// TotalSpend covers every non-cancelled order; PendingSpend is the
	// portion not yet delivered. Minor currency units.
	TotalSpend    int64 `json:"total_spend"`
	PendingSpend  int64 `json:"pending_spend"`
	AvgOrderValue int64 `json:"avg_order_value"`

	// OnTimeDeliveryRate and SupplierPerformance are both
	// delivered/total × 100: no delivery-date field exists, so a true
	// timeliness rate cannot be computed and the two remain one ratio.
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	SupplierPerformance float64 `json:"supplier_performance"`
}
