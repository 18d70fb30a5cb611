// Package dashboard serves the planner landing page: workflow counters,
// supplier rankings and volume trends, cached in Redis with versioned
// keys so order mutations can invalidate everything with one bump.
package dashboard

import (
	"time"

	"procura/internal/core/id"
	"procura/internal/core/types"
)

// StatusCount is a count of documents in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Summary is the headline workflow state.
type Summary struct {
	OrdersByStatus         []StatusCount `json:"ordersByStatus"`
	PurchaseOrdersByStatus []StatusCount `json:"purchaseOrdersByStatus"`
	// PendingConfirmations counts purchase orders sitting with suppliers
	PendingConfirmations int64 `json:"pendingConfirmations"`
	// LatePurchaseOrders counts undelivered purchase orders past their
	// required date
	LatePurchaseOrders int64 `json:"latePurchaseOrders"`
	// OpenOrders counts customer orders in a non-terminal status
	OpenOrders  int64     `json:"openOrders"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// TopSupplier ranks one supplier over the trailing window.
type TopSupplier struct {
	SupplierID        id.ID          `json:"supplierId"`
	SupplierName      string         `json:"supplierName"`
	AllocatedQuantity types.Quantity `json:"allocatedQuantity"`
	ConfirmationRate  float64        `json:"confirmationRate"`
	OnTimeRate        float64        `json:"onTimeRate"`
	Score             float64        `json:"score"`
}

// MonthlyVolumePoint is one month of ordered versus delivered quantity.
type MonthlyVolumePoint struct {
	Month     time.Time      `json:"month"`
	Ordered   types.Quantity `json:"ordered"`
	Delivered types.Quantity `json:"delivered"`
}
