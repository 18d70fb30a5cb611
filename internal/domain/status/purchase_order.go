package status

// PurchaseOrderStatus is the lifecycle state of a purchase order.
type PurchaseOrderStatus string

const (
	POCreated          PurchaseOrderStatus = "Created"
	POSentToSupplier   PurchaseOrderStatus = "SentToSupplier"
	POConfirmed        PurchaseOrderStatus = "Confirmed"
	PORejected         PurchaseOrderStatus = "Rejected"
	POInProduction     PurchaseOrderStatus = "InProduction"
	POReadyForShipment PurchaseOrderStatus = "ReadyForShipment"
	POShipped          PurchaseOrderStatus = "Shipped"
	PODelivered        PurchaseOrderStatus = "Delivered"
	POClosed           PurchaseOrderStatus = "Closed"
	POCancelled        PurchaseOrderStatus = "Cancelled"
)

// PurchaseOrders is the purchase order state machine.
var PurchaseOrders = NewMachine("PurchaseOrder", map[string][]string{
	string(POCreated):          {string(POSentToSupplier), string(POCancelled)},
	string(POSentToSupplier):   {string(POConfirmed), string(PORejected), string(POCancelled)},
	string(POConfirmed):        {string(POInProduction), string(POCancelled)},
	string(PORejected):         {string(POCancelled)},
	string(POInProduction):     {string(POReadyForShipment), string(POCancelled)},
	string(POReadyForShipment): {string(POShipped)},
	string(POShipped):          {string(PODelivered)},
	string(PODelivered):        {string(POClosed)},
	string(POClosed):           {},
	string(POCancelled):        {},
})

// poRank orders the happy-path statuses for progress comparisons.
// Rejected and Cancelled carry no rank: they are inactive.
var poRank = map[PurchaseOrderStatus]int{
	POCreated:          0,
	POSentToSupplier:   1,
	POConfirmed:        2,
	POInProduction:     3,
	POReadyForShipment: 4,
	POShipped:          5,
	PODelivered:        6,
	POClosed:           7,
}

func (s PurchaseOrderStatus) String() string { return string(s) }

// Valid reports whether the status is part of the machine.
func (s PurchaseOrderStatus) Valid() bool {
	return PurchaseOrders.Known(string(s))
}

// IsTerminal reports whether no further transitions exist.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return PurchaseOrders.IsTerminal(string(s))
}

// IsActive reports whether the purchase order still counts toward its
// customer order. Rejected and cancelled orders do not.
func (s PurchaseOrderStatus) IsActive() bool {
	return s != PORejected && s != POCancelled
}

// IsEditable reports whether header and items may still change freely.
func (s PurchaseOrderStatus) IsEditable() bool {
	return s == POCreated
}

// AtLeast reports whether the status reached other on the happy path.
// Inactive statuses never reach anything.
func (s PurchaseOrderStatus) AtLeast(other PurchaseOrderStatus) bool {
	r, ok := poRank[s]
	if !ok {
		return false
	}
	or, ok := poRank[other]
	if !ok {
		return false
	}
	return r >= or
}

// CanCancel reports whether the order may still be cancelled.
// Shipment and later stages cannot be recalled.
func (s PurchaseOrderStatus) CanCancel() bool {
	return PurchaseOrders.Can(string(s), string(POCancelled))
}
