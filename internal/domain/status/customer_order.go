package status

// CustomerOrderStatus is the lifecycle state of a customer order.
type CustomerOrderStatus string

const (
	OrderCreated               CustomerOrderStatus = "Created"
	OrderPurchaseOrdersCreated CustomerOrderStatus = "PurchaseOrdersCreated"
	OrderPartiallyConfirmed    CustomerOrderStatus = "PartiallyConfirmed"
	OrderConfirmed             CustomerOrderStatus = "Confirmed"
	OrderInProduction          CustomerOrderStatus = "InProduction"
	OrderDelivered             CustomerOrderStatus = "Delivered"
	OrderCompleted             CustomerOrderStatus = "Completed"
	OrderCancelled             CustomerOrderStatus = "Cancelled"
)

// CustomerOrders is the customer order state machine.
// The back-edges to Created cover full replanning after all purchase
// orders of an order were rejected or cancelled.
var CustomerOrders = NewMachine("CustomerOrder", map[string][]string{
	string(OrderCreated):               {string(OrderPurchaseOrdersCreated), string(OrderCancelled)},
	string(OrderPurchaseOrdersCreated): {string(OrderPartiallyConfirmed), string(OrderConfirmed), string(OrderCreated), string(OrderCancelled)},
	string(OrderPartiallyConfirmed):    {string(OrderConfirmed), string(OrderPurchaseOrdersCreated), string(OrderCreated), string(OrderCancelled)},
	string(OrderConfirmed):             {string(OrderInProduction), string(OrderCreated), string(OrderCancelled)},
	string(OrderInProduction):          {string(OrderDelivered), string(OrderCancelled)},
	string(OrderDelivered):             {string(OrderCompleted)},
	string(OrderCompleted):             {},
	string(OrderCancelled):             {},
})

func (s CustomerOrderStatus) String() string { return string(s) }

// Valid reports whether the status is part of the machine.
func (s CustomerOrderStatus) Valid() bool {
	return CustomerOrders.Known(string(s))
}

// IsTerminal reports whether no further transitions exist.
func (s CustomerOrderStatus) IsTerminal() bool {
	return CustomerOrders.IsTerminal(string(s))
}

// IsEditable reports whether header and lines may still change.
func (s CustomerOrderStatus) IsEditable() bool {
	return s == OrderCreated
}

// DeriveOrderStatus computes the customer order status from its active
// purchase orders. Rejected and cancelled purchase orders are not
// active and must be filtered out by the caller.
func DeriveOrderStatus(active []PurchaseOrderStatus) CustomerOrderStatus {
	if len(active) == 0 {
		return OrderCreated
	}

	allDelivered := true
	allInProduction := true
	allConfirmed := true
	anyConfirmed := false
	for _, s := range active {
		if !s.AtLeast(PODelivered) {
			allDelivered = false
		}
		if !s.AtLeast(POInProduction) {
			allInProduction = false
		}
		if !s.AtLeast(POConfirmed) {
			allConfirmed = false
		} else {
			anyConfirmed = true
		}
	}

	switch {
	case allDelivered:
		return OrderDelivered
	case allInProduction:
		return OrderInProduction
	case allConfirmed:
		return OrderConfirmed
	case anyConfirmed:
		return OrderPartiallyConfirmed
	default:
		return OrderPurchaseOrdersCreated
	}
}
