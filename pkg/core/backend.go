package core

// BookBackend defines the storage interface behind an OrderBook. Orders live
// in a single arena keyed by id; the sides only track membership. Priority
// views are derived by the book, not maintained by the backend.
type BookBackend interface {
	// Arena operations
	GetOrder(id OrderID) *Order
	StoreOrder(order *Order) error
	DeleteOrder(id OrderID)

	// Side membership
	AppendToSide(side Side, order *Order)
	RemoveFromSide(side Side, id OrderID) bool
	SideOf(id OrderID) (Side, bool)

	// Enumeration for derived views. Order of the result is unspecified.
	SideOrders(side Side) []*Order
	SideLen(side Side) int
}
