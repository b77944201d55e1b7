package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nikolaydubina/fpdecimal"
)

// OrderBook holds the resting orders of one security, split into a bid and an
// ask side. Orders are keyed by identity; the price-time-priority view is
// re-derived from current state on every call rather than kept as an index.
type OrderBook struct {
	security string
	backend  BookBackend
}

// NewOrderBook creates an OrderBook over the given backend
func NewOrderBook(security string, backend BookBackend) *OrderBook {
	return &OrderBook{
		security: security,
		backend:  backend,
	}
}

// Security returns the security symbol the book trades
func (ob *OrderBook) Security() string {
	return ob.security
}

// Order returns the resting order with the given id, or nil
func (ob *OrderBook) Order(id OrderID) *Order {
	return ob.backend.GetOrder(id)
}

// Insert adds a resting order to its side, keyed by identity. Only limit
// orders rest. An identity can appear in the book at most once, so a
// collision on either side fails with ErrDuplicateOrder.
func (ob *OrderBook) Insert(order *Order) error {
	if order == nil || order.IsMarketOrder() || order.IsIcebergOrder() {
		return ErrInvalidArgument
	}

	if err := ob.backend.StoreOrder(order); err != nil {
		return err
	}

	ob.backend.AppendToSide(order.Side(), order)
	return nil
}

// Pop removes and returns the order with the given id from whichever side
// holds it. Fails with ErrOrderNotFound when the id rests on neither side.
func (ob *OrderBook) Pop(id OrderID) (*Order, error) {
	side, ok := ob.backend.SideOf(id)
	if !ok {
		return nil, ErrOrderNotFound
	}

	order := ob.backend.GetOrder(id)
	ob.backend.RemoveFromSide(side, id)
	ob.backend.DeleteOrder(id)
	return order, nil
}

// PriorityView returns the side's resting orders in price-time priority:
// bids by price descending, asks by price ascending, ties broken by earliest
// arrival and then by id. The result is a fresh slice; the call never
// mutates book state.
func (ob *OrderBook) PriorityView(side Side) []*Order {
	orders := ob.backend.SideOrders(side)

	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.Price().Equal(b.Price()) {
			if side == Buy {
				return a.Price().GreaterThan(b.Price())
			}
			return a.Price().LessThan(b.Price())
		}
		if !a.ArrivalTime().Equal(b.ArrivalTime()) {
			return a.ArrivalTime().Before(b.ArrivalTime())
		}
		return a.ID() < b.ID()
	})

	return orders
}

// Best returns the head of the side's priority view. Fails with ErrEmptySide
// when the side holds no orders.
func (ob *OrderBook) Best(side Side) (*Order, error) {
	view := ob.PriorityView(side)
	if len(view) == 0 {
		return nil, ErrEmptySide
	}
	return view[0], nil
}

// AggregateSize returns the sum of resting sizes on a side
func (ob *OrderBook) AggregateSize(side Side) int64 {
	var total int64
	for _, order := range ob.backend.SideOrders(side) {
		total += order.Size()
	}
	return total
}

// Len returns the number of resting orders on a side
func (ob *OrderBook) Len(side Side) int {
	return ob.backend.SideLen(side)
}

// DepthLevel is one aggregated price level of a side
type DepthLevel struct {
	Price      fpdecimal.Decimal
	Size       int64
	Cumulative int64
	Orders     int
}

// Depth aggregates a side into price levels ordered best-first, with
// cumulative size per level. Used by display collaborators.
func (ob *OrderBook) Depth(side Side) []DepthLevel {
	view := ob.PriorityView(side)
	levels := make([]DepthLevel, 0)

	for _, order := range view {
		n := len(levels)
		if n > 0 && levels[n-1].Price.Equal(order.Price()) {
			levels[n-1].Size += order.Size()
			levels[n-1].Orders++
			continue
		}
		levels = append(levels, DepthLevel{
			Price:  order.Price(),
			Size:   order.Size(),
			Orders: 1,
		})
	}

	var cum int64
	for i := range levels {
		cum += levels[i].Size
		levels[i].Cumulative = cum
	}

	return levels
}

// String implements fmt.Stringer
func (ob *OrderBook) String() string {
	builder := strings.Builder{}

	builder.WriteString("Ask:")
	for _, lvl := range ob.Depth(Sell) {
		builder.WriteString(fmt.Sprintf("\n%s -> size: %d orders: %d", lvl.Price.String(), lvl.Size, lvl.Orders))
	}
	builder.WriteString("\nBid:")
	for _, lvl := range ob.Depth(Buy) {
		builder.WriteString(fmt.Sprintf("\n%s -> size: %d orders: %d", lvl.Price.String(), lvl.Size, lvl.Orders))
	}
	builder.WriteString("\n")

	return builder.String()
}
