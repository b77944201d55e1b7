// Package memory provides the in-memory BookBackend used by the matching
// core. Orders live in a single arena keyed by id; each side is a set of ids.
// Priority ordering is derived by the book on demand, so mutation here stays
// a handful of map operations.
package memory

import (
	"sync"

	"github.com/claysome/venue/pkg/core"
)

// MemoryBackend implements core.BookBackend with map storage
type MemoryBackend struct {
	mu     sync.RWMutex
	orders map[core.OrderID]*core.Order
	bids   map[core.OrderID]struct{}
	asks   map[core.OrderID]struct{}
}

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		orders: make(map[core.OrderID]*core.Order),
		bids:   make(map[core.OrderID]struct{}),
		asks:   make(map[core.OrderID]struct{}),
	}
}

// GetOrder retrieves an order by id, or nil
func (b *MemoryBackend) GetOrder(id core.OrderID) *core.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.orders[id]
}

// StoreOrder stores an order in the arena. Fails with ErrDuplicateOrder when
// the id is already present.
func (b *MemoryBackend) StoreOrder(order *core.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.orders[order.ID()]; exists {
		return core.ErrDuplicateOrder
	}

	b.orders[order.ID()] = order
	return nil
}

// DeleteOrder removes an order from the arena
func (b *MemoryBackend) DeleteOrder(id core.OrderID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.orders, id)
}

// AppendToSide adds an order id to the side's membership set
func (b *MemoryBackend) AppendToSide(side core.Side, order *core.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sideSet(side)[order.ID()] = struct{}{}
}

// RemoveFromSide removes an order id from the side's membership set
func (b *MemoryBackend) RemoveFromSide(side core.Side, id core.OrderID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.sideSet(side)
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	return true
}

// SideOf reports which side holds the given id
func (b *MemoryBackend) SideOf(id core.OrderID) (core.Side, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.bids[id]; ok {
		return core.Buy, true
	}
	if _, ok := b.asks[id]; ok {
		return core.Sell, true
	}
	return core.Buy, false
}

// SideOrders returns a fresh slice of the side's resting orders, unordered
func (b *MemoryBackend) SideOrders(side core.Side) []*core.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	set := b.sideSet(side)
	orders := make([]*core.Order, 0, len(set))
	for id := range set {
		if order, ok := b.orders[id]; ok {
			orders = append(orders, order)
		}
	}
	return orders
}

// SideLen returns the number of orders resting on a side
func (b *MemoryBackend) SideLen(side core.Side) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sideSet(side))
}

// sideSet must be called with the lock held
func (b *MemoryBackend) sideSet(side core.Side) map[core.OrderID]struct{} {
	if side == core.Buy {
		return b.bids
	}
	return b.asks
}
