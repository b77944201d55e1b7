package core

import (
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nikolaydubina/fpdecimal"
)

// Side represents buy or sell side of the order
type Side int

// Order sides
const (
	Sell Side = iota
	Buy
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Status represents the lifecycle state of an order
type Status string

// Order statuses
const (
	StatusPending         Status = "PENDING"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCancelled       Status = "CANCELLED"
)

// OrderType represents type of the order
type OrderType string

// Order types
const (
	TypeMarket  OrderType = "MARKET"
	TypeLimit   OrderType = "LIMIT"
	TypeIceberg OrderType = "ICEBERG"
)

// OrderID identifies an order. IDs are process-unique, strictly increasing,
// assigned at construction and never reused.
type OrderID uint64

var orderSeq atomic.Uint64

// InitOrderSequence sets the starting point of the process-wide order id
// sequence. The next constructed order gets start+1.
func InitOrderSequence(start uint64) {
	orderSeq.Store(start)
}

func nextOrderID() OrderID {
	return OrderID(orderSeq.Add(1))
}

// Order stores information about a single order. An Order is owned by exactly
// one container at a time: the book side resting it, the engine matching it,
// or the caller holding it.
type Order struct {
	id           OrderID
	orderType    OrderType
	side         Side
	size         int64
	originalSize int64
	security     string
	status       Status
	arrivalTime  time.Time
	price        fpdecimal.Decimal
	execPrice    fpdecimal.Decimal
	executed     bool

	// Iceberg fields. display is the peak size; for an iceberg order size
	// holds the hidden quantity not yet cut into a peak. Peak orders are
	// limit orders flagged with peak and the parent iceberg id.
	display  int64
	peak     bool
	parentID OrderID
}

// NewMarketOrder creates a market order. Market orders carry no price limit
// and never rest in the book.
func NewMarketOrder(side Side, size int64, security string) (*Order, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	return &Order{
		id:           nextOrderID(),
		orderType:    TypeMarket,
		side:         side,
		size:         size,
		originalSize: size,
		security:     security,
		status:       StatusPending,
		arrivalTime:  time.Now(),
	}, nil
}

// NewLimitOrder creates a limit order with an immutable price limit.
func NewLimitOrder(side Side, size int64, price fpdecimal.Decimal, security string) (*Order, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	if price.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidPrice
	}

	return &Order{
		id:           nextOrderID(),
		orderType:    TypeLimit,
		side:         side,
		size:         size,
		originalSize: size,
		security:     security,
		status:       StatusPending,
		arrivalTime:  time.Now(),
		price:        price,
	}, nil
}

// NewIcebergOrder creates an iceberg order holding total hidden size of which
// at most display is visible in the book at any time.
func NewIcebergOrder(side Side, total, display int64, price fpdecimal.Decimal, security string) (*Order, error) {
	if total <= 0 || display <= 0 {
		return nil, ErrInvalidSize
	}

	if price.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidPrice
	}

	return &Order{
		id:           nextOrderID(),
		orderType:    TypeIceberg,
		side:         side,
		size:         total,
		originalSize: total,
		security:     security,
		status:       StatusPending,
		arrivalTime:  time.Now(),
		price:        price,
		display:      display,
	}, nil
}

// CutPeak carves the next visible slice off an iceberg order. It decreases
// the hidden size and returns a fresh limit order (new id, arrival time now)
// sized min(display, hidden). Returns nil when the order is not an iceberg or
// no hidden size remains.
func (o *Order) CutPeak(now time.Time) *Order {
	if !o.IsIcebergOrder() || o.size <= 0 {
		return nil
	}

	n := min(o.display, o.size)
	o.size -= n

	return &Order{
		id:           nextOrderID(),
		orderType:    TypeLimit,
		side:         o.side,
		size:         n,
		originalSize: n,
		security:     o.security,
		status:       StatusPending,
		arrivalTime:  now,
		price:        o.price,
		peak:         true,
		parentID:     o.id,
	}
}

// ID returns the order identity
func (o *Order) ID() OrderID {
	return o.id
}

// Type returns the order type
func (o *Order) Type() OrderType {
	return o.orderType
}

// Side returns side of the Order
func (o *Order) Side() Side {
	return o.side
}

// Size returns the remaining size. For iceberg orders this is the hidden
// quantity not yet cut into a peak.
func (o *Order) Size() int64 {
	return o.size
}

// OriginalSize returns the size the order was constructed with
func (o *Order) OriginalSize() int64 {
	return o.originalSize
}

// Security returns the security symbol
func (o *Order) Security() string {
	return o.security
}

// Status returns the order status
func (o *Order) Status() Status {
	return o.status
}

// SetStatus sets the order status
func (o *Order) SetStatus(status Status) {
	o.status = status
}

// ArrivalTime returns the arrival timestamp
func (o *Order) ArrivalTime() time.Time {
	return o.arrivalTime
}

// Requeue re-stamps the arrival time. The order re-enters the back of the
// time-priority queue for its price level on the next insert.
func (o *Order) Requeue(now time.Time) {
	o.arrivalTime = now
}

// Price returns the price limit. Zero for market orders.
func (o *Order) Price() fpdecimal.Decimal {
	return o.price
}

// ExecutionPrice returns the price of the last execution and whether the
// order has executed at all.
func (o *Order) ExecutionPrice() (fpdecimal.Decimal, bool) {
	return o.execPrice, o.executed
}

// Display returns the iceberg peak size
func (o *Order) Display() int64 {
	return o.display
}

// IsPeak reports whether the order is the visible slice of an iceberg
func (o *Order) IsPeak() bool {
	return o.peak
}

// ParentID returns the owning iceberg id for peak orders
func (o *Order) ParentID() OrderID {
	return o.parentID
}

// SetSize sets the remaining size
func (o *Order) SetSize(size int64) {
	o.size = size
}

// Fill consumes size from the order at the given execution price and
// advances the status to PartiallyFilled or Filled.
func (o *Order) Fill(size int64, price fpdecimal.Decimal) {
	o.size -= size
	o.execPrice = price
	o.executed = true

	if o.size <= 0 {
		o.status = StatusFilled
	} else {
		o.status = StatusPartiallyFilled
	}
}

// IsMarketOrder returns true if Order is MARKET
func (o *Order) IsMarketOrder() bool {
	return o.orderType == TypeMarket
}

// IsLimitOrder returns true if Order is LIMIT
func (o *Order) IsLimitOrder() bool {
	return o.orderType == TypeLimit
}

// IsIcebergOrder returns true if Order is ICEBERG
func (o *Order) IsIcebergOrder() bool {
	return o.orderType == TypeIceberg
}

// Record is the flat serialized form of an order
type Record struct {
	ID             uint64    `json:"id"`
	Type           OrderType `json:"type"`
	Side           string    `json:"side"`
	Size           int64     `json:"size"`
	OriginalSize   int64     `json:"originalSize"`
	Security       string    `json:"security"`
	Status         Status    `json:"status"`
	ArrivalTime    time.Time `json:"arrivalTime"`
	Price          string    `json:"price,omitempty"`
	ExecutionPrice string    `json:"executionPrice,omitempty"`
	Display        int64     `json:"display,omitempty"`
	Peak           bool      `json:"peak,omitempty"`
	ParentID       uint64    `json:"parentID,omitempty"`
}

// ToRecord returns the flat record of the order
func (o *Order) ToRecord() Record {
	r := Record{
		ID:           uint64(o.id),
		Type:         o.orderType,
		Side:         o.side.String(),
		Size:         o.size,
		OriginalSize: o.originalSize,
		Security:     o.security,
		Status:       o.status,
		ArrivalTime:  o.arrivalTime,
		Display:      o.display,
		Peak:         o.peak,
		ParentID:     uint64(o.parentID),
	}

	if !o.IsMarketOrder() {
		r.Price = o.price.String()
	}

	if o.executed {
		r.ExecutionPrice = o.execPrice.String()
	}

	return r
}

// MarshalJSON implements json.Marshaler
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.ToRecord())
}

// String implements fmt.Stringer
func (o *Order) String() string {
	j, _ := o.MarshalJSON()
	return string(j)
}

// ToFloat64 converts a decimal price to float64 for display and statistics.
// Matching itself never leaves decimal arithmetic.
func ToFloat64(d fpdecimal.Decimal) float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}
