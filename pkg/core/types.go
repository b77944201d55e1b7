package core

import "encoding/json"

// Done reports the outcome of one Submit call: the trades it produced and
// where the unmatched remainder ended up.
type Done struct {
	// Order is the incoming order that was routed
	Order *Order
	// Quantity is the original size of the incoming order
	Quantity int64
	// Trades executed during this routing pass, in execution order
	Trades []Trade
	// Processed is the total size filled on the incoming order
	Processed int64
	// Left is the remaining unfilled size
	Left int64
	// Stored reports whether a remainder rests in the book
	Stored bool
	// RestingID is the id of the resting remainder. For icebergs this is
	// the live peak, which differs from the submitted order's id.
	RestingID OrderID
}

func newDone(order *Order) *Done {
	return &Done{
		Order:    order,
		Quantity: order.OriginalSize(),
		Trades:   make([]Trade, 0),
		Left:     order.Size(),
	}
}

func (d *Done) appendTrade(trade Trade) {
	d.Trades = append(d.Trades, trade)
	d.Processed += trade.Size
	d.Left = d.Quantity - d.Processed
}

// MarshalJSON implements json.Marshaler
func (d *Done) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Order     Record  `json:"order"`
		Trades    []Trade `json:"trades"`
		Processed int64   `json:"processed"`
		Left      int64   `json:"left"`
		Stored    bool    `json:"stored"`
		RestingID uint64  `json:"restingID,omitempty"`
	}{
		Order:     d.Order.ToRecord(),
		Trades:    d.Trades,
		Processed: d.Processed,
		Left:      d.Left,
		Stored:    d.Stored,
		RestingID: uint64(d.RestingID),
	})
}

// String implements fmt.Stringer
func (d *Done) String() string {
	j, _ := d.MarshalJSON()
	return string(j)
}
