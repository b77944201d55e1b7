package core

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nikolaydubina/fpdecimal"
)

// Trade is one executed match: the maker is the resting order, the taker the
// incoming one, and the price is always the maker's limit.
type Trade struct {
	Price      fpdecimal.Decimal
	ExecutedAt time.Time
	MakerID    OrderID
	TakerID    OrderID
	Size       int64
}

// MarshalJSON implements json.Marshaler
func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price      string    `json:"price"`
		ExecutedAt time.Time `json:"executedAt"`
		MakerID    uint64    `json:"makerID"`
		TakerID    uint64    `json:"takerID"`
		Size       int64     `json:"size"`
	}{
		Price:      t.Price.String(),
		ExecutedAt: t.ExecutedAt,
		MakerID:    uint64(t.MakerID),
		TakerID:    uint64(t.TakerID),
		Size:       t.Size,
	})
}

// TradeTape is the append-only ledger of executed trades for one security.
// Insertion order equals execution order; entries are never mutated or
// truncated after append. One tape is created per security at venue start and
// lives for the process lifetime.
type TradeTape struct {
	mu       sync.RWMutex
	security string
	trades   []Trade
	volume   int64
}

// NewTradeTape creates an empty tape for the given security
func NewTradeTape(security string) *TradeTape {
	return &TradeTape{
		security: security,
		trades:   make([]Trade, 0),
	}
}

// Security returns the security symbol the tape records
func (tt *TradeTape) Security() string {
	return tt.security
}

// Append records an executed trade. Appends are O(1) amortized; validation is
// structural only.
func (tt *TradeTape) Append(trade Trade) error {
	if trade.Size <= 0 {
		return ErrInvalidSize
	}
	if trade.Price.LessThanOrEqual(fpdecimal.Zero) {
		return ErrInvalidPrice
	}
	if trade.MakerID == 0 || trade.TakerID == 0 {
		return ErrInvalidArgument
	}

	tt.mu.Lock()
	defer tt.mu.Unlock()

	tt.trades = append(tt.trades, trade)
	tt.volume += trade.Size
	return nil
}

// LastPrice returns the price of the most recent trade. Fails with
// ErrEmptyTape before the first trade.
func (tt *TradeTape) LastPrice() (fpdecimal.Decimal, error) {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	if len(tt.trades) == 0 {
		return fpdecimal.Zero, ErrEmptyTape
	}
	return tt.trades[len(tt.trades)-1].Price, nil
}

// TotalVolume returns the cumulative matched size
func (tt *TradeTape) TotalVolume() int64 {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return tt.volume
}

// TradeCount returns the number of recorded trades
func (tt *TradeTape) TradeCount() int {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return len(tt.trades)
}

// Since returns a copy of the trades recorded at or after the given cursor,
// where the cursor is an index into the tape. Callers track their own cursor
// and advance it by len(result); the tape never tracks readers.
func (tt *TradeTape) Since(cursor int) []Trade {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(tt.trades) {
		return nil
	}

	out := make([]Trade, len(tt.trades)-cursor)
	copy(out, tt.trades[cursor:])
	return out
}
