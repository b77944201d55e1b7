package core

import (
	"strings"
	"testing"
	"time"

	"github.com/nikolaydubina/fpdecimal"
)

func TestSideString(t *testing.T) {
	tests := []struct {
		name string
		side Side
		want string
	}{
		{"Buy", Buy, "BUY"},
		{"Sell", Sell, "SELL"},
		{"Invalid", Side(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.side.String(); got != tt.want {
				t.Errorf("Side.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSideOpposite(t *testing.T) {
	if Buy.Opposite() != Sell {
		t.Errorf("Buy.Opposite() = %v, want Sell", Buy.Opposite())
	}
	if Sell.Opposite() != Buy {
		t.Errorf("Sell.Opposite() = %v, want Buy", Sell.Opposite())
	}
}

func TestNewMarketOrder(t *testing.T) {
	order, err := NewMarketOrder(Buy, 100, "AMZN")
	if err != nil {
		t.Fatalf("NewMarketOrder() error = %v", err)
	}

	if order.ID() == 0 {
		t.Error("Expected a non-zero order id")
	}
	if order.Side() != Buy {
		t.Errorf("Expected Side Buy, got %v", order.Side())
	}
	if order.Size() != 100 {
		t.Errorf("Expected Size 100, got %d", order.Size())
	}
	if order.OriginalSize() != 100 {
		t.Errorf("Expected OriginalSize 100, got %d", order.OriginalSize())
	}
	if order.Security() != "AMZN" {
		t.Errorf("Expected Security AMZN, got %s", order.Security())
	}
	if order.Status() != StatusPending {
		t.Errorf("Expected Status PENDING, got %v", order.Status())
	}
	if !order.Price().Equal(fpdecimal.Zero) {
		t.Errorf("Expected Price 0, got %v", order.Price())
	}
	if !order.IsMarketOrder() {
		t.Error("Expected IsMarketOrder to be true")
	}
	if order.IsLimitOrder() {
		t.Error("Expected IsLimitOrder to be false")
	}
	if order.IsIcebergOrder() {
		t.Error("Expected IsIcebergOrder to be false")
	}
}

func TestNewMarketOrderInvalidSize(t *testing.T) {
	for _, size := range []int64{0, -5} {
		if _, err := NewMarketOrder(Buy, size, "AMZN"); err != ErrInvalidSize {
			t.Errorf("NewMarketOrder(size=%d) error = %v, want ErrInvalidSize", size, err)
		}
	}
}

func TestNewLimitOrder(t *testing.T) {
	price := fpdecimal.FromFloat(50.0)
	order, err := NewLimitOrder(Sell, 100, price, "AMZN")
	if err != nil {
		t.Fatalf("NewLimitOrder() error = %v", err)
	}

	if !order.IsLimitOrder() {
		t.Error("Expected IsLimitOrder to be true")
	}
	if !order.Price().Equal(price) {
		t.Errorf("Expected Price %v, got %v", price, order.Price())
	}
	if _, executed := order.ExecutionPrice(); executed {
		t.Error("Expected no execution price before first fill")
	}
}

func TestNewLimitOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		price   fpdecimal.Decimal
		wantErr error
	}{
		{"ZeroSize", 0, fpdecimal.FromFloat(50.0), ErrInvalidSize},
		{"NegativeSize", -1, fpdecimal.FromFloat(50.0), ErrInvalidSize},
		{"ZeroPrice", 10, fpdecimal.Zero, ErrInvalidPrice},
		{"NegativePrice", 10, fpdecimal.FromFloat(-1.0), ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLimitOrder(Buy, tt.size, tt.price, "AMZN"); err != tt.wantErr {
				t.Errorf("NewLimitOrder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewIcebergOrder(t *testing.T) {
	price := fpdecimal.FromFloat(50.0)
	order, err := NewIcebergOrder(Sell, 1000, 100, price, "AMZN")
	if err != nil {
		t.Fatalf("NewIcebergOrder() error = %v", err)
	}

	if !order.IsIcebergOrder() {
		t.Error("Expected IsIcebergOrder to be true")
	}
	if order.Size() != 1000 {
		t.Errorf("Expected hidden Size 1000, got %d", order.Size())
	}
	if order.Display() != 100 {
		t.Errorf("Expected Display 100, got %d", order.Display())
	}

	if _, err := NewIcebergOrder(Sell, 0, 100, price, "AMZN"); err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize for zero total, got %v", err)
	}
	if _, err := NewIcebergOrder(Sell, 1000, 0, price, "AMZN"); err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize for zero display, got %v", err)
	}
	if _, err := NewIcebergOrder(Sell, 1000, 100, fpdecimal.Zero, "AMZN"); err != ErrInvalidPrice {
		t.Errorf("Expected ErrInvalidPrice, got %v", err)
	}
}

func TestOrderIDsStrictlyIncreasing(t *testing.T) {
	a, _ := NewMarketOrder(Buy, 1, "AMZN")
	b, _ := NewMarketOrder(Buy, 1, "AMZN")
	c, _ := NewLimitOrder(Sell, 1, fpdecimal.FromFloat(1.0), "AMZN")

	if !(a.ID() < b.ID() && b.ID() < c.ID()) {
		t.Errorf("Expected strictly increasing ids, got %d, %d, %d", a.ID(), b.ID(), c.ID())
	}
}

func TestFillStatusTransitions(t *testing.T) {
	price := fpdecimal.FromFloat(50.0)
	order, _ := NewLimitOrder(Buy, 100, price, "AMZN")

	order.Fill(40, price)
	if order.Status() != StatusPartiallyFilled {
		t.Errorf("Expected PARTIALLY_FILLED, got %v", order.Status())
	}
	if order.Size() != 60 {
		t.Errorf("Expected Size 60, got %d", order.Size())
	}
	if execPrice, executed := order.ExecutionPrice(); !executed || !execPrice.Equal(price) {
		t.Errorf("Expected execution price %v, got %v (executed=%v)", price, execPrice, executed)
	}

	order.Fill(60, price)
	if order.Status() != StatusFilled {
		t.Errorf("Expected FILLED, got %v", order.Status())
	}
	if order.Size() != 0 {
		t.Errorf("Expected Size 0, got %d", order.Size())
	}
	if order.OriginalSize() != 100 {
		t.Errorf("Expected OriginalSize unchanged at 100, got %d", order.OriginalSize())
	}
}

func TestCutPeak(t *testing.T) {
	price := fpdecimal.FromFloat(50.0)
	iceberg, _ := NewIcebergOrder(Sell, 250, 100, price, "AMZN")

	now := time.Now()
	peak := iceberg.CutPeak(now)
	if peak == nil {
		t.Fatal("Expected a peak, got nil")
	}
	if !peak.IsLimitOrder() {
		t.Error("Expected peak to be a limit order")
	}
	if !peak.IsPeak() {
		t.Error("Expected IsPeak to be true")
	}
	if peak.ParentID() != iceberg.ID() {
		t.Errorf("Expected ParentID %d, got %d", iceberg.ID(), peak.ParentID())
	}
	if peak.ID() == iceberg.ID() {
		t.Error("Expected peak to carry a fresh id")
	}
	if peak.Size() != 100 {
		t.Errorf("Expected peak Size 100, got %d", peak.Size())
	}
	if !peak.ArrivalTime().Equal(now) {
		t.Errorf("Expected peak arrival %v, got %v", now, peak.ArrivalTime())
	}
	if iceberg.Size() != 150 {
		t.Errorf("Expected hidden Size 150, got %d", iceberg.Size())
	}

	// Second full peak, then a final short one.
	if p := iceberg.CutPeak(now); p == nil || p.Size() != 100 {
		t.Fatalf("Expected second peak of 100, got %v", p)
	}
	last := iceberg.CutPeak(now)
	if last == nil || last.Size() != 50 {
		t.Fatalf("Expected final peak of 50, got %v", last)
	}
	if iceberg.Size() != 0 {
		t.Errorf("Expected hidden Size 0, got %d", iceberg.Size())
	}
	if iceberg.CutPeak(now) != nil {
		t.Error("Expected nil peak once hidden size is exhausted")
	}
}

func TestCutPeakNonIceberg(t *testing.T) {
	order, _ := NewLimitOrder(Buy, 100, fpdecimal.FromFloat(50.0), "AMZN")
	if order.CutPeak(time.Now()) != nil {
		t.Error("Expected nil peak for a limit order")
	}
}

func TestRequeue(t *testing.T) {
	order, _ := NewLimitOrder(Buy, 100, fpdecimal.FromFloat(50.0), "AMZN")
	later := order.ArrivalTime().Add(time.Second)

	order.Requeue(later)
	if !order.ArrivalTime().Equal(later) {
		t.Errorf("Expected arrival %v, got %v", later, order.ArrivalTime())
	}
}

func TestOrderToRecord(t *testing.T) {
	price := fpdecimal.FromFloat(50.0)
	order, _ := NewLimitOrder(Sell, 100, price, "AMZN")
	order.Fill(40, price)

	r := order.ToRecord()
	if r.ID != uint64(order.ID()) {
		t.Errorf("Expected ID %d, got %d", order.ID(), r.ID)
	}
	if r.Side != "SELL" {
		t.Errorf("Expected Side SELL, got %s", r.Side)
	}
	if r.Size != 60 || r.OriginalSize != 100 {
		t.Errorf("Expected sizes 60/100, got %d/%d", r.Size, r.OriginalSize)
	}
	if r.Price != price.String() {
		t.Errorf("Expected Price %s, got %s", price.String(), r.Price)
	}
	if r.ExecutionPrice != price.String() {
		t.Errorf("Expected ExecutionPrice %s, got %s", price.String(), r.ExecutionPrice)
	}

	market, _ := NewMarketOrder(Buy, 10, "AMZN")
	if rec := market.ToRecord(); rec.Price != "" {
		t.Errorf("Expected empty Price for market order, got %s", rec.Price)
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{50.0, 50.0},
		{2230.25, 2230.25},
		{0.01, 0.01},
	}

	for _, tt := range tests {
		if got := ToFloat64(fpdecimal.FromFloat(tt.in)); got != tt.want {
			t.Errorf("ToFloat64(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := ToFloat64(fpdecimal.Zero); got != 0 {
		t.Errorf("ToFloat64(Zero) = %v, want 0", got)
	}
}

func TestOrderString(t *testing.T) {
	order, _ := NewLimitOrder(Buy, 100, fpdecimal.FromFloat(50.0), "AMZN")
	s := order.String()
	if !strings.Contains(s, `"side":"BUY"`) || !strings.Contains(s, `"security":"AMZN"`) {
		t.Errorf("Unexpected String() output: %s", s)
	}
}
