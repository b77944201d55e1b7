package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/claysome/venue/pkg/otel"
)

// MatchingEngine routes incoming orders against one security's book and
// records every match on the trade tape.
//
// The engine is a single-writer structure: Submit and Cancel hold the write
// lock for the whole routing decision, so two incoming orders never
// interleave their consumption walks. Read-side calls (Snapshot, Depth,
// TradesSince, aggregates) take the read lock and observe a consistent book.
type MatchingEngine struct {
	mu   sync.RWMutex
	book *OrderBook
	tape *TradeTape

	// icebergs maps a live peak id to its parent iceberg order
	icebergs map[OrderID]*Order

	now func() time.Time
}

// NewMatchingEngine creates an engine over the given book and tape
func NewMatchingEngine(book *OrderBook, tape *TradeTape) *MatchingEngine {
	return &MatchingEngine{
		book:     book,
		tape:     tape,
		icebergs: make(map[OrderID]*Order),
		now:      time.Now,
	}
}

// Book returns the engine's order book
func (e *MatchingEngine) Book() *OrderBook {
	return e.book
}

// Tape returns the engine's trade tape
func (e *MatchingEngine) Tape() *TradeTape {
	return e.tape
}

// Submit is the single entry point for incoming orders. It routes the order,
// executes the price-time matching walk and returns the trades produced plus
// the residual resting state. The whole routing decision is one atomic unit.
//
// A market order that exhausts the opposing side returns
// *InsufficientLiquidityError together with the fills that already executed;
// the remainder never rests.
func (e *MatchingEngine) Submit(ctx context.Context, order *Order) (done *Done, err error) {
	if order == nil {
		return nil, ErrInvalidArgument
	}

	ctx, span := otel.StartEngineSpan(ctx, otel.SpanSubmitOrder,
		attribute.Int64(otel.AttributeOrderID, int64(order.ID())),
		attribute.String(otel.AttributeOrderSide, order.Side().String()),
		attribute.String(otel.AttributeOrderType, string(order.Type())),
		attribute.Int64(otel.AttributeOrderSize, order.Size()),
	)
	defer span.End()
	start := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(order); err != nil {
		log.Warn().Err(err).Uint64("order_id", uint64(order.ID())).Msg("order rejected")
		otel.SetSpanStatus(span, codes.Error, err.Error())
		return nil, err
	}

	switch order.Type() {
	case TypeMarket:
		done, err = e.matchMarket(order)
	case TypeLimit:
		done, err = e.matchLimit(order)
	case TypeIceberg:
		done, err = e.matchIceberg(order)
	default:
		otel.SetSpanStatus(span, codes.Error, "unrecognized order type")
		return nil, ErrInvalidArgument
	}

	if err != nil && !errors.Is(err, ErrInsufficientLiquidity) {
		otel.SetSpanStatus(span, codes.Error, "failed to route order")
		return done, err
	}

	if done != nil {
		otel.AddAttributes(span,
			attribute.Int64(otel.AttributeExecutedSize, done.Processed),
			attribute.Int64(otel.AttributeRemainingSize, done.Left),
			attribute.Int(otel.AttributeTradeCount, len(done.Trades)),
		)
		otel.GetEngineMetrics().RecordSubmit(ctx, string(order.Type()), len(done.Trades), done.Processed, e.now().Sub(start))

		log.Debug().
			Uint64("order_id", uint64(order.ID())).
			Str("side", order.Side().String()).
			Str("type", string(order.Type())).
			Int("trades", len(done.Trades)).
			Int64("processed", done.Processed).
			Int64("left", done.Left).
			Bool("stored", done.Stored).
			Msg("order routed")
	}

	otel.SetSpanStatus(span, codes.Ok, "order routed")
	return done, err
}

// Cancel removes a resting order from the book. Cancelling a live iceberg
// peak cancels the whole iceberg, hidden size included.
func (e *MatchingEngine) Cancel(ctx context.Context, id OrderID) error {
	_, span := otel.StartEngineSpan(ctx, otel.SpanCancelOrder,
		attribute.Int64(otel.AttributeOrderID, int64(id)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.book.Pop(id)
	if err != nil {
		otel.SetSpanStatus(span, codes.Error, err.Error())
		return err
	}

	order.SetStatus(StatusCancelled)

	if order.IsPeak() {
		if parent, ok := e.icebergs[order.ID()]; ok {
			delete(e.icebergs, order.ID())
			parent.SetStatus(StatusCancelled)
		}
	}

	log.Debug().Uint64("order_id", uint64(id)).Msg("order cancelled")
	otel.SetSpanStatus(span, codes.Ok, "order cancelled")
	return nil
}

// Snapshot returns the side's resting orders as flat records in price-time
// priority. Safe to call concurrently with Submit.
func (e *MatchingEngine) Snapshot(side Side) []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()

	view := e.book.PriorityView(side)
	records := make([]Record, len(view))
	for i, order := range view {
		records[i] = order.ToRecord()
	}
	return records
}

// Depth returns the side's aggregated price levels, best first
func (e *MatchingEngine) Depth(side Side) []DepthLevel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Depth(side)
}

// TradesSince returns the trades recorded at or after the caller's cursor.
// The caller owns the cursor and advances it by len(result).
func (e *MatchingEngine) TradesSince(cursor int) []Trade {
	return e.tape.Since(cursor)
}

// private methods

func (e *MatchingEngine) validate(order *Order) error {
	if order.Size() <= 0 {
		return ErrInvalidSize
	}

	if order.Security() != e.book.Security() {
		return fmt.Errorf("%w: order security %q does not match book %q",
			ErrInvalidArgument, order.Security(), e.book.Security())
	}

	// An id that has already lived through the engine never routes again.
	if order.Status() != StatusPending {
		return ErrDuplicateOrder
	}

	if e.book.Order(order.ID()) != nil {
		return ErrDuplicateOrder
	}

	// icebergs is keyed by live peak id; the parent's own id appears only in
	// the values. A resubmitted parent must not cut a second peak.
	if _, ok := e.icebergs[order.ID()]; ok {
		return ErrDuplicateOrder
	}
	for _, parent := range e.icebergs {
		if parent.ID() == order.ID() {
			return ErrDuplicateOrder
		}
	}

	return nil
}

// matchMarket executes a market order immediately against the full opposing
// priority view. Market orders never rest: exhausting the opposing side with
// size remaining surfaces InsufficientLiquidityError carrying the remainder.
func (e *MatchingEngine) matchMarket(order *Order) (*Done, error) {
	done := newDone(order)

	if err := e.walk(order, false, done); err != nil {
		return done, err
	}

	if order.Size() > 0 {
		return done, &InsufficientLiquidityError{Remaining: order.Size()}
	}

	return done, nil
}

// matchLimit routes an incoming limit order: consume marketable opposing
// orders first, then rest any remainder at its own limit with fresh time
// priority.
func (e *MatchingEngine) matchLimit(order *Order) (*Done, error) {
	done := newDone(order)
	before := order.Size()

	if err := e.walk(order, true, done); err != nil {
		return done, err
	}

	if order.Size() > 0 {
		if order.Size() < before {
			// The remainder is a new resting order with its own
			// time priority.
			order.Requeue(e.now())
		}
		if err := e.book.Insert(order); err != nil {
			return done, err
		}
		done.Stored = true
		done.RestingID = order.ID()
	}

	return done, nil
}

// matchIceberg cuts peaks off the iceberg and routes each through the limit
// path. An incoming peak that fills completely is followed by the next cut;
// the first peak that leaves a remainder rests as the iceberg's visible
// slice.
func (e *MatchingEngine) matchIceberg(order *Order) (*Done, error) {
	done := newDone(order)

	for {
		peak := order.CutPeak(e.now())
		if peak == nil {
			order.SetStatus(StatusFilled)
			break
		}

		peakDone := newDone(peak)
		if err := e.walk(peak, true, peakDone); err != nil {
			return done, err
		}

		done.Trades = append(done.Trades, peakDone.Trades...)
		done.Processed += peakDone.Processed

		if peak.Size() > 0 {
			if err := e.book.Insert(peak); err != nil {
				return done, err
			}
			e.icebergs[peak.ID()] = order
			done.Stored = true
			done.RestingID = peak.ID()
			if done.Processed > 0 {
				order.SetStatus(StatusPartiallyFilled)
			}
			break
		}
	}

	done.Left = done.Quantity - done.Processed
	return done, nil
}

// walk is the consumption loop shared by all order types. It repeatedly takes
// the best opposing resting order and consumes min(taker, maker), until the
// taker is filled, the opposing side is exhausted or (when bounded) the best
// opposing price is no longer marketable against the taker's limit.
//
// The best order is re-derived each step so that an iceberg peak replenished
// mid-walk is immediately eligible again; this is what keeps the book from
// ending up crossed.
func (e *MatchingEngine) walk(taker *Order, bounded bool, done *Done) error {
	opp := taker.Side().Opposite()

	for taker.Size() > 0 {
		maker, err := e.book.Best(opp)
		if err != nil {
			if errors.Is(err, ErrEmptySide) {
				return nil
			}
			return err
		}

		if bounded && !marketable(taker.Side(), taker.Price(), maker.Price()) {
			return nil
		}

		if err := e.consume(taker, maker, min(taker.Size(), maker.Size()), done); err != nil {
			return err
		}
	}

	return nil
}

// consume executes one consumption step: remove or shrink the maker, fill the
// taker and append exactly one trade priced at the maker's limit. The step
// either completes fully or is rejected before any tape entry is written.
func (e *MatchingEngine) consume(taker, maker *Order, size int64, done *Done) error {
	if size <= 0 {
		return ErrInvalidSize
	}

	now := e.now()
	price := maker.Price()

	fullyConsumed := size == maker.Size()
	if fullyConsumed {
		if _, err := e.book.Pop(maker.ID()); err != nil {
			return err
		}
	}

	maker.Fill(size, price)
	taker.Fill(size, price)

	trade := Trade{
		Price:      price,
		ExecutedAt: now,
		MakerID:    maker.ID(),
		TakerID:    taker.ID(),
		Size:       size,
	}
	if err := e.tape.Append(trade); err != nil {
		return err
	}
	done.appendTrade(trade)

	if fullyConsumed && maker.IsPeak() {
		e.replenish(maker, now)
	}

	return nil
}

// replenish cuts the next peak of an iceberg whose visible slice was just
// consumed. The new peak gets a fresh id and the current arrival time, so it
// re-enters at the back of the time-priority queue for its price level.
func (e *MatchingEngine) replenish(peak *Order, now time.Time) {
	parent, ok := e.icebergs[peak.ID()]
	delete(e.icebergs, peak.ID())
	if !ok {
		return
	}

	next := parent.CutPeak(now)
	if next == nil {
		parent.SetStatus(StatusFilled)
		return
	}

	if err := e.book.Insert(next); err != nil {
		// Fresh id, cannot collide; surface loudly if it ever does.
		log.Error().Err(err).
			Uint64("iceberg_id", uint64(parent.ID())).
			Uint64("peak_id", uint64(next.ID())).
			Msg("failed to replenish iceberg peak")
		return
	}

	e.icebergs[next.ID()] = parent
	parent.SetStatus(StatusPartiallyFilled)
}

// marketable reports whether a taker with the given limit may trade against
// the book price: a buy takes asks at or below its limit, a sell takes bids
// at or above.
func marketable(side Side, limit, bookPrice fpdecimal.Decimal) bool {
	if side == Buy {
		return bookPrice.LessThanOrEqual(limit)
	}
	return bookPrice.GreaterThanOrEqual(limit)
}
