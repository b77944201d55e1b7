// Package flowgen produces synthetic order flow for a single-security venue:
// an opening book seeded around the previous close, followed by a random
// stream of market, limit and iceberg orders submitted through the matching
// engine. It is a collaborator of the matching core, never the other way
// around.
package flowgen

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/claysome/venue/pkg/core"
)

// Generator drives synthetic flow into a matching engine
type Generator struct {
	engine *core.MatchingEngine
	cfg    *Config
	rng    *rand.Rand
}

// NewGenerator creates a Generator. The seed makes a run reproducible.
func NewGenerator(engine *core.MatchingEngine, cfg *Config, seed int64) *Generator {
	return &Generator{
		engine: engine,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SeedBook fills both sides of an empty book with limit orders whose prices
// are drawn from a normal distribution around the previous close. Draws below
// the close become bids and draws above become asks, so seeding never crosses
// the book.
func (g *Generator) SeedBook(ctx context.Context) (int, error) {
	inserted := 0

	for i := 0; i < g.cfg.SeedOrders; i++ {
		price := g.roundPrice(g.rng.NormFloat64()*g.cfg.PriceSigma*g.cfg.PreviousClose + g.cfg.PreviousClose)
		if price <= 0 || price == g.cfg.PreviousClose {
			continue
		}

		side := core.Buy
		if price > g.cfg.PreviousClose {
			side = core.Sell
		}

		size := g.cfg.MinSeedSize + g.rng.Int63n(g.cfg.MaxSeedSize-g.cfg.MinSeedSize+1)
		order, err := core.NewLimitOrder(side, size, fpdecimal.FromFloat(price), g.security())
		if err != nil {
			return inserted, err
		}

		if _, err := g.engine.Submit(ctx, order); err != nil {
			return inserted, err
		}
		inserted++
	}

	log.Info().Int("orders", inserted).Str("security", g.security()).Msg("order book seeded")
	return inserted, nil
}

// NextOrder draws the next random incoming order: market or limit with equal
// probability, buy or sell with equal probability. Limit prices are drawn
// around the last traded price with a spread scaled from the tape's average
// trade size; a small share of limit orders is submitted as icebergs.
func (g *Generator) NextOrder() (*core.Order, error) {
	side := core.Buy
	if g.rng.Float64() <= 0.5 {
		side = core.Sell
	}

	if g.rng.Float64() <= 0.5 {
		return core.NewMarketOrder(side, g.cfg.FlowOrderSize, g.security())
	}

	price := fpdecimal.FromFloat(g.limitPrice())

	if g.rng.Float64() < g.cfg.IcebergRatio {
		total := g.cfg.FlowOrderSize * g.cfg.IcebergFactor
		return core.NewIcebergOrder(side, total, g.cfg.FlowOrderSize, price, g.security())
	}

	return core.NewLimitOrder(side, g.cfg.FlowOrderSize, price, g.security())
}

// Stats summarizes one Run
type Stats struct {
	Submitted int
	Trades    int
	Exhausted int // market orders that ran out of liquidity
	Rejected  int
}

// Run submits n random orders paced by the configured rate limit. observe,
// when non-nil, is called with the latency of every Submit.
func (g *Generator) Run(ctx context.Context, n int, observe func(time.Duration)) (Stats, error) {
	limiter := rate.NewLimiter(rate.Limit(g.cfg.OrdersPerSec), g.cfg.SubmitBurst)
	var stats Stats

	for i := 0; i < n; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		order, err := g.NextOrder()
		if err != nil {
			return stats, err
		}

		start := time.Now()
		done, err := g.engine.Submit(ctx, order)
		if observe != nil {
			observe(time.Since(start))
		}

		switch {
		case err == nil:
			stats.Submitted++
			if done != nil {
				stats.Trades += len(done.Trades)
			}
		case errors.Is(err, core.ErrInsufficientLiquidity):
			stats.Submitted++
			stats.Exhausted++
			if done != nil {
				stats.Trades += len(done.Trades)
			}
		default:
			stats.Rejected++
			log.Warn().Err(err).Uint64("order_id", uint64(order.ID())).Msg("order rejected")
		}
	}

	return stats, nil
}

func (g *Generator) security() string {
	return g.engine.Book().Security()
}

// limitPrice draws a limit price around the last traded price. Before the
// first trade the previous close anchors the draw.
func (g *Generator) limitPrice() float64 {
	mu := g.cfg.PreviousClose
	sigma := g.cfg.PriceSigma * mu

	if last, err := g.engine.Tape().LastPrice(); err == nil {
		mu = core.ToFloat64(last)
		if count := g.engine.Tape().TradeCount(); count > 0 {
			avgTrade := float64(g.engine.Tape().TotalVolume()) / float64(count)
			sigma = avgTrade * g.cfg.PriceVolScale * mu
		}
	}

	price := g.roundPrice(g.rng.NormFloat64()*sigma + mu)
	if price <= 0 {
		price = g.roundPrice(mu)
	}
	return price
}

func (g *Generator) roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
