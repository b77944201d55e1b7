package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/claysome/venue/config"
	"github.com/claysome/venue/pkg/backend/memory"
	"github.com/claysome/venue/pkg/core"
	"github.com/claysome/venue/pkg/flowgen"
	"github.com/claysome/venue/pkg/logging"
	"github.com/claysome/venue/pkg/otel"
	"github.com/claysome/venue/pkg/quant"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.Venue.LogLevel,
		Pretty: cfg.Venue.LogFormat == "pretty",
	})

	cleanup, err := otel.Init(otel.Config{
		ServiceVersion:   "0.1.0",
		Endpoint:         cfg.Otel.Endpoint,
		CollectorEnabled: cfg.Otel.CollectorEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("venue run failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	flowCfg, err := flowgen.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load flow configuration: %w", err)
	}
	flowCfg.PreviousClose = cfg.Sim.PreviousClose
	flowCfg.SeedOrders = cfg.Sim.SeedOrders
	flowCfg.OrdersPerSec = cfg.Sim.OrdersPerSec
	if err := flowCfg.Validate(); err != nil {
		return err
	}

	seed := cfg.Sim.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	core.InitOrderSequence(1)
	book := core.NewOrderBook(cfg.Venue.Security, memory.NewMemoryBackend())
	tape := core.NewTradeTape(cfg.Venue.Security)
	engine := core.NewMatchingEngine(book, tape)

	gen := flowgen.NewGenerator(engine, flowCfg, seed)

	log.Info().
		Str("security", cfg.Venue.Security).
		Float64("previous_close", cfg.Sim.PreviousClose).
		Int64("seed", seed).
		Msg("starting venue")

	if _, err := gen.SeedBook(ctx); err != nil {
		return fmt.Errorf("failed to seed order book: %w", err)
	}

	// Submit latency in microseconds, three significant figures.
	hist := hdrhistogram.New(1, 10_000_000, 3)

	start := time.Now()
	stats, err := gen.Run(ctx, cfg.Sim.FlowOrders, func(d time.Duration) {
		_ = hist.RecordValue(d.Microseconds())
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	printDepth(engine, cfg.Venue.Security, cfg.Sim.DisplayLevels)
	printTapeStats(engine, cfg.Sim.PreviousClose)
	printLatency(hist, stats, elapsed)

	return nil
}

func printDepth(engine *core.MatchingEngine, security string, levels int) {
	color.NoColor = false
	cyan := color.New(color.FgCyan).SprintfFunc()
	red := color.New(color.FgRed).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()

	fmt.Printf("\n%s\n", cyan("Order book: %s", security))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
		cyan("Side"), cyan("Price"), cyan("Size"), cyan("Cum"), cyan("Orders"))

	asks := engine.Depth(core.Sell)
	if len(asks) > levels {
		asks = asks[:levels]
	}
	// Best ask sits just above the spread line.
	for i := len(asks) - 1; i >= 0; i-- {
		l := asks[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t\n",
			red("ASK"), l.Price.String(), l.Size, l.Cumulative, l.Orders)
	}

	fmt.Fprintf(w, "\t----\t\t\t\t\n")

	bids := engine.Depth(core.Buy)
	if len(bids) > levels {
		bids = bids[:levels]
	}
	for _, l := range bids {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t\n",
			green("BID"), l.Price.String(), l.Size, l.Cumulative, l.Orders)
	}
	w.Flush()
}

func printTapeStats(engine *core.MatchingEngine, previousClose float64) {
	tape := engine.Tape()

	count := tape.TradeCount()
	fmt.Printf("\nTrades: %d  Volume: %d\n", count, tape.TotalVolume())
	if count == 0 {
		return
	}

	last, err := tape.LastPrice()
	if err != nil {
		return
	}
	lastF := core.ToFloat64(last)
	fmt.Printf("Last price: %s  (%+.2f%% vs previous close)\n",
		last.String(), (lastF/previousClose-1)*100)

	if sigma, ok := realizedVol(tape.Since(0)); ok {
		fair, err := quant.BlackScholes(quant.Call, quant.Params{
			Spot:   lastF,
			Strike: lastF,
			Expiry: 30.0 / 365.0,
			Rate:   0.03,
			Sigma:  sigma,
		})
		if err == nil {
			fmt.Printf("Realized vol: %.1f%%  Indicative 30d ATM call: %.2f\n", sigma*100, fair)
		}
	}
}

// realizedVol annualizes the standard deviation of per-trade log returns
// assuming one trading day of flow.
func realizedVol(trades []core.Trade) (float64, bool) {
	if len(trades) < 2 {
		return 0, false
	}

	rets := make([]float64, 0, len(trades)-1)
	prev := core.ToFloat64(trades[0].Price)
	for _, t := range trades[1:] {
		p := core.ToFloat64(t.Price)
		if prev > 0 && p > 0 {
			rets = append(rets, math.Log(p/prev))
		}
		prev = p
	}
	if len(rets) < 2 {
		return 0, false
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance float64
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets) - 1)

	sigma := math.Sqrt(variance*float64(len(rets))) * math.Sqrt(252)
	if sigma <= 0 || math.IsNaN(sigma) {
		return 0, false
	}
	return sigma, true
}

func printLatency(hist *hdrhistogram.Histogram, stats flowgen.Stats, elapsed time.Duration) {
	fmt.Printf("\nSubmitted: %d  Rejected: %d  Liquidity exhausted: %d  Trades: %d\n",
		stats.Submitted, stats.Rejected, stats.Exhausted, stats.Trades)
	if elapsed > 0 && stats.Submitted > 0 {
		fmt.Printf("Throughput: %.0f orders/sec\n", float64(stats.Submitted)/elapsed.Seconds())
	}
	if hist.TotalCount() == 0 {
		return
	}
	fmt.Printf("Submit latency (us): p50=%d p95=%d p99=%d max=%d\n",
		hist.ValueAtQuantile(50), hist.ValueAtQuantile(95),
		hist.ValueAtQuantile(99), hist.Max())
}
