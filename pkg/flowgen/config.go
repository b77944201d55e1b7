package flowgen

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the parameters of the synthetic order flow
type Config struct {
	// Book seeding
	PreviousClose float64
	PriceSigma    float64 // relative std dev of seed limit prices
	SeedOrders    int     // total seed price draws; draws at or below zero are discarded
	MinSeedSize   int64
	MaxSeedSize   int64

	// Random flow
	FlowOrderSize  int64
	IcebergRatio   float64 // share of limit orders submitted as icebergs
	IcebergFactor  int64   // iceberg total = FlowOrderSize * IcebergFactor
	PriceVolScale  float64 // scales the average trade size into a price spread
	OrdersPerSec   float64
	SubmitBurst    int
}

// LoadConfig loads flow generator settings from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("FLOWGEN_PREVIOUS_CLOSE", 2230.0)
	v.SetDefault("FLOWGEN_PRICE_SIGMA", 0.1)
	v.SetDefault("FLOWGEN_SEED_ORDERS", 1000)
	v.SetDefault("FLOWGEN_MIN_SEED_SIZE", 100)
	v.SetDefault("FLOWGEN_MAX_SEED_SIZE", 1000)
	v.SetDefault("FLOWGEN_FLOW_ORDER_SIZE", 1000)
	v.SetDefault("FLOWGEN_ICEBERG_RATIO", 0.05)
	v.SetDefault("FLOWGEN_ICEBERG_FACTOR", 5)
	v.SetDefault("FLOWGEN_PRICE_VOL_SCALE", 0.001)
	v.SetDefault("FLOWGEN_ORDERS_PER_SEC", 200.0)
	v.SetDefault("FLOWGEN_SUBMIT_BURST", 10)

	v.AutomaticEnv()

	cfg := &Config{
		PreviousClose: v.GetFloat64("FLOWGEN_PREVIOUS_CLOSE"),
		PriceSigma:    v.GetFloat64("FLOWGEN_PRICE_SIGMA"),
		SeedOrders:    v.GetInt("FLOWGEN_SEED_ORDERS"),
		MinSeedSize:   v.GetInt64("FLOWGEN_MIN_SEED_SIZE"),
		MaxSeedSize:   v.GetInt64("FLOWGEN_MAX_SEED_SIZE"),
		FlowOrderSize: v.GetInt64("FLOWGEN_FLOW_ORDER_SIZE"),
		IcebergRatio:  v.GetFloat64("FLOWGEN_ICEBERG_RATIO"),
		IcebergFactor: v.GetInt64("FLOWGEN_ICEBERG_FACTOR"),
		PriceVolScale: v.GetFloat64("FLOWGEN_PRICE_VOL_SCALE"),
		OrdersPerSec:  v.GetFloat64("FLOWGEN_ORDERS_PER_SEC"),
		SubmitBurst:   v.GetInt("FLOWGEN_SUBMIT_BURST"),
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.PreviousClose <= 0 {
		return fmt.Errorf("previous close must be positive, got %f", c.PreviousClose)
	}
	if c.MinSeedSize <= 0 || c.MaxSeedSize < c.MinSeedSize {
		return fmt.Errorf("invalid seed size range [%d, %d]", c.MinSeedSize, c.MaxSeedSize)
	}
	if c.FlowOrderSize <= 0 {
		return fmt.Errorf("flow order size must be positive, got %d", c.FlowOrderSize)
	}
	if c.IcebergRatio < 0 || c.IcebergRatio > 1 {
		return fmt.Errorf("iceberg ratio must be in [0, 1], got %f", c.IcebergRatio)
	}
	if c.OrdersPerSec <= 0 {
		return fmt.Errorf("orders per second must be positive, got %f", c.OrdersPerSec)
	}
	return nil
}
