package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the venue configuration
type Config struct {
	Venue struct {
		Security  string `yaml:"security"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"venue"`

	Otel struct {
		Endpoint         string `yaml:"endpoint"`
		CollectorEnabled bool   `yaml:"collector_enabled"`
	} `yaml:"otel"`

	Sim struct {
		PreviousClose float64 `yaml:"previous_close"`
		SeedOrders    int     `yaml:"seed_orders"`
		FlowOrders    int     `yaml:"flow_orders"`
		OrdersPerSec  float64 `yaml:"orders_per_sec"`
		DisplayLevels int     `yaml:"display_levels"`
		RandomSeed    int64   `yaml:"random_seed"`
	} `yaml:"sim"`
}

// Default configuration values
var (
	configFile    = flag.String("config", "", "Path to config file (YAML)")
	security      = flag.String("security", "AMZN", "Security symbol to trade")
	logLevel      = flag.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat     = flag.String("log_format", "pretty", "Log format: json, pretty")
	otelEndpoint  = flag.String("otel_endpoint", "localhost:4317", "OTLP collector endpoint")
	otelCollector = flag.Bool("otel_collector", false, "Enable export to an OTLP collector")
)

// LoadConfig loads the configuration from command line flags and optionally
// from a config file
func LoadConfig() (*Config, error) {
	flag.Parse()

	config := &Config{}
	config.Venue.Security = *security
	config.Venue.LogLevel = *logLevel
	config.Venue.LogFormat = *logFormat
	config.Otel.Endpoint = *otelEndpoint
	config.Otel.CollectorEnabled = *otelCollector
	config.Sim.PreviousClose = 2230
	config.Sim.SeedOrders = 1000
	config.Sim.FlowOrders = 500
	config.Sim.OrdersPerSec = 200
	config.Sim.DisplayLevels = 5

	if *configFile != "" {
		yamlFile, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(yamlFile, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if config.Venue.Security == "" {
		return nil, fmt.Errorf("security symbol must not be empty")
	}

	return config, nil
}
