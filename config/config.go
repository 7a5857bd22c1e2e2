// Package config loads and validates the pipeline configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Price    PriceConfig    `json:"price" yaml:"price"`
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// DataConfig controls how far back factor history is built.
type DataConfig struct {
	// DefaultStartDate is the first date factors are computed for when no
	// checkpoint exists (YYYY-MM-DD).
	DefaultStartDate string `json:"default_start_date" yaml:"default_start_date"`
}

// PriceConfig holds data-quality bounds for daily prices.
type PriceConfig struct {
	Floor          float64 `json:"floor" yaml:"floor"`
	Ceiling        float64 `json:"ceiling" yaml:"ceiling"`
	JumpThreshold  float64 `json:"jump_threshold" yaml:"jump_threshold"`
	JumpRatioLimit float64 `json:"jump_ratio_limit" yaml:"jump_ratio_limit"`
}

// ExchangeConfig holds execution-model parameters for the simulator.
type ExchangeConfig struct {
	Slippage        float64 `json:"slippage" yaml:"slippage"`
	TransactionCost float64 `json:"transaction_cost" yaml:"transaction_cost"`
	ExchangeCost    float64 `json:"exchange_cost" yaml:"exchange_cost"`
	ReinvestRatio   float64 `json:"reinvest_ratio" yaml:"reinvest_ratio"`
}

// BacktestConfig holds backtest run parameters.
type BacktestConfig struct {
	Capital   float64 `json:"capital" yaml:"capital"`
	StartDate string  `json:"start_date" yaml:"start_date"`
	EndDate   string  `json:"end_date" yaml:"end_date"`

	// RebalanceDay is "last", "first", or a day-of-month "1".."28".
	RebalanceDay string `json:"rebalance_day" yaml:"rebalance_day"`

	TopK   int    `json:"top_k" yaml:"top_k"`
	Market string `json:"market" yaml:"market"`
}

// StorageConfig holds paths for data persistence.
type StorageConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := time.Parse("2006-01-02", c.Data.DefaultStartDate); err != nil {
		return fmt.Errorf("data.default_start_date must be YYYY-MM-DD: %w", err)
	}
	if c.Price.Floor < 0 {
		return fmt.Errorf("price.floor must be >= 0")
	}
	if c.Price.Ceiling <= c.Price.Floor {
		return fmt.Errorf("price.ceiling must be greater than price.floor")
	}
	if c.Price.JumpThreshold <= 0 {
		return fmt.Errorf("price.jump_threshold must be positive")
	}
	if c.Price.JumpRatioLimit <= c.Price.JumpThreshold {
		return fmt.Errorf("price.jump_ratio_limit must be greater than price.jump_threshold")
	}
	if c.Exchange.Slippage < 0 {
		return fmt.Errorf("exchange.slippage must be >= 0")
	}
	if c.Exchange.TransactionCost < 0 {
		return fmt.Errorf("exchange.transaction_cost must be >= 0")
	}
	if c.Exchange.ExchangeCost < 0 {
		return fmt.Errorf("exchange.exchange_cost must be >= 0")
	}
	if c.Exchange.ReinvestRatio <= 0 || c.Exchange.ReinvestRatio > 1 {
		return fmt.Errorf("exchange.reinvest_ratio must be in (0, 1]")
	}
	if c.Backtest.Capital <= 0 {
		return fmt.Errorf("backtest.capital must be positive")
	}
	if _, err := time.Parse("2006-01-02", c.Backtest.StartDate); err != nil {
		return fmt.Errorf("backtest.start_date must be YYYY-MM-DD: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Backtest.EndDate); err != nil {
		return fmt.Errorf("backtest.end_date must be YYYY-MM-DD: %w", err)
	}
	if err := validRebalanceDay(c.Backtest.RebalanceDay); err != nil {
		return err
	}
	if c.Backtest.TopK <= 0 {
		return fmt.Errorf("backtest.top_k must be positive")
	}
	if c.Backtest.Market == "" {
		return fmt.Errorf("backtest.market is required")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	return nil
}

func validRebalanceDay(s string) error {
	switch s {
	case "last", "first":
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 28 {
		return fmt.Errorf("backtest.rebalance_day must be 'last', 'first', or 1-28, got %q", s)
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			DefaultStartDate: "2005-01-01",
		},
		Price: PriceConfig{
			Floor:          1.5,
			Ceiling:        10000.0,
			JumpThreshold:  0.95,
			JumpRatioLimit: 10.0,
		},
		Exchange: ExchangeConfig{
			Slippage:        0.001,
			TransactionCost: 0.001,
			ExchangeCost:    0.0,
			ReinvestRatio:   0.98,
		},
		Backtest: BacktestConfig{
			Capital:      100000,
			StartDate:    "2015-01-01",
			EndDate:      "2024-12-31",
			RebalanceDay: "last",
			TopK:         20,
			Market:       "US",
		},
		Storage: StorageConfig{
			DBPath: "./quant.sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
