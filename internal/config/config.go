// Package config defines the top-level configuration for the dexarb service
// and provides validation helpers.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEXARB_* environment variables.
type Config struct {
	Ethereum  EthereumConfig         `toml:"ethereum"`
	Venues    map[string]VenueConfig `toml:"venues"`
	Profit    ProfitConfig           `toml:"profit"`
	Detector  DetectorConfig         `toml:"detector"`
	Monitor   MonitorConfig          `toml:"monitor"`
	Database  DatabaseConfig         `toml:"database"`
	Redis     RedisConfig            `toml:"redis"`
	S3        S3Config               `toml:"s3"`
	Server    ServerConfig           `toml:"server"`
	Notify    NotifyConfig           `toml:"notify"`
	LogLevel  string                 `toml:"log_level"`
}

// EthereumConfig holds the RPC endpoint shared by all pool feeds.
type EthereumConfig struct {
	HTTPURL     string   `toml:"http_url"`
	CallTimeout duration `toml:"call_timeout"`
}

// VenueConfig describes one constant-product pool to poll.
type VenueConfig struct {
	PoolAddress   string  `toml:"pool_address"`
	FeeRate       float64 `toml:"fee_rate"`
	BaseDecimals  int     `toml:"base_decimals"`
	QuoteDecimals int     `toml:"quote_decimals"`
	// BaseIsToken0 is true when reserve0 holds the base asset. The default
	// ETH/USDC mainnet pools store USDC in reserve0.
	BaseIsToken0 bool `toml:"base_is_token0"`
	// Order controls deterministic iteration and comparison tie-breaks.
	Order int `toml:"order"`
}

// ProfitConfig holds the cost model parameters.
type ProfitConfig struct {
	GasCostPerSwap  float64 `toml:"gas_cost_per_swap"`
	DefaultFeeRate  float64 `toml:"default_fee_rate"`
	DefaultSlippage float64 `toml:"default_slippage"`
	// StrictVenues rejects unknown venue names at the API boundary instead
	// of silently applying DefaultFeeRate.
	StrictVenues bool `toml:"strict_venues"`
}

// DetectorConfig holds arbitrage detection thresholds.
type DetectorConfig struct {
	MinProfitUSD float64   `toml:"min_profit_usd"`
	MinProfitPct float64   `toml:"min_profit_pct"`
	TradeSizes   []float64 `toml:"trade_sizes"`
}

// MonitorConfig holds the background monitor loop parameters.
type MonitorConfig struct {
	Interval  duration `toml:"interval"`
	Autostart bool     `toml:"autostart"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the signal bus.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for trade-history
// exports. Export is disabled when Bucket is empty.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials. Cooldown throttles
// repeated alerts for the same venue pair.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Cooldown          duration `toml:"cooldown"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config pre-populated with the values a development
// deployment needs; the mainnet ETH/USDC pools mirror the pools the service
// was originally built against.
func Defaults() Config {
	return Config{
		Ethereum: EthereumConfig{
			CallTimeout: duration{10 * time.Second},
		},
		Venues: map[string]VenueConfig{
			"Uniswap V2": {
				PoolAddress:   "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
				FeeRate:       0.003,
				BaseDecimals:  18,
				QuoteDecimals: 6,
				BaseIsToken0:  false,
				Order:         0,
			},
			"SushiSwap": {
				PoolAddress:   "0x397FF1542f962076d0BFE58eA045FfA2d347ACa0",
				FeeRate:       0.003,
				BaseDecimals:  18,
				QuoteDecimals: 6,
				BaseIsToken0:  false,
				Order:         1,
			},
		},
		Profit: ProfitConfig{
			GasCostPerSwap:  15,
			DefaultFeeRate:  0.003,
			DefaultSlippage: 0.005,
		},
		Detector: DetectorConfig{
			MinProfitUSD: 5,
			MinProfitPct: 0.1,
			TradeSizes:   []float64{0.5, 1.0, 5.0},
		},
		Monitor: MonitorConfig{
			Interval: duration{5 * time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "dexarb",
			User:          "dexarb",
			SSLMode:       "disable",
			PoolMaxConns:  8,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Notify: NotifyConfig{
			Cooldown: duration{time.Minute},
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values that would prevent the
// service from starting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ethereum.HTTPURL) == "" {
		return fmt.Errorf("config: ethereum.http_url is required")
	}
	if len(c.Venues) < 2 {
		return fmt.Errorf("config: at least two venues are required, got %d", len(c.Venues))
	}
	for name, v := range c.Venues {
		if !isHexAddress(v.PoolAddress) {
			return fmt.Errorf("config: venue %q has invalid pool_address %q", name, v.PoolAddress)
		}
		if v.FeeRate < 0 || v.FeeRate >= 1 {
			return fmt.Errorf("config: venue %q fee_rate must be in [0,1), got %v", name, v.FeeRate)
		}
	}
	if c.Detector.MinProfitUSD < 0 {
		return fmt.Errorf("config: detector.min_profit_usd must not be negative")
	}
	if len(c.Detector.TradeSizes) == 0 {
		return fmt.Errorf("config: detector.trade_sizes cannot be empty")
	}
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("config: monitor.interval must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("config: database.dsn or database.host is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	return nil
}

// VenueNames returns the configured venue names sorted by their configured
// order. This ordering is the tie-break authority for price comparisons.
func (c *Config) VenueNames() []string {
	names := make([]string, 0, len(c.Venues))
	for name := range c.Venues {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := c.Venues[names[i]], c.Venues[names[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return names[i] < names[j]
	})
	return names
}

// FeeRates returns the per-venue fee rates keyed by venue name.
func (c *Config) FeeRates() map[string]float64 {
	rates := make(map[string]float64, len(c.Venues))
	for name, v := range c.Venues {
		rates[name] = v.FeeRate
	}
	return rates
}

// isHexAddress reports whether s looks like a 0x-prefixed 20-byte hex address.
func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
