package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Ethereum ──
	setStr(&cfg.Ethereum.HTTPURL, "DEXARB_ETH_HTTP_URL")
	setDuration(&cfg.Ethereum.CallTimeout, "DEXARB_ETH_CALL_TIMEOUT")

	// ── Detector ──
	setFloat64(&cfg.Detector.MinProfitUSD, "DEXARB_MIN_PROFIT_USD")
	setFloat64(&cfg.Detector.MinProfitPct, "DEXARB_MIN_PROFIT_PCT")

	// ── Monitor ──
	setDuration(&cfg.Monitor.Interval, "DEXARB_MONITOR_INTERVAL")
	setBool(&cfg.Monitor.Autostart, "DEXARB_MONITOR_AUTOSTART")

	// ── Database ──
	setStr(&cfg.Database.DSN, "DEXARB_DATABASE_DSN")
	setStr(&cfg.Database.Host, "DEXARB_DATABASE_HOST")
	setInt(&cfg.Database.Port, "DEXARB_DATABASE_PORT")
	setStr(&cfg.Database.Database, "DEXARB_DATABASE_NAME")
	setStr(&cfg.Database.User, "DEXARB_DATABASE_USER")
	setStr(&cfg.Database.Password, "DEXARB_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "DEXARB_DATABASE_SSLMODE")
	setBool(&cfg.Database.RunMigrations, "DEXARB_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DEXARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXARB_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "DEXARB_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "DEXARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DEXARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "DEXARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DEXARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DEXARB_S3_SECRET_KEY")

	// ── Server ──
	setInt(&cfg.Server.Port, "DEXARB_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "DEXARB_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXARB_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DEXARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DEXARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEXARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setDuration(&cfg.Notify.Cooldown, "DEXARB_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "DEXARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
