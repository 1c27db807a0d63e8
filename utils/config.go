package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds every runtime knob of the service
type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Security struct {
		// DefenseKeyHash is the bcrypt hash of the shared X-Star-Defense-Key secret.
		DefenseKeyHash string        `koanf:"defense_key_hash"`
		ReceiptSecret  string        `koanf:"receipt_secret"`
		ReceiptTTL     time.Duration `koanf:"receipt_ttl"`
	} `koanf:"security"`

	Mongo struct {
		URI      string `koanf:"uri"`
		Database string `koanf:"database"`
	} `koanf:"mongo"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Pricing struct {
		ServiceFeeRate string `koanf:"service_fee_rate"`
		Tolerance      string `koanf:"tolerance"`
		// StrictGuard rejects order lines that omit a barcode or declared price.
		StrictGuard bool `koanf:"strict_guard"`
	} `koanf:"pricing"`

	Catalog struct {
		Seed bool `koanf:"seed"`
	} `koanf:"catalog"`

	Mail struct {
		Provider      string `koanf:"provider"`
		PostmarkToken string `koanf:"postmark_token"`
		SendgridKey   string `koanf:"sendgrid_key"`
		Sender        string `koanf:"sender"`
		OwnerEmail    string `koanf:"owner_email"`
	} `koanf:"mail"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                 "go-marketplace",
		"app.http_addr":            ":8000",
		"app.log_level":            "info",
		"http.read_timeout":        "10s",
		"http.write_timeout":       "30s",
		"http.idle_timeout":        "60s",
		"http.shutdown_timeout":    "15s",
		"security.receipt_ttl":     "720h",
		"mongo.database":           "marketplace",
		"idempotency.ttl":          "24h",
		"pricing.service_fee_rate": "0.05",
		"pricing.tolerance":        "0.001",
		"pricing.strict_guard":     true,
		"catalog.seed":             true,
		"mail.provider":            "none",
	}
}

// LoadConfig reads .env (if present), then defaults, the optional YAML file named by
// CONFIG_FILE, and finally MARKET_ environment variables (MARKET_MONGO__URI -> mongo.uri).
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		Log().Info("no .env file found, proceeding with environment variables")
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("MARKET_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MARKET_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}
	// PORT is honoured when no explicit address was given
	if port := os.Getenv("PORT"); port != "" && os.Getenv("MARKET_APP__HTTP_ADDR") == "" {
		_ = k.Set("app.http_addr", ":"+port)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot run without
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Security.DefenseKeyHash == "" {
		return fmt.Errorf("security.defense_key_hash required")
	}
	if _, err := c.ServiceFeeRate(); err != nil {
		return err
	}
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	switch c.Mail.Provider {
	case "none", "":
	case "postmark":
		if c.Mail.PostmarkToken == "" {
			return fmt.Errorf("mail.postmark_token required for postmark")
		}
	case "sendgrid":
		if c.Mail.SendgridKey == "" {
			return fmt.Errorf("mail.sendgrid_key required for sendgrid")
		}
	default:
		return fmt.Errorf("unknown mail.provider %q", c.Mail.Provider)
	}
	return nil
}

// ServiceFeeRate parses the configured fee rate
func (c Config) ServiceFeeRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.Pricing.ServiceFeeRate)
	if err != nil || rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("pricing.service_fee_rate must be a non-negative number, got %q", c.Pricing.ServiceFeeRate)
	}
	return rate, nil
}

// Tolerance parses the configured price tolerance
func (c Config) Tolerance() (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(c.Pricing.Tolerance)
	if err != nil || tol.IsNegative() {
		return decimal.Zero, fmt.Errorf("pricing.tolerance must be a non-negative number, got %q", c.Pricing.Tolerance)
	}
	return tol, nil
}
