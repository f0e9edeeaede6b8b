// Package config assembles runtime settings from built-in defaults, an optional
// YAML file and the process environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/connectus/newcon-mock/internal/auth"
	"github.com/connectus/newcon-mock/internal/customer"
	"github.com/connectus/newcon-mock/internal/ledger"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	DefaultSecret = "newcon-mock-secret-2024"
)

// Duration accepts Go duration strings ("720h") and a day suffix ("30d") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	GRPCAddr      string `yaml:"grpc_addr"`
	PublicBaseURL string `yaml:"public_base_url"`

	Auth struct {
		Secret     string   `yaml:"secret"`
		Issuer     string   `yaml:"issuer"`
		AccessTTL  Duration `yaml:"access_ttl"`
		RefreshTTL Duration `yaml:"refresh_ttl"`
		Revocation bool     `yaml:"revocation"`
		HashCost   int      `yaml:"hash_cost"`
	} `yaml:"auth"`

	Ledger struct {
		Backend     string   `yaml:"backend"`
		GracePeriod Duration `yaml:"grace_period"`
		Retention   Duration `yaml:"retention"`
		PostgresDSN string   `yaml:"postgres_dsn"`
		RedisURL    string   `yaml:"redis_url"`
		RedisPrefix string   `yaml:"redis_prefix"`
	} `yaml:"ledger"`

	HTTP struct {
		MaxBodyBytes int64    `yaml:"max_body_bytes"`
		RateBurst    int      `yaml:"rate_burst"`
		RatePerSec   int      `yaml:"rate_per_sec"`
		CORSOrigins  []string `yaml:"cors_origins"`
	} `yaml:"http"`

	Users   []auth.Seed       `yaml:"users"`
	Clients []customer.Client `yaml:"clients"`
}

// Default returns the stock settings with the built-in seed data.
func Default() Config {
	var c Config
	c.HTTPAddr = ":3000"
	c.GRPCAddr = ":9090"
	c.PublicBaseURL = "http://localhost:3000"
	c.Auth.Secret = DefaultSecret
	c.Auth.Issuer = auth.DefaultIssuer
	c.Auth.AccessTTL = Duration(time.Hour)
	c.Auth.RefreshTTL = Duration(7 * 24 * time.Hour)
	c.Auth.Revocation = true
	c.Ledger.Backend = BackendMemory
	c.Ledger.GracePeriod = Duration(ledger.DefaultGracePeriod)
	c.HTTP.MaxBodyBytes = 1 << 20
	c.HTTP.RateBurst = 50
	c.HTTP.RatePerSec = 25
	c.HTTP.CORSOrigins = []string{"*"}
	c.Users = auth.DefaultSeeds()
	c.Clients = customer.DefaultClients()
	return c
}

// Load reads .env (if present), then the YAML file named by NEWCON_CONFIG, then
// environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("NEWCON_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []string
	dur := func(key string, dst *Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = Duration(d)
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = n
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	str("NEWCON_GRPC_ADDR", &cfg.GRPCAddr)
	str("NEWCON_PUBLIC_BASE_URL", &cfg.PublicBaseURL)
	str("JWT_SECRET", &cfg.Auth.Secret)
	str("NEWCON_JWT_ISSUER", &cfg.Auth.Issuer)
	dur("NEWCON_ACCESS_TTL", &cfg.Auth.AccessTTL)
	dur("NEWCON_REFRESH_TTL", &cfg.Auth.RefreshTTL)
	if v, ok := lookup("NEWCON_REVOCATION"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("NEWCON_REVOCATION: %v", err))
		} else {
			cfg.Auth.Revocation = b
		}
	}
	str("NEWCON_LEDGER_BACKEND", &cfg.Ledger.Backend)
	dur("NEWCON_GRACE_PERIOD", &cfg.Ledger.GracePeriod)
	dur("NEWCON_LEDGER_RETENTION", &cfg.Ledger.Retention)
	str("NEWCON_PG_DSN", &cfg.Ledger.PostgresDSN)
	str("REDIS_URL", &cfg.Ledger.RedisURL)
	num("NEWCON_RATE_BURST", &cfg.HTTP.RateBurst)
	num("NEWCON_RATE_PER_SEC", &cfg.HTTP.RatePerSec)
	if v, ok := lookup("NEWCON_MAX_BODY_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("NEWCON_MAX_BODY_BYTES: %v", err))
		} else {
			cfg.HTTP.MaxBodyBytes = n
		}
	}
	if v, ok := lookup("NEWCON_CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.CORSOrigins = origins
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Ledger.PostgresDSN == "" {
			return fmt.Errorf("ledger backend %q requires a postgres DSN (NEWCON_PG_DSN)", c.Ledger.Backend)
		}
	case BackendRedis:
		if c.Ledger.RedisURL == "" {
			return fmt.Errorf("ledger backend %q requires REDIS_URL", c.Ledger.Backend)
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("token ttls must be positive")
	}
	if c.Ledger.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive")
	}
	if c.HTTP.RateBurst <= 0 || c.HTTP.RatePerSec <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if len(c.Users) == 0 {
		return fmt.Errorf("at least one user seed is required")
	}
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}
