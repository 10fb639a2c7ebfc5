package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/healthbridge/internal/healthstore"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Tailscale   TailscaleConfig   `yaml:"tailscale"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Permissions PermissionsConfig `yaml:"permissions"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type BridgeConfig struct {
	PreferHealthConnect bool     `yaml:"prefer_health_connect"`
	RequiredScopes      []string `yaml:"required_scopes"`
	PageSize            int      `yaml:"page_size"`
	PageRetries         uint64   `yaml:"page_retries"`
	EnrichConcurrency   int      `yaml:"enrich_concurrency"`
	StrictFetchErrors   bool     `yaml:"strict_fetch_errors"`
}

type PermissionsConfig struct {
	LedgerDir string   `yaml:"ledger_dir"`
	Grantable []string `yaml:"grantable"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Scopes converts configured scope strings to permissions.
func Scopes(names []string) []healthstore.Permission {
	out := make([]healthstore.Permission, 0, len(names))
	for _, n := range names {
		out = append(out, healthstore.Permission(n))
	}
	return out
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix HEALTHBRIDGE_ and underscore-separated paths:
//
//	HEALTHBRIDGE_SERVER_HOST, HEALTHBRIDGE_SERVER_PORT, HEALTHBRIDGE_STORE_BACKEND,
//	HEALTHBRIDGE_DB_HOST, HEALTHBRIDGE_DB_PORT, HEALTHBRIDGE_DB_NAME,
//	HEALTHBRIDGE_DB_USER, HEALTHBRIDGE_DB_PASSWORD, HEALTHBRIDGE_DB_SSLMODE,
//	HEALTHBRIDGE_AUTH_API_KEY, HEALTHBRIDGE_TAILSCALE_ENABLED,
//	HEALTHBRIDGE_BRIDGE_STRICT_FETCH_ERRORS, HEALTHBRIDGE_PERMISSIONS_LEDGER_DIR,
//	HEALTHBRIDGE_PERMISSIONS_GRANTABLE (comma-separated)
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEALTHBRIDGE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HEALTHBRIDGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("HEALTHBRIDGE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("HEALTHBRIDGE_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_BRIDGE_STRICT_FETCH_ERRORS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bridge.StrictFetchErrors = b
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_PERMISSIONS_LEDGER_DIR"); v != "" {
		cfg.Permissions.LedgerDir = v
	}
	if v := os.Getenv("HEALTHBRIDGE_PERMISSIONS_GRANTABLE"); v != "" {
		cfg.Permissions.Grantable = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendPostgres
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "healthbridge"
	}
	if cfg.Tailscale.StateDir == "" {
		cfg.Tailscale.StateDir = "tsnet-state"
	}
	if cfg.Bridge.PageSize == 0 {
		cfg.Bridge.PageSize = healthstore.DefaultPageSize
	}
	if len(cfg.Bridge.RequiredScopes) == 0 {
		cfg.Bridge.RequiredScopes = []string{
			string(healthstore.ReadPermission(healthstore.KindSteps)),
			string(healthstore.ReadPermission(healthstore.KindTotalCaloriesBurned)),
		}
	}
	if cfg.Permissions.LedgerDir == "" {
		cfg.Permissions.LedgerDir = "data"
	}
	if cfg.Permissions.Grantable == nil {
		cfg.Permissions.Grantable = cfg.Bridge.RequiredScopes
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendPostgres, BackendMemory, c.Store.Backend)
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Bridge.PageSize < 0 {
		return fmt.Errorf("bridge.page_size must not be negative")
	}
	if c.Bridge.EnrichConcurrency < 0 {
		return fmt.Errorf("bridge.enrich_concurrency must not be negative")
	}
	return nil
}
