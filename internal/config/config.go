// Package config loads the billlink server configuration
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIToken = "dev-token"
	defaultHTTPAddr = ":8000"
	defaultGRPCAddr = ":8080"
)

// Config holds all billlink configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Session  SessionConfig  `yaml:"session"`
	Fetch    FetchConfig    `yaml:"fetch"`

	// SeedDemoBill creates the demo bill on startup when it is missing
	SeedDemoBill bool `yaml:"seed_demo_bill"`
}

// DatabaseConfig configures the Postgres connection.
// ConnStr wins over the individual fields when set.
type DatabaseConfig struct {
	ConnStr  string `yaml:"conn_str"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`

	ConnectAttempts int    `yaml:"connect_attempts"`
	ConnectInterval string `yaml:"connect_interval"`
}

// HTTPConfig configures the customer web server
type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	SecureCookies bool   `yaml:"secure_cookies"`
}

// GRPCConfig configures the admin gRPC server
type GRPCConfig struct {
	Addr     string `yaml:"addr"`
	APIToken string `yaml:"api_token"`
}

// SessionConfig configures the wizard session store
type SessionConfig struct {
	TTL string `yaml:"ttl"`
}

// FetchConfig limits how fast bill lookups hit the database
type FetchConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "billlink",
			ConnectAttempts: 10,
			ConnectInterval: "2s",
		},
		HTTP: HTTPConfig{Addr: defaultHTTPAddr},
		GRPC: GRPCConfig{Addr: defaultGRPCAddr, APIToken: defaultAPIToken},
		Session: SessionConfig{
			TTL: "2h",
		},
		Fetch: FetchConfig{
			RatePerSecond: 50,
			Burst:         10,
		},
	}
}

// Load reads the YAML file at path, if any, on top of the defaults and then
// applies environment overrides
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Database.ConnStr, "DB_CONN_STR")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.HTTP.Addr, "HTTP_ADDR")
	setString(&c.GRPC.Addr, "GRPC_ADDR")
	setString(&c.GRPC.APIToken, "API_TOKEN")
	setString(&c.Session.TTL, "SESSION_TTL")

	if v := getenv("SEED_DEMO_BILL"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEED_DEMO_BILL %q: %w", v, err)
		}
		c.SeedDemoBill = seed
	}
	return nil
}

// Validate checks values that cannot be checked while parsing
func (c *Config) Validate() error {
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if _, err := c.ConnectInterval(); err != nil {
		return err
	}
	if c.GRPC.APIToken == "" {
		return fmt.Errorf("api token must not be empty")
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch rate must not be negative")
	}
	return nil
}

// DSN returns the Postgres connection string
func (c *Config) DSN() string {
	if c.Database.ConnStr != "" {
		return c.Database.ConnStr
	}
	db := c.Database
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		db.Host, db.Port, db.User, db.Password, db.Name)
}

// SessionTTL returns how long an idle wizard session is kept
func (c *Config) SessionTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q: %w", c.Session.TTL, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("session ttl must be positive")
	}
	return ttl, nil
}

// ConnectInterval returns the wait between database connection attempts
func (c *Config) ConnectInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Database.ConnectInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid connect interval %q: %w", c.Database.ConnectInterval, err)
	}
	return d, nil
}
