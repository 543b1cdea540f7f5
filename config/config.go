package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"coinflip/database"
	"coinflip/models"

	"github.com/caarlos0/env/v6"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseName   string `env:"DATABASE_NAME"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	DatabaseMaxConns    int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseLockTimeout time.Duration `env:"DATABASE_LOCK_TIMEOUT" envDefault:"5s"`

	// NATS configuration
	NATSServers string `env:"NATS_SERVERS" envDefault:"nats://nats:4222"` // comma-separated
	NATSEnabled bool   `env:"NATS_ENABLED" envDefault:"true"`

	// Accepted clock difference for signed command timestamps
	CommandMaxSkew time.Duration `env:"COMMAND_MAX_SKEW" envDefault:"2m"`

	// Identity allowed to mint into wallets. Unset disables minting.
	MintAuthority models.Address `env:"MINT_AUTHORITY"`

	// OpenTelemetry configuration
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"coinflip"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"console"` // console, otlp or none
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"otel-collector:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MS" envDefault:"10000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// PoolOptions returns the connection pool settings
func (c *Config) PoolOptions() database.PoolOptions {
	return database.PoolOptions{
		MaxConns:    c.DatabaseMaxConns,
		LockTimeout: c.DatabaseLockTimeout,
	}
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSServerList splits NATSServers into individual URLs
func (c *Config) NATSServerList() []string {
	var servers []string
	for _, s := range strings.Split(c.NATSServers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

// MintingEnabled reports whether a mint authority is configured
func (c *Config) MintingEnabled() bool {
	return !c.MintAuthority.IsZero()
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.CommandMaxSkew <= 0 {
			return nil, fmt.Errorf("COMMAND_MAX_SKEW must be positive")
		}
		if config.NATSEnabled && len(config.NATSServerList()) == 0 {
			return nil, fmt.Errorf("NATS_SERVERS is required when NATS_ENABLED is set")
		}
		switch config.OTelExporterType {
		case "console", "otlp", "none":
		default:
			return nil, fmt.Errorf("OTEL_EXPORTER_TYPE must be console, otlp or none, got %q", config.OTelExporterType)
		}
	}

	return config, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		NATSEnabled:      false,
		CommandMaxSkew:   2 * time.Minute,
		OTelExporterType: "none",
		LogLevel:         "debug",
	}
}
