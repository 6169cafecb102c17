// Package config provides configuration loading and management for the launch dashboard server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL  = "https://api.spacexdata.com"
	defaultAPITimeout  = 30 * time.Second
	defaultSyncWorkers = 8
	defaultJWTExpiry   = time.Hour
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server   ServerConfig    `yaml:"server,omitempty"`
	Database *DatabaseConfig `yaml:"database"`
	SpaceX   SpaceXConfig    `yaml:"spacex,omitempty"`
	JWT      JWTConfig       `yaml:"jwt"`
	Sync     SyncConfig      `yaml:"sync,omitempty"`
	Users    []UserConfig    `yaml:"users,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address,omitempty"`
}

// SpaceXConfig defines the external launch API settings
type SpaceXConfig struct {
	// BaseURL is the API base URL without a trailing path
	BaseURL string `yaml:"baseUrl,omitempty"`

	// Timeout bounds every call to the external API (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// JWTConfig defines token issuance settings
type JWTConfig struct {
	// Secret is the HMAC signing secret (inline; prefer SecretFile in production)
	Secret string `yaml:"secret,omitempty"`

	// SecretFile is the path to a file containing the signing secret
	SecretFile string `yaml:"secretFile,omitempty"`

	// Expiry is the token lifetime (e.g. "1h")
	Expiry string `yaml:"expiry,omitempty"`
}

// SyncConfig defines synchronization settings
type SyncConfig struct {
	// Workers bounds the per-record enrichment concurrency
	Workers int `yaml:"workers,omitempty"`
}

// UserConfig defines a user seeded at startup
type UserConfig struct {
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// This is the recommended approach for production deployments.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Password is the inline database password (lowest priority)
	Password string `yaml:"password,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// Debug enables query logging on the ORM
	Debug bool `yaml:"debug,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from LAUNCHDASH_DATABASE_PASSWORD environment variable
// 3. Inline Password field
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: Read from file if specified
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		// Trim whitespace (including newlines) from file content
		return strings.TrimSpace(string(data)), nil
	}

	// Priority 2: Check environment variable
	if envPassword := os.Getenv("LAUNCHDASH_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	// Priority 3: Inline configuration
	if d.Password != "" {
		return d.Password, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile, LAUNCHDASH_DATABASE_PASSWORD, or password",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetSecret returns the JWT signing secret, preferring SecretFile over the
// inline Secret value.
func (j *JWTConfig) GetSecret() (string, error) {
	if j.SecretFile != "" {
		cleanPath := filepath.Clean(j.SecretFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read JWT secret from file %s: %w", j.SecretFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if j.Secret != "" {
		return j.Secret, nil
	}

	return "", fmt.Errorf("no JWT secret configured: set secretFile or secret")
}

// GetExpiry returns the parsed token lifetime, defaulting to one hour.
func (j *JWTConfig) GetExpiry() (time.Duration, error) {
	if j.Expiry == "" {
		return defaultJWTExpiry, nil
	}
	d, err := time.ParseDuration(j.Expiry)
	if err != nil {
		return 0, fmt.Errorf("invalid JWT expiry: %w", err)
	}
	return d, nil
}

// GetBaseURL returns the external API base URL, defaulting to the public SpaceX API.
func (s *SpaceXConfig) GetBaseURL() string {
	if s.BaseURL == "" {
		return defaultAPIBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

// GetTimeout returns the parsed per-call timeout, defaulting to 30 seconds.
func (s *SpaceXConfig) GetTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return defaultAPITimeout, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid spacex timeout: %w", err)
	}
	return d, nil
}

// GetWorkers returns the sync worker bound, defaulting to 8.
func (s *SyncConfig) GetWorkers() int {
	if s.Workers <= 0 {
		return defaultSyncWorkers
	}
	return s.Workers
}

// GetAddress returns the listen address, defaulting to ":8080".
func (s *ServerConfig) GetAddress() string {
	if s.Address == "" {
		return ":8080"
	}
	return s.Address
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if _, err := c.SpaceX.GetTimeout(); err != nil {
		return err
	}
	if _, err := c.JWT.GetExpiry(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		if u.Email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
		if seen[u.Email] {
			return fmt.Errorf("users[%d]: duplicate user email '%s'", i, u.Email)
		}
		seen[u.Email] = true
		if u.Password == "" {
			return fmt.Errorf("users[%d]: password is required", i)
		}
	}

	return nil
}
