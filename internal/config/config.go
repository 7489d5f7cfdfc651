// ABOUTME: Configuration loading and parsing for facil-bot
// ABOUTME: Supports YAML or TOML files with environment variable expansion, duration and money parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Path and ApplyEnv.
const (
	EnvConfigPath = "FACIL_CONFIG"
	EnvDBPath     = "FACIL_DB_PATH"
)

// MinJWTSecretLength matches the auth package requirement.
const MinJWTSecretLength = 32

// Config represents the complete facil-bot configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Matrix    MatrixConfig    `yaml:"matrix" toml:"matrix"`
	Ordering  OrderingConfig  `yaml:"ordering" toml:"ordering"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the administrative API address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// MatrixConfig holds the messaging transport configuration
type MatrixConfig struct {
	Homeserver  string `yaml:"homeserver" toml:"homeserver"`
	UserID      string `yaml:"user_id" toml:"user_id"`
	AccessToken string `yaml:"access_token" toml:"access_token"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	// RecoveryKey enables cross-signing when E2EE is on
	RecoveryKey  string   `yaml:"recovery_key" toml:"recovery_key"`
	Encryption   bool     `yaml:"encryption" toml:"encryption"`
	DataDir      string   `yaml:"data_dir" toml:"data_dir"`
	AllowedRooms []string `yaml:"allowed_rooms" toml:"allowed_rooms"`
	// PuppetPrefix is stripped from sender localparts to recover the customer's phone number
	PuppetPrefix string `yaml:"puppet_prefix" toml:"puppet_prefix"`
}

// OrderingConfig holds establishment-wide ordering values
type OrderingConfig struct {
	BotPhone                string `yaml:"bot_phone" toml:"bot_phone"`
	FallbackEstablishmentID int64  `yaml:"fallback_establishment_id" toml:"fallback_establishment_id"`
	Currency                string `yaml:"currency" toml:"currency"`

	IdleTimeout time.Duration   `yaml:"-" toml:"-"`
	DeliveryFee decimal.Decimal `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	IdleTimeoutRaw string `yaml:"idle_timeout" toml:"idle_timeout"`
	DeliveryFeeRaw string `yaml:"delivery_fee" toml:"delivery_fee"`
}

// AuthConfig holds administrative API authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data, FormatFor(path))
}

// Format is a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the syntax from a file name.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes, defaults, parses and validates raw configuration.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	ApplyEnv(&cfg)
	applyDefaults(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := parseMoney(&cfg); err != nil {
		return nil, fmt.Errorf("parsing amounts: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Path returns the config file location: $FACIL_CONFIG, then
// $XDG_CONFIG_HOME/facil/bot.yaml, then ~/.config/facil/bot.yaml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "facil", "bot.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "facil", "bot.yaml")
	}
	return filepath.Join(home, ".config", "facil", "bot.yaml")
}

// ApplyEnv applies environment overrides that take precedence over the file.
func ApplyEnv(cfg *Config) {
	if p := os.Getenv(EnvDBPath); p != "" {
		cfg.Database.Path = p
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" && !cfg.Tailscale.Enabled {
		cfg.Server.HTTPAddr = "127.0.0.1:5000"
	}
	if cfg.Ordering.FallbackEstablishmentID == 0 {
		cfg.Ordering.FallbackEstablishmentID = 1
	}
	if cfg.Ordering.IdleTimeoutRaw == "" {
		cfg.Ordering.IdleTimeoutRaw = "5m"
	}
	if cfg.Ordering.DeliveryFeeRaw == "" {
		cfg.Ordering.DeliveryFeeRaw = "5.00"
	}
	if cfg.Ordering.Currency == "" {
		cfg.Ordering.Currency = "R$"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	u, err := url.Parse(c.Matrix.Homeserver)
	if err != nil {
		return fmt.Errorf("matrix.homeserver is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("matrix.homeserver must use http or https scheme")
	}
	if c.Matrix.UserID == "" {
		return fmt.Errorf("matrix.user_id is required")
	}
	if !strings.HasPrefix(c.Matrix.UserID, "@") || !strings.Contains(c.Matrix.UserID, ":") {
		return fmt.Errorf("matrix.user_id must look like @name:server, got %q", c.Matrix.UserID)
	}
	if c.Matrix.AccessToken == "" && (c.Matrix.Username == "" || c.Matrix.Password == "") {
		return fmt.Errorf("matrix.access_token or matrix.username and matrix.password are required")
	}

	if c.Ordering.IdleTimeout <= 0 {
		return fmt.Errorf("ordering.idle_timeout must be positive")
	}
	if c.Ordering.DeliveryFee.IsNegative() {
		return fmt.Errorf("ordering.delivery_fee must not be negative")
	}
	if c.Ordering.FallbackEstablishmentID < 0 {
		return fmt.Errorf("ordering.fallback_establishment_id must not be negative")
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLength)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Ordering.IdleTimeoutRaw != "" {
		cfg.Ordering.IdleTimeout, err = time.ParseDuration(cfg.Ordering.IdleTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing idle_timeout %q: %w", cfg.Ordering.IdleTimeoutRaw, err)
		}
	}

	return nil
}

// parseMoney converts raw amounts into decimals. A comma is accepted as the separator.
func parseMoney(cfg *Config) error {
	if cfg.Ordering.DeliveryFeeRaw == "" {
		return nil
	}
	raw := strings.Replace(strings.TrimSpace(cfg.Ordering.DeliveryFeeRaw), ",", ".", 1)
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parsing delivery_fee %q: %w", cfg.Ordering.DeliveryFeeRaw, err)
	}
	cfg.Ordering.DeliveryFee = fee
	return nil
}
