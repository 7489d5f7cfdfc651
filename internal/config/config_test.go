// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
database:
  path: "./test.db"
matrix:
  homeserver: "https://matrix.example.org"
  user_id: "@facil:example.org"
  access_token: "token"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "bot.yaml", `
server:
  http_addr: "0.0.0.0:5000"
database:
  path: "./facil.db"
matrix:
  homeserver: "https://matrix.org"
  user_id: "@facil:matrix.org"
  access_token: "syt_token"
  allowed_rooms:
    - "!orders:matrix.org"
  puppet_prefix: "whatsapp_"
ordering:
  bot_phone: "5511999990000"
  fallback_establishment_id: 3
  idle_timeout: "90s"
  delivery_fee: "7,50"
  currency: "R$"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:5000" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Ordering.IdleTimeout != 90*time.Second {
		t.Errorf("IdleTimeout = %v, want 90s", cfg.Ordering.IdleTimeout)
	}
	if got := cfg.Ordering.DeliveryFee.StringFixed(2); got != "7.50" {
		t.Errorf("DeliveryFee = %s, want 7.50", got)
	}
	if cfg.Ordering.FallbackEstablishmentID != 3 {
		t.Errorf("FallbackEstablishmentID = %d, want 3", cfg.Ordering.FallbackEstablishmentID)
	}
	if len(cfg.Matrix.AllowedRooms) != 1 || cfg.Matrix.AllowedRooms[0] != "!orders:matrix.org" {
		t.Errorf("AllowedRooms = %v", cfg.Matrix.AllowedRooms)
	}
	if cfg.Matrix.PuppetPrefix != "whatsapp_" {
		t.Errorf("PuppetPrefix = %q", cfg.Matrix.PuppetPrefix)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	cfg, err := Load(writeConfig(t, "bot.yaml", minimalYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:5000" {
		t.Errorf("HTTPAddr = %q, want 127.0.0.1:5000", cfg.Server.HTTPAddr)
	}
	if cfg.Ordering.IdleTimeout != 5*time.Minute {
		t.Errorf("IdleTimeout = %v, want 5m", cfg.Ordering.IdleTimeout)
	}
	if got := cfg.Ordering.DeliveryFee.StringFixed(2); got != "5.00" {
		t.Errorf("DeliveryFee = %s, want 5.00", got)
	}
	if cfg.Ordering.FallbackEstablishmentID != 1 {
		t.Errorf("FallbackEstablishmentID = %d, want 1", cfg.Ordering.FallbackEstablishmentID)
	}
	if cfg.Ordering.Currency != "R$" {
		t.Errorf("Currency = %q", cfg.Ordering.Currency)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "bot.toml", `
[database]
path = "./facil.db"

[matrix]
homeserver = "https://matrix.org"
user_id = "@facil:matrix.org"
username = "facil"
password = "secret"

[ordering]
idle_timeout = "2m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matrix.Username != "facil" {
		t.Errorf("Username = %q", cfg.Matrix.Username)
	}
	if cfg.Ordering.IdleTimeout != 2*time.Minute {
		t.Errorf("IdleTimeout = %v, want 2m", cfg.Ordering.IdleTimeout)
	}
}

func TestLoad_EnvExpansionAndOverride(t *testing.T) {
	t.Setenv("TEST_MATRIX_TOKEN", "expanded-token")
	t.Setenv(EnvDBPath, "/var/lib/facil/override.db")

	path := writeConfig(t, "bot.yaml", `
database:
  path: "./facil.db"
matrix:
  homeserver: "https://matrix.org"
  user_id: "@facil:matrix.org"
  access_token: "${TEST_MATRIX_TOKEN}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matrix.AccessToken != "expanded-token" {
		t.Errorf("AccessToken = %q, want expanded-token", cfg.Matrix.AccessToken)
	}
	if cfg.Database.Path != "/var/lib/facil/override.db" {
		t.Errorf("Database.Path = %q, want override", cfg.Database.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv(EnvDBPath, "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing database path",
			content: "matrix:\n  homeserver: https://m.org\n  user_id: \"@a:m.org\"\n  access_token: t\n",
			wantErr: "database.path is required",
		},
		{
			name:    "missing homeserver",
			content: "database:\n  path: x.db\nmatrix:\n  user_id: \"@a:m.org\"\n  access_token: t\n",
			wantErr: "matrix.homeserver is required",
		},
		{
			name:    "bad homeserver scheme",
			content: "database:\n  path: x.db\nmatrix:\n  homeserver: ftp://m.org\n  user_id: \"@a:m.org\"\n  access_token: t\n",
			wantErr: "http or https",
		},
		{
			name:    "malformed user id",
			content: "database:\n  path: x.db\nmatrix:\n  homeserver: https://m.org\n  user_id: facil\n  access_token: t\n",
			wantErr: "matrix.user_id must look like",
		},
		{
			name:    "no credentials",
			content: "database:\n  path: x.db\nmatrix:\n  homeserver: https://m.org\n  user_id: \"@a:m.org\"\n  username: a\n",
			wantErr: "matrix.access_token or matrix.username",
		},
		{
			name:    "bad idle timeout",
			content: minimalYAML + "ordering:\n  idle_timeout: soon\n",
			wantErr: "idle_timeout",
		},
		{
			name:    "zero idle timeout",
			content: minimalYAML + "ordering:\n  idle_timeout: 0s\n",
			wantErr: "ordering.idle_timeout must be positive",
		},
		{
			name:    "negative fee",
			content: minimalYAML + "ordering:\n  delivery_fee: \"-1\"\n",
			wantErr: "ordering.delivery_fee must not be negative",
		},
		{
			name:    "unparsable fee",
			content: minimalYAML + "ordering:\n  delivery_fee: five\n",
			wantErr: "delivery_fee",
		},
		{
			name:    "short jwt secret",
			content: minimalYAML + "auth:\n  jwt_secret: short\n",
			wantErr: "auth.jwt_secret must be at least 32 bytes",
		},
		{
			name:    "tailscale without hostname",
			content: minimalYAML + "tailscale:\n  enabled: true\n",
			wantErr: "tailscale.hostname is required",
		},
		{
			name:    "bad log level",
			content: minimalYAML + "logging:\n  level: loud\n",
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bot.yaml", tt.content))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/facil/custom.toml")
	if got := Path(); got != "/etc/facil/custom.toml" {
		t.Errorf("Path() = %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Path(); got != filepath.Join("/tmp/xdg", "facil", "bot.yaml") {
		t.Errorf("Path() = %q", got)
	}
}

func TestFormatFor(t *testing.T) {
	if FormatFor("bot.TOML") != FormatTOML {
		t.Error("expected TOML for .TOML")
	}
	if FormatFor("bot.yml") != FormatYAML {
		t.Error("expected YAML for .yml")
	}
}

func TestWriteStarter_LoadsBack(t *testing.T) {
	t.Setenv("FACIL_MATRIX_TOKEN", "token-from-env")
	t.Setenv("FACIL_JWT_SECRET", "")
	t.Setenv("TS_AUTHKEY", "")
	t.Setenv(EnvDBPath, "")

	for _, name := range []string{"bot.yaml", "bot.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := WriteStarter(path); err != nil {
				t.Fatalf("WriteStarter() error = %v", err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() of starter error = %v", err)
			}
			if cfg.Matrix.AccessToken != "token-from-env" {
				t.Errorf("AccessToken = %q", cfg.Matrix.AccessToken)
			}
			if cfg.Ordering.IdleTimeout != 5*time.Minute {
				t.Errorf("IdleTimeout = %v", cfg.Ordering.IdleTimeout)
			}

			if err := WriteStarter(path); !errors.Is(err, ErrExists) {
				t.Errorf("second WriteStarter() error = %v, want ErrExists", err)
			}
		})
	}
}
