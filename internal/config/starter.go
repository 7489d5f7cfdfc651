// ABOUTME: Starter configuration files written by the init subcommand
// ABOUTME: One template per supported syntax; secrets are left as ${VAR} references

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by WriteStarter when the target file already exists.
var ErrExists = errors.New("config file already exists")

const starterYAML = `# facil-bot configuration
server:
  http_addr: "127.0.0.1:5000"

tailscale:
  enabled: false
  hostname: "facil-bot"
  auth_key: "${TS_AUTHKEY}"
  ephemeral: false

database:
  path: "./facil.db"

matrix:
  homeserver: "https://matrix.org"
  user_id: "@facil:matrix.org"
  access_token: "${FACIL_MATRIX_TOKEN}"
  encryption: false
  recovery_key: ""
  allowed_rooms: []
  puppet_prefix: "whatsapp_"

ordering:
  bot_phone: ""
  fallback_establishment_id: 1
  idle_timeout: "5m"
  delivery_fee: "5.00"
  currency: "R$"

auth:
  jwt_secret: "${FACIL_JWT_SECRET}"

logging:
  level: "info"
  format: "text"
`

const starterTOML = `# facil-bot configuration
[server]
http_addr = "127.0.0.1:5000"

[tailscale]
enabled = false
hostname = "facil-bot"
auth_key = "${TS_AUTHKEY}"
ephemeral = false

[database]
path = "./facil.db"

[matrix]
homeserver = "https://matrix.org"
user_id = "@facil:matrix.org"
access_token = "${FACIL_MATRIX_TOKEN}"
encryption = false
recovery_key = ""
allowed_rooms = []
puppet_prefix = "whatsapp_"

[ordering]
bot_phone = ""
fallback_establishment_id = 1
idle_timeout = "5m"
delivery_fee = "5.00"
currency = "R$"

[auth]
jwt_secret = "${FACIL_JWT_SECRET}"

[logging]
level = "info"
format = "text"
`

// Starter returns the starter file contents for format.
func Starter(format Format) string {
	if format == FormatTOML {
		return starterTOML
	}
	return starterYAML
}

// WriteStarter writes a starter config to path, choosing the syntax from
// its extension. It refuses to overwrite an existing file.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Starter(FormatFor(path))), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
