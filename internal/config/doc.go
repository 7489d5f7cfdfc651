// Package config handles configuration loading for facil-bot.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion, then defaulted and validated. Files ending in .toml are read as
// TOML; anything else is read as YAML.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from FACIL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/facil/bot.yaml
//  3. ~/.config/facil/bot.yaml
//
// Run "facil-bot init" to write a starter file to that location.
//
// # Environment Variables
//
// Configuration values can reference environment variables:
//
//	matrix:
//	  access_token: "${FACIL_MATRIX_TOKEN}"
//
// Unset variables expand to the empty string. FACIL_DB_PATH, when set,
// replaces database.path after the file is read.
//
// # Ordering Values
//
//	ordering:
//	  bot_phone: "5511999990000"       # establishment lookup key
//	  fallback_establishment_id: 1     # used when bot_phone has no row
//	  idle_timeout: "5m"               # time.ParseDuration syntax
//	  delivery_fee: "5.00"             # decimal, comma or dot
//	  currency: "R$"
//
// # Validation
//
// database.path, matrix.homeserver and matrix.user_id are required, as is
// either matrix.access_token or matrix.username with matrix.password.
// auth.jwt_secret may be empty, which disables admin API authentication,
// but when set it must be at least 32 bytes.
package config
