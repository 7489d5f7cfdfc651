// ABOUTME: Argument parsing for the token subcommand
// ABOUTME: Accepts --name/--ttl in both "--flag value" and "--flag=value" forms

package main

import (
	"fmt"
	"strings"
	"time"
)

// defaultTokenTTL is used when --ttl is not given.
const defaultTokenTTL = 30 * 24 * time.Hour

// parseTokenArgs parses token subcommand arguments.
func parseTokenArgs(args []string) (name string, ttl time.Duration, err error) {
	ttl = defaultTokenTTL
	var rawTTL string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--name" || arg == "-n":
			if i+1 >= len(args) {
				return "", 0, fmt.Errorf("--name requires a value")
			}
			name = args[i+1]
			i++
		case strings.HasPrefix(arg, "--name="):
			name = strings.TrimPrefix(arg, "--name=")
		case arg == "--ttl":
			if i+1 >= len(args) {
				return "", 0, fmt.Errorf("--ttl requires a value")
			}
			rawTTL = args[i+1]
			i++
		case strings.HasPrefix(arg, "--ttl="):
			rawTTL = strings.TrimPrefix(arg, "--ttl=")
		case strings.HasPrefix(arg, "-"):
			return "", 0, fmt.Errorf("unknown flag: %s", arg)
		default:
			return "", 0, fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, fmt.Errorf("--name flag is required")
	}
	if len(name) > 100 {
		return "", 0, fmt.Errorf("name exceeds maximum length of 100 characters")
	}

	if rawTTL != "" {
		ttl, err = time.ParseDuration(rawTTL)
		if err != nil {
			return "", 0, fmt.Errorf("invalid --ttl: %w", err)
		}
		if ttl <= 0 {
			return "", 0, fmt.Errorf("--ttl must be positive")
		}
	}

	return name, ttl, nil
}
