// Package dedupe suppresses inbound events that arrive more than once
// within a configurable window.
package dedupe
