// Package logging provides structured logging for the YoLink client library.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across every component.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via a Config value, typically loaded from
// config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("subscribed", "topic", topic)
//	logger.Error("request failed", "error", err)
//
// Library components accept a *Logger and fall back to Discard when
// none is supplied, so embedding applications only pay for logging
// they asked for.
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys.
// Use field redaction for sensitive data:
//
//	logger.Info("token refreshed", "token_prefix", tok[:8]+"...")
package logging
