// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks values before they reach the output:
//   - attributes whose key names a secret (private_key, access_token, password)
//   - Google OAuth access and refresh tokens, API keys and signed JWTs
//   - PEM private key blocks, as found in service account files
//   - errors whose message contains any of the above
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.Options{Level: slog.LevelInfo, JSON: false})
//	logger.Info("sheet read", "sheet", "Продажи", "rows", 120)
//	slog.SetDefault(logger)
package log
