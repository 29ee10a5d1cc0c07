// Package observability provides structured logging for the agent runtime.
//
// Logging is built on Go's slog package and adds:
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - JSON output for production, text for development
//   - Automatic request/session correlation from context
//   - Redaction of sensitive data (API keys, tokens, passwords) in both
//     messages and structured fields
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	ctx = observability.AddSessionID(ctx, sessionID)
//	logger.Info(ctx, "turn started", "model", modelName)
//
// Every package in this module logs through a *Logger rather than calling
// fmt.Println or the top-level log package directly, so that output stays
// structured and redaction always applies.
package observability
