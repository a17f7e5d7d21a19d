// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Opened repository", zap.String("location", loc))
//	logger.Error("Load failed", zap.Error(err))
package logging
