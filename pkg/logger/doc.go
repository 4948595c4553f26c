// Package logger provides a structured logging interface for the timeline digest.
//
// It wraps zerolog with a small interface so crawler and client code can be
// tested against TestLogger or NewNopLogger instead of real output.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//
//	logger.Info("crawl started")
//	logger.WithField("run_id", runID).Info("page fetched")
//	logger.WithError(err).Error("report write failed")
//
// Console output goes to stderr. When File is set, entries are also
// appended to that file as JSON lines.
package logger
