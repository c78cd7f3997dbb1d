// Package logging provides structured logging for cohort runs.
//
// It wraps log/slog with a JSON handler and a small set of persistent
// attributes, so every entry written during an analysis can be traced back to
// its run and pipeline phase.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	runLogger := logger.WithRun(runID).WithPhase("groups")
//	runLogger.Info("groups reconciled", "groups", 12)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"groups reconciled","run_id":"...","phase":"groups","groups":12}
//
// # Log Rotation
//
// [NewLoggerWithRotation] writes through a [RotatingWriter], which moves the
// file to cohort.log.1 once it would pass MaxSizeMB and keeps at most
// MaxBackups older files (cohort.log.1.gz etc. when Compress is set).
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a
// bytes.Buffer to assert on entries.
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: debug
//	  dir: /tmp/cohort
//	  max_size_mb: 10
//	  max_backups: 3
package logging
