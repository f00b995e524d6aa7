package combat

import "sync/atomic"

// debugLoggingEnabled controls whether debug logging is enabled for the
// combat core. Package-level flag to avoid the overhead of checking log
// level on every AI tick.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables debug logging for the combat core.
// Must be called during initialization (e.g., from main.go after parsing config).
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if debug logging is enabled.
// Use this to guard expensive debug log calls:
//
//	if combat.IsDebugEnabled() {
//	    slog.Debug("expensive operation", "data", computeExpensiveData())
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
