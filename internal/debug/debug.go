// Package debug provides opt-in file logging for chatmem.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logPath string
)

// Enable starts appending debug lines to the file at path.
// Calling Enable while already enabled is a no-op.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	//nolint:gosec // G304: path comes from the data directory, not user input.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	logFile = f
	logPath = path
	writeLocked(fmt.Sprintf("=== chatmem debug session %s ===", time.Now().Format(time.RFC3339)))
	return nil
}

// Disable stops debug logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return
	}
	_ = logFile.Close() //nolint:errcheck // Nothing useful to do with a close error here.
	logFile = nil
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logFile != nil
}

// LogPath returns the path of the current or last log file.
func LogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Log writes a formatted line if logging is enabled.
func Log(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	writeLocked(fmt.Sprintf(format, args...))
}

// Event logs something that happened in a component.
func Event(component, eventType, details string) {
	Log("[%s] %s: %s", component, eventType, details)
}

// Error logs a failure in a component.
func Error(component string, err error, context string) {
	Log("[%s] ERROR: %s - %v", component, context, err)
}

func writeLocked(line string) {
	if logFile == nil {
		return
	}
	_, _ = fmt.Fprintf(logFile, "[%s] %s\n", time.Now().Format("15:04:05.000"), line) //nolint:errcheck // Best-effort logging.
	_ = logFile.Sync()                                                                //nolint:errcheck // Best-effort logging.
}
