// Package debug provides togglable, component-tagged logging for the
// indexing, search, watcher and coordinator packages. Output is a no-op
// unless enabled, so it is safe to sprinkle through hot paths.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnableDebug is a build flag that can be overridden at build time:
// go build -ldflags "-X github.com/standardbeagle/prismd/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// debugOutput is the writer for debug output (nil means os.Stderr).
var debugOutput io.Writer

var debugMutex sync.Mutex

// SetDebugOutput sets a custom writer for debug output. Pass nil to
// send debug output back to os.Stderr; whether anything is written at
// all is decided by IsDebugEnabled.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// IsDebugEnabled reports whether debug logging is active.
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("PRISMD_DEBUG")
	return v == "1" || v == "true"
}

func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Log provides structured debug logging tagged with a component name.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format+"\n", append([]interface{}{component}, args...)...)
}

// LogScan logs File Scanner (C2) activity.
func LogScan(format string, args ...interface{}) { Log("SCAN", format, args...) }

// LogIndex logs Index Store / Inverted Index Builder (C4/C5) activity.
func LogIndex(format string, args ...interface{}) { Log("INDEX", format, args...) }

// LogSearch logs Search Engine (C8) activity.
func LogSearch(format string, args ...interface{}) { Log("SEARCH", format, args...) }

// LogWatch logs Watcher Integrator (C9) activity.
func LogWatch(format string, args ...interface{}) { Log("WATCH", format, args...) }

// LogSnapshot logs Snapshot Codec (C6) activity.
func LogSnapshot(format string, args ...interface{}) { Log("SNAPSHOT", format, args...) }

// LogCoordinator logs Coordinator (C10) activity.
func LogCoordinator(format string, args ...interface{}) { Log("COORD", format, args...) }
