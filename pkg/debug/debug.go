// Package debug provides conditional debug tracing for lv.
//
// Tracing is enabled by setting the LV_DEBUG environment variable:
//
//	LV_DEBUG=1 lv browse ./logs
//
// When enabled, messages go to stderr (or to the file named by LV_DEBUG_FILE,
// which is what you want while the TUI owns the terminal). When disabled, all
// functions return immediately.
package debug

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vanderheijden86/logview/pkg/logging"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  *zap.SugaredLogger
)

func init() {
	if os.Getenv("LV_DEBUG") != "" {
		SetEnabled(true)
	}
}

func newLogger() *zap.SugaredLogger {
	l, err := logging.New(logging.Options{Level: "debug", File: os.Getenv("LV_DEBUG_FILE")})
	if err != nil {
		l, _ = logging.New(logging.Options{Level: "debug"})
	}
	return l.Named("LV_DEBUG").Sugar()
}

// Enabled returns whether debug tracing is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled turns tracing on or off at runtime.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = newLogger()
	}
}

// SetLogger routes trace output to l. Tests use it to capture lines.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.Sugar()
}

func active() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return logger
}

// Log writes a printf-style trace line.
func Log(format string, args ...any) {
	if l := active(); l != nil {
		l.Debugf(format, args...)
	}
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if l := active(); l != nil {
		l.Debugw(name, "took", d)
	}
}

// LogIf writes a trace line only if cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogEnterExit logs entry now and exit with elapsed time when the returned
// func runs:
//
//	defer debug.LogEnterExit("reload")()
func LogEnterExit(name string) func() {
	l := active()
	if l == nil {
		return func() {}
	}
	l.Debugf("-> %s", name)
	start := time.Now()
	return func() {
		l.Debugf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	if l := active(); l != nil {
		l.Debug(fmt.Sprintf("%s: %T = %+v", name, v, v))
	}
}
