// Package logging builds the zap loggers used across logview. Output is a
// compact console format; each subsystem gets a named child logger so lines
// can be told apart.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red          = "\033[31m"
	Gray         = "\033[90m"
	BrightRed    = "\033[91m"
	BrightYellow = "\033[93m"
	BrightWhite  = "\033[97m"
)

// Component names a subsystem. It becomes the logger name.
type Component string

const (
	ComponentViewer  Component = "VIEWER"
	ComponentStore   Component = "STORE"
	ComponentServer  Component = "SERVER"
	ComponentClient  Component = "CLIENT"
	ComponentWatcher Component = "WATCHER"
	ComponentAudit   Component = "AUDIT"
	ComponentUI      Component = "UI"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Colors enables ANSI colors in the level and time columns.
	Colors bool
	// Output receives log lines. Nil means stderr.
	Output io.Writer
	// File, when set, appends to this path instead of Output. The TUI uses it
	// so log lines do not tear the alternate screen.
	File string
}

func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	default:
		return Red
	}
}

func consoleEncoder(colors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		s := t.Format("15:04:05")
		if colors {
			s = Dim + s + Reset
		}
		enc.AppendString(s)
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		s := strings.ToUpper(level.String())[:1]
		if colors {
			s = getLevelColor(level) + Bold + s + Reset
		}
		enc.AppendString(s)
	}

	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		enc.AppendString(fmt.Sprintf("%s:%d", strings.TrimSuffix(file, ".go"), caller.Line))
	}

	config.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}

	return zapcore.NewConsoleEncoder(config)
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	var sink zapcore.WriteSyncer
	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		sink = zapcore.AddSync(f)
	case opts.Output != nil:
		sink = zapcore.AddSync(opts.Output)
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(consoleEncoder(opts.Colors && opts.File == ""), sink, ParseLevel(opts.Level))
	return zap.New(core, zap.AddCaller()), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

// For returns the child logger for a component. A nil parent yields Nop.
func For(parent *zap.Logger, c Component) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.Named(string(c))
}
