package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Compiler modules for gated trace output.
const (
	AsmModule  = "asm"
	LirModule  = "lir"
	XirModule  = "xir"
	BackModule = "amd64"
	CmdModule  = "emberc"
)

var knownModules = []string{AsmModule, LirModule, XirModule, BackModule, CmdModule}

var root atomic.Value

var (
	moduleMu       sync.RWMutex
	enabledModules = map[string]bool{}
)

func init() {
	root.Store(&logger{inner: slog.New(newTerminalHandler(LevelInfo))})
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

// ParseLevel maps a level name onto its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "crit":
		return LevelCrit, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// InitLogger installs a terminal root logger at the named level.
func InitLogger(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetDefault(NewLogger(newTerminalHandler(lvl)))
	return nil
}

// EnableModule turns on Trace/Debug output for one module.
func EnableModule(module string) {
	moduleMu.Lock()
	enabledModules[module] = true
	moduleMu.Unlock()
}

// DisableModule turns Trace/Debug output for one module back off.
func DisableModule(module string) {
	moduleMu.Lock()
	delete(enabledModules, module)
	moduleMu.Unlock()
}

// EnableModules enables a comma-separated module list; "all" enables
// every known module.
func EnableModules(list string) {
	for _, m := range strings.Split(list, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if m == "all" {
			for _, known := range knownModules {
				EnableModule(known)
			}
			continue
		}
		EnableModule(m)
	}
}

func isModuleEnabled(module string) bool {
	moduleMu.RLock()
	defer moduleMu.RUnlock()
	return enabledModules[module]
}

// Trace logs at the trace level when the module is enabled.
func Trace(module string, msg string, ctx ...interface{}) {
	if !isModuleEnabled(module) {
		return
	}
	Root().Write(LevelTrace, module, msg, ctx...)
}

// Debug logs at the debug level when the module is enabled.
func Debug(module string, msg string, ctx ...interface{}) {
	if !isModuleEnabled(module) {
		return
	}
	Root().Write(LevelDebug, module, msg, ctx...)
}

// Info logs at the info level regardless of module gating.
func Info(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelInfo, module, msg, ctx...)
}

// Warn logs at the warn level regardless of module gating.
func Warn(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelWarn, module, msg, ctx...)
}

// Error logs at the error level regardless of module gating.
func Error(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelError, module, msg, ctx...)
}

// Crit logs at the crit level regardless of module gating.
func Crit(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelCrit, module, msg, ctx...)
}

// Enabled reports whether the root logger emits at the level.
func Enabled(level slog.Level) bool {
	return Root().Enabled(context.Background(), level)
}
