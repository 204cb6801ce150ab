package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLogger(level slog.Level) *bytes.Buffer {
	var buf bytes.Buffer
	SetDefault(NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	require.Equal(t, LevelTrace, lvl)

	lvl, err = ParseLevel("ERROR")
	require.NoError(t, err)
	require.Equal(t, LevelError, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleGating(t *testing.T) {
	buf := captureLogger(LevelTrace)
	DisableModule(BackModule)

	Trace(BackModule, "hidden")
	require.NotContains(t, buf.String(), "hidden")

	EnableModule(BackModule)
	defer DisableModule(BackModule)

	Trace(BackModule, "visible", "pos", 16)
	require.Contains(t, buf.String(), "visible")
	require.Contains(t, buf.String(), "module="+BackModule)
}

func TestErrorBypassesGating(t *testing.T) {
	buf := captureLogger(LevelInfo)
	DisableModule(BackModule)

	Error(BackModule, "bailout", "method", "demo")
	require.Contains(t, buf.String(), "bailout")
	require.Contains(t, buf.String(), "method=demo")
}

func TestEnableModulesList(t *testing.T) {
	defer func() {
		for _, m := range knownModules {
			DisableModule(m)
		}
	}()
	EnableModules("amd64, xir")
	require.True(t, isModuleEnabled(BackModule))
	require.True(t, isModuleEnabled(XirModule))
	require.False(t, isModuleEnabled(AsmModule))

	EnableModules("all")
	require.True(t, isModuleEnabled(AsmModule))
}
