package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	With("run_id", "01ABC")
	Debugf("hidden %d", 1)
	Infof("converted %d records", 3)
	Warnf("skipped %s", "x")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "converted 3 records", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "01ABC", entries[0].ContextMap()["run_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	require.NoError(t, InitWithFormat(true, "debug", path, false, "json"))
	t.Cleanup(func() { SetLogger(nil) })

	Debugf("hello %s", "file")
	Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"hello file"`)
	assert.Contains(t, string(raw), `"level":"debug"`)
}

func TestDisabledLoggerIsSilent(t *testing.T) {
	require.NoError(t, Init(false, "debug", "", true))
	Errorf("nothing %d", 1)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
