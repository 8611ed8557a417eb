package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/shrinkwebm/internal/config"
)

func newTestLogger(t *testing.T, cfg config.Config) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg, Options{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, &stdout, &stderr
}

func TestNewLogger_LevelsSplitAcrossStreams(t *testing.T) {
	l, stdout, stderr := newTestLogger(t, config.DefaultConfig())

	l.Info("compressing", "file", "clip.mp4")
	l.Warn("bitrate clamped")
	l.Error("encode failed")

	assert.Contains(t, stdout.String(), "[INFO]")
	assert.Contains(t, stdout.String(), "file=clip.mp4")
	assert.Contains(t, stdout.String(), "[WARN]")
	assert.NotContains(t, stdout.String(), "encode failed")
	assert.Contains(t, stderr.String(), "[ERROR]")
	assert.Contains(t, stderr.String(), "encode failed")
}

func TestNewLogger_DebugOnlyWhenVerbose(t *testing.T) {
	l, stdout, _ := newTestLogger(t, config.DefaultConfig())
	l.Debug("hidden")
	assert.NotContains(t, stdout.String(), "hidden")

	cfg := config.DefaultConfig()
	cfg.Verbose = true
	l, stdout, _ = newTestLogger(t, cfg)
	l.Debug("shown")
	assert.Contains(t, stdout.String(), "[DEBUG]")
	assert.Contains(t, stdout.String(), "shown")
}

func TestNewLogger_NoColorEscapes(t *testing.T) {
	l, stdout, _ := newTestLogger(t, config.DefaultConfig())
	l.Warn("plain")
	assert.NotContains(t, stdout.String(), "\x1b[")
}

func TestNewLogger_WithFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "nested", "shrinkwebm.log")
	l, _, _ := newTestLogger(t, cfg)

	l.Info("to file")
	l.Named("pipeline").Error("also to file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[INFO]")
	assert.Contains(t, string(b), "to file")
	assert.Contains(t, string(b), "also to file")
	assert.NotContains(t, string(b), "\x1b[")
}

func TestClose_Idempotent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "x.log")
	l, _, _ := newTestLogger(t, cfg)
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}
