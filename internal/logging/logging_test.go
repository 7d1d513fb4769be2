package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potluck.log")
	l, closer, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("attachment rejected", zap.String("file", "huge.png"))
	require.NoError(t, l.Sync())
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(b, &entry), string(b))
	assert.Equal(t, "attachment rejected", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "huge.png", entry["file"])
}

func TestNew_Discard(t *testing.T) {
	l, closer, err := New(Config{Output: "discard"})
	require.NoError(t, err)
	l.Info("nothing")
	assert.NoError(t, closer.Close())
}

func TestNew_BadFile(t *testing.T) {
	_, _, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	require.Error(t, err)
}
