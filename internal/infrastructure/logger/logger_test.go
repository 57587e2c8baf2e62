package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigPresets(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "stdout", dev.Output)
	assert.NotEmpty(t, dev.TimeFormat)

	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "default preset", cfg: DefaultConfig()},
		{name: "production preset", cfg: ProductionConfig()},
		{name: "debug console", cfg: &Config{Level: "debug", Format: "console", Output: "stdout"}},
		{name: "error json to stderr", cfg: &Config{Level: "error", Format: "json", Output: "stderr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			log, err := NewForEnvironment(env)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestOpenSink(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "STDOUT", ""} {
		assert.NotNil(t, openSink(output))
	}

	tmp, err := os.CreateTemp("", "sync-log-*.log")
	require.NoError(t, err)
	defer os.Remove(tmp.Name())
	tmp.Close()
	assert.NotNil(t, openSink(tmp.Name()))
}

func TestBuildEncoderFallsBackToDefaultLayout(t *testing.T) {
	assert.NotNil(t, buildEncoder(&Config{Format: "json"}))
	assert.NotNil(t, buildEncoder(&Config{Format: "console", TimeFormat: "15:04:05"}))
}

func TestJSONOutputShape(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		buildEncoder(&Config{Format: "json"}),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	log := zap.New(core)

	log.Info("catalog sync finished", zap.Int64("scanned", 12))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "catalog sync finished", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(12), entry["scanned"])
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		buildEncoder(&Config{Format: "json"}),
		zapcore.AddSync(&buf),
		parseLevel("info"),
	)
	log := zap.New(core)

	log.Debug("suppressed")
	assert.Empty(t, buf.String())

	log.Info("emitted")
	assert.Contains(t, buf.String(), "emitted")
}

func TestSyncDoesNotPanic(t *testing.T) {
	log, err := NewForEnvironment("development")
	require.NoError(t, err)
	_ = Sync(log)
}
