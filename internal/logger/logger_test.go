package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zsiec/abxclient/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.LoggingConfig
		wantErr bool
		check   func(t *testing.T, logger *logrus.Logger)
	}{
		{
			name: "json format stdout",
			config: &config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.InfoLevel, logger.Level)
				_, ok := logger.Formatter.(*logrus.JSONFormatter)
				assert.True(t, ok)
			},
		},
		{
			name: "text format stderr",
			config: &config.LoggingConfig{
				Level:  "debug",
				Format: "text",
				Output: "stderr",
			},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.DebugLevel, logger.Level)
				f, ok := logger.Formatter.(*logrus.TextFormatter)
				require.True(t, ok)
				assert.True(t, f.FullTimestamp)
			},
		},
		{
			name: "invalid log level",
			config: &config.LoggingConfig{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			if tt.check != nil {
				tt.check(t, logger)
			}
		})
	}
}

func TestFileOutputAppends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "logs.txt")
	cfg := &config.LoggingConfig{
		Level:      "info",
		Format:     "text",
		Output:     logFile,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	}

	first, err := New(cfg)
	require.NoError(t, err)
	first.Info("Starting ABX Client...")

	second, err := New(cfg)
	require.NoError(t, err)
	second.Info("Stream complete")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Starting ABX Client...")
	assert.Contains(t, out, "Stream complete")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestRootFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	l := WithComponent(Root(base, "run-1"), "session")
	l.WithField("sequence", 3).Info("Recovered missing packet #3")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abxclient", entry["service"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, float64(3), entry["sequence"])
	assert.Equal(t, "Recovered missing packet #3", entry["msg"])
}

func TestLogrusAdapter_WithError(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	NewLogrusAdapter(logrus.NewEntry(base)).WithError(assert.AnError).Errorf("resend %d failed", 7)
	assert.Contains(t, buf.String(), assert.AnError.Error())
	assert.Contains(t, buf.String(), "resend 7 failed")
}

func TestNullLogger(t *testing.T) {
	l := NewNullLogger()
	assert.NotPanics(t, func() {
		l.WithField("a", 1).WithFields(Fields{"b": 2}).WithError(assert.AnError).Info("dropped")
		l.Errorf("dropped %d", 1)
	})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, isNull := FromContext(ctx).(*NullLogger)
	assert.True(t, isNull)

	l := NewLogrusAdapter(logrus.NewEntry(logrus.New()))
	ctx = WithLogger(ctx, l)
	assert.Equal(t, l, FromContext(ctx))

	assert.Equal(t, "", GetRunID(ctx))
	ctx = WithRunID(ctx, "run-42")
	assert.Equal(t, "run-42", GetRunID(ctx))
}
