package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"pair-analysis/src/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"WARNING", logrus.WarnLevel},
		{"warn", logrus.WarnLevel},
		{"CRITICAL", logrus.FatalLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerWritesComponentAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&models.MConfig{LogLevel: "WARNING"}, "Validator")
	log.SetOutput(&buf)

	log.Info("hidden %d", 1)
	log.Warning("pair %s skipped", "ETH/USDT")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "pair ETH/USDT skipped")
	assert.Contains(t, out, "component=Validator")
}

func TestNamedSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(nil, "root")
	root.SetOutput(&buf)

	child := root.Named("Persister")
	child.Info("saved")

	assert.Equal(t, "Persister", child.Name())
	assert.Contains(t, buf.String(), "component=Persister")
}

func TestLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pair-analysis.log")
	cfg := &models.MConfig{LogFile: models.MLogFileConfig{Path: path, MaxSizeMB: 1}}
	log := NewLogger(cfg, "root")

	log.Named("Persister").Info("saved %s", "table.csv")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "saved table.csv")
	assert.Contains(t, string(data), "component=Persister")
}

func TestCloseWithoutFile(t *testing.T) {
	assert.NoError(t, NewLogger(nil, "root").Close())
}
