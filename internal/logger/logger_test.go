package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	t.Parallel()

	l := New(Config{Level: "warn", Format: "json"})
	assert.Equal(t, logrus.WarnLevel, l.log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.log.Formatter)

	l = New(Config{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, l.log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.log.Formatter)
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gridbot.log")
	l := New(Config{Level: "info", Format: "json", Output: path, MaxSize: 1})
	l.WithComponent("test").Info("запись")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestWithFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWriter(&buf, logrus.DebugLevel)
	l.WithRunID("run-1").WithField("symbol", "BTCUSDT").Debug("проверка")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "symbol=BTCUSDT")
}
