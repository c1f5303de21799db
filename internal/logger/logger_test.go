package logger

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewWritesJSONToExtraWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)
	log.Info("hello", slog.String("service", "webhook"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"service":"webhook"`)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "text", &buf)
	log.Info("quiet")
	assert.Empty(t, buf.String())
}

func TestRotatingFile(t *testing.T) {
	assert.Nil(t, RotatingFile("", 1, 1))
	w := RotatingFile(filepath.Join(t.TempDir(), "beybot.log"), 1, 1)
	assert.NotNil(t, w)
}
