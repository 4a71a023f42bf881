package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Output: &buf})

	log.With("run_id", "abc").Info("consulta enviada", "nsu", "000000000000042")

	out := buf.String()
	assert.Contains(t, out, "consulta enviada")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "nsu=000000000000042")
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info("ignorada")
	log.Debug("ignorada")
	assert.Empty(t, buf.String())

	log.Warn("registrada")
	assert.Contains(t, buf.String(), "registrada")
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "json", Output: &buf})

	log.Error("falha", "cstat", "225")
	assert.Contains(t, buf.String(), `"cstat":"225"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.Error("nada")
		log.With("k", "v").Info("nada")
	})
}
