package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":  zerolog.TraceLevel,
		"debug":  zerolog.DebugLevel,
		"WARN":   zerolog.WarnLevel,
		" error": zerolog.ErrorLevel,
		"":       zerolog.InfoLevel,
		"otro":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNew_NivelConfigurado(t *testing.T) {
	l := New(Config{Env: "production", Level: "warn", Output: &bytes.Buffer{}})
	assert.Equal(t, zerolog.WarnLevel, l.Zerolog().GetLevel())
	assert.Equal(t, zerolog.WarnLevel, l.Component("ledger").GetLevel())
}

func TestComponent_AgregaCamposEnJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "stockledger", Output: &buf})

	c := l.Component("transfer")
	c.Info().Int64("transfer_id", 7).Msg("traslado despachado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stockledger", line["service"])
	assert.Equal(t, "transfer", line["component"])
	assert.Equal(t, float64(7), line["transfer_id"])
	assert.Equal(t, "traslado despachado", line["message"])
}
