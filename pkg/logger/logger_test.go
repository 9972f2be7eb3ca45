package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsRender(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	at := time.Date(2024, 3, 1, 15, 30, 0, 0, time.FixedZone("EST", -5*3600))
	l.Warn("analysis rejected",
		String("symbol", "AAPL"),
		Strings("missing", []string{"rsi", "pe_ratio"}),
		Bool("regime_transition", true),
		Time("classified_at", at),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "AAPL", got["symbol"])
	assert.Equal(t, "rsi, pe_ratio", got["missing"])
	assert.Equal(t, true, got["regime_transition"])
	assert.Equal(t, "2024-03-01T20:30:00Z", got["classified_at"])
	assert.Equal(t, float64(1500), got["took"])
	assert.Equal(t, "boom", got["error"])
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.With(String("k", "v")).Error("dropped", Bool("ok", false))
	})
}
