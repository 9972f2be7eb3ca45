package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRepositoryConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "clickhouse", cfg.History.Backend)
	assert.Equal(t, "SPY", cfg.Regime.IndexSymbol)
	assert.Len(t, cfg.Regime.Sectors, 11)
	assert.Equal(t, "finscore.analyze.results", cfg.Kafka.ResultTopic)
	// ladders are not in the file and keep their defaults
	assert.Len(t, cfg.Scoring.Regime.VIX, 5)
	assert.InDelta(t, 1.0, cfg.Scoring.Weights.Sum(), 1e-9)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "environment: test\nkafka:\n  request_topic: analyze\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "clickhouse", cfg.History.Backend)
	assert.Equal(t, 1000, cfg.History.BufferSize)
	assert.Equal(t, 100, cfg.History.BatchSize)
	assert.Equal(t, time.Second, cfg.History.FlushInterval)
	assert.Equal(t, "analyze.results", cfg.Kafka.ResultTopic)
	assert.Equal(t, 15*time.Minute, cfg.Regime.RefreshInterval)
	assert.Equal(t, 260, cfg.Regime.Lookback)
	assert.Equal(t, "/ws", cfg.Websocket.Path)
	assert.Equal(t, DefaultScoring().Weights, cfg.Scoring.Weights)
}

func TestLoadPartialScoringOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
scoring:
  weights:
    technical: 0.335
    market_alignment: 0
  delta:
    major_change: 0.8
`))
	require.NoError(t, err)

	assert.Equal(t, 0.335, cfg.Scoring.Weights.Technical)
	assert.Equal(t, 0.33, cfg.Scoring.Weights.Fundamental)
	assert.Equal(t, 0.8, cfg.Scoring.Delta.MajorChange)
	assert.Equal(t, 0.2, cfg.Scoring.Delta.StableBand)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"missing environment":   "server:\n  port: 9000\n",
		"unknown backend":       "environment: test\nhistory:\n  backend: sqlite\n",
		"kafka without brokers": "environment: test\nkafka:\n  enabled: true\n  topic: t\n",
		"consumer without request topic": `
environment: test
kafka:
  enabled: true
  brokers: [b:9092]
  topic: t
  consumer:
    enabled: true
`,
		"refresher without index": "environment: test\nregime:\n  enabled: true\n",
		"weights off":             "environment: test\nscoring:\n  weights:\n    technical: 0.9\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("FINSCORE_PORT", "9090")
	t.Setenv("FINSCORE_HISTORY_BACKEND", "postgres")
	t.Setenv("FINSCORE_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("FINSCORE_WEBHOOK_URL", "http://hooks.local/finscore")

	cfg, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.History.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "http://hooks.local/finscore", cfg.Notifier.WebhookURL)

	t.Setenv("FINSCORE_HISTORY_BACKEND", "badger")
	_, err = LoadWithEnv(path)
	assert.Error(t, err)
}
