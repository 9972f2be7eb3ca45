package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		// RateLimit is per client IP on /api; zero RPS disables it.
		RateLimit       struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		TimeFormat string `yaml:"time_format"`
		Collector  struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
			Topic     string        `yaml:"topic"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	History struct {
		Backend       string        `yaml:"backend"`
		BufferSize    int           `yaml:"buffer_size"`
		BatchSize     int           `yaml:"batch_size"`
		FlushInterval time.Duration `yaml:"flush_interval"`
		ListLimit     int           `yaml:"list_limit"`
	} `yaml:"history"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequestTopic string   `yaml:"request_topic"`
		ResultTopic  string   `yaml:"result_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Postgres struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		SSLMode      string        `yaml:"sslmode"`
		MaxOpenConns int           `yaml:"max_open_conns"`
		MaxIdleConns int           `yaml:"max_idle_conns"`
		ConnLifetime time.Duration `yaml:"conn_lifetime"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled    bool   `yaml:"enabled"`
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		Prefix     string `yaml:"prefix"`
		MemorySize int    `yaml:"memory_size"`
	} `yaml:"redis"`
	Regime struct {
		Enabled          bool           `yaml:"enabled"`
		RefreshInterval  time.Duration  `yaml:"refresh_interval"`
		CacheTTL         time.Duration  `yaml:"cache_ttl"`
		LockTTL          time.Duration  `yaml:"lock_ttl"`
		IndexSymbol      string         `yaml:"index_symbol"`
		VolatilitySymbol string         `yaml:"volatility_symbol"`
		Lookback         int            `yaml:"lookback"`
		Sectors          []SectorSymbol `yaml:"sectors"`
	} `yaml:"regime"`
	Notifier struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Attempts   int           `yaml:"attempts"`
	} `yaml:"notifier"`
	Websocket struct {
		Enabled      bool          `yaml:"enabled"`
		Path         string        `yaml:"path"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		SendBuffer   int           `yaml:"send_buffer"`
	} `yaml:"websocket"`
	Scoring Scoring `yaml:"scoring"`
}

// SectorSymbol maps a sector ETF ticker to the sector name used for rotation analysis.
type SectorSymbol struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// envOverrides lists the variables that may override the YAML file.
// Zero values mean "not set".
type envOverrides struct {
	Environment    string   `envconfig:"ENV"`
	Port           int      `envconfig:"PORT"`
	LogLevel       string   `envconfig:"LOG_LEVEL"`
	HistoryBackend string   `envconfig:"HISTORY_BACKEND"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic     string   `envconfig:"KAFKA_TOPIC"`
	RequestTopic   string   `envconfig:"KAFKA_REQUEST_TOPIC"`
	CHHost         string   `envconfig:"CLICKHOUSE_HOST"`
	CHPassword     string   `envconfig:"CLICKHOUSE_PASSWORD"`
	PGHost         string   `envconfig:"POSTGRES_HOST"`
	PGPassword     string   `envconfig:"POSTGRES_PASSWORD"`
	RedisHost      string   `envconfig:"REDIS_HOST"`
	RedisPassword  string   `envconfig:"REDIS_PASSWORD"`
	WebhookURL     string   `envconfig:"WEBHOOK_URL"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Config{Scoring: DefaultScoring()}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides it with FINSCORE_* environment
// variables (a .env file in the working directory is honored when present).
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("finscore", &env); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	c.override(env)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) override(env envOverrides) {
	if env.Environment != "" {
		c.Environment = env.Environment
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.HistoryBackend != "" {
		c.History.Backend = env.HistoryBackend
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	if env.KafkaTopic != "" {
		c.Kafka.Topic = env.KafkaTopic
	}
	if env.RequestTopic != "" {
		c.Kafka.RequestTopic = env.RequestTopic
	}
	if env.CHHost != "" {
		c.ClickHouse.Host = env.CHHost
	}
	if env.CHPassword != "" {
		c.ClickHouse.Password = env.CHPassword
	}
	if env.PGHost != "" {
		c.Postgres.Host = env.PGHost
	}
	if env.PGPassword != "" {
		c.Postgres.Password = env.PGPassword
	}
	if env.RedisHost != "" {
		c.Redis.Host = env.RedisHost
	}
	if env.RedisPassword != "" {
		c.Redis.Password = env.RedisPassword
	}
	if env.WebhookURL != "" {
		c.Notifier.WebhookURL = env.WebhookURL
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.History.Backend == "" {
		c.History.Backend = "clickhouse"
	}
	if c.History.BufferSize <= 0 {
		c.History.BufferSize = 1000
	}
	if c.History.BatchSize <= 0 {
		c.History.BatchSize = 100
	}
	if c.History.FlushInterval <= 0 {
		c.History.FlushInterval = time.Second
	}
	if c.History.ListLimit <= 0 {
		c.History.ListLimit = 50
	}
	if c.Kafka.ResultTopic == "" && c.Kafka.RequestTopic != "" {
		c.Kafka.ResultTopic = c.Kafka.RequestTopic + ".results"
	}
	if c.Regime.RefreshInterval <= 0 {
		c.Regime.RefreshInterval = 15 * time.Minute
	}
	if c.Regime.CacheTTL <= 0 {
		c.Regime.CacheTTL = 30 * time.Minute
	}
	if c.Regime.LockTTL <= 0 {
		c.Regime.LockTTL = time.Minute
	}
	if c.Regime.Lookback <= 0 {
		c.Regime.Lookback = 260
	}
	if c.Notifier.Attempts <= 0 {
		c.Notifier.Attempts = 3
	}
	if c.Websocket.Path == "" {
		c.Websocket.Path = "/ws"
	}
	if c.Websocket.SendBuffer <= 0 {
		c.Websocket.SendBuffer = 64
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.History.Backend != "clickhouse" && c.History.Backend != "postgres" {
		return fmt.Errorf("history.backend must be 'clickhouse' or 'postgres', got '%s'", c.History.Backend)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
		if c.Kafka.Consumer.Enabled && c.Kafka.RequestTopic == "" {
			return fmt.Errorf("kafka.request_topic is required when the consumer is enabled")
		}
	}
	if c.Regime.Enabled && c.Regime.IndexSymbol == "" {
		return fmt.Errorf("regime.index_symbol is required when the refresher is enabled")
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}
