package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. Values come from YAML,
// zero fields are filled from `default` tags, and the result is validated.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Server struct {
		Port            int           `yaml:"port" default:"8005" validate:"gt=0"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Kafka struct {
		Brokers    []string `yaml:"brokers"`
		TicksTopic string   `yaml:"ticks_topic" default:"ticks.global"`
		GroupID    string   `yaml:"group_id" default:"pattern-engine"`
		Workers    int      `yaml:"workers" default:"4" validate:"gt=0"`
		BufferSize int      `yaml:"buffer_size" default:"256"`
		MinBytes   int      `yaml:"min_bytes" default:"1"`
		MaxBytes   int      `yaml:"max_bytes" default:"10000000"`
	} `yaml:"kafka"`

	Redis struct {
		Addr          string        `yaml:"addr" default:"localhost:6379"`
		Password      string        `yaml:"password"`
		DB            int           `yaml:"db"`
		SignalsStream string        `yaml:"signals_stream" default:"signals:global"`
		OrdersStream  string        `yaml:"orders_stream" default:"orders:gateway"`
		ConsumerGroup string        `yaml:"consumer_group" default:"strategy-engine"`
		MaxRetries    int           `yaml:"max_retries" default:"3" validate:"gte=1"`
		RetryDelay    time.Duration `yaml:"retry_delay" default:"500ms"`
	} `yaml:"redis"`

	// Channel selects what carries signals and order intents downstream.
	Channel struct {
		Backend      string `yaml:"backend" default:"redis" validate:"oneof=redis kafka"`
		SignalsTopic string `yaml:"signals_topic" default:"signals.global"`
		OrdersTopic  string `yaml:"orders_topic" default:"orders.gateway"`
	} `yaml:"channel"`

	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"tradepulse"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	} `yaml:"clickhouse"`

	// Feed is the WebSocket tick source used when Kafka brokers are not
	// configured.
	Feed struct {
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"3s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"feed"`

	Indicators struct {
		EMAFast   int `yaml:"ema_fast" default:"10" validate:"gt=0"`
		EMASlow   int `yaml:"ema_slow" default:"20" validate:"gt=0"`
		RSIPeriod int `yaml:"rsi_period" default:"14" validate:"gt=0"`
		ATRPeriod int `yaml:"atr_period" default:"14" validate:"gt=0"`
	} `yaml:"indicators"`

	Inference struct {
		ONNXURL     string        `yaml:"onnx_url"`
		TensorRTURL string        `yaml:"tensorrt_url"`
		CPUTimeout  time.Duration `yaml:"cpu_timeout" default:"2s"`
		GPUTimeout  time.Duration `yaml:"gpu_timeout" default:"1500ms"`
		HealthTTL   time.Duration `yaml:"health_ttl" default:"30s"`
		NegativeTTL time.Duration `yaml:"negative_ttl" default:"5s"`
	} `yaml:"inference"`

	Emitter struct {
		Cooldown   time.Duration `yaml:"cooldown" default:"30s"`
		MaxRetries int           `yaml:"max_retries" default:"3" validate:"gte=1"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"500ms"`
	} `yaml:"emitter"`

	Providers struct {
		ForecastURL       string        `yaml:"forecast_url"`
		SentimentURL      string        `yaml:"sentiment_url"`
		ForecastTimeout   time.Duration `yaml:"forecast_timeout" default:"2s"`
		SentimentTimeout  time.Duration `yaml:"sentiment_timeout" default:"1500ms"`
		SentimentWindow   string        `yaml:"sentiment_window" default:"1h"`
		SentimentCacheTTL time.Duration `yaml:"sentiment_cache_ttl" default:"5m"`
	} `yaml:"providers"`

	Engine struct {
		MinScore         float64       `yaml:"min_score" default:"0.3" validate:"gte=0,lte=1"`
		OrderThreshold   float64       `yaml:"order_threshold" default:"0.4" validate:"gt=0,lte=1"`
		EnrichmentBudget time.Duration `yaml:"enrichment_budget" default:"3s"`
		Weights          struct {
			Signal    float64 `yaml:"signal" default:"0.4"`
			Forecast  float64 `yaml:"forecast" default:"0.3"`
			Sentiment float64 `yaml:"sentiment" default:"0.2"`
			Momentum  float64 `yaml:"momentum" default:"0.1"`
		} `yaml:"weights"`
		BaseQty    float64 `yaml:"base_qty" default:"100" validate:"gt=0"`
		MinQty     float64 `yaml:"min_qty" default:"1" validate:"gt=0"`
		MaxQty     float64 `yaml:"max_qty" default:"1000" validate:"gt=0"`
		ModelBias  float64 `yaml:"model_bias" default:"0.1" validate:"gte=0,lte=1"`
		HistoryLen int     `yaml:"history_len" default:"100" validate:"gt=1"`
	} `yaml:"engine"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a Config from raw YAML.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CHANNEL_BACKEND"); v != "" {
		c.Channel.Backend = v
	}
	if v := os.Getenv("ONNX_URL"); v != "" {
		c.Inference.ONNXURL = v
	}
	if v := os.Getenv("TENSORRT_URL"); v != "" {
		c.Inference.TensorRTURL = v
	}
	if v := os.Getenv("FORECAST_URL"); v != "" {
		c.Providers.ForecastURL = v
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		c.Providers.SentimentURL = v
	}
	if v := os.Getenv("FEED_SYMBOLS"); v != "" {
		c.Feed.Symbols = strings.Split(v, ",")
	}

	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}
