package config

import (
	"errors"
	"os"

	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/marketdata"
	riskrule "github.com/joripage/matching-engine/pkg/oms/risk_rule"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr  = ":8080"
	defaultLogLevel  = "info"
	defaultBookDepth = 20
)

type KafkaConfig struct {
	Enabled  bool                        `yaml:"enabled"`
	Topic    string                      `yaml:"topic"`
	Producer kafkawrapper.ProducerConfig `yaml:"producer"`
}

type EngineConfig struct {
	Shards       int `yaml:"shards"`
	QueueSize    int `yaml:"queue_size"`
	DefaultDepth int `yaml:"default_depth"`
}

type RiskConfig struct {
	TickSizes map[string][]riskrule.TickSizeBand `yaml:"tick_sizes"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	HTTPAddr    string                           `yaml:"http_addr"`
	EngineDB    *postgres_wrapper.PostgresConfig `yaml:"engine_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	MarketData  marketdata.RedisConfig           `yaml:"market_data"`
	Kafka       KafkaConfig                      `yaml:"kafka"`
	Engine      EngineConfig                     `yaml:"engine"`
	Risk        RiskConfig                       `yaml:"risk"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		sugar.Error("Invalid config")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

// Validate checks required sections and fills defaults.
func (c *AppConfig) Validate() error {
	if c.EngineDB == nil || c.EngineDB.DataSource == "" {
		return errors.New("engine_db.data_source is required")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Producer.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka.producer.brokers and kafka.topic are required when kafka is enabled")
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Engine.DefaultDepth <= 0 {
		c.Engine.DefaultDepth = defaultBookDepth
	}
	if c.MarketData.HistoryLimit <= 0 {
		c.MarketData.HistoryLimit = marketdata.DefaultHistoryLimit
	}
	if c.MarketData.Channel == "" {
		c.MarketData.Channel = marketdata.DefaultChannel
	}
	return nil
}
