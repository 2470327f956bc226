package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Queue      QueueConfig
	Compliance ComplianceConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type QueueConfig struct {
	Capacity int
	Workers  int
}

// ComplianceConfig carries the policy constants of the evaluator. The
// confidence values are per rule-source tier; only their ordering is a
// contract, the numbers themselves are tunable.
type ComplianceConfig struct {
	ConfidenceUploaded    float64
	ConfidenceRuleLibrary float64
	ConfidenceDefault     float64
	ConfidenceFallback    float64
	SEPAThreshold         string
	RemittanceMaxChars    int
	MinRulebookChars      int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/payguard")

	viper.SetEnvPrefix("PAYGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Compliance.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate enforces the confidence tier ordering: uploaded-document results
// must always outrank rule-library, default, and fallback tiers.
func (c ComplianceConfig) validate() error {
	if !(c.ConfidenceUploaded > c.ConfidenceRuleLibrary &&
		c.ConfidenceRuleLibrary > c.ConfidenceDefault &&
		c.ConfidenceDefault > c.ConfidenceFallback) {
		return fmt.Errorf("compliance confidence tiers must be strictly ordered: uploaded > library > default > fallback")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/payguard.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 30)

	viper.SetDefault("queue.capacity", 1000)
	viper.SetDefault("queue.workers", 4)

	viper.SetDefault("compliance.confidenceUploaded", 99.5)
	viper.SetDefault("compliance.confidenceRuleLibrary", 99.3)
	viper.SetDefault("compliance.confidenceDefault", 99.0)
	viper.SetDefault("compliance.confidenceFallback", 98.5)
	viper.SetDefault("compliance.sepaThreshold", "12500.00")
	viper.SetDefault("compliance.remittanceMaxChars", 140)
	viper.SetDefault("compliance.minRulebookChars", 100)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
