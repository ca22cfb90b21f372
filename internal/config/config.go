package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Exa      ExaConfig      `yaml:"exa" mapstructure:"exa"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Apollo   ApolloConfig   `yaml:"apollo" mapstructure:"apollo"`
	Discover DiscoverConfig `yaml:"discover" mapstructure:"discover"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Pricing  PricingConfig  `yaml:"pricing" mapstructure:"pricing"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExaConfig holds semantic-search API settings.
type ExaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects and configures the language-model backend.
// Provider is one of "openai", "azure", "anthropic".
type LLMConfig struct {
	Provider        string `yaml:"provider" mapstructure:"provider"`
	OpenAIKey       string `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel     string `yaml:"openai_model" mapstructure:"openai_model"`
	AzureKey        string `yaml:"azure_key" mapstructure:"azure_key"`
	AzureEndpoint   string `yaml:"azure_endpoint" mapstructure:"azure_endpoint"`
	AzureDeployment string `yaml:"azure_deployment" mapstructure:"azure_deployment"`
	AnthropicKey    string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	AnthropicModel  string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	MaxTokens       int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SelectedKey returns the credential for the configured provider.
func (c LLMConfig) SelectedKey() string {
	switch c.Provider {
	case "azure":
		return c.AzureKey
	case "anthropic":
		return c.AnthropicKey
	default:
		return c.OpenAIKey
	}
}

// ApolloConfig holds contact-enrichment API settings.
type ApolloConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// DiscoverConfig holds pipeline tunables. The defaults are order-of-magnitude
// settings, not calibrated business rules.
type DiscoverConfig struct {
	DescriptiveMinWords    int `yaml:"descriptive_min_words" mapstructure:"descriptive_min_words"`
	DescriptiveResultCount int `yaml:"descriptive_result_count" mapstructure:"descriptive_result_count"`
	LiteralResultCount     int `yaml:"literal_result_count" mapstructure:"literal_result_count"`
	MaxExtractHits         int `yaml:"max_extract_hits" mapstructure:"max_extract_hits"`
	Tier2Threshold         int `yaml:"tier2_threshold" mapstructure:"tier2_threshold"`
	Tier3Threshold         int `yaml:"tier3_threshold" mapstructure:"tier3_threshold"`
	CacheTTLHours          int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	EnrichConcurrency      int `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
}

// EnrichConfig configures the enrichment layer.
type EnrichConfig struct {
	TiersPath string `yaml:"tiers_path" mapstructure:"tiers_path"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	SearchPerQuery  float64              `yaml:"search_per_query" mapstructure:"search_per_query"`
	EnrichPerLookup float64              `yaml:"enrich_per_lookup" mapstructure:"enrich_per_lookup"`
	Models          map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SIGNALSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "signal-scout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("llm.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("apollo.requests_per_second", 2.0)
	v.SetDefault("discover.descriptive_min_words", 5)
	v.SetDefault("discover.descriptive_result_count", 12)
	v.SetDefault("discover.literal_result_count", 25)
	v.SetDefault("discover.max_extract_hits", 25)
	v.SetDefault("discover.tier2_threshold", 3)
	v.SetDefault("discover.tier3_threshold", 5)
	v.SetDefault("discover.cache_ttl_hours", 24)
	v.SetDefault("discover.enrich_concurrency", 4)
	v.SetDefault("pricing.search_per_query", 0.005)
	v.SetDefault("pricing.enrich_per_lookup", 0.02)
	v.SetDefault("pricing.models", map[string]ModelRate{
		"gpt-4o-mini":               {Input: 0.15, Output: 0.60},
		"gpt-4o":                    {Input: 2.50, Output: 10.00},
		"claude-haiku-4-5-20251001": {Input: 0.80, Output: 4.00},
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
