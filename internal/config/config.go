// Package config loads the application configuration from a YAML file,
// environment variables and an optional .env file.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// llmTimeoutFloor keeps slow local inference backends from being cut off
// mid-completion.
const llmTimeoutFloor = 3 * time.Minute

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	STT      STTConfig      `mapstructure:"stt"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Data     DataConfig     `mapstructure:"data"`
	Company  CompanyConfig  `mapstructure:"company"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the material price database configuration.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LLMConfig holds the annotator backend configuration.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	OllamaBaseURL string        `mapstructure:"ollama_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// STTConfig holds the speech-to-text backend configuration.
type STTConfig struct {
	Provider     string            `mapstructure:"provider"`
	Model        string            `mapstructure:"model"`
	Language     string            `mapstructure:"language"`
	Prompt       string            `mapstructure:"prompt"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	Replacements map[string]string `mapstructure:"replacements"`
}

// TTSConfig holds the text-to-speech backend configuration.
type TTSConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	Voice    string        `mapstructure:"voice"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BillingConfig selects the billing adapter.
type BillingConfig struct {
	Adapter  string        `mapstructure:"adapter"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PricingConfig holds the default unit rates.
type PricingConfig struct {
	LaborMeister    float64  `mapstructure:"labor_meister"`
	LaborGeselle    float64  `mapstructure:"labor_geselle"`
	LaborDefault    float64  `mapstructure:"labor_default"`
	TravelPerKm     float64  `mapstructure:"travel_per_km"`
	MaterialDefault *float64 `mapstructure:"material_default"`
	VATRate         float64  `mapstructure:"vat_rate"`
}

// DataConfig holds artifact storage configuration.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// CompanyConfig holds the craftsman's own company data.
type CompanyConfig struct {
	Name string `mapstructure:"name"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. A .env file
// in the working directory is loaded first so its values are visible to the
// environment bindings.
func Load(configPath string) (*Config, error) {
	_ = gotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.Timeout < llmTimeoutFloor {
		cfg.LLM.Timeout = llmTimeoutFloor
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/handwerker.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// LLM defaults
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.ollama_base_url", "http://localhost:11434")
	viper.SetDefault("llm.timeout", 5*time.Minute)

	// STT defaults
	viper.SetDefault("stt.provider", "openai")
	viper.SetDefault("stt.model", "whisper-1")
	viper.SetDefault("stt.language", "de")
	viper.SetDefault("stt.timeout", 5*time.Minute)

	// TTS defaults
	viper.SetDefault("tts.provider", "silent")
	viper.SetDefault("tts.timeout", 1*time.Minute)

	// Billing defaults
	viper.SetDefault("billing.adapter", "simple")
	viper.SetDefault("billing.timeout", 10*time.Second)

	// Pricing defaults
	viper.SetDefault("pricing.labor_meister", 80.0)
	viper.SetDefault("pricing.labor_geselle", 60.0)
	viper.SetDefault("pricing.labor_default", 50.0)
	viper.SetDefault("pricing.travel_per_km", 1.0)
	viper.SetDefault("pricing.vat_rate", 0.19)

	// Data defaults
	viper.SetDefault("data.dir", "data")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration.
func bindEnvVars() {
	viper.BindEnv("llm.provider", "LLM_PROVIDER")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("llm.api_key", "OPENAI_API_KEY")
	viper.BindEnv("llm.ollama_base_url", "OLLAMA_BASE_URL")
	viper.BindEnv("stt.provider", "STT_PROVIDER")
	viper.BindEnv("stt.model", "STT_MODEL")
	viper.BindEnv("stt.language", "STT_LANGUAGE")
	viper.BindEnv("tts.provider", "TTS_PROVIDER")
	viper.BindEnv("billing.adapter", "BILLING_ADAPTER")
	viper.BindEnv("billing.endpoint", "BILLING_ENDPOINT")
	viper.BindEnv("company.name", "COMPANY_NAME")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for the openai provider")
	}

	if c.Pricing.LaborMeister <= 0 || c.Pricing.LaborGeselle <= 0 || c.Pricing.LaborDefault <= 0 {
		return fmt.Errorf("pricing labor rates must be positive")
	}
	if c.Pricing.TravelPerKm < 0 {
		return fmt.Errorf("pricing.travel_per_km must not be negative")
	}
	if c.Pricing.VATRate < 0 || c.Pricing.VATRate >= 1 {
		return fmt.Errorf("pricing.vat_rate must be in [0, 1)")
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}

	return nil
}
