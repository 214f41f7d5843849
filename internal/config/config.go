// Package config provides configuration for the companion service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xiaot623/companion/internal/adapter/llm"
)

// Config holds the companion configuration.
type Config struct {
	// Server settings
	Port        int
	Environment string
	CORSOrigins []string

	// Database
	DatabasePath string

	// Provider selection
	AIProvider  string
	Mode        string
	Groq        llm.VendorOptions
	OpenAI      llm.VendorOptions
	HuggingFace llm.VendorOptions
	Ollama      llm.VendorOptions

	// Conversation
	LLMTimeout        time.Duration
	HistoryWindow     int
	FailurePolicyFile string
	PersistFallback   bool

	// Logging
	LogLevel  string
	LogFormat string
}

// SetDefaults registers every key with its default and environment binding.
// Keys map to the upper-cased environment variable unless bound explicitly.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 3001)
	v.SetDefault("environment", "development")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("database_path", "./data/conversations.db")

	v.SetDefault("ai_provider", llm.DefaultProvider)
	v.SetDefault("mode", "")
	v.SetDefault("groq_api_key", "")
	v.SetDefault("groq_base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq_model", "llama-3.1-8b-instant")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_model", "gpt-3.5-turbo")
	v.SetDefault("huggingface_api_key", "")
	v.SetDefault("huggingface_base_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("huggingface_model", "microsoft/DialoGPT-large")
	v.SetDefault("ollama_url", "http://localhost:11434")
	v.SetDefault("ollama_model", "llama3.2:3b")

	v.SetDefault("llm_timeout", 30*time.Second)
	v.SetDefault("history_window", 10)
	v.SetDefault("failure_policy_file", "")
	v.SetDefault("persist_fallback", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.AutomaticEnv()
	_ = v.BindEnv("environment", "APP_ENV", "NODE_ENV")
	_ = v.BindEnv("mode", llm.EnvCompanionMode)
}

// Load reads the configuration from v. SetDefaults must have been called on v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:         v.GetInt("port"),
		Environment:  v.GetString("environment"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),
		DatabasePath: v.GetString("database_path"),

		AIProvider: strings.ToLower(strings.TrimSpace(v.GetString("ai_provider"))),
		Mode:       strings.ToUpper(v.GetString("mode")),
		Groq: llm.VendorOptions{
			APIKey:  v.GetString("groq_api_key"),
			BaseURL: v.GetString("groq_base_url"),
			Model:   v.GetString("groq_model"),
		},
		OpenAI: llm.VendorOptions{
			APIKey:  v.GetString("openai_api_key"),
			BaseURL: v.GetString("openai_base_url"),
			Model:   v.GetString("openai_model"),
		},
		HuggingFace: llm.VendorOptions{
			APIKey:  v.GetString("huggingface_api_key"),
			BaseURL: v.GetString("huggingface_base_url"),
			Model:   v.GetString("huggingface_model"),
		},
		Ollama: llm.VendorOptions{
			BaseURL: v.GetString("ollama_url"),
			Model:   v.GetString("ollama_model"),
		},

		LLMTimeout:        v.GetDuration("llm_timeout"),
		HistoryWindow:     v.GetInt("history_window"),
		FailurePolicyFile: v.GetString("failure_policy_file"),
		PersistFallback:   v.GetBool("persist_fallback"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database_path must not be empty")
	}
	if cfg.LLMTimeout <= 0 {
		return nil, fmt.Errorf("llm_timeout must be positive, got %s", cfg.LLMTimeout)
	}
	if cfg.HistoryWindow <= 0 {
		return nil, fmt.Errorf("history_window must be positive, got %d", cfg.HistoryWindow)
	}

	return cfg, nil
}

// ProviderOptions returns the options the provider factory is built from.
func (c *Config) ProviderOptions() llm.Options {
	return llm.Options{
		Provider:    c.AIProvider,
		Mode:        c.Mode,
		Timeout:     c.LLMTimeout,
		Groq:        c.Groq,
		OpenAI:      c.OpenAI,
		HuggingFace: c.HuggingFace,
		Ollama:      c.Ollama,
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
