package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

// Config holds the application configuration
type Config struct {
	AIProvider   string `mapstructure:"ai_provider"` // openai, anthropic, ollama, lmstudio, gemini, offline
	DefaultModel string `mapstructure:"default_model"`
	OpenAIKey    string `mapstructure:"openai_key"`
	AnthropicKey string `mapstructure:"anthropic_key"`
	GeminiKey    string `mapstructure:"gemini_key"`
	OllamaURL    string `mapstructure:"ollama_url"`
	LMStudioURL  string `mapstructure:"lmstudio_url"`
	ListenAddr   string `mapstructure:"listen_addr"`
	// Resume storage
	BlobBackend  string `mapstructure:"blob_backend"` // local, s3
	AWSRegion    string `mapstructure:"aws_region"`
	AWSAccessKey string `mapstructure:"aws_access_key"`
	AWSSecretKey string `mapstructure:"aws_secret_key"`
	BucketName   string `mapstructure:"bucket_name"`
	// Optional YAML question bank replacing the built-in one
	QuestionBankFile string `mapstructure:"question_bank_file"`

	Interview models.InterviewPlan `mapstructure:"interview"`
}

var AppConfig *Config

// SettableKeys are the keys accepted by Set
var SettableKeys = map[string]bool{
	"ai_provider":        true,
	"default_model":      true,
	"openai_key":         true,
	"anthropic_key":      true,
	"gemini_key":         true,
	"ollama_url":         true,
	"lmstudio_url":       true,
	"listen_addr":        true,
	"blob_backend":       true,
	"aws_region":         true,
	"aws_access_key":     true,
	"aws_secret_key":     true,
	"bucket_name":        true,
	"question_bank_file": true,
}

// Providers lists the supported AI providers
var Providers = []string{"openai", "anthropic", "ollama", "lmstudio", "gemini", "offline"}

// Dir returns the application data directory
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mockly"), nil
}

// Initialize loads or creates the configuration file
func Initialize() error {
	configDir, err := Dir()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg, err := Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Load reads the config file at path, creating it with defaults if it is missing.
// Values from a .env file and MOCKLY_* environment variables take precedence.
func Load(configFile string) (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := createDefaultConfig(configFile); err != nil {
			return nil, err
		}
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("mockly")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Unmarshal into struct
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("ai_provider", "offline")
	viper.SetDefault("default_model", "")
	viper.SetDefault("openai_key", "")
	viper.SetDefault("anthropic_key", "")
	viper.SetDefault("gemini_key", "")
	viper.SetDefault("ollama_url", "http://localhost:11434")
	viper.SetDefault("lmstudio_url", "http://localhost:1234")
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("blob_backend", "local")
	viper.SetDefault("aws_region", "us-east-1")
	viper.SetDefault("aws_access_key", "")
	viper.SetDefault("aws_secret_key", "")
	viper.SetDefault("bucket_name", "")
	viper.SetDefault("question_bank_file", "")
	viper.SetDefault("interview.total_questions", 6)
	viper.SetDefault("interview.difficulty_pattern", []string{"easy", "easy", "medium", "medium", "hard", "hard"})
	viper.SetDefault("interview.timer_by_difficulty", map[string]int{"easy": 20, "medium": 60, "hard": 120})
}

// Validate checks the provider and interview plan
func (c *Config) Validate() error {
	known := false
	for _, p := range Providers {
		if c.AIProvider == p {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unsupported AI provider: %s", c.AIProvider)
	}
	if c.BlobBackend != "local" && c.BlobBackend != "s3" {
		return fmt.Errorf("unsupported blob backend: %s", c.BlobBackend)
	}
	if c.BlobBackend == "s3" && c.BucketName == "" {
		return fmt.Errorf("bucket_name is required for the s3 blob backend")
	}
	if err := session.ValidatePlan(c.Interview); err != nil {
		return fmt.Errorf("invalid interview settings: %w", err)
	}
	return nil
}

// QuestionBank returns the configured question bank, or the built-in one
func (c *Config) QuestionBank() (session.QuestionBank, error) {
	if c.QuestionBankFile == "" {
		return session.DefaultBank(), nil
	}
	return session.LoadBank(c.QuestionBankFile)
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# Mockly Configuration
# AI Provider: openai, anthropic, ollama, lmstudio, gemini, offline
ai_provider: offline
default_model: ""
ollama_url: http://localhost:11434
lmstudio_url: http://localhost:1234
listen_addr: ":8080"

# API Keys (keep this file secure!)
openai_key: ""
anthropic_key: ""
gemini_key: ""

# Resume storage: local or s3
blob_backend: local
aws_region: us-east-1
bucket_name: ""

interview:
  total_questions: 6
  difficulty_pattern: [easy, easy, medium, medium, hard, hard]
  timer_by_difficulty:
    easy: 20
    medium: 60
    hard: 120
`
	return os.WriteFile(path, []byte(defaultConfig), 0600)
}

// Set updates a configuration value
func Set(key, value string) error {
	if !SettableKeys[key] {
		keys := make([]string, 0, len(SettableKeys))
		for k := range SettableKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(keys, ", "))
	}
	viper.Set(key, value)
	return viper.WriteConfig()
}

// Get retrieves a configuration value
func Get(key string) string {
	return viper.GetString(key)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	dir, _ := Dir()
	return filepath.Join(dir, "config.yaml")
}
