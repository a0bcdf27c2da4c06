package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	ModelPath         string `yaml:"model_path"`
	ReferenceDataPath string `yaml:"reference_data_path"`

	LLMProvider              string `yaml:"llm_provider"`
	LLMModel                 string `yaml:"llm_model"`
	AnthropicAPIKey          string `yaml:"anthropic_api_key"`
	AnthropicAPIKeyFile      string `yaml:"anthropic_api_key_file"`
	OpenAIAPIKey             string `yaml:"openai_api_key"`
	OpenAIAPIKeyFile         string `yaml:"openai_api_key_file"`
	GenerationTimeoutSeconds int    `yaml:"generation_timeout_seconds"`

	DBPath          string `yaml:"db_path"`
	ReportOutputDir string `yaml:"report_output_dir"`
	ChatLogDir      string `yaml:"chat_log_dir"`

	ReportRetentionDays   int    `yaml:"report_retention_days"`
	ReportCleanupSchedule string `yaml:"report_cleanup_schedule"`

	SlackBotToken       string  `yaml:"slack_bot_token"`
	SlackAlertChannelID string  `yaml:"slack_alert_channel_id"`
	AlertThreshold      float64 `yaml:"alert_threshold"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.ModelPath, "MODEL_PATH")
	envOverride(&cfg.ReferenceDataPath, "REFERENCE_DATA_PATH")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicAPIKeyFile, "ANTHROPIC_API_KEY_FILE")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIAPIKeyFile, "OPENAI_API_KEY_FILE")
	envOverrideInt(&cfg.GenerationTimeoutSeconds, "GENERATION_TIMEOUT_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.ChatLogDir, "CHAT_LOG_DIR")
	envOverrideInt(&cfg.ReportRetentionDays, "REPORT_RETENTION_DAYS")
	envOverride(&cfg.ReportCleanupSchedule, "REPORT_CLEANUP_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAlertChannelID, "SLACK_ALERT_CHANNEL_ID")
	envOverrideFloat(&cfg.AlertThreshold, "ALERT_THRESHOLD")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = "./emp_churn_model.json"
	}
	if cfg.ReferenceDataPath == "" {
		cfg.ReferenceDataPath = "./hr_reference.csv"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.GenerationTimeoutSeconds == 0 {
		cfg.GenerationTimeoutSeconds = 30
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./churnadvisor.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.ChatLogDir == "" {
		cfg.ChatLogDir = "./chatlogs"
	}
	if cfg.ReportCleanupSchedule == "" {
		cfg.ReportCleanupSchedule = "0 3 * * *"
	}
	if cfg.AlertThreshold == 0 {
		cfg.AlertThreshold = 0.80
	}

	// API keys may be supplied via a local secret file instead of inline.
	loadKeyFile(&cfg.AnthropicAPIKey, cfg.AnthropicAPIKeyFile, "anthropic_api_key_file")
	loadKeyFile(&cfg.OpenAIAPIKey, cfg.OpenAIAPIKeyFile, "openai_api_key_file")

	// Validate required fields
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if cfg.GenerationTimeoutSeconds < 1 {
		log.Fatalf("invalid generation_timeout_seconds '%d': must be >= 1", cfg.GenerationTimeoutSeconds)
	}
	if cfg.AlertThreshold < 0 || cfg.AlertThreshold > 1 {
		log.Fatalf("invalid alert_threshold '%f': must be between 0 and 1", cfg.AlertThreshold)
	}
	if cfg.ReportRetentionDays < 0 {
		log.Fatalf("invalid report_retention_days '%d': must be >= 0", cfg.ReportRetentionDays)
	}
	if cfg.SlackAlertChannelID != "" && cfg.SlackBotToken == "" {
		log.Fatalf("slack_bot_token is required when slack_alert_channel_id is set")
	}

	return cfg
}

func loadKeyFile(field *string, path, name string) {
	if *field != "" || strings.TrimSpace(path) == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading %s '%s': %v", name, path, err)
	}
	*field = strings.TrimSpace(string(data))
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
