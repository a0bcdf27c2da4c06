package main

import (
	"os"
	"path/filepath"
	"testing"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ANTHROPIC_API_KEY_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY_FILE", "")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()

	if cfg.AnthropicAPIKey != "sk-ant-test" {
		t.Fatalf("unexpected anthropic key: %q", cfg.AnthropicAPIKey)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr default: %q", cfg.ListenAddr)
	}
	if cfg.DBPath != "./churnadvisor.db" {
		t.Errorf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.ReportOutputDir != "./reports" {
		t.Errorf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.ChatLogDir != "./chatlogs" {
		t.Errorf("unexpected chat log dir default: %q", cfg.ChatLogDir)
	}
	if cfg.GenerationTimeoutSeconds != 30 {
		t.Errorf("unexpected generation timeout default: %d", cfg.GenerationTimeoutSeconds)
	}
	if cfg.AlertThreshold != 0.80 {
		t.Errorf("unexpected alert threshold default: %f", cfg.AlertThreshold)
	}
	if cfg.ReportCleanupSchedule != "0 3 * * *" {
		t.Errorf("unexpected cleanup schedule default: %q", cfg.ReportCleanupSchedule)
	}
}

func TestLoadConfigYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yamlContent := `
listen_addr: ":9090"
llm_provider: anthropic
anthropic_api_key: sk-ant-yaml
model_path: /opt/models/churn.json
generation_timeout_seconds: 45
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	setMinimalValidConfigEnv(t)
	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("MODEL_PATH", "/env/override/churn.json")

	cfg := LoadConfig()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("yaml listen addr not applied: %q", cfg.ListenAddr)
	}
	if cfg.AnthropicAPIKey != "sk-ant-yaml" {
		t.Errorf("yaml api key not applied: %q", cfg.AnthropicAPIKey)
	}
	if cfg.ModelPath != "/env/override/churn.json" {
		t.Errorf("env override lost to yaml: %q", cfg.ModelPath)
	}
	if cfg.GenerationTimeoutSeconds != 45 {
		t.Errorf("yaml timeout not applied: %d", cfg.GenerationTimeoutSeconds)
	}
}

func TestLoadConfigReadsKeyFromSecretFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "anthropic.key")
	if err := os.WriteFile(keyPath, []byte("sk-ant-from-file\n"), 0600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	setMinimalValidConfigEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY_FILE", keyPath)

	cfg := LoadConfig()

	if cfg.AnthropicAPIKey != "sk-ant-from-file" {
		t.Fatalf("expected trimmed key from file, got %q", cfg.AnthropicAPIKey)
	}
}

func TestLoadConfigInlineKeyWinsOverFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "anthropic.key")
	if err := os.WriteFile(keyPath, []byte("sk-ant-from-file"), 0600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	setMinimalValidConfigEnv(t)
	t.Setenv("ANTHROPIC_API_KEY_FILE", keyPath)

	cfg := LoadConfig()

	if cfg.AnthropicAPIKey != "sk-ant-test" {
		t.Fatalf("inline key should win, got %q", cfg.AnthropicAPIKey)
	}
}
