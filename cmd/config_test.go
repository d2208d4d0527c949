package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/contract"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		t.Fatalf("binding env: %v", err)
	}
	return v
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "GEMINI_API_KEY", "OPENAI_API_KEY", "FIT_SIGNALS_LISTEN"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	config, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Server.Listen != ":8080" {
		t.Fatalf("unexpected listen address: %q", config.Server.Listen)
	}
	if config.Server.WriteTimeout != 120*time.Second {
		t.Fatalf("unexpected write timeout: %s", config.Server.WriteTimeout)
	}
	if config.Server.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected body limit: %d", config.Server.MaxBodyBytes)
	}
	if config.Contract.DefaultVariant != contract.VariantRisk {
		t.Fatalf("unexpected default variant: %q", config.Contract.DefaultVariant)
	}
	if config.Contract.Reasons != contract.DefaultReasons() {
		t.Fatalf("unexpected reasons: %+v", config.Contract.Reasons)
	}
	if len(config.Contract.Fillers) != 2 || config.Contract.Fillers[0] != "information insufficient" {
		t.Fatalf("unexpected fillers: %v", config.Contract.Fillers)
	}
	if config.AI.Provider != "openai" || config.AI.Timeout != time.Minute || config.AI.MaxInputRunes != 12000 {
		t.Fatalf("unexpected ai config: %+v", config.AI)
	}
	if config.AI.OpenAI.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected base url: %q", config.AI.OpenAI.BaseURL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "fit-signals.yaml")
	content := `
server:
  listen: ":9090"
  write-timeout: 45s
contract:
  default-variant: v3
  repair-json: true
  reasons:
    upstream-failure: "服务暂不可用"
  fillers: ["信息不足", "证据不足"]
ai:
  provider: gemini
  disabled-steps: [html]
  gemini:
    model: gemini-2.5-pro
    max-retries: 4
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	config, err := loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Server.Listen != ":9090" || config.Server.WriteTimeout != 45*time.Second {
		t.Fatalf("unexpected server config: %+v", config.Server)
	}
	if config.Server.ReadTimeout != 30*time.Second {
		t.Fatalf("default read timeout lost: %s", config.Server.ReadTimeout)
	}
	if config.Contract.DefaultVariant != "v3" || !config.Contract.RepairJSON {
		t.Fatalf("unexpected contract config: %+v", config.Contract)
	}
	if config.Contract.Reasons.UpstreamFailure != "服务暂不可用" {
		t.Fatalf("unexpected upstream reason: %q", config.Contract.Reasons.UpstreamFailure)
	}
	if config.Contract.Reasons.ParseFailure != "parse failure" {
		t.Fatalf("default parse reason lost: %q", config.Contract.Reasons.ParseFailure)
	}
	if len(config.Contract.Fillers) != 2 || config.Contract.Fillers[1] != "证据不足" {
		t.Fatalf("unexpected fillers: %v", config.Contract.Fillers)
	}
	if config.AI.Provider != "gemini" || config.AI.Gemini.Model != "gemini-2.5-pro" || config.AI.Gemini.MaxRetries != 4 {
		t.Fatalf("unexpected ai config: %+v %+v", config.AI, config.AI.Gemini)
	}
	if len(config.AI.DisabledSteps) != 1 || config.AI.DisabledSteps[0] != "html" {
		t.Fatalf("unexpected disabled steps: %v", config.AI.DisabledSteps)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "sk-env")
	t.Setenv("LLM_BASE_URL", "https://dashscope.example.com/compatible-mode/v1")
	t.Setenv("LLM_MODEL", "qwen3-vl-30b-a3b-instruct")
	t.Setenv("FIT_SIGNALS_LISTEN", "127.0.0.1:7000")

	config, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.AI.OpenAI.APIKey != "sk-env" {
		t.Fatalf("api key not bound from environment")
	}
	if config.AI.OpenAI.BaseURL != "https://dashscope.example.com/compatible-mode/v1" {
		t.Fatalf("unexpected base url: %q", config.AI.OpenAI.BaseURL)
	}
	if config.AI.OpenAI.Model != "qwen3-vl-30b-a3b-instruct" {
		t.Fatalf("unexpected model: %q", config.AI.OpenAI.Model)
	}
	if config.Server.Listen != "127.0.0.1:7000" {
		t.Fatalf("unexpected listen address: %q", config.Server.Listen)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name  string
		key   string
		value any
		field string
	}{
		{name: "unknown provider", key: "ai.provider", value: "claude", field: "Provider"},
		{name: "bad base url", key: "ai.openai.base-url", value: "not a url", field: "BaseURL"},
		{name: "zero timeout", key: "ai.timeout", value: "0s", field: "Timeout"},
		{name: "negative retries", key: "ai.gemini.max-retries", value: -1, field: "MaxRetries"},
		{name: "empty variant", key: "contract.default-variant", value: "", field: "DefaultVariant"},
		{name: "zero body limit", key: "server.max-body-bytes", value: 0, field: "MaxBodyBytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper(t)
			v.Set(tt.key, tt.value)

			_, err := loadConfig(v)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}

func TestNewCompleter(t *testing.T) {
	clearEnv(t)

	config, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := newCompleter(context.Background(), config.AI, zap.NewNop()); err == nil {
		t.Fatalf("expected missing key error")
	} else if !strings.Contains(err.Error(), "openai api key") {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	completer, err := newCompleter(context.Background(), config.AI, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completer.Provider() != "openai" {
		t.Fatalf("unexpected provider: %s", completer.Provider())
	}

	config.AI.Provider = "gemini"
	if _, err := newCompleter(context.Background(), config.AI, zap.NewNop()); err == nil {
		t.Fatalf("expected missing gemini key error")
	}

	config.AI.Provider = "anthropic"
	if _, err := newCompleter(context.Background(), config.AI, zap.NewNop()); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}

func TestNewAnalyzerRejectsUnknownDefaultVariant(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "sk-test")

	v := newTestViper(t)
	v.Set("contract.default-variant", "v9")
	config, err := loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := newAnalyzer(context.Background(), config, zap.NewNop()); err == nil {
		t.Fatalf("expected unknown variant error")
	}

	v.Set("contract.default-variant", "V2")
	config, err = loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := newAnalyzer(context.Background(), config, zap.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewPipelineDisablesSteps(t *testing.T) {
	pipeline := newPipeline(&AIConfig{MaxInputRunes: 100, DisabledSteps: []string{" html "}}, zap.NewNop())

	for _, status := range pipeline.Describe() {
		if status.Name == "html" && status.Enabled {
			t.Fatalf("html step should be disabled")
		}
		if status.Name == "whitespace" && !status.Enabled {
			t.Fatalf("whitespace step should stay enabled")
		}
	}

	out, _, err := pipeline.Run(context.Background(), "resume", "<b>Go</b>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "<b>Go</b>" {
		t.Fatalf("html should pass through untouched, got %q", out)
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	jdPath := filepath.Join(dir, "jd.txt")
	if err := os.WriteFile(jdPath, []byte("Go engineer"), 0o600); err != nil {
		t.Fatalf("write jd: %v", err)
	}

	in, err := readInput(jdPath, "-", strings.NewReader("Six years of Go"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.JobDescription != "Go engineer" || in.Resume != "Six years of Go" {
		t.Fatalf("unexpected input: %+v", in)
	}

	if _, err := readInput("-", "-", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error when both documents read stdin")
	}
	if _, err := readInput(filepath.Join(dir, "missing.txt"), jdPath, nil); err == nil {
		t.Fatalf("expected error for a missing file")
	}
	if _, err := readInput(jdPath, "-", strings.NewReader("   ")); err == nil {
		t.Fatalf("expected error for a blank resume")
	}
}

func TestPrintVariants(t *testing.T) {
	var buf bytes.Buffer
	printVariants(&buf, contract.DefaultRegistry())
	out := buf.String()

	for _, want := range []string{
		"risk (v1):",
		"- match_level: one of Strong | Partial | Weak",
		"- rationale: text, fallback reason",
		"- risk_signals: list of exactly 2 strings",
		"alignment (v2):",
		"profile (v3):",
		"    - overall: number in [0, 100]",
		"- job_profile: any object",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
