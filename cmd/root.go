package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/fit-signals/internal/contract"
)

const (
	app = "fit-signals"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server" validate:"required"`
	Contract *ContractConfig `mapstructure:"contract" validate:"required"`
	AI       *AIConfig       `mapstructure:"ai" validate:"required"`
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write-timeout" validate:"gt=0"`
	MaxBodyBytes int64         `mapstructure:"max-body-bytes" validate:"gt=0"`
	CORSOrigin   string        `mapstructure:"cors-origin"`
}

type ContractConfig struct {
	DefaultVariant string           `mapstructure:"default-variant" validate:"required"`
	RepairJSON     bool             `mapstructure:"repair-json"`
	MaxLogLength   int              `mapstructure:"max-log-length" validate:"min=0"`
	Reasons        contract.Reasons `mapstructure:"reasons"`
	Fillers        []string         `mapstructure:"fillers"`
}

type AIConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=openai gemini"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxInputRunes int           `mapstructure:"max-input-runes" validate:"min=0"`
	DisabledSteps []string      `mapstructure:"disabled-steps"`
	OpenAI        *OpenAIConfig `mapstructure:"openai" validate:"required"`
	Gemini        *GeminiConfig `mapstructure:"gemini" validate:"required"`
}

type OpenAIConfig struct {
	BaseURL     string  `mapstructure:"base-url" validate:"required,url"`
	APIKey      string  `mapstructure:"api-key" json:"-"`
	APIKeyFile  string  `mapstructure:"api-key-file"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries  int     `mapstructure:"max-retries" validate:"min=0"`
}

type GeminiConfig struct {
	APIKey      string  `mapstructure:"api-key" json:"-"`
	APIKeyFile  string  `mapstructure:"api-key-file"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries  int     `mapstructure:"max-retries" validate:"min=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "fit-signals compares a resume with a job description and returns a structured fit verdict",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())
	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is fit-signals.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	reasons := contract.DefaultReasons()

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read-timeout", 30*time.Second)
	v.SetDefault("server.write-timeout", 120*time.Second)
	v.SetDefault("server.max-body-bytes", 1<<20)
	v.SetDefault("server.cors-origin", "*")

	v.SetDefault("contract.default-variant", contract.VariantRisk)
	v.SetDefault("contract.repair-json", false)
	v.SetDefault("contract.max-log-length", 200)
	v.SetDefault("contract.reasons.format-mismatch", reasons.FormatMismatch)
	v.SetDefault("contract.reasons.parse-failure", reasons.ParseFailure)
	v.SetDefault("contract.reasons.non-conformant", reasons.NonConformant)
	v.SetDefault("contract.reasons.upstream-failure", reasons.UpstreamFailure)
	v.SetDefault("contract.reasons.insufficient", reasons.Insufficient)
	v.SetDefault("contract.fillers", contract.DefaultFillers)

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max-input-runes", 12000)
	v.SetDefault("ai.openai.base-url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.temperature", 0.2)
	v.SetDefault("ai.openai.max-retries", 2)
	v.SetDefault("ai.gemini.temperature", 0.2)
	v.SetDefault("ai.gemini.max-retries", 2)
}

func bindEnv(v *viper.Viper) error {
	bindings := [][2]string{
		{"ai.openai.api-key", "LLM_API_KEY"},
		{"ai.openai.base-url", "LLM_BASE_URL"},
		{"ai.openai.model", "LLM_MODEL"},
		{"ai.gemini.api-key", "GEMINI_API_KEY"},
		{"server.listen", "FIT_SIGNALS_LISTEN"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", b[1], err)
		}
	}
	return nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional: defaults and environment are enough to start.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
