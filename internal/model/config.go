package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AIConfig selects the AI provider and model used by the invoker.
type AIConfig struct {
	// Provider is one of "grok", "openai", "ollama", "anthropic".
	Provider string `mapstructure:"provider" yaml:"provider"`

	Model string `mapstructure:"model" yaml:"model"`

	// Endpoint overrides the provider's default URL. Required for the
	// "openai" provider (any OpenAI-compatible server).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// TimeoutSec applies to hosted providers.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// LocalTimeoutSec applies to the local ollama provider.
	LocalTimeoutSec int `mapstructure:"local_timeout_sec" yaml:"local_timeout_sec"`
}

// MailConfig holds the IMAP settings of the mail-client collaborator.
type MailConfig struct {
	IMAPHost      string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort      string `mapstructure:"imap_port" yaml:"imap_port"`
	Username      string `mapstructure:"username" yaml:"username"`
	TLS           bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox       string `mapstructure:"mailbox" yaml:"mailbox"`
	DraftsMailbox string `mapstructure:"drafts_mailbox" yaml:"drafts_mailbox"`

	// FromAddress is used as the From header of reply drafts. Defaults to
	// Username when empty.
	FromAddress string `mapstructure:"from_address" yaml:"from_address"`
}

// PipelineConfig holds the request-size caps, rate limits and extraction
// heuristics. The extraction thresholds are approximate heuristics kept
// configurable rather than fixed.
type PipelineConfig struct {
	SummaryMaxChars     int    `mapstructure:"summary_max_chars" yaml:"summary_max_chars"`
	AnalysisMaxChars    int    `mapstructure:"analysis_max_chars" yaml:"analysis_max_chars"`
	RateLimitCalls      int    `mapstructure:"rate_limit_calls" yaml:"rate_limit_calls"`
	RateLimitWindowSec  int    `mapstructure:"rate_limit_window_sec" yaml:"rate_limit_window_sec"`
	ScannedCharsPerPage int    `mapstructure:"scanned_chars_per_page" yaml:"scanned_chars_per_page"`
	ScannedMinChars     int    `mapstructure:"scanned_min_chars" yaml:"scanned_min_chars"`
	OCRMinChars         int    `mapstructure:"ocr_min_chars" yaml:"ocr_min_chars"`
	TesseractPath       string `mapstructure:"tesseract_path" yaml:"tesseract_path"`
	TempDir             string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// StoreConfig locates the local template database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration. It is loaded once
// on startup and passed explicitly to the invoker and orchestrator.
type AppConfig struct {
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Mail     MailConfig     `mapstructure:"mail" yaml:"mail"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	// Telemetry is persisted for the surrounding application; nothing in
	// this module exports telemetry.
	Telemetry bool `mapstructure:"telemetry" yaml:"telemetry"`
}

// configDir returns ~/.config/mailshot, or "." when the home directory
// cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailshot")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailshot/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			Provider:        "grok",
			Model:           "grok-3",
			MaxTokens:       2048,
			TimeoutSec:      120,
			LocalTimeoutSec: 300,
		},
		Mail: MailConfig{
			IMAPPort:      "993",
			TLS:           true,
			Mailbox:       "INBOX",
			DraftsMailbox: "Drafts",
		},
		Pipeline: PipelineConfig{
			SummaryMaxChars:     5000,
			AnalysisMaxChars:    50000,
			RateLimitCalls:      20,
			RateLimitWindowSec:  60,
			ScannedCharsPerPage: 100,
			ScannedMinChars:     50,
			OCRMinChars:         20,
			TesseractPath:       "tesseract",
		},
		Store: StoreConfig{
			Path: filepath.Join(configDir(), "mailshot.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", d.AI.TimeoutSec)
	v.SetDefault("ai.local_timeout_sec", d.AI.LocalTimeoutSec)
	v.SetDefault("mail.imap_port", d.Mail.IMAPPort)
	v.SetDefault("mail.tls", d.Mail.TLS)
	v.SetDefault("mail.mailbox", d.Mail.Mailbox)
	v.SetDefault("mail.drafts_mailbox", d.Mail.DraftsMailbox)
	v.SetDefault("pipeline.summary_max_chars", d.Pipeline.SummaryMaxChars)
	v.SetDefault("pipeline.analysis_max_chars", d.Pipeline.AnalysisMaxChars)
	v.SetDefault("pipeline.rate_limit_calls", d.Pipeline.RateLimitCalls)
	v.SetDefault("pipeline.rate_limit_window_sec", d.Pipeline.RateLimitWindowSec)
	v.SetDefault("pipeline.scanned_chars_per_page", d.Pipeline.ScannedCharsPerPage)
	v.SetDefault("pipeline.scanned_min_chars", d.Pipeline.ScannedMinChars)
	v.SetDefault("pipeline.ocr_min_chars", d.Pipeline.OCRMinChars)
	v.SetDefault("pipeline.tesseract_path", d.Pipeline.TesseractPath)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with MAILSHOT_* environment variables
// (e.g. MAILSHOT_AI_PROVIDER). If the file does not exist, the defaults
// are returned with environment overrides applied.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("mailshot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Mail.FromAddress == "" {
		cfg.Mail.FromAddress = cfg.Mail.Username
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("ai", cfg.AI)
	v.Set("mail", cfg.Mail)
	v.Set("pipeline", cfg.Pipeline)
	v.Set("store", cfg.Store)
	v.Set("log", cfg.Log)
	v.Set("telemetry", cfg.Telemetry)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
