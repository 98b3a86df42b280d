package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/marceloamor/CareDocQA/pkg/models"
	"github.com/spf13/viper"
)

// ConfigurationManager defines the interface for loading and validating the
// engine configuration from the .careconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .careconfig relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with the engine
// defaults. The classifier values mirror the original heuristic boundary.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Model:            "gpt-3.5-turbo",
		APIBase:          "https://api.openai.com/v1",
		RequestTimeout:   30 * time.Second,
		MaxTokens:        3000,
		Temperature:      0.3,
		CorpusPath:       "policies.yaml",
		FormTemplatePath: "incident_form.csv",
		Classifier: models.ClassifierConfig{
			TranscriptMinRunes: 500,
			MinSpeakerTurns:    2,
			Keywords:           []string{"transcript", "telephone call", "phone call"},
		},
		Notifications: models.NotificationConfig{
			Enabled:    false,
			MinUrgency: models.UrgencyHigh,
		},
	}
}

// LoadGlobalConfig reads the .careconfig file using Viper. A missing file
// yields the defaults.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".careconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("capability.model", cfg.Model)
	v.SetDefault("capability.api_base", cfg.APIBase)
	v.SetDefault("capability.request_timeout_seconds", int(cfg.RequestTimeout/time.Second))
	v.SetDefault("capability.max_tokens", cfg.MaxTokens)
	v.SetDefault("capability.temperature", cfg.Temperature)
	v.SetDefault("corpus.path", cfg.CorpusPath)
	v.SetDefault("corpus.form_template", cfg.FormTemplatePath)
	v.SetDefault("classifier.transcript_min_runes", cfg.Classifier.TranscriptMinRunes)
	v.SetDefault("classifier.min_speaker_turns", cfg.Classifier.MinSpeakerTurns)
	v.SetDefault("classifier.keywords", cfg.Classifier.Keywords)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.slack_webhook_url", cfg.Notifications.SlackWebhookURL)
	v.SetDefault("notifications.min_urgency", string(cfg.Notifications.MinUrgency))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .careconfig: %w", err)
	}

	cfg.Model = v.GetString("capability.model")
	cfg.APIBase = v.GetString("capability.api_base")
	cfg.RequestTimeout = time.Duration(v.GetInt("capability.request_timeout_seconds")) * time.Second
	cfg.MaxTokens = v.GetInt("capability.max_tokens")
	cfg.Temperature = v.GetFloat64("capability.temperature")
	cfg.CorpusPath = v.GetString("corpus.path")
	cfg.FormTemplatePath = v.GetString("corpus.form_template")
	cfg.Classifier.TranscriptMinRunes = v.GetInt("classifier.transcript_min_runes")
	cfg.Classifier.MinSpeakerTurns = v.GetInt("classifier.min_speaker_turns")
	cfg.Classifier.Keywords = v.GetStringSlice("classifier.keywords")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.SlackWebhookURL = v.GetString("notifications.slack_webhook_url")
	cfg.Notifications.MinUrgency = models.Urgency(v.GetString("notifications.min_urgency"))

	return cfg, nil
}

// validUrgencies is the set of allowed urgency values.
var validUrgencies = map[models.Urgency]bool{
	models.UrgencyLow:      true,
	models.UrgencyMedium:   true,
	models.UrgencyHigh:     true,
	models.UrgencyCritical: true,
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error message identifying every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Model == "" {
		errs = append(errs, "capability.model must not be empty")
	}
	if cfg.APIBase == "" {
		errs = append(errs, "capability.api_base must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("capability.request_timeout_seconds must be positive, got %s", cfg.RequestTimeout))
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("capability.max_tokens must be positive, got %d", cfg.MaxTokens))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("capability.temperature %.2f is invalid, must be between 0 and 2", cfg.Temperature))
	}
	if cfg.CorpusPath == "" {
		errs = append(errs, "corpus.path must not be empty")
	}
	if cfg.FormTemplatePath == "" {
		errs = append(errs, "corpus.form_template must not be empty")
	}
	if cfg.Classifier.TranscriptMinRunes <= 0 {
		errs = append(errs, fmt.Sprintf("classifier.transcript_min_runes must be positive, got %d", cfg.Classifier.TranscriptMinRunes))
	}
	if cfg.Classifier.MinSpeakerTurns <= 0 {
		errs = append(errs, fmt.Sprintf("classifier.min_speaker_turns must be positive, got %d", cfg.Classifier.MinSpeakerTurns))
	}
	if !validUrgencies[cfg.Notifications.MinUrgency] {
		errs = append(errs, fmt.Sprintf(
			"notifications.min_urgency %q is invalid, must be one of: low, medium, high, critical",
			cfg.Notifications.MinUrgency,
		))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SlackWebhookURL == "" {
		errs = append(errs, "notifications.slack_webhook_url must be set when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
