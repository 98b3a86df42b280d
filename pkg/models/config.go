package models

import "time"

// ClassifierConfig tunes the transcript-vs-question heuristic.
type ClassifierConfig struct {
	// TranscriptMinRunes is the message length at or above which a chat
	// message is treated as a call transcript.
	TranscriptMinRunes int `yaml:"transcript_min_runes" mapstructure:"transcript_min_runes"`
	// MinSpeakerTurns is the number of "Name:" dialogue markers that marks a
	// message as a transcript regardless of length.
	MinSpeakerTurns int `yaml:"min_speaker_turns" mapstructure:"min_speaker_turns"`
	// Keywords force transcript routing when present (case-insensitive).
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`
}

// NotificationConfig controls the Slack incident alert channel.
type NotificationConfig struct {
	Enabled         bool    `yaml:"enabled" mapstructure:"enabled"`
	SlackWebhookURL string  `yaml:"slack_webhook_url" mapstructure:"slack_webhook_url"`
	MinUrgency      Urgency `yaml:"min_urgency" mapstructure:"min_urgency"`
}

// GlobalConfig holds the engine configuration loaded from .careconfig.
// The OpenAI API key is deliberately absent: it comes from the environment.
type GlobalConfig struct {
	Model            string             `yaml:"model"`
	APIBase          string             `yaml:"api_base"`
	RequestTimeout   time.Duration      `yaml:"request_timeout"`
	MaxTokens        int                `yaml:"max_tokens"`
	Temperature      float64            `yaml:"temperature"`
	CorpusPath       string             `yaml:"corpus_path"`
	FormTemplatePath string             `yaml:"form_template_path"`
	Classifier       ClassifierConfig   `yaml:"classifier"`
	Notifications    NotificationConfig `yaml:"notifications"`
}
