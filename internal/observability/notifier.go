package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// IncidentAlert is the notification payload raised when an analysis produces
// high-urgency notifications.
type IncidentAlert struct {
	SessionID  string
	Summary    string
	Severity   models.Urgency
	Policies   []string
	Recipients []models.RecipientType
}

// Notifier sends incident alerts to an external channel.
type Notifier interface {
	Notify(alert IncidentAlert) error
}

// slackNotifier posts incident alerts to a Slack webhook.
type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that posts to the given Slack webhook URL.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the alert to the configured Slack webhook.
func (s *slackNotifier) Notify(alert IncidentAlert) error {
	msg := s.buildMessage(alert)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *slackNotifier) buildMessage(alert IncidentAlert) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "Care Incident Alert"},
		},
	}

	emoji := severityEmoji(alert.Severity)
	head := fmt.Sprintf("%s *[%s]* %s", emoji, strings.ToUpper(string(alert.Severity)), alert.Summary)
	blocks = append(blocks, slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: head},
	})

	if len(alert.Policies) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Triggered policies:* " + strings.Join(alert.Policies, ", ")},
		})
	}

	if len(alert.Recipients) > 0 {
		names := make([]string, len(alert.Recipients))
		for i, r := range alert.Recipients {
			names[i] = string(r)
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Notify:* " + strings.Join(names, ", ")},
		})
	}

	return slackMessage{Blocks: blocks}
}

func severityEmoji(severity models.Urgency) string {
	switch severity {
	case models.UrgencyCritical, models.UrgencyHigh:
		return "\U0001f534"
	case models.UrgencyMedium:
		return "\U0001f7e1"
	case models.UrgencyLow:
		return "\U0001f535"
	default:
		return "\u2753"
	}
}
