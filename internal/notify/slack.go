package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// Slack posts events to an incoming webhook.
type Slack struct {
	url    string
	client *http.Client
}

// NewSlack returns a Slack notifier. A nil client uses http.DefaultClient.
func NewSlack(webhookURL string, client *http.Client) *Slack {
	if client == nil {
		client = http.DefaultClient
	}
	return &Slack{url: webhookURL, client: client}
}

// Name identifies the notifier in logs.
func (s *Slack) Name() string { return "slack" }

// Notify posts evt as a webhook attachment.
func (s *Slack) Notify(ctx context.Context, evt Event) error {
	msg := &slack.WebhookMessage{
		Text:        evt.Title,
		Attachments: []slack.Attachment{eventToAttachment(evt)},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.url, s.client, msg); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	return nil
}

// eventToAttachment converts an Event to a Slack Attachment.
func eventToAttachment(evt Event) slack.Attachment {
	att := slack.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slack.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return att
}
