package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Discord executes a channel webhook.
type Discord struct {
	id    string
	token string
	sess  *discordgo.Session
}

// NewDiscord returns a Discord webhook notifier. A nil client keeps the
// discordgo default.
func NewDiscord(webhookID, token string, client *http.Client) (*Discord, error) {
	if webhookID == "" || token == "" {
		return nil, fmt.Errorf("discord: webhook id and token are required")
	}
	// Webhook execution is authorised by the token in the URL; no bot token.
	sess, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord: new session: %w", err)
	}
	if client != nil {
		sess.Client = client
	}
	return &Discord{id: webhookID, token: token, sess: sess}, nil
}

// Name identifies the notifier in logs.
func (d *Discord) Name() string { return "discord" }

// Notify sends evt as a webhook embed.
func (d *Discord) Notify(ctx context.Context, evt Event) error {
	params := &discordgo.WebhookParams{
		Content: evt.Title,
		Embeds:  []*discordgo.MessageEmbed{eventToEmbed(evt)},
	}
	if _, err := d.sess.WebhookExecute(d.id, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}
	return nil
}

// eventToEmbed converts an Event to a Discord Embed.
func eventToEmbed(evt Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
	}
	if evt.Color != "" {
		embed.Color = parseHexColor(evt.Color)
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}
