// Package notify pushes best-effort webhook notifications to chat platforms
// when an important message is created.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/models"
	"go.uber.org/zap"
)

// Color constants keyed by importance band.
const (
	ColorInfo     = "#2196f3"
	ColorWarning  = "#ff9800"
	ColorCritical = "#e53935"
)

// Event is a message formatted for display in chat.
type Event struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a key-value pair displayed alongside an event.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Notifier delivers an Event to one platform.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, evt Event) error
}

// Dispatcher fans events out to every configured notifier. Delivery failures
// are logged and never returned to the caller.
type Dispatcher struct {
	notifiers     []Notifier
	minImportance int
	log           *zap.SugaredLogger
}

// NewDispatcher builds a dispatcher. A nil logger discards failures.
func NewDispatcher(minImportance int, log *zap.SugaredLogger, notifiers ...Notifier) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{notifiers: notifiers, minImportance: minImportance, log: log}
}

// FromConfig wires the notifiers named in cfg.
func FromConfig(cfg config.NotifyConfig, log *zap.SugaredLogger) (*Dispatcher, error) {
	var ns []Notifier
	if cfg.SlackWebhookURL != "" {
		ns = append(ns, NewSlack(cfg.SlackWebhookURL, nil))
	}
	if cfg.DiscordWebhookID != "" {
		d, err := NewDiscord(cfg.DiscordWebhookID, cfg.DiscordWebhookToken, nil)
		if err != nil {
			return nil, err
		}
		ns = append(ns, d)
	}
	return NewDispatcher(cfg.MinImportance, log, ns...), nil
}

// Enabled reports whether any notifier is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.notifiers) > 0
}

// ShouldNotify reports whether msg is important enough to announce.
func (d *Dispatcher) ShouldNotify(msg *models.Message) bool {
	return msg.Importance != nil && *msg.Importance >= d.minImportance
}

// MessageCreated announces msg on every notifier if it qualifies. senderName
// may be empty.
func (d *Dispatcher) MessageCreated(ctx context.Context, msg *models.Message, senderName string) {
	if !d.Enabled() || !d.ShouldNotify(msg) {
		return
	}
	evt := FormatMessage(msg, senderName)
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, evt); err != nil {
			d.log.Warnw("notify: delivery failed", "notifier", n.Name(), "message_id", msg.ID, "error", err)
		}
	}
}

// FormatMessage renders a message as a chat event.
func FormatMessage(msg *models.Message, senderName string) Event {
	importance := 0
	if msg.Importance != nil {
		importance = *msg.Importance
	}

	title := "Important message"
	if senderName != "" {
		title = fmt.Sprintf("Important message from %s", senderName)
	}

	evt := Event{
		Title: title,
		Body:  truncate(msg.Content, 500),
		Color: importanceColor(importance),
		Fields: []Field{
			{Name: "Importance", Value: strconv.Itoa(importance), Short: true},
			{Name: "Message", Value: msg.ID, Short: true},
		},
	}
	if msg.MessageType != nil && *msg.MessageType != "" {
		evt.Fields = append(evt.Fields, Field{Name: "Type", Value: *msg.MessageType, Short: true})
	}
	if msg.ConversationID != nil {
		evt.Fields = append(evt.Fields, Field{Name: "Conversation", Value: *msg.ConversationID, Short: true})
	}
	return evt
}

// importanceColor maps importance to a sidebar color.
func importanceColor(importance int) string {
	switch {
	case importance >= 9:
		return ColorCritical
	case importance >= 7:
		return ColorWarning
	default:
		return ColorInfo
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
