package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/models"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Notify(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func TestDispatcher_ShouldNotify(t *testing.T) {
	d := NewDispatcher(8, nil)
	tests := []struct {
		name       string
		importance *int
		want       bool
	}{
		{"nil importance", nil, false},
		{"below threshold", intPtr(7), false},
		{"at threshold", intPtr(8), true},
		{"above threshold", intPtr(10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.ShouldNotify(&models.Message{Importance: tt.importance})
			if got != tt.want {
				t.Errorf("ShouldNotify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatcher_MessageCreated(t *testing.T) {
	ok := &recorder{}
	failing := &recorder{err: errors.New("boom")}
	d := NewDispatcher(5, nil, failing, ok)

	d.MessageCreated(context.Background(), &models.Message{ID: "m1", Content: "low", Importance: intPtr(2)}, "")
	if len(ok.events) != 0 {
		t.Fatalf("low importance delivered %d events", len(ok.events))
	}

	d.MessageCreated(context.Background(), &models.Message{ID: "m2", Content: "high", Importance: intPtr(9)}, "alice")
	if len(failing.events) != 1 || len(ok.events) != 1 {
		t.Fatalf("events = %d/%d, want 1/1", len(failing.events), len(ok.events))
	}
	if ok.events[0].Title != "Important message from alice" {
		t.Errorf("Title = %q", ok.events[0].Title)
	}
}

func TestDispatcher_Disabled(t *testing.T) {
	var d *Dispatcher
	if d.Enabled() {
		t.Error("nil dispatcher should be disabled")
	}
	d.MessageCreated(context.Background(), &models.Message{Importance: intPtr(10)}, "")
}

func TestFromConfig(t *testing.T) {
	d, err := FromConfig(config.NotifyConfig{MinImportance: 8}, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if d.Enabled() {
		t.Error("no webhooks configured, dispatcher should be disabled")
	}

	d, err = FromConfig(config.NotifyConfig{
		MinImportance:       8,
		SlackWebhookURL:     "https://hooks.slack.test/x",
		DiscordWebhookID:    "123",
		DiscordWebhookToken: "tok",
	}, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(d.notifiers) != 2 {
		t.Errorf("notifiers = %d, want 2", len(d.notifiers))
	}
}

func TestFormatMessage(t *testing.T) {
	msg := &models.Message{
		ID:             "m1",
		Content:        "  disk full  ",
		Importance:     intPtr(9),
		MessageType:    strPtr("alert"),
		ConversationID: strPtr("c1"),
	}
	evt := FormatMessage(msg, "")
	if evt.Title != "Important message" {
		t.Errorf("Title = %q", evt.Title)
	}
	if evt.Body != "disk full" {
		t.Errorf("Body = %q", evt.Body)
	}
	if evt.Color != ColorCritical {
		t.Errorf("Color = %q, want %q", evt.Color, ColorCritical)
	}
	if len(evt.Fields) != 4 {
		t.Fatalf("Fields = %d, want 4", len(evt.Fields))
	}
	if evt.Fields[0].Value != "9" {
		t.Errorf("Importance field = %q", evt.Fields[0].Value)
	}
}

func TestFormatMessage_Truncates(t *testing.T) {
	evt := FormatMessage(&models.Message{Content: strings.Repeat("x", 600)}, "")
	if len(evt.Body) != 503 || !strings.HasSuffix(evt.Body, "...") {
		t.Errorf("Body length = %d", len(evt.Body))
	}
}

func TestImportanceColor(t *testing.T) {
	tests := []struct {
		importance int
		want       string
	}{
		{0, ColorInfo},
		{6, ColorInfo},
		{7, ColorWarning},
		{8, ColorWarning},
		{9, ColorCritical},
		{10, ColorCritical},
	}
	for _, tt := range tests {
		if got := importanceColor(tt.importance); got != tt.want {
			t.Errorf("importanceColor(%d) = %q, want %q", tt.importance, got, tt.want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"E53935", 0xe53935},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestSlack_Notify(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL, srv.Client())
	evt := Event{Title: "t", Body: "b", Color: ColorInfo, Fields: []Field{{Name: "k", Value: "v", Short: true}}}
	if err := s.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if body["text"] != "t" {
		t.Errorf("text = %v", body["text"])
	}
	atts, _ := body["attachments"].([]interface{})
	if len(atts) != 1 {
		t.Fatalf("attachments = %v", body["attachments"])
	}
	att := atts[0].(map[string]interface{})
	if att["color"] != ColorInfo || att["text"] != "b" {
		t.Errorf("attachment = %v", att)
	}
}

func TestSlack_NotifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL, srv.Client()).Notify(context.Background(), Event{Title: "t"})
	if err == nil || !strings.Contains(err.Error(), "slack:") {
		t.Errorf("err = %v, want slack error", err)
	}
}

// redirect sends every request to the test server regardless of host.
type redirect struct {
	target *url.URL
}

func (rt redirect) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func TestDiscord_Notify(t *testing.T) {
	var path string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	target, _ := url.Parse(srv.URL)

	d, err := NewDiscord("123", "tok", &http.Client{Transport: redirect{target: target}})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}
	if err := d.Notify(context.Background(), Event{Title: "t", Body: "b", Color: "#ff9800"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.HasSuffix(path, "/webhooks/123/tok") {
		t.Errorf("path = %q", path)
	}
	embeds, _ := body["embeds"].([]interface{})
	if len(embeds) != 1 {
		t.Fatalf("embeds = %v", body["embeds"])
	}
	embed := embeds[0].(map[string]interface{})
	if embed["color"] != float64(0xff9800) {
		t.Errorf("color = %v", embed["color"])
	}
}

func TestNewDiscord_RequiresCredentials(t *testing.T) {
	if _, err := NewDiscord("", "tok", nil); err == nil {
		t.Error("expected error for missing id")
	}
}
