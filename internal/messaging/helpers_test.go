package messaging

import (
	"testing"
	"time"

	"github.com/zulandar/signalbox/internal/agent"
	"github.com/zulandar/signalbox/internal/models"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func newAgent(t *testing.T, db *gorm.DB, name string) *models.Agent {
	t.Helper()
	a, err := agent.Create(db, agent.CreateOpts{AgentName: name})
	if err != nil {
		t.Fatalf("create agent %s: %v", name, err)
	}
	return a
}

func send(t *testing.T, db *gorm.DB, opts CreateOpts) *models.Message {
	t.Helper()
	m, err := Create(db, opts)
	if err != nil {
		t.Fatalf("create message %q: %v", opts.Content, err)
	}
	return m
}

func addRecipient(t *testing.T, db *gorm.DB, messageID, agentID string, read bool) {
	t.Helper()
	if _, err := AddRecipient(db, RecipientOpts{MessageID: messageID, RecipientID: agentID, IsRead: boolPtr(read)}); err != nil {
		t.Fatalf("add recipient %s to %s: %v", agentID, messageID, err)
	}
}

// setSentAt pins a message's sent_at for ordering and cutoff tests.
func setSentAt(t *testing.T, db *gorm.DB, messageID string, at time.Time) {
	t.Helper()
	if err := db.Model(&models.Message{}).Where("id = ?", messageID).Update("sent_at", at.UTC()).Error; err != nil {
		t.Fatalf("set sent_at: %v", err)
	}
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func contentsOf(ds []Delivery) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Content
	}
	return out
}
