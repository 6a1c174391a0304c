package messaging

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/signalbox/internal/db/dbtest"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/datatypes"
)

func TestCreate_AssignsIDAndSentAt(t *testing.T) {
	db := dbtest.Open(t)
	a := newAgent(t, db, "agent-1")

	before := time.Now().UTC()
	m := send(t, db, CreateOpts{
		Content:     "Hello",
		SenderID:    &a.ID,
		MessageType: strPtr("text"),
		Importance:  intPtr(5),
		Status:      strPtr("sent"),
		Metadata:    datatypes.JSON(`{"priority":"high"}`),
	})

	if len(m.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", m.ID)
	}
	if m.SentAt.Before(before) {
		t.Errorf("SentAt = %v, want >= %v", m.SentAt, before)
	}
	if m.Timed != nil {
		t.Error("unscheduled message has a TimedMessage")
	}

	got, err := Get(db, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "Hello" || *got.SenderID != a.ID || *got.Importance != 5 {
		t.Errorf("Get = %+v", got)
	}
	if !strings.Contains(string(got.Metadata), `"priority"`) {
		t.Errorf("Metadata = %s", got.Metadata)
	}
	if count(t, db, &models.TimedMessage{}) != 0 {
		t.Error("TimedMessage row written for unscheduled message")
	}
}

func TestCreate_WithScheduleWritesTimedMessage(t *testing.T) {
	db := dbtest.Open(t)
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	m := send(t, db, CreateOpts{Content: "later", ScheduleAt: &at})
	if m.Timed == nil || !m.Timed.SendAt.Equal(at) {
		t.Fatalf("Timed = %+v, want send_at %v", m.Timed, at)
	}

	got, err := Get(db, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Timed == nil {
		t.Fatal("Get did not load TimedMessage")
	}
	if !got.Timed.SendAt.Equal(at) {
		t.Errorf("SendAt = %v, want %v", got.Timed.SendAt, at)
	}
}

func TestCreate_ThreadsUnderParent(t *testing.T) {
	db := dbtest.Open(t)

	parent := send(t, db, CreateOpts{Content: "root"})
	reply := send(t, db, CreateOpts{Content: "reply", ParentMessageID: &parent.ID})

	got, _ := Get(db, reply.ID)
	if got.ParentMessageID == nil || *got.ParentMessageID != parent.ID {
		t.Errorf("ParentMessageID = %v, want %s", got.ParentMessageID, parent.ID)
	}
}

func TestCreate_MissingReferencesConflict(t *testing.T) {
	db := dbtest.Open(t)
	missing := "00000000-0000-0000-0000-000000000000"
	at := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		opts CreateOpts
		want string
	}{
		{"sender", CreateOpts{Content: "x", SenderID: &missing, ScheduleAt: &at}, "sender agent"},
		{"parent", CreateOpts{Content: "x", ParentMessageID: &missing}, "parent message"},
		{"conversation", CreateOpts{Content: "x", ConversationID: &missing}, "conversation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(db, tt.opts)
			if !errors.Is(err, store.ErrConflict) {
				t.Fatalf("err = %v, want ErrConflict", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}

	if n := count(t, db, &models.Message{}); n != 0 {
		t.Errorf("messages = %d, want 0 after failed creates", n)
	}
	if n := count(t, db, &models.TimedMessage{}); n != 0 {
		t.Errorf("timed messages = %d, want 0 after failed creates", n)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := dbtest.Open(t)

	tests := []struct {
		name string
		opts CreateOpts
	}{
		{"empty content", CreateOpts{}},
		{"importance too high", CreateOpts{Content: "x", Importance: intPtr(11)}},
		{"importance negative", CreateOpts{Content: "x", Importance: intPtr(-1)}},
		{"metadata not an object", CreateOpts{Content: "x", Metadata: datatypes.JSON(`[1,2]`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Create(db, tt.opts); !errors.Is(err, store.ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
	if n := count(t, db, &models.Message{}); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := dbtest.Open(t)
	_, err := Get(db, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "message not found") {
		t.Errorf("err = %q", err.Error())
	}
}

func TestUpdate_OnlySuppliedFields(t *testing.T) {
	db := dbtest.Open(t)
	a := newAgent(t, db, "a")
	m := send(t, db, CreateOpts{Content: "original", SenderID: &a.ID, Status: strPtr("draft"), Importance: intPtr(3)})

	got, err := Update(db, m.ID, UpdateOpts{Status: strPtr("sent")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *got.Status != "sent" {
		t.Errorf("Status = %q, want sent", *got.Status)
	}
	if got.Content != "original" || *got.Importance != 3 || *got.SenderID != a.ID {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if !got.SentAt.Equal(m.SentAt) {
		t.Errorf("SentAt changed: %v -> %v", m.SentAt, got.SentAt)
	}
}

func TestUpdate_Errors(t *testing.T) {
	db := dbtest.Open(t)
	m := send(t, db, CreateOpts{Content: "x"})
	missing := "00000000-0000-0000-0000-000000000000"

	if _, err := Update(db, missing, UpdateOpts{Content: strPtr("y")}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing message err = %v, want ErrNotFound", err)
	}
	if _, err := Update(db, m.ID, UpdateOpts{ConversationID: &missing}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("missing conversation err = %v, want ErrConflict", err)
	}
	if _, err := Update(db, m.ID, UpdateOpts{Importance: intPtr(42)}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("bad importance err = %v, want ErrInvalid", err)
	}
	if _, err := Update(db, m.ID, UpdateOpts{Content: strPtr("")}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("empty content err = %v, want ErrInvalid", err)
	}

	got, _ := Get(db, m.ID)
	if got.Content != "x" || got.ConversationID != nil {
		t.Errorf("failed updates changed the message: %+v", got)
	}
}

func TestUpdate_Metadata(t *testing.T) {
	db := dbtest.Open(t)
	m := send(t, db, CreateOpts{Content: "x"})

	md := datatypes.JSON(`{"k":"v"}`)
	got, err := Update(db, m.ID, UpdateOpts{Metadata: &md})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(string(got.Metadata), `"k"`) {
		t.Errorf("Metadata = %s", got.Metadata)
	}
}
