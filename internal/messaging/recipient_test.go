package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/signalbox/internal/db/dbtest"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
)

func TestAddRecipient_DefaultsUnread(t *testing.T) {
	db := dbtest.Open(t)
	b := newAgent(t, db, "b")
	m := send(t, db, CreateOpts{Content: "hi"})

	r, err := AddRecipient(db, RecipientOpts{MessageID: m.ID, RecipientID: b.ID})
	if err != nil {
		t.Fatalf("AddRecipient: %v", err)
	}
	if r.Read() || r.ReadAt != nil {
		t.Errorf("new receipt = %+v, want unread with no read_at", r)
	}

	got, err := GetRecipient(db, models.RecipientKey{MessageID: m.ID, RecipientID: b.ID})
	if err != nil {
		t.Fatalf("GetRecipient: %v", err)
	}
	if got.IsRead == nil || *got.IsRead {
		t.Errorf("stored is_read = %v, want false", got.IsRead)
	}
}

func TestAddRecipient_ReadStampsReadAt(t *testing.T) {
	db := dbtest.Open(t)
	b := newAgent(t, db, "b")
	m := send(t, db, CreateOpts{Content: "hi"})

	r, err := AddRecipient(db, RecipientOpts{MessageID: m.ID, RecipientID: b.ID, IsRead: boolPtr(true)})
	if err != nil {
		t.Fatalf("AddRecipient: %v", err)
	}
	if !r.Read() || r.ReadAt == nil {
		t.Errorf("receipt = %+v, want read with read_at", r)
	}
}

func TestAddRecipient_Conflicts(t *testing.T) {
	db := dbtest.Open(t)
	b := newAgent(t, db, "b")
	m := send(t, db, CreateOpts{Content: "hi"})
	addRecipient(t, db, m.ID, b.ID, false)

	tests := []struct {
		name string
		opts RecipientOpts
	}{
		{"duplicate pair", RecipientOpts{MessageID: m.ID, RecipientID: b.ID}},
		{"missing message", RecipientOpts{MessageID: "missing", RecipientID: b.ID}},
		{"missing agent", RecipientOpts{MessageID: m.ID, RecipientID: "missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AddRecipient(db, tt.opts); !errors.Is(err, store.ErrConflict) {
				t.Errorf("err = %v, want ErrConflict", err)
			}
		})
	}
	if n := count(t, db, &models.MessageRecipient{}); n != 1 {
		t.Errorf("receipts = %d, want 1", n)
	}
}

func TestAddRecipient_Validation(t *testing.T) {
	db := dbtest.Open(t)
	if _, err := AddRecipient(db, RecipientOpts{}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestGetRecipient_NotFound(t *testing.T) {
	db := dbtest.Open(t)
	_, err := GetRecipient(db, models.RecipientKey{MessageID: "m", RecipientID: "r"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRecipient(t *testing.T) {
	db := dbtest.Open(t)
	b := newAgent(t, db, "b")
	m := send(t, db, CreateOpts{Content: "hi"})
	addRecipient(t, db, m.ID, b.ID, false)
	key := models.RecipientKey{MessageID: m.ID, RecipientID: b.ID}

	read, err := UpdateRecipient(db, key, RecipientUpdate{IsRead: boolPtr(true)})
	if err != nil {
		t.Fatalf("UpdateRecipient read: %v", err)
	}
	if !read.Read() || read.ReadAt == nil {
		t.Fatalf("after marking read: %+v", read)
	}
	firstReadAt := *read.ReadAt

	again, err := UpdateRecipient(db, key, RecipientUpdate{IsRead: boolPtr(true)})
	if err != nil {
		t.Fatalf("UpdateRecipient read again: %v", err)
	}
	if again.ReadAt == nil || !again.ReadAt.Equal(firstReadAt) {
		t.Errorf("read_at moved on re-read: %v -> %v", firstReadAt, again.ReadAt)
	}

	unread, err := UpdateRecipient(db, key, RecipientUpdate{IsRead: boolPtr(false)})
	if err != nil {
		t.Fatalf("UpdateRecipient unread: %v", err)
	}
	if unread.Read() || unread.ReadAt != nil {
		t.Errorf("after marking unread: %+v", unread)
	}

	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	explicit, err := UpdateRecipient(db, key, RecipientUpdate{IsRead: boolPtr(true), ReadAt: &at})
	if err != nil {
		t.Fatalf("UpdateRecipient explicit: %v", err)
	}
	if explicit.ReadAt == nil || !explicit.ReadAt.Equal(at) {
		t.Errorf("ReadAt = %v, want %v", explicit.ReadAt, at)
	}

	if _, err := UpdateRecipient(db, models.RecipientKey{MessageID: m.ID, RecipientID: "x"}, RecipientUpdate{IsRead: boolPtr(true)}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing receipt err = %v, want ErrNotFound", err)
	}
}
