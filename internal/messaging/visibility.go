package messaging

import (
	"time"

	"gorm.io/gorm"
)

// Visible reports whether a message is deliverable at now. sendAt is the
// message's scheduled time, nil for messages that were never scheduled.
// A scheduled message becomes visible at exactly sendAt.
func Visible(sendAt *time.Time, now time.Time) bool {
	return sendAt == nil || !sendAt.After(now)
}

// VisibleAt is the SQL form of Visible. It expects the query to reference the
// messages table as "m" and joins timed_messages as "tm".
func VisibleAt(now time.Time) func(*gorm.DB) *gorm.DB {
	now = now.UTC()
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Joins("LEFT JOIN timed_messages AS tm ON tm.message_id = m.id").
			Where("(tm.message_id IS NULL OR tm.send_at <= ?)", now)
	}
}
