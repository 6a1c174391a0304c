package messaging

import (
	"fmt"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/gorm"
)

// Delivery is a message as seen by one recipient: the message itself plus
// that recipient's read state.
type Delivery struct {
	models.Message
	IsRead bool       `json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

// receiptRow is the projection read by the delivery query.
type receiptRow struct {
	MessageID string
	IsRead    *bool
	ReadAt    *time.Time
}

// unreadClause matches receipts that are unread, including legacy NULL rows.
const unreadClause = "(mr.is_read = ? OR mr.is_read IS NULL)"

// ListForAgent returns every message deliverable to agentID at now, newest
// sent first, with the agent's read state.
func ListForAgent(db *gorm.DB, agentID string, now time.Time) ([]Delivery, error) {
	return deliveries(db, agentID, now, false)
}

// ListUnread is ListForAgent restricted to unread receipts.
func ListUnread(db *gorm.DB, agentID string, now time.Time) ([]Delivery, error) {
	return deliveries(db, agentID, now, true)
}

func deliveries(db *gorm.DB, agentID string, now time.Time, unreadOnly bool) ([]Delivery, error) {
	if err := requireAgent(db, agentID); err != nil {
		return nil, err
	}

	q := VisibleAt(now)(db.Table("message_recipients AS mr").
		Select("mr.message_id, mr.is_read, mr.read_at").
		Joins("JOIN messages AS m ON m.id = mr.message_id")).
		Where("mr.recipient_id = ?", agentID)
	if unreadOnly {
		q = q.Where(unreadClause, false)
	}

	var rows []receiptRow
	if err := q.Order("m.sent_at DESC, m.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("messaging: list deliveries for %s: %w", agentID, err)
	}
	if len(rows) == 0 {
		return []Delivery{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.MessageID
	}
	var msgs []models.Message
	if err := db.Preload("Timed").Where("id IN ?", ids).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("messaging: load deliveries for %s: %w", agentID, err)
	}
	byID := make(map[string]models.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	out := make([]Delivery, 0, len(rows))
	for _, r := range rows {
		m, ok := byID[r.MessageID]
		if !ok {
			continue
		}
		out = append(out, Delivery{
			Message: m,
			IsRead:  r.IsRead != nil && *r.IsRead,
			ReadAt:  r.ReadAt,
		})
	}
	return out, nil
}

// MarkRead marks as read every unread receipt of agentID whose message was
// sent at or before cutoff and is visible at now. read_at is set to now. The
// returned count covers only receipts this call changed, so repeating the
// call returns 0.
func MarkRead(db *gorm.DB, agentID string, cutoff, now time.Time) (int64, error) {
	if err := requireAgent(db, agentID); err != nil {
		return 0, err
	}
	now = now.UTC()

	eligible := VisibleAt(now)(db.Table("messages AS m").Select("m.id")).
		Where("m.sent_at <= ?", cutoff.UTC())

	res := db.Model(&models.MessageRecipient{}).
		Where("recipient_id = ?", agentID).
		Where("(is_read = ? OR is_read IS NULL)", false).
		Where("message_id IN (?)", eligible).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		return 0, fmt.Errorf("messaging: mark read for %s: %w", agentID, res.Error)
	}
	return res.RowsAffected, nil
}

func requireAgent(db *gorm.DB, agentID string) error {
	ok, err := store.Exists(db, &models.Agent{}, agentID)
	if err != nil {
		return fmt.Errorf("messaging: check agent %s: %w", agentID, err)
	}
	if !ok {
		return fmt.Errorf("messaging: agent %w: %s", store.ErrNotFound, agentID)
	}
	return nil
}
