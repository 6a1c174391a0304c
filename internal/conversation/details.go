package conversation

import (
	"fmt"

	"github.com/zulandar/signalbox/internal/models"
	"gorm.io/gorm"
)

// Details is a conversation with its messages and derived aggregates.
type Details struct {
	models.Conversation
	Messages      []models.Message `json:"messages"`
	UniqueAgents  []models.Agent   `json:"unique_agents"`
	TotalMessages int              `json:"total_messages"`
	UnreadCount   int64            `json:"unread_count"`
}

// GetDetails loads a conversation's messages in sent order, the agents that
// sent or received any of them, and the number of unread receipts.
//
// UnreadCount counts every unread receipt on the conversation's messages,
// including receipts for scheduled messages their recipients cannot see yet.
// Per-agent lists apply the schedule; this aggregate does not.
func GetDetails(db *gorm.DB, id string) (*Details, error) {
	c, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	msgs := []models.Message{}
	if err := db.Preload("Timed").Where("conversation_id = ?", id).
		Order("sent_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("conversation: messages of %s: %w", id, err)
	}

	agents, err := participants(db, id, msgs)
	if err != nil {
		return nil, err
	}

	var unread int64
	if err := db.Table("message_recipients AS mr").
		Joins("JOIN messages AS m ON m.id = mr.message_id").
		Where("m.conversation_id = ?", id).
		Where("(mr.is_read = ? OR mr.is_read IS NULL)", false).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("conversation: unread count of %s: %w", id, err)
	}

	return &Details{
		Conversation:  *c,
		Messages:      msgs,
		UniqueAgents:  agents,
		TotalMessages: len(msgs),
		UnreadCount:   unread,
	}, nil
}

// participants returns senders then recipients of the conversation's
// messages, each agent once, in order of first appearance.
func participants(db *gorm.DB, id string, msgs []models.Message) ([]models.Agent, error) {
	seen := map[string]bool{}
	var ids []string
	add := func(agentID string) {
		if !seen[agentID] {
			seen[agentID] = true
			ids = append(ids, agentID)
		}
	}
	for _, m := range msgs {
		if m.SenderID != nil {
			add(*m.SenderID)
		}
	}

	var recipientIDs []string
	if err := db.Table("message_recipients AS mr").
		Select("mr.recipient_id").
		Joins("JOIN messages AS m ON m.id = mr.message_id").
		Where("m.conversation_id = ?", id).
		Order("m.sent_at ASC, mr.recipient_id ASC").
		Pluck("mr.recipient_id", &recipientIDs).Error; err != nil {
		return nil, fmt.Errorf("conversation: recipients of %s: %w", id, err)
	}
	for _, r := range recipientIDs {
		add(r)
	}

	agents := []models.Agent{}
	if len(ids) == 0 {
		return agents, nil
	}
	var found []models.Agent
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("conversation: agents of %s: %w", id, err)
	}
	byID := make(map[string]models.Agent, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	for _, aid := range ids {
		if a, ok := byID[aid]; ok {
			agents = append(agents, a)
		}
	}
	return agents, nil
}
