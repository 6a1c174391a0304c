package messaging

import (
	"fmt"

	"github.com/zulandar/signalbox/internal/agent"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/gorm"
)

// MessageAccess is a message's metadata as released to one agent.
type MessageAccess struct {
	MessageID     string                   `json:"message_id"`
	Message       *models.Message          `json:"message"`
	Agent         *models.Agent            `json:"agent"`
	MetadataItems []models.MessageMetadata `json:"metadata_items"`
}

// MetadataForAgent returns a message's metadata if agentID sent the message
// or is one of its recipients. Read state and scheduling do not matter. A
// missing message is reported before a missing agent; an agent with no
// relation to the message gets store.ErrForbidden.
func MetadataForAgent(db *gorm.DB, messageID, agentID string) (*MessageAccess, error) {
	msg, err := Get(db, messageID)
	if err != nil {
		return nil, err
	}
	a, err := agent.Get(db, agentID)
	if err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}

	allowed := msg.SenderID != nil && *msg.SenderID == agentID
	if !allowed {
		var n int64
		if err := db.Model(&models.MessageRecipient{}).
			Where("message_id = ? AND recipient_id = ?", messageID, agentID).
			Count(&n).Error; err != nil {
			return nil, fmt.Errorf("messaging: check access %s/%s: %w", messageID, agentID, err)
		}
		allowed = n > 0
	}
	if !allowed {
		return nil, fmt.Errorf("messaging: %w: agent %s does not have access to message %s", store.ErrForbidden, agentID, messageID)
	}

	items, err := ListMetadata(db, messageID)
	if err != nil {
		return nil, err
	}
	return &MessageAccess{
		MessageID:     messageID,
		Message:       msg,
		Agent:         a,
		MetadataItems: items,
	}, nil
}
