// Package messaging stores messages, read receipts and message metadata, and
// answers the recipient-scoped questions asked of them: which messages an
// agent can see, which are unread, and who may read a message's metadata.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a message. A non-nil ScheduleAt
// makes the message timed: recipients see it only once ScheduleAt has passed.
type CreateOpts struct {
	Content         string         `json:"content" validate:"required"`
	SenderID        *string        `json:"sender_id"`
	ParentMessageID *string        `json:"parent_message_id"`
	ConversationID  *string        `json:"conversation_id"`
	MessageType     *string        `json:"message_type"`
	Importance      *int           `json:"importance" validate:"omitnil,min=0,max=10"`
	Status          *string        `json:"status"`
	Metadata        datatypes.JSON `json:"msg_metadata"`
	ScheduleAt      *time.Time     `json:"schedule_at"`
}

// UpdateOpts holds the message fields that may be patched. The sender and
// sent_at are fixed at creation.
type UpdateOpts struct {
	Content         *string         `json:"content" validate:"omitnil,min=1"`
	ParentMessageID *string         `json:"parent_message_id"`
	ConversationID  *string         `json:"conversation_id"`
	MessageType     *string         `json:"message_type"`
	Importance      *int            `json:"importance" validate:"omitnil,min=0,max=10"`
	Status          *string         `json:"status"`
	Metadata        *datatypes.JSON `json:"msg_metadata"`
}

// Create stores a message, and its TimedMessage when ScheduleAt is set, in a
// single transaction. sent_at is assigned here from the database clock.
func Create(db *gorm.DB, opts CreateOpts) (*models.Message, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	if err := checkJSON(opts.Metadata); err != nil {
		return nil, err
	}

	msg := models.Message{
		SenderID:        opts.SenderID,
		ParentMessageID: opts.ParentMessageID,
		ConversationID:  opts.ConversationID,
		Content:         opts.Content,
		MessageType:     opts.MessageType,
		Importance:      opts.Importance,
		Status:          opts.Status,
		Metadata:        opts.Metadata,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, opts.SenderID, opts.ParentMessageID, opts.ConversationID); err != nil {
			return err
		}
		msg.SentAt = tx.NowFunc()
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("messaging: create: %w", store.Translate(err))
		}
		if opts.ScheduleAt == nil {
			return nil
		}
		timed := models.TimedMessage{MessageID: msg.ID, SendAt: opts.ScheduleAt.UTC()}
		if err := tx.Create(&timed).Error; err != nil {
			return fmt.Errorf("messaging: schedule %s: %w", msg.ID, store.Translate(err))
		}
		msg.Timed = &timed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Get retrieves a message by ID with its schedule, if any.
func Get(db *gorm.DB, id string) (*models.Message, error) {
	var msg models.Message
	if err := db.Preload("Timed").Where("id = ?", id).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("messaging: message %w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("messaging: get %s: %w", id, err)
	}
	return &msg, nil
}

// Update patches the supplied fields and returns the stored message.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Message, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	if opts.Metadata != nil {
		if err := checkJSON(*opts.Metadata); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if opts.Content != nil {
		updates["content"] = *opts.Content
	}
	if opts.ParentMessageID != nil {
		updates["parent_message_id"] = *opts.ParentMessageID
	}
	if opts.ConversationID != nil {
		updates["conversation_id"] = *opts.ConversationID
	}
	if opts.MessageType != nil {
		updates["message_type"] = *opts.MessageType
	}
	if opts.Importance != nil {
		updates["importance"] = *opts.Importance
	}
	if opts.Status != nil {
		updates["status"] = *opts.Status
	}
	if opts.Metadata != nil {
		updates["metadata"] = *opts.Metadata
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := store.Exists(tx, &models.Message{}, id)
		if err != nil {
			return fmt.Errorf("messaging: get %s for update: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("messaging: message %w: %s", store.ErrNotFound, id)
		}
		if err := checkRefs(tx, nil, opts.ParentMessageID, opts.ConversationID); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Message{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("messaging: update %s: %w", id, store.Translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

// checkRefs verifies that every supplied reference names an existing row.
func checkRefs(tx *gorm.DB, senderID, parentID, conversationID *string) error {
	if senderID != nil {
		if err := store.Require(tx, &models.Agent{}, "sender agent", *senderID); err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
	}
	if parentID != nil {
		if err := store.Require(tx, &models.Message{}, "parent message", *parentID); err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
	}
	if conversationID != nil {
		if err := store.Require(tx, &models.Conversation{}, "conversation", *conversationID); err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
	}
	return nil
}

// checkJSON rejects metadata that is not a JSON object. Empty means absent.
func checkJSON(raw datatypes.JSON) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("messaging: %w: msg_metadata must be a JSON object", store.ErrInvalid)
	}
	return nil
}
