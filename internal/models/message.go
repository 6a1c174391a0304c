package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message is a unit of content sent by an agent, optionally inside a
// conversation and optionally replying to another message.
type Message struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	SenderID        *string        `gorm:"size:36;index" json:"sender_id"`
	SentAt          time.Time      `gorm:"not null;index" json:"sent_at"`
	ParentMessageID *string        `gorm:"size:36;index" json:"parent_message_id"`
	ConversationID  *string        `gorm:"size:36;index" json:"conversation_id"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	MessageType     *string        `gorm:"size:64" json:"message_type"`
	Importance      *int           `json:"importance"`
	Status          *string        `gorm:"size:64" json:"status"`
	Metadata        datatypes.JSON `json:"msg_metadata"`

	Sender        *Agent             `gorm:"foreignKey:SenderID" json:"-"`
	Parent        *Message           `gorm:"foreignKey:ParentMessageID" json:"-"`
	Conversation  *Conversation      `gorm:"foreignKey:ConversationID" json:"-"`
	Timed         *TimedMessage      `gorm:"foreignKey:MessageID" json:"timed_message,omitempty"`
	Recipients    []MessageRecipient `gorm:"foreignKey:MessageID" json:"-"`
	MetadataItems []MessageMetadata  `gorm:"foreignKey:MessageID" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// TimedMessage marks a message for scheduled delivery. A message without a
// TimedMessage row is visible as soon as it has a recipient.
type TimedMessage struct {
	MessageID string    `gorm:"primaryKey;size:36" json:"message_id"`
	SendAt    time.Time `gorm:"not null;index" json:"send_at"`
}

// MessageRecipient is the read receipt for one (message, recipient) pair.
// IsRead may be NULL in rows written by older clients; NULL reads as unread.
type MessageRecipient struct {
	MessageID   string     `gorm:"primaryKey;size:36" json:"message_id"`
	RecipientID string     `gorm:"primaryKey;size:36;index" json:"recipient_id"`
	IsRead      *bool      `gorm:"default:false;index" json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`

	Recipient *Agent `gorm:"foreignKey:RecipientID" json:"-"`
}

// Read reports whether the receipt has been marked read.
func (r MessageRecipient) Read() bool {
	return r.IsRead != nil && *r.IsRead
}

// RecipientKey addresses a MessageRecipient by its composite primary key.
type RecipientKey struct {
	MessageID   string
	RecipientID string
}

// MessageMetadata is a free-form key/value annotation attached to a message.
// Keys are not unique per message.
type MessageMetadata struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MessageID string    `gorm:"size:36;not null;index" json:"message_id"`
	Key       string    `gorm:"size:255;not null" json:"key"`
	Value     *string   `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical table name.
func (MessageMetadata) TableName() string {
	return "agent_message_metadata"
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (m *MessageMetadata) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
