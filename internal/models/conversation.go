package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation groups messages into a thread.
type Conversation struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Archived    bool           `gorm:"default:false" json:"archived"`
	Title       *string        `gorm:"size:255" json:"title"`
	Description *string        `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
