// Package models defines the GORM models persisted by signalbox.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent is a participant that can send and receive messages.
type Agent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AgentName string    `gorm:"size:255;not null;index" json:"agent_name"`
	IPAddress *string   `gorm:"size:45" json:"ip_address"`
	Port      *int      `json:"port"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
