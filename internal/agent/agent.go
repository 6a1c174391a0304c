// Package agent provides agent registration, update and lookup.
package agent

import (
	"errors"
	"fmt"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for registering an agent.
type CreateOpts struct {
	AgentName string  `json:"agent_name" validate:"required"`
	IPAddress *string `json:"ip_address" validate:"omitnil,ip"`
	Port      *int    `json:"port" validate:"omitnil,min=1,max=65535"`
}

// UpdateOpts holds the fields to patch. Nil fields are left unchanged.
type UpdateOpts struct {
	AgentName *string `json:"agent_name" validate:"omitnil,min=1"`
	IPAddress *string `json:"ip_address" validate:"omitnil,ip"`
	Port      *int    `json:"port" validate:"omitnil,min=1,max=65535"`
}

// Create registers a new agent.
func Create(db *gorm.DB, opts CreateOpts) (*models.Agent, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	a := models.Agent{
		AgentName: opts.AgentName,
		IPAddress: opts.IPAddress,
		Port:      opts.Port,
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("agent: create: %w", store.Translate(err))
	}
	return &a, nil
}

// Get retrieves an agent by ID.
func Get(db *gorm.DB, id string) (*models.Agent, error) {
	var a models.Agent
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agent: %w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("agent: get %s: %w", id, err)
	}
	return &a, nil
}

// List returns all agents, oldest first.
func List(db *gorm.DB) ([]models.Agent, error) {
	var agents []models.Agent
	if err := db.Order("created_at ASC, id ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("agent: list: %w", err)
	}
	return agents, nil
}

// Update patches the supplied fields and returns the stored agent.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Agent, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	updates := map[string]interface{}{}
	if opts.AgentName != nil {
		updates["agent_name"] = *opts.AgentName
	}
	if opts.IPAddress != nil {
		updates["ip_address"] = *opts.IPAddress
	}
	if opts.Port != nil {
		updates["port"] = *opts.Port
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := store.Exists(tx, &models.Agent{}, id)
		if err != nil {
			return fmt.Errorf("agent: get %s for update: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("agent: %w: %s", store.ErrNotFound, id)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Agent{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("agent: update %s: %w", id, store.Translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

// GetOrCreateByName returns the oldest agent named name, registering one if
// none exists.
func GetOrCreateByName(db *gorm.DB, name string) (*models.Agent, error) {
	var a models.Agent
	err := db.Where("agent_name = ?", name).Order("created_at ASC").First(&a).Error
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("agent: find %q: %w", name, err)
	}
	return Create(db, CreateOpts{AgentName: name})
}

// FirstOther returns the oldest agent whose ID is not excludeID, or
// store.ErrNotFound when there is none.
func FirstOther(db *gorm.DB, excludeID string) (*models.Agent, error) {
	var a models.Agent
	if err := db.Where("id <> ?", excludeID).Order("created_at ASC, id ASC").First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agent: %w: no agent other than %s", store.ErrNotFound, excludeID)
		}
		return nil, fmt.Errorf("agent: find other than %s: %w", excludeID, err)
	}
	return &a, nil
}
