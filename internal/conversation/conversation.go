// Package conversation stores conversations and derives their aggregates.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a conversation.
type CreateOpts struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Archived    bool           `json:"archived"`
	Metadata    datatypes.JSON `json:"metadata"`
}

// UpdateOpts holds the fields to patch. Nil fields are left unchanged.
type UpdateOpts struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Archived    *bool           `json:"archived"`
	Metadata    *datatypes.JSON `json:"metadata"`
}

// Create stores a new conversation.
func Create(db *gorm.DB, opts CreateOpts) (*models.Conversation, error) {
	if err := checkJSON(opts.Metadata); err != nil {
		return nil, err
	}
	c := models.Conversation{
		Title:       opts.Title,
		Description: opts.Description,
		Archived:    opts.Archived,
		Metadata:    opts.Metadata,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("conversation: create: %w", store.Translate(err))
	}
	return &c, nil
}

// Get retrieves a conversation by ID.
func Get(db *gorm.DB, id string) (*models.Conversation, error) {
	var c models.Conversation
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation: %w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("conversation: get %s: %w", id, err)
	}
	return &c, nil
}

// List returns all conversations, newest first.
func List(db *gorm.DB) ([]models.Conversation, error) {
	var out []models.Conversation
	if err := db.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("conversation: list: %w", err)
	}
	return out, nil
}

// FindByTitle returns the oldest conversation with the given title, or nil
// when there is none.
func FindByTitle(db *gorm.DB, title string) (*models.Conversation, error) {
	var c models.Conversation
	err := db.Where("title = ?", title).Order("created_at ASC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: find %q: %w", title, err)
	}
	return &c, nil
}

// Update patches the supplied fields and returns the stored conversation.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Conversation, error) {
	if opts.Metadata != nil {
		if err := checkJSON(*opts.Metadata); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	if opts.Title != nil {
		updates["title"] = *opts.Title
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	if opts.Archived != nil {
		updates["archived"] = *opts.Archived
	}
	if opts.Metadata != nil {
		updates["metadata"] = *opts.Metadata
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := store.Exists(tx, &models.Conversation{}, id)
		if err != nil {
			return fmt.Errorf("conversation: get %s for update: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("conversation: %w: %s", store.ErrNotFound, id)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Conversation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("conversation: update %s: %w", id, store.Translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

func checkJSON(raw datatypes.JSON) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("conversation: %w: metadata must be a JSON object", store.ErrInvalid)
	}
	return nil
}
