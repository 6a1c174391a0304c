package messaging

import (
	"errors"
	"fmt"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/gorm"
)

// MetadataOpts attaches a key/value pair to a message.
type MetadataOpts struct {
	MessageID string  `json:"message_id" validate:"required"`
	Key       string  `json:"key" validate:"required"`
	Value     *string `json:"value"`
}

// MetadataUpdate patches a metadata item.
type MetadataUpdate struct {
	Key   *string `json:"key" validate:"omitnil,min=1"`
	Value *string `json:"value"`
}

// AddMetadata attaches a metadata item to an existing message.
func AddMetadata(db *gorm.DB, opts MetadataOpts) (*models.MessageMetadata, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	md := models.MessageMetadata{MessageID: opts.MessageID, Key: opts.Key, Value: opts.Value}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := store.Require(tx, &models.Message{}, "message", opts.MessageID); err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
		if err := tx.Create(&md).Error; err != nil {
			return fmt.Errorf("messaging: add metadata to %s: %w", opts.MessageID, store.Translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// GetMetadata retrieves a metadata item by ID.
func GetMetadata(db *gorm.DB, id string) (*models.MessageMetadata, error) {
	var md models.MessageMetadata
	if err := db.Where("id = ?", id).First(&md).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("messaging: metadata %w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("messaging: get metadata %s: %w", id, err)
	}
	return &md, nil
}

// UpdateMetadata patches a metadata item.
func UpdateMetadata(db *gorm.DB, id string, opts MetadataUpdate) (*models.MessageMetadata, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	updates := map[string]interface{}{}
	if opts.Key != nil {
		updates["key"] = *opts.Key
	}
	if opts.Value != nil {
		updates["value"] = *opts.Value
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := store.Exists(tx, &models.MessageMetadata{}, id)
		if err != nil {
			return fmt.Errorf("messaging: get metadata %s for update: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("messaging: metadata %w: %s", store.ErrNotFound, id)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.MessageMetadata{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("messaging: update metadata %s: %w", id, store.Translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetMetadata(db, id)
}

// ListMetadata returns a message's metadata items in creation order.
func ListMetadata(db *gorm.DB, messageID string) ([]models.MessageMetadata, error) {
	var items []models.MessageMetadata
	if err := db.Where("message_id = ?", messageID).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("messaging: list metadata for %s: %w", messageID, err)
	}
	return items, nil
}
