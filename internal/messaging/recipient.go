package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"gorm.io/gorm"
)

// RecipientOpts addresses a message to an agent.
type RecipientOpts struct {
	MessageID   string     `json:"message_id" validate:"required"`
	RecipientID string     `json:"recipient_id" validate:"required"`
	IsRead      *bool      `json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`
}

// RecipientUpdate patches a read receipt.
type RecipientUpdate struct {
	IsRead *bool      `json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

// AddRecipient creates the read receipt for (message, recipient). Both must
// exist and the pair must be new, otherwise store.ErrConflict is returned.
// A receipt created as read without read_at is stamped with the current time.
func AddRecipient(db *gorm.DB, opts RecipientOpts) (*models.MessageRecipient, error) {
	if err := store.Validate(opts); err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}

	read := opts.IsRead != nil && *opts.IsRead
	r := models.MessageRecipient{
		MessageID:   opts.MessageID,
		RecipientID: opts.RecipientID,
		IsRead:      &read,
	}
	if read {
		r.ReadAt = utcPtr(opts.ReadAt)
		if r.ReadAt == nil {
			now := db.NowFunc()
			r.ReadAt = &now
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := store.Require(tx, &models.Message{}, "message", opts.MessageID); err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
		if err := store.Require(tx, &models.Agent{}, "recipient agent", opts.RecipientID); err != nil {
			return fmt.Errorf("messaging: %w", err)
		}
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("messaging: add recipient %s to %s: %w", opts.RecipientID, opts.MessageID, store.Translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipient retrieves a read receipt by its composite key.
func GetRecipient(db *gorm.DB, key models.RecipientKey) (*models.MessageRecipient, error) {
	var r models.MessageRecipient
	err := db.Where("message_id = ? AND recipient_id = ?", key.MessageID, key.RecipientID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("messaging: recipient %w: %s/%s", store.ErrNotFound, key.MessageID, key.RecipientID)
		}
		return nil, fmt.Errorf("messaging: get recipient %s/%s: %w", key.MessageID, key.RecipientID, err)
	}
	return &r, nil
}

// UpdateRecipient patches a read receipt. Marking it read without a read_at
// keeps an existing read_at or stamps the current time; marking it unread
// clears read_at.
func UpdateRecipient(db *gorm.DB, key models.RecipientKey, opts RecipientUpdate) (*models.MessageRecipient, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		cur, err := GetRecipient(tx, key)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if opts.ReadAt != nil {
			updates["read_at"] = opts.ReadAt.UTC()
		}
		if opts.IsRead != nil {
			updates["is_read"] = *opts.IsRead
			switch {
			case !*opts.IsRead:
				updates["read_at"] = nil
			case opts.ReadAt == nil && cur.ReadAt == nil:
				updates["read_at"] = tx.NowFunc()
			}
		}
		if len(updates) == 0 {
			return nil
		}

		res := tx.Model(&models.MessageRecipient{}).
			Where("message_id = ? AND recipient_id = ?", key.MessageID, key.RecipientID).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("messaging: update recipient %s/%s: %w", key.MessageID, key.RecipientID, store.Translate(res.Error))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetRecipient(db, key)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
