// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only CRUD persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new conversation row for the given user with
// all intent slots unset.
func CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        title,
		PropertyType: "unspecified",
		Purpose:      "unspecified",
		Timeline:     "unspecified",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return c, db.WithContext(ctx).Create(c).Error
}

// GetConversation fetches a conversation by ID, enforcing user ownership.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountConversations returns the number of conversations owned by the user.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ConversationsStats returns the conversation count and the latest update
// timestamp for a user, used to build ETag values for list responses.
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	var total int64
	if err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}
	if total == 0 {
		return 0, nil, nil
	}
	var latest time.Time
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Select("MAX(updated_at)").
		Scan(&latest).Error
	if err != nil {
		return total, nil, err
	}
	return total, &latest, nil
}

// ListConversationsPage returns a page of the user's conversations, newest
// first.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateConversationTitle updates the title, enforcing user ownership.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateConversationIntent persists the accumulated intent slots.
func UpdateConversationIntent(ctx context.Context, db *gorm.DB, id, userID string, propertyType, purpose, timeline, location string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"property_type": propertyType,
			"purpose":       purpose,
			"timeline":      timeline,
			"location":      location,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetConversation soft-deletes the transcript and clears the persisted
// intent slots in one transaction. The conversation row itself survives.
func ResetConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := GetConversation(ctx, tx, id, userID); err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).
			Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"property_type": "unspecified",
				"purpose":       "unspecified",
				"timeline":      "unspecified",
				"location":      "",
			}).Error
	})
}
