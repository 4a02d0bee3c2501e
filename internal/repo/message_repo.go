// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/domain"
)

// CreateMessage inserts a transcript row. The caller supplies the id and
// seq so persisted rows match the in-memory conversation exactly.
func CreateMessage(db *gorm.DB, id string, conversationID string, seq int, role, content string, matchScore *int, productIDs []string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             id,
		ConversationID: conversationID,
		Seq:            seq,
		Role:           role,
		Content:        content,
		MatchScore:     matchScore,
		ProductIDs:     domain.JoinProductIDs(productIDs),
		CreatedAt:      time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListMessages returns the full transcript in deterministic order
// (seq ASC, id ASC).
func ListMessages(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB, conversationID string) (int64, error) {
	var total int64
	err := db.Raw(
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND deleted_at IS NULL",
		conversationID,
	).Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated transcript slice (seq ASC, id ASC).
func ListMessagesPage(db *gorm.DB, conversationID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("conversation_id = ?", conversationID).
		Order("seq ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MessagesStats returns the row count and latest creation time for a
// conversation's transcript, used for ETag generation.
func MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (int64, *time.Time, error) {
	var total int64
	if err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}
	if total == 0 {
		return 0, nil, nil
	}
	var maxTS time.Time
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Select("MAX(created_at)").
		Scan(&maxTS).Error
	if err != nil {
		return total, nil, err
	}
	return total, &maxTS, nil
}
