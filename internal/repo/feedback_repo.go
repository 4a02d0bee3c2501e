// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback
// model.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/domain"
)

// CreateFeedback inserts a feedback row for a recommendation message.
func CreateFeedback(db *gorm.DB, messageID, userID string, value int) (*domain.Feedback, error) {
	fb := &domain.Feedback{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	return fb, db.Create(fb).Error
}

// CountFeedback returns the number of feedback rows for a message, split by
// positive and negative value.
func CountFeedback(db *gorm.DB, messageID string) (positive, negative int64, err error) {
	if err = db.Model(&domain.Feedback{}).
		Where("message_id = ? AND value = 1", messageID).
		Count(&positive).Error; err != nil {
		return
	}
	err = db.Model(&domain.Feedback{}).
		Where("message_id = ? AND value = -1", messageID).
		Count(&negative).Error
	return
}
