// Package services – FeedbackService
//
// This file implements the FeedbackService, which governs how users rate
// advisor replies (-1 or +1). It enforces the business rules (message
// existence, conversation ownership, system-reply-only restriction,
// uniqueness) and persists feedback atomically. Service-level sentinel
// errors are returned for predictable cases so handlers can map them to
// HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/advisor"
	"github.com/Edmonddmeng/compass-advisor/internal/repo"
)

// FeedbackService implements the use-cases around reply feedback. It is
// context-aware and opens its own transaction per call.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
}

// Leave records a feedback value for messageID on behalf of userID.
//
// Semantics and validation:
//   - value must be exactly -1 or 1; otherwise ErrInvalidFeedback.
//   - messageID must exist; otherwise ErrMessageNotFound.
//   - The message must belong to a conversation owned by userID and must be
//     a system reply; otherwise ErrForbiddenFeedback.
//   - At most one feedback per (message, user); repeats yield
//     ErrDuplicateFeedback.
//
// The existence/ownership checks and the insert run in one transaction.
func (s *FeedbackService) Leave(ctx context.Context, userID, messageID string, value int) error {
	if value != -1 && value != 1 {
		return ErrInvalidFeedback
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := repo.GetMessage(tx, messageID)
		if err != nil {
			if isNotFound(err) {
				return ErrMessageNotFound
			}
			return err
		}

		// Ownership check: the conversation must belong to this user.
		if _, err := repo.GetConversation(ctx, tx, msg.ConversationID, userID); err != nil {
			return ErrForbiddenFeedback
		}

		// Only advisor replies can be rated.
		if msg.Role != advisor.RoleSystem {
			return ErrForbiddenFeedback
		}

		if _, err := repo.CreateFeedback(tx, messageID, userID, value); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrDuplicateFeedback
			}
			return err
		}
		return nil
	})
}

// Counts returns the positive/negative feedback tallies for a reply owned by
// the user.
func (s *FeedbackService) Counts(ctx context.Context, userID, messageID string) (positive, negative int64, err error) {
	msg, err := repo.GetMessage(s.DB.WithContext(ctx), messageID)
	if err != nil {
		if isNotFound(err) {
			return 0, 0, ErrMessageNotFound
		}
		return 0, 0, err
	}
	if _, err := repo.GetConversation(ctx, s.DB, msg.ConversationID, userID); err != nil {
		return 0, 0, ErrForbiddenFeedback
	}
	return repo.CountFeedback(s.DB.WithContext(ctx), messageID)
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
