// Package services – MessageService
//
// Read-side companion to AdvisorService: paginated transcript listing and
// the lightweight stats used for HTTP cache validation.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/domain"
	"github.com/Edmonddmeng/compass-advisor/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MessageService exposes transcript queries.
type MessageService struct {
	DB *gorm.DB
}

// ListPage returns paginated messages for a conversation owned by userID,
// in append order.
func (s *MessageService) ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), conversationID, offset, pageSize)
	return items, total, err
}

// Stats returns the message count and latest timestamp for a conversation,
// used to build ETag values for the transcript listing.
func (s *MessageService) Stats(ctx context.Context, userID, conversationID string) (int64, *time.Time, error) {
	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, ErrConversationNotFound
		}
		return 0, nil, err
	}
	return repo.MessagesStats(ctx, s.DB, conversationID)
}
