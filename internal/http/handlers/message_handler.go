// Message HTTP handlers.
//
// This file exposes REST endpoints for conversation transcripts:
//   - POST /conversations/{id}/messages  (submit an utterance, get the advisor reply)
//   - GET  /conversations/{id}/messages  (list paginated transcript for a conversation)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (including newline and length constraints)
//   - delegate to application services (AdvisorService, MessageService)
//   - implement conditional responses (ETag) and idempotency semantics
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, conversation, key), the handler returns that
// recorded reply and sets `Idempotency-Replayed: true`.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/domain"
	"github.com/Edmonddmeng/compass-advisor/internal/http/middleware"
	"github.com/Edmonddmeng/compass-advisor/internal/intent"
	"github.com/Edmonddmeng/compass-advisor/internal/repo"
	"github.com/Edmonddmeng/compass-advisor/internal/services"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for submitting an utterance.
type PostMessageRequest struct {
	// Content is the user utterance. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"I'm looking to flip a house in Miami, need financing quick"`
}

// PostMessageResponse is the JSON envelope for a completed advisory turn.
type PostMessageResponse struct {
	// Message is the advisor reply created as a result of the request.
	Message *domain.Message `json:"message"`
	// Intent is the accumulated intent after this turn.
	Intent *intent.Intent `json:"intent,omitempty"`
	// Products is the product set the client should display.
	Products []catalog.Product `json:"products,omitempty"`
}

// ListMessagesResponse contains a page of transcript messages and pagination
// metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxUtteranceRunes inspects the concrete AdvisorService for a
// configured utterance-length limit. If unavailable, it returns a
// conservative fallback.
func discoverMaxUtteranceRunes(advSvc AdvisorService) int {
	const fallback = 2000
	if as, ok := advSvc.(*services.AdvisorService); ok {
		if as.MaxUtteranceRunes > 0 {
			return as.MaxUtteranceRunes
		}
	}
	return fallback
}

// getIdempotencyKey reads the Idempotency-Key header if present.
func getIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Submit an utterance and get the advisor reply
// @Description Appends a user message to the conversation, updates the accumulated intent, and returns the advisor reply with the products to display.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID that owns the conversation"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Conversation ID (UUID)"              format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true  "Utterance payload"
//
// @Success     200  {object}  handlers.PostMessageResponse  "Advisor reply"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse        "Conversation not found"
// @Failure     409  {object}  handlers.ErrorResponse        "Reply pending or conversation reset"
// @Failure     500  {object}  handlers.ErrorResponse        "Internal error"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")

	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Content)
	maxRunes := discoverMaxUtteranceRunes(h.advSvc)
	if maxRunes > 0 && utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		return
	}
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read key if present.
	idemKey, _ := getIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.advSvc.(*services.AdvisorService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, conversationID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetMessage(svc.DB, rec.MessageID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					resp := PostMessageResponse{Message: prev}
					if in, err3 := h.advSvc.Intent(ctx, currentUser, conversationID); err3 == nil {
						resp.Intent = &in
					}
					if products, err3 := h.advSvc.Displayed(ctx, currentUser, conversationID); err3 == nil {
						resp.Products = products
					}
					ok(c, http.StatusOK, resp)
					return
				}
			}
		}
	}

	turn, err := h.advSvc.Submit(ctx, currentUser, conversationID, content)
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case services.ErrUtteranceTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		case services.ErrEmptyUtterance:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case services.ErrConversationBusy:
			fail(c, http.StatusConflict, ErrCodeConversationBusy, "a reply is already being generated")
		case services.ErrConversationReset:
			fail(c, http.StatusConflict, ErrCodeConversationReset, "conversation was reset while processing")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReplyFailed, err.Error())
		}
		return
	}

	score := 0
	if turn.Reply.MatchScore != nil {
		score = *turn.Reply.MatchScore
	}
	middleware.ObserveTurn(turn.Reply.MatchScore != nil, score)

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, ok := h.advSvc.(*services.AdvisorService); ok && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, conversationID, idemKey, turn.Reply.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, PostMessageResponse{
		Message:  turn.Reply,
		Intent:   &turn.Intent,
		Products: turn.Products,
	})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a conversation
// @Description Returns the paginated transcript for the given conversation, in append order.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header string  false "User ID (demo header)"    example(user123)
// @Param       id         path   string  true  "Conversation ID (UUID)"   format(uuid)
// @Param       page       query  int     false "Page number"              minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"           minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")

	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.msgSvc.(*services.MessageService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.MessagesStats(ctx, db, conversationID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, conversationID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.msgSvc.ListPage(ctx, userID(c), conversationID, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
