// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations             (start a new advisory conversation)
//   - GET    /conversations             (list, paginated, ETag support)
//   - GET    /conversations/{id}        (fetch one conversation)
//   - PUT    /conversations/{id}/title  (rename)
//   - POST   /conversations/{id}/reset  (discard history and start over)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/domain"
	"github.com/Edmonddmeng/compass-advisor/internal/http/middleware"
	"github.com/Edmonddmeng/compass-advisor/internal/intent"
	"github.com/Edmonddmeng/compass-advisor/internal/repo"
	"github.com/Edmonddmeng/compass-advisor/internal/services"
	"github.com/Edmonddmeng/compass-advisor/internal/utils"
)

//
// Service contracts (context-aware)
//

// AdvisorService defines the advisory conversation operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AdvisorService interface {
	// Start opens a new conversation and returns it with the welcome message.
	Start(ctx context.Context, userID string) (*domain.Conversation, *domain.Message, error)
	// Submit runs one advisory turn and returns the committed result.
	Submit(ctx context.Context, userID, conversationID, utterance string) (*services.Turn, error)
	// Reset discards the conversation's history and returns the new welcome.
	Reset(ctx context.Context, userID, conversationID string) (*domain.Message, error)
	// Displayed returns the products the client should currently show.
	Displayed(ctx context.Context, userID, conversationID string) ([]catalog.Product, error)
	// Intent returns the accumulated intent for the conversation.
	Intent(ctx context.Context, userID, conversationID string) (intent.Intent, error)
}

// ConversationService defines conversation metadata operations.
type ConversationService interface {
	// Get fetches a conversation owned by the user.
	Get(ctx context.Context, userID, conversationID string) (*domain.Conversation, error)
	// ListPage returns a page of conversations for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	// UpdateTitle renames a conversation that belongs to userID.
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
}

// MessageService defines transcript retrieval operations.
type MessageService interface {
	// ListPage returns a page of messages within a conversation.
	ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error)
}

// FeedbackService defines operations to capture user feedback on replies.
type FeedbackService interface {
	// Leave submits a feedback value (-1 or 1) for messageID by userID.
	Leave(ctx context.Context, userID, messageID string, value int) error
	// Counts returns the positive/negative tallies for a reply.
	Counts(ctx context.Context, userID, messageID string) (int64, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for conversations, messages, products, and
// feedback. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	advSvc  AdvisorService
	convSvc ConversationService
	msgSvc  MessageService
	fbSvc   FeedbackService
	catalog *catalog.Catalog
}

// New constructs and returns a Handlers instance bound to the given services.
func New(advSvc AdvisorService, convSvc ConversationService, msgSvc MessageService, fbSvc FeedbackService, cat *catalog.Catalog) *Handlers {
	return &Handlers{advSvc: advSvc, convSvc: convSvc, msgSvc: msgSvc, fbSvc: fbSvc, catalog: cat}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// StartConversationResponse is the envelope for a newly started conversation.
type StartConversationResponse struct {
	// Conversation is the created conversation resource.
	Conversation *domain.Conversation `json:"conversation"`
	// Message is the welcome message opening the conversation.
	Message *domain.Message `json:"message"`
	// Products is the full catalog shown until a recommendation is made.
	Products []catalog.Product `json:"products"`
}

// UpdateConversationTitleRequest is the JSON payload for renaming.
type UpdateConversationTitleRequest struct {
	// Title is the new conversation name (1–255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Miami flip financing"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversations and pagination
// information.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// ResetConversationResponse is the envelope returned after a reset.
type ResetConversationResponse struct {
	// Message is the fresh welcome message.
	Message *domain.Message `json:"message"`
	// Products is the full catalog, restored by the reset.
	Products []catalog.Product `json:"products"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// StartConversation godoc
// @ID          startConversation
// @Summary     Start a new conversation
// @Description Opens an advisory conversation for the current user and returns it together with the welcome message and the full product catalog.
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     201  {object}  handlers.StartConversationResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [post]
func (h *Handlers) StartConversation(c *gin.Context) {
	conv, welcome, err := h.advSvc.Start(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, StartConversationResponse{
		Conversation: conv,
		Message:      welcome,
		Products:     h.catalog.Products(),
	})
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the user's conversations. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListConversationsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.convSvc.(*services.ConversationService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ConversationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.convSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Fetch a conversation
// @Description Returns one conversation owned by the current user, including its accumulated intent slots.
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Conversation ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Conversation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	conv, err := h.convSvc.Get(c.Request.Context(), userID(c), conversationID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	ok(c, http.StatusOK, conv)
}

// UpdateConversationTitle godoc
// @ID          updateConversationTitle
// @Summary     Rename a conversation
// @Description Updates the title of a conversation owned by the current user.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Conversation ID (UUID)" format(uuid)
// @Param       body       body    handlers.UpdateConversationTitleRequest  true  "New title"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id}/title [put]
func (h *Handlers) UpdateConversationTitle(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req UpdateConversationTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	if err := h.convSvc.UpdateTitle(c.Request.Context(), userID(c), conversationID, req.Title); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// ResetConversation godoc
// @ID          resetConversation
// @Summary     Reset a conversation
// @Description Discards the transcript and accumulated intent and reopens the conversation with a fresh welcome message. A reply still being generated is cancelled and never delivered.
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Conversation ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.ResetConversationResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/reset [post]
func (h *Handlers) ResetConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	welcome, err := h.advSvc.Reset(c.Request.Context(), userID(c), conversationID)
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeResetFailed, err.Error())
		}
		return
	}
	middleware.ObserveReset()
	ok(c, http.StatusOK, ResetConversationResponse{
		Message:  welcome,
		Products: h.catalog.Products(),
	})
}
