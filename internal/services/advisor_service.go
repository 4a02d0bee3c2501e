// Package services – AdvisorService
//
// This file implements AdvisorService, the application-level component that
// owns advisory conversations end to end. It bridges the in-memory
// conversation controllers (internal/advisor) with durable storage: every
// committed turn is persisted as a user/system message pair together with
// the accumulated intent slots, in one transaction.
//
// Sessions live in an in-process registry keyed by conversation ID and are
// rebuilt from the persisted transcript after a restart, so a conversation
// survives process boundaries without losing its intent or product display.
//
// Optional enhancement: the first user utterance auto-generates a
// conversation title when the stored title is still a placeholder.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include conversation/user identifiers.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/advisor"
	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/domain"
	"github.com/Edmonddmeng/compass-advisor/internal/intent"
	"github.com/Edmonddmeng/compass-advisor/internal/repo"
	"github.com/Edmonddmeng/compass-advisor/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// default titles considered placeholders and eligible for auto-generation
	defaultTitleNew      = "New conversation"
	defaultTitleUntitled = "Untitled"
)

// Turn is the application-level result of one committed advisory turn.
type Turn struct {
	// User is the persisted user message.
	User *domain.Message
	// Reply is the persisted system reply.
	Reply *domain.Message
	// Intent is the accumulated intent after this turn.
	Intent intent.Intent
	// Products is the product set the client should display.
	Products []catalog.Product
}

// AdvisorService coordinates conversation sessions and their persistence.
type AdvisorService struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog

	// ReplyDelay is the simulated response latency applied to each turn.
	ReplyDelay time.Duration

	// Optional guards
	MaxUtteranceRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int

	mu       sync.Mutex
	sessions map[string]*advisor.Conversation
}

// NewAdvisorService constructs an AdvisorService over the given database
// handle and product catalog.
func NewAdvisorService(db *gorm.DB, cat *catalog.Catalog, replyDelay time.Duration) *AdvisorService {
	return &AdvisorService{
		DB:                db,
		Catalog:           cat,
		ReplyDelay:        replyDelay,
		MaxUtteranceRunes: 2000,
		TitleMaxLen:       60,
		sessions:          make(map[string]*advisor.Conversation),
	}
}

// Start creates a new conversation for the user: it persists the
// conversation row and the welcome message atomically, opens the in-memory
// session, and returns both.
func (s *AdvisorService) Start(ctx context.Context, userID string) (*domain.Conversation, *domain.Message, error) {
	tr := otel.Tracer("services/AdvisorService")
	ctx, span := tr.Start(ctx, "Start",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	sess := advisor.New(s.Catalog, advisor.WithReplyDelay(s.ReplyDelay))
	welcome, err := sess.Start()
	if err != nil {
		return nil, nil, err
	}

	var conv *domain.Conversation
	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.CreateConversation(ctx, tx, userID, defaultTitleNew)
		if err != nil {
			return err
		}
		conv = c
		m, err := repo.CreateMessage(tx, welcome.ID, c.ID, welcome.Seq, welcome.Role,
			welcome.Content, nil, productIDs(welcome.Products))
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.sessions[conv.ID] = sess
	s.mu.Unlock()

	return conv, msg, nil
}

// Submit runs one advisory turn: it validates the utterance, feeds it to the
// conversation session, and persists the committed user/system pair plus the
// updated intent slots in one transaction. A reset that lands while the
// reply is still pending discards the turn and returns ErrConversationReset.
func (s *AdvisorService) Submit(ctx context.Context, userID, conversationID, utterance string) (*Turn, error) {
	tr := otel.Tracer("services/AdvisorService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}
	if s.MaxUtteranceRunes > 0 && utf8.RuneCountInString(utterance) > s.MaxUtteranceRunes {
		return nil, ErrUtteranceTooLong
	}

	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		return nil, ErrConversationNotFound
	}

	sess, err := s.session(ctx, conv)
	if err != nil {
		return nil, err
	}

	turn, err := sess.Submit(ctx, utterance)
	if err != nil {
		switch {
		case errors.Is(err, advisor.ErrBusy):
			return nil, ErrConversationBusy
		case errors.Is(err, advisor.ErrResetPending):
			return nil, ErrConversationReset
		case errors.Is(err, advisor.ErrEmptyUtterance):
			return nil, ErrEmptyUtterance
		case errors.Is(err, advisor.ErrNotStarted):
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	// Persist user + system (and maybe update title) in one transaction. If a
	// reset raced in after the turn committed in memory, the session is Idle
	// again and the rows must not land.
	var userMsg, replyMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sess.State() == advisor.StateIdle {
			return ErrConversationReset
		}
		um, err := repo.CreateMessage(tx, turn.User.ID, conv.ID, turn.User.Seq,
			turn.User.Role, turn.User.Content, nil, nil)
		if err != nil {
			return err
		}
		userMsg = um
		rm, err := repo.CreateMessage(tx, turn.Reply.ID, conv.ID, turn.Reply.Seq,
			turn.Reply.Role, turn.Reply.Content, turn.Reply.Score, productIDs(turn.Reply.Products))
		if err != nil {
			return err
		}
		replyMsg = rm

		in := turn.Intent
		if err := repo.UpdateConversationIntent(ctx, tx, conv.ID, userID,
			string(in.PropertyType), string(in.Purpose), string(in.Timeline), in.Location); err != nil {
			return err
		}

		// Auto-title if placeholder
		if s.shouldAutoTitle(conv.Title) {
			if gen := s.generateTitle(utterance); gen != "" {
				gen = s.clipTitle(gen)
				if uerr := tx.Model(&domain.Conversation{}).Where("id = ?", conv.ID).Update("title", gen).Error; uerr == nil {
					conv.Title = gen
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Turn{User: userMsg, Reply: replyMsg, Intent: turn.Intent, Products: turn.Displayed}, nil
}

// Reset discards the conversation's history and intent and reopens it with a
// fresh welcome message. A turn still being processed is cancelled and never
// persisted.
func (s *AdvisorService) Reset(ctx context.Context, userID, conversationID string) (*domain.Message, error) {
	tr := otel.Tracer("services/AdvisorService")
	ctx, span := tr.Start(ctx, "Reset",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		return nil, ErrConversationNotFound
	}

	sess, err := s.session(ctx, conv)
	if err != nil {
		return nil, err
	}

	sess.Reset()
	welcome, err := sess.Start()
	if err != nil {
		return nil, err
	}

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.ResetConversation(ctx, tx, conv.ID, userID); err != nil {
			return err
		}
		m, err := repo.CreateMessage(tx, welcome.ID, conv.ID, welcome.Seq, welcome.Role,
			welcome.Content, nil, productIDs(welcome.Products))
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Displayed returns the product set the client should currently show for
// the conversation: the matched product after a recommendation, the full
// catalog otherwise.
func (s *AdvisorService) Displayed(ctx context.Context, userID, conversationID string) ([]catalog.Product, error) {
	tr := otel.Tracer("services/AdvisorService")
	ctx, span := tr.Start(ctx, "Displayed",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	sess, err := s.session(ctx, conv)
	if err != nil {
		return nil, err
	}
	return sess.Displayed(), nil
}

// Intent returns the accumulated intent for the conversation.
func (s *AdvisorService) Intent(ctx context.Context, userID, conversationID string) (intent.Intent, error) {
	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		return intent.Empty(), ErrConversationNotFound
	}
	return intentFromRow(conv), nil
}

// session returns the live session for a conversation, rebuilding it from
// the persisted transcript when the process has no registry entry yet.
func (s *AdvisorService) session(ctx context.Context, conv *domain.Conversation) (*advisor.Conversation, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[conv.ID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	rows, err := repo.ListMessages(ctx, s.DB, conv.ID)
	if err != nil {
		return nil, err
	}
	msgs := make([]advisor.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, s.toSessionMessage(r))
	}
	sess := advisor.Restore(s.Catalog, msgs, intentFromRow(conv),
		advisor.WithReplyDelay(s.ReplyDelay))

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[conv.ID]; ok {
		return existing, nil
	}
	s.sessions[conv.ID] = sess
	return sess, nil
}

// toSessionMessage converts a persisted row back into a session message,
// resolving product references against the catalog. Unknown product IDs
// (e.g. after a catalog change) are silently dropped.
func (s *AdvisorService) toSessionMessage(r domain.Message) advisor.Message {
	var products []catalog.Product
	for _, id := range r.Products() {
		if p, ok := s.Catalog.Get(id); ok {
			products = append(products, p)
		}
	}
	return advisor.Message{
		ID:        r.ID,
		Seq:       r.Seq,
		Role:      r.Role,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		Score:     r.MatchScore,
		Products:  products,
	}
}

// intentFromRow rebuilds an intent value from the conversation's slot
// columns.
func intentFromRow(conv *domain.Conversation) intent.Intent {
	return intent.Empty().Merge(intent.Intent{
		PropertyType: intent.PropertyType(conv.PropertyType),
		Purpose:      intent.Purpose(conv.Purpose),
		Timeline:     intent.Timeline(conv.Timeline),
		Location:     conv.Location,
	})
}

// productIDs extracts the ID list of a product slice, nil for empty.
func productIDs(products []catalog.Product) []string {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *AdvisorService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultTitleNew) || t == strings.ToLower(defaultTitleUntitled)
}

// titleWordRE tokenizes an utterance into title candidate words.
var titleWordRE = regexp.MustCompile(`[a-z0-9']+`)

// titleStopWords are filler words dropped from generated titles.
var titleStopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "i": {}, "i'm": {}, "im": {}, "my": {},
	"to": {}, "for": {}, "of": {}, "in": {}, "on": {}, "and": {}, "or": {},
	"need": {}, "want": {}, "looking": {}, "like": {}, "would": {}, "get": {},
	"am": {}, "is": {}, "it": {}, "me": {}, "with": {}, "some": {}, "that": {},
}

// generateTitle derives a concise title from the first utterance.
func (s *AdvisorService) generateTitle(utterance string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(utterance), -1)
	if len(toks) == 0 {
		return ""
	}
	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *AdvisorService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	return utils.ClipRunes(title, max)
}

// titleLocaleOrDefault returns the configured locale or English.
func (s *AdvisorService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == (language.Tag{}) {
		return language.English
	}
	return s.TitleLocale
}
