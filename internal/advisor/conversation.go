// Package advisor implements the conversation controller for the product
// advisor. A Conversation owns the transcript, the accumulated intent, and
// the phase of the dialogue, and drives each turn through the pipeline:
// extract intent, match against the catalog, explain the match.
//
// State machine: Idle → (Start) → AwaitingInput → (Submit) → Processing →
// AwaitingInput. Reset returns to Idle from any state and invalidates a
// pending reply, so a late reply can never land in a cleared transcript.
//
// The reply delay simulates the think time of the original product: a turn
// commits only after the configured delay elapses. At most one turn is
// outstanding per conversation; Submit while Processing is rejected.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/intent"
	"github.com/Edmonddmeng/compass-advisor/internal/match"
)

// Message author roles.
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// State is the conversation phase.
type State int

const (
	// StateIdle: no conversation started (or it was reset).
	StateIdle State = iota
	// StateAwaitingInput: the last turn was a system message.
	StateAwaitingInput
	// StateProcessing: a user turn is submitted and the reply is pending.
	StateProcessing
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controller errors.
var (
	// ErrNotStarted is returned by Submit before Start (or after Reset).
	ErrNotStarted = errors.New("conversation not started")
	// ErrAlreadyStarted is returned by Start on an open conversation.
	ErrAlreadyStarted = errors.New("conversation already started")
	// ErrEmptyUtterance rejects empty or whitespace-only input.
	ErrEmptyUtterance = errors.New("utterance is empty")
	// ErrBusy rejects a Submit while a reply is still pending.
	ErrBusy = errors.New("a reply is already pending")
	// ErrResetPending reports that Reset invalidated the pending turn.
	ErrResetPending = errors.New("conversation was reset while processing")
)

// WelcomeText is the fixed system greeting appended by Start.
const WelcomeText = "Hi! I can help you find the right financing. Tell me about " +
	"the deal you're working on — the kind of property, what you plan to do " +
	"with it, your timeline, and where it is."

// Message is one transcript entry. Messages are immutable once appended and
// strictly ordered by Seq.
type Message struct {
	// ID is a unique message identifier.
	ID string `json:"id"`
	// Seq is the creation-order sequence number within the conversation.
	Seq int `json:"seq"`
	// Role is RoleUser or RoleSystem.
	Role string `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// CreatedAt is the append timestamp.
	CreatedAt time.Time `json:"created_at"`
	// Score is the match score, set on recommending system messages only.
	Score *int `json:"score,omitempty"`
	// Products are the matched products attached to a system message.
	Products []catalog.Product `json:"products,omitempty"`
}

// Turn is the result of one completed Submit.
type Turn struct {
	// User is the appended user message.
	User Message
	// Reply is the appended system message.
	Reply Message
	// Intent is the accumulated intent after this turn.
	Intent intent.Intent
	// Outcome is the matcher outcome that produced the reply.
	Outcome match.Outcome
	// Displayed is the product set the presentation layer should show.
	Displayed []catalog.Product
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithReplyDelay sets the simulated response latency. Zero (the default in
// tests) commits replies immediately.
func WithReplyDelay(d time.Duration) Option {
	return func(c *Conversation) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithClock overrides the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// Conversation is the stateful controller. Safe for concurrent use; there
// is one writer path at a time, enforced by the mutex plus the Processing
// state.
type Conversation struct {
	mu        sync.Mutex
	state     State
	epoch     uint64
	seq       int
	messages  []Message
	current   intent.Intent
	displayed []catalog.Product
	pending   chan struct{} // closed by Reset to cancel the in-flight turn

	cat   *catalog.Catalog
	delay time.Duration
	now   func() time.Time
}

// New builds an idle conversation over the given catalog.
func New(cat *catalog.Catalog, opts ...Option) *Conversation {
	c := &Conversation{
		cat:     cat,
		current: intent.Empty(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore rebuilds an open conversation from a persisted transcript and
// intent, e.g. after a process restart. The transcript is trusted as-is;
// the state becomes AwaitingInput and the displayed set is recovered from
// the last system message carrying products (full catalog otherwise).
func Restore(cat *catalog.Catalog, msgs []Message, in intent.Intent, opts ...Option) *Conversation {
	c := New(cat, opts...)
	c.state = StateAwaitingInput
	c.messages = append(c.messages, msgs...)
	c.current = in.Merge(intent.Empty())
	c.seq = len(msgs)
	c.displayed = cat.Products()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleSystem && len(msgs[i].Products) > 0 {
			c.displayed = append([]catalog.Product(nil), msgs[i].Products...)
			break
		}
	}
	return c
}

// Start opens the conversation: Idle → AwaitingInput. It resets the intent,
// shows the full catalog, and appends the welcome message.
func (c *Conversation) Start() (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return Message{}, ErrAlreadyStarted
	}
	c.state = StateAwaitingInput
	c.current = intent.Empty()
	c.displayed = c.cat.Products()
	welcome := c.append(RoleSystem, WelcomeText, nil, nil)
	return welcome, nil
}

// Submit runs one turn. It appends the user message immediately, moves to
// Processing, and commits the system reply after the configured delay —
// unless Reset invalidates the turn first, in which case the reply is
// discarded and ErrResetPending is returned.
//
// Empty or whitespace-only utterances are rejected before any state change.
func (c *Conversation) Submit(ctx context.Context, utterance string) (*Turn, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, ErrEmptyUtterance
	}

	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return nil, ErrNotStarted
	case StateProcessing:
		c.mu.Unlock()
		return nil, ErrBusy
	}

	userMsg := c.append(RoleUser, strings.TrimSpace(utterance), nil, nil)
	c.state = StateProcessing
	c.pending = make(chan struct{})
	cancelled := c.pending
	epoch := c.epoch

	// The pipeline is pure; run it up front and commit after the delay.
	next := intent.Extract(utterance, c.current)
	outcome := match.Match(next, utterance, c.cat)
	c.mu.Unlock()

	if err := c.wait(ctx, cancelled); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch == epoch {
			// Caller abandoned the turn; reopen the conversation.
			c.state = StateAwaitingInput
			c.pending = nil
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// Reset won the race; the stale reply must not be appended.
		return nil, ErrResetPending
	}

	c.current = next
	var reply Message
	if outcome.Matched() {
		c.displayed = []catalog.Product{*outcome.Product}
		score := outcome.Score
		reply = c.append(RoleSystem, recommendationText(outcome), &score, c.displayed)
	} else {
		// Clarification keeps the full catalog on display.
		c.displayed = c.cat.Products()
		reply = c.append(RoleSystem, clarificationText(outcome.MissingSlots), nil, nil)
	}
	c.state = StateAwaitingInput
	c.pending = nil

	return &Turn{
		User:      userMsg,
		Reply:     reply,
		Intent:    c.current,
		Outcome:   outcome,
		Displayed: append([]catalog.Product(nil), c.displayed...),
	}, nil
}

// Reset clears the transcript, intent, and displayed products from any
// state and cancels a pending reply.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	if c.pending != nil {
		close(c.pending)
		c.pending = nil
	}
	c.state = StateIdle
	c.seq = 0
	c.messages = nil
	c.current = intent.Empty()
	c.displayed = nil
}

// State returns the current phase.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the transcript in append order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Intent returns the accumulated intent.
func (c *Conversation) Intent() intent.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Displayed returns the product set the UI should currently show.
func (c *Conversation) Displayed() []catalog.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.Product(nil), c.displayed...)
}

// append creates and stores the next message. Callers must hold c.mu.
func (c *Conversation) append(role, content string, score *int, products []catalog.Product) Message {
	c.seq++
	m := Message{
		ID:        uuid.NewString(),
		Seq:       c.seq,
		Role:      role,
		Content:   content,
		CreatedAt: c.now().UTC(),
		Score:     score,
	}
	if len(products) > 0 {
		m.Products = append([]catalog.Product(nil), products...)
	}
	c.messages = append(c.messages, m)
	return m
}

// wait blocks for the reply delay, the caller's context, or cancellation
// by Reset, whichever comes first.
func (c *Conversation) wait(ctx context.Context, cancelled <-chan struct{}) error {
	if c.delay <= 0 {
		select {
		case <-cancelled:
			return ErrResetPending
		default:
			return nil
		}
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-cancelled:
		return ErrResetPending
	}
}

// slotPrompts phrases each missing slot for the clarification question, in
// the same fixed order as intent.MissingSlots.
var slotPrompts = map[string]string{
	intent.SlotPropertyType: "what kind of property it is",
	intent.SlotPurpose:      "what you plan to do with it",
	intent.SlotTimeline:     "how quickly you need to close",
	intent.SlotLocation:     "where the property is located",
}

// clarificationText builds the follow-up question for the missing slots.
func clarificationText(missing []string) string {
	prompts := make([]string, 0, len(missing))
	for _, slot := range missing {
		if p, ok := slotPrompts[slot]; ok {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return "Could you tell me a bit more about the deal you have in mind?"
	}
	return "Happy to help you narrow it down. Could you tell me " +
		joinNatural(prompts) + "?"
}

// recommendationText builds the system reply for a matched product.
func recommendationText(o match.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on what you've told me, %s looks like a strong fit (%d%% match).",
		o.Product.Name, o.Score)
	for _, r := range o.Reasons {
		b.WriteString("\n• ")
		b.WriteString(r)
	}
	return b.String()
}

// joinNatural joins items as "a", "a and b", or "a, b, and c".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
