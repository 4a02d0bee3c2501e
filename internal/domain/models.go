// Package domain defines the persistence models for advisor conversations,
// transcript messages, and recommendation feedback. These types are mapped
// with GORM and form the durable data layer of the product advisor; the
// live dialogue state (phase, pending reply) stays in memory in the
// advisor package.
package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Conversation represents an advisor dialogue owned by a borrower. The four
// accumulated intent slots are persisted on the row so a session survives a
// process restart; "unspecified" / empty mean the slot is still unset.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for retrieval.
//   - Title: human-readable title, auto-generated from the first utterance.
//   - PropertyType / Purpose / Timeline / Location: persisted intent slots.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Conversation struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_conversations"`
	Title        string         `json:"title"         gorm:"type:varchar(255);not null;default:'New conversation'"`
	PropertyType string         `json:"property_type" gorm:"type:varchar(32);not null;default:'unspecified'"`
	Purpose      string         `json:"purpose"       gorm:"type:varchar(32);not null;default:'unspecified'"`
	Timeline     string         `json:"timeline"      gorm:"type:varchar(32);not null;default:'unspecified'"`
	Location     string         `json:"location"      gorm:"type:varchar(128);not null;default:''"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message represents a single transcript entry. Messages are append-only:
// rows are never updated after creation and a conversation reset soft-
// deletes them rather than rewriting history.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ConversationID: foreign key to the owning conversation (indexed).
//   - Seq: creation-order sequence within the conversation.
//   - Role: "user" or "system" (enforced by DB constraint).
//   - Content: full text content.
//   - MatchScore: fixed rule confidence, set on recommending system
//     messages only.
//   - ProductIDs: comma-separated matched product ids (system messages).
type Message struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	Seq            int            `json:"seq"             gorm:"not null"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','system')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	MatchScore     *int           `json:"match_score,omitempty"`
	ProductIDs     string         `json:"product_ids,omitempty" gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_conv_msgs,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	// Conversation is the parent dialogue. Messages are cascade-deleted
	// if their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Products splits ProductIDs into a slice, dropping empties.
func (m Message) Products() []string {
	if strings.TrimSpace(m.ProductIDs) == "" {
		return nil
	}
	parts := strings.Split(m.ProductIDs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinProductIDs renders a product id list in the stored form.
func JoinProductIDs(ids []string) string { return strings.Join(ids, ",") }

// Feedback is a borrower rating (+1/-1) on a recommendation message.
// A user can leave at most one rating per message (unique index).
type Feedback struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string         `json:"message_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_message_user"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_feedback_message_user"`
	Value     int            `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Message is the rated recommendation. Feedback is cascade-deleted if
	// the underlying message is removed.
	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }
