package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/domain"
	"github.com/Edmonddmeng/compass-advisor/internal/repo"
)

// gormConversationRepo adapts the free-function repo to ConversationRepo.
type gormConversationRepo struct{}

func (gormConversationRepo) GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id, userID)
}

func (gormConversationRepo) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateConversationTitle(ctx, db, id, userID, title)
}

func (gormConversationRepo) CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (gormConversationRepo) ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, userID, offset, limit)
}

func newConvService(t *testing.T) (*ConversationService, *AdvisorService) {
	t.Helper()
	db := newTestDB(t)
	return NewConversationService(db, gormConversationRepo{}), NewAdvisorService(db, catalog.Default(), 0)
}

func TestConversation_ListPage(t *testing.T) {
	svc, adv := newConvService(t)

	for i := 0; i < 3; i++ {
		if _, _, err := adv.Start(context.Background(), "u1"); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
	}
	if _, _, err := adv.Start(context.Background(), "u2"); err != nil {
		t.Fatalf("Start other user: %v", err)
	}

	items, total, err := svc.ListPage(context.Background(), "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("page 1 = %d items, total %d", len(items), total)
	}

	items, total, err = svc.ListPage(context.Background(), "u1", 2, 2)
	if err != nil || total != 3 || len(items) != 1 {
		t.Fatalf("page 2 = %d items, total %d (err %v)", len(items), total, err)
	}

	// Defaults kick in for nonsense pagination values.
	items, _, err = svc.ListPage(context.Background(), "u1", -1, 0)
	if err != nil || len(items) != 3 {
		t.Fatalf("defaulted page = %d items (err %v)", len(items), err)
	}

	items, total, err = svc.ListPage(context.Background(), "nobody", 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty user = %d items, total %d (err %v)", len(items), total, err)
	}
}

func TestConversation_UpdateTitle(t *testing.T) {
	svc, adv := newConvService(t)

	conv, _, err := adv.Start(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := svc.UpdateTitle(context.Background(), "u1", conv.ID, "  Miami   flip  "); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	got, err := svc.Get(context.Background(), "u1", conv.ID)
	if err != nil || got.Title != "Miami flip" {
		t.Fatalf("title = %q (err %v)", got.Title, err)
	}

	// Blank titles fall back to a placeholder.
	if err := svc.UpdateTitle(context.Background(), "u1", conv.ID, "   "); err != nil {
		t.Fatalf("UpdateTitle blank: %v", err)
	}
	got, _ = svc.Get(context.Background(), "u1", conv.ID)
	if got.Title != "Untitled" {
		t.Fatalf("title = %q, want Untitled", got.Title)
	}

	// Long titles are clipped.
	long := ""
	for i := 0; i < 20; i++ {
		long += fmt.Sprintf("word%d ", i)
	}
	if err := svc.UpdateTitle(context.Background(), "u1", conv.ID, long); err != nil {
		t.Fatalf("UpdateTitle long: %v", err)
	}
	got, _ = svc.Get(context.Background(), "u1", conv.ID)
	if len([]rune(got.Title)) > svc.TitleMaxLen {
		t.Fatalf("title not clipped: %q", got.Title)
	}

	if err := svc.UpdateTitle(context.Background(), "u1", "missing", "x"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("missing: %v", err)
	}
	if err := svc.UpdateTitle(context.Background(), "intruder", conv.ID, "x"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("foreign: %v", err)
	}
}

func TestConversation_Get_NotFound(t *testing.T) {
	svc, _ := newConvService(t)
	if _, err := svc.Get(context.Background(), "u1", "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}
