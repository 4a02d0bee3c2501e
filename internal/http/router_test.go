package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/config"
	"github.com/Edmonddmeng/compass-advisor/internal/domain"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Conversation{}, &domain.Message{}, &domain.Feedback{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.ReplyDelay = 0
	cfg.RateRPS = 1000
	cfg.RateBurst = 1000

	r := gin.New()
	RegisterRoutes(r, db, catalog.Default(), cfg)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "json") {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func startConversation(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, body := doJSON(t, r, http.MethodPost, "/api/v1/conversations", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d body %s", w.Code, w.Body.String())
	}
	conv, _ := body["conversation"].(map[string]any)
	id, _ := conv["id"].(string)
	if id == "" {
		t.Fatalf("no conversation id in %v", body)
	}
	return id
}

func TestRouter_Health(t *testing.T) {
	r := newTestServer(t)
	w, body := doJSON(t, r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", w.Code, body)
	}
}

func TestRouter_UnknownRouteEnvelope(t *testing.T) {
	r := newTestServer(t)
	w, body := doJSON(t, r, http.MethodGet, "/nope", nil, nil)
	if w.Code != http.StatusNotFound || body["code"] != "not_found" {
		t.Fatalf("got %d %v", w.Code, body)
	}
}

func TestRouter_StartAndCatalog(t *testing.T) {
	r := newTestServer(t)

	id := startConversation(t, r)

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/conversations/"+id+"/products", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("products status = %d", w.Code)
	}
	products, _ := body["products"].([]any)
	if len(products) != 6 {
		t.Fatalf("initial display = %d products, want 6", len(products))
	}

	w, body = doJSON(t, r, http.MethodGet, "/api/v1/products", nil, nil)
	if w.Code != http.StatusOK || body["total"] != float64(6) {
		t.Fatalf("catalog = %d %v", w.Code, body["total"])
	}
}

func TestRouter_FullTurn(t *testing.T) {
	r := newTestServer(t)
	id := startConversation(t, r)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages",
		map[string]string{"content": "I'm looking to flip a house in Miami. Need financing quick."}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("post message = %d body %s", w.Code, w.Body.String())
	}

	msg, _ := body["message"].(map[string]any)
	if msg["match_score"] != float64(95) {
		t.Fatalf("match_score = %v", msg["match_score"])
	}
	if !strings.Contains(msg["content"].(string), "Miami, FL") {
		t.Fatalf("reply content = %v", msg["content"])
	}
	products, _ := body["products"].([]any)
	if len(products) != 1 {
		t.Fatalf("displayed products = %d, want 1", len(products))
	}
	in, _ := body["intent"].(map[string]any)
	if in["purpose"] != "fix-and-flip" {
		t.Fatalf("intent = %v", in)
	}
}

func TestRouter_ClarificationThenTranscript(t *testing.T) {
	r := newTestServer(t)
	id := startConversation(t, r)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages",
		map[string]string{"content": "hello there"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("post = %d", w.Code)
	}
	if msg, _ := body["message"].(map[string]any); msg["match_score"] != nil {
		t.Fatalf("clarification should carry no score: %v", msg["match_score"])
	}

	w, body = doJSON(t, r, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("transcript = %d messages, want 3", len(msgs))
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag on transcript listing")
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil,
		map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
}

func TestRouter_IdempotentReplay(t *testing.T) {
	r := newTestServer(t)
	id := startConversation(t, r)

	hdr := map[string]string{"Idempotency-Key": "turn-1"}
	payload := map[string]string{"content": "an apartment building in Austin"}

	w, first := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages", payload, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	firstMsg, _ := first["message"].(map[string]any)

	w, second := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages", payload, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("replay = %d", w.Code)
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("expected Idempotency-Replayed header")
	}
	secondMsg, _ := second["message"].(map[string]any)
	if firstMsg["id"] != secondMsg["id"] {
		t.Fatalf("replay returned a different message: %v vs %v", firstMsg["id"], secondMsg["id"])
	}
}

func TestRouter_ResetClearsTranscript(t *testing.T) {
	r := newTestServer(t)
	id := startConversation(t, r)

	if w, _ := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages",
		map[string]string{"content": "flip a duplex in Denver"}, nil); w.Code != http.StatusOK {
		t.Fatalf("post = %d", w.Code)
	}

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/reset", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset = %d", w.Code)
	}
	if products, _ := body["products"].([]any); len(products) != 6 {
		t.Fatalf("reset display = %d products, want 6", len(products))
	}

	w, body = doJSON(t, r, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil, nil)
	msgs, _ := body["messages"].([]any)
	if w.Code != http.StatusOK || len(msgs) != 1 {
		t.Fatalf("transcript after reset = %d messages (status %d), want 1", len(msgs), w.Code)
	}
}

func TestRouter_Feedback(t *testing.T) {
	r := newTestServer(t)
	id := startConversation(t, r)

	_, body := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages",
		map[string]string{"content": "ground up construction in Nashville"}, nil)
	msg, _ := body["message"].(map[string]any)
	msgID, _ := msg["id"].(string)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/messages/"+msgID+"/feedback",
		map[string]int{"value": 1}, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("feedback = %d", w.Code)
	}

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/messages/"+msgID+"/feedback",
		map[string]int{"value": -1}, nil)
	if w.Code != http.StatusConflict || out["code"] != "conflict" {
		t.Fatalf("duplicate feedback = %d %v", w.Code, out)
	}

	w, out = doJSON(t, r, http.MethodGet, "/api/v1/messages/"+msgID+"/feedback", nil, nil)
	if w.Code != http.StatusOK || out["positive"] != float64(1) {
		t.Fatalf("counts = %d %v", w.Code, out)
	}
}

func TestRouter_BadInput(t *testing.T) {
	r := newTestServer(t)
	id := startConversation(t, r)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+id+"/messages",
		map[string]string{"content": "   "}, nil)
	if w.Code != http.StatusBadRequest || body["code"] != "bad_request" {
		t.Fatalf("blank content = %d %v", w.Code, body)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/conversations/not-a-uuid/messages",
		map[string]string{"content": "hello"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad uuid = %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+uuid.NewString()+"/messages",
		map[string]string{"content": "hello"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing conversation = %d", w.Code)
	}
}
