package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
)

func ctxWithRequest(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestUserID_Resolution(t *testing.T) {
	c := ctxWithRequest(t, "/x")
	if got := userID(c); got != "demo-user" {
		t.Fatalf("fallback = %q", got)
	}

	c = ctxWithRequest(t, "/x")
	c.Request.Header.Set("X-User-ID", "  header-user  ")
	if got := userID(c); got != "header-user" {
		t.Fatalf("header = %q", got)
	}

	c = ctxWithRequest(t, "/x")
	c.Request.Header.Set("X-User-ID", "header-user")
	c.Set("userID", "ctx-user")
	if got := userID(c); got != "ctx-user" {
		t.Fatalf("context should win, got %q", got)
	}

	c = ctxWithRequest(t, "/x")
	c.Set("userID", "")
	if got := userID(c); got != "demo-user" {
		t.Fatalf("empty context value = %q", got)
	}
}

func TestClampPagination(t *testing.T) {
	cases := []struct {
		query        string
		page, size   int
	}{
		{"/x", 1, 20},
		{"/x?page=3&page_size=50", 3, 50},
		{"/x?page=0&page_size=0", 1, 1},
		{"/x?page=-2&page_size=5000", 1, 100},
		{"/x?page=abc&page_size=xyz", 1, 20},
	}
	for _, tc := range cases {
		c := ctxWithRequest(t, tc.query)
		p, ps := clampPagination(c)
		if p != tc.page || ps != tc.size {
			t.Errorf("%s: got (%d,%d), want (%d,%d)", tc.query, p, ps, tc.page, tc.size)
		}
	}
}

func TestSanitizeContent(t *testing.T) {
	cases := []struct{ in, want string }{
		{"hello", "hello"},
		{"  hello  ", "hello"},
		{"a\r\nb", "a\nb"},
		{"a\n\n\n\n\nb", "a\n\nb"},
		{"\r\n \t ", ""},
	}
	for _, tc := range cases {
		if got := sanitizeContent(tc.in); got != tc.want {
			t.Errorf("sanitizeContent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCatalogETag(t *testing.T) {
	cat := catalog.Default()
	tag := catalogETag(cat)
	if !strings.HasPrefix(tag, `W/"products:6:`) {
		t.Fatalf("etag = %s", tag)
	}
	if tag != catalogETag(cat) {
		t.Fatal("etag should be stable for the same catalog")
	}
}

func TestGetIdempotencyKey(t *testing.T) {
	c := ctxWithRequest(t, "/x")
	if _, ok := getIdempotencyKey(c); ok {
		t.Fatal("no header should yield no key")
	}

	c = ctxWithRequest(t, "/x")
	c.Request.Header.Set("Idempotency-Key", "  abc-123  ")
	key, ok := getIdempotencyKey(c)
	if !ok || key != "abc-123" {
		t.Fatalf("got (%q,%v)", key, ok)
	}
}
