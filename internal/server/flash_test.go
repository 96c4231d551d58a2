package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func roundTrip(t *testing.T, set, get *FlashCodec, f Flash) *Flash {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := set.Set(rec, f); err != nil {
		t.Fatalf("Set: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return get.Pop(httptest.NewRecorder(), req)
}

func TestFlash_RoundTrip(t *testing.T) {
	c, err := NewFlashCodec("secret")
	if err != nil {
		t.Fatal(err)
	}

	got := roundTrip(t, c, c, Flash{Category: "error", Message: "Please provide a valid URL"})
	if got == nil || got.Message != "Please provide a valid URL" || got.Category != "error" {
		t.Errorf("unexpected flash %+v", got)
	}
}

func TestFlash_WrongKey(t *testing.T) {
	a, _ := NewFlashCodec("one")
	b, _ := NewFlashCodec("two")

	if got := roundTrip(t, a, b, Flash{Message: "hi"}); got != nil {
		t.Errorf("expected tampered cookie to be ignored, got %+v", got)
	}
}

func TestFlash_Expired(t *testing.T) {
	c, _ := NewFlashCodec("secret")
	start := time.Now()
	c.now = func() time.Time { return start }

	rec := httptest.NewRecorder()
	if err := c.Set(rec, Flash{Message: "old"}); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return start.Add(2 * flashTTL) }
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	if got := c.Pop(httptest.NewRecorder(), req); got != nil {
		t.Errorf("expected expired flash to be ignored, got %+v", got)
	}
}

func TestFlash_PopClearsCookie(t *testing.T) {
	c, _ := NewFlashCodec("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: "garbage"})
	rec := httptest.NewRecorder()

	if got := c.Pop(rec, req); got != nil {
		t.Errorf("expected nil for garbage cookie, got %+v", got)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected cookie to be cleared, got %+v", cookies)
	}

	if got := c.Pop(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Error("expected nil without cookie")
	}
}
