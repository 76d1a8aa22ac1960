package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testTranslator(googleURL, myMemoryURL string) *Translator {
	tr := New()
	tr.googleURL = googleURL
	tr.myMemoryURL = myMemoryURL
	return tr
}

func TestTranslateViaGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[["Привет, ","Hello, ",null],["мир","world",null]],null,"en"]`)
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL, "http://127.0.0.1:0")
	got := tr.Translate(context.Background(), "Hello, world", "ru")
	if got != "Привет, мир" {
		t.Errorf("expected joined segments, got %q", got)
	}
}

func TestTranslateFallsBackToMyMemory(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer google.Close()
	mymem := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"responseData":{"translatedText":"Привет"}}`)
	}))
	defer mymem.Close()

	tr := testTranslator(google.URL, mymem.URL)
	got := tr.Translate(context.Background(), "Hello", "ru")
	if got != "Привет" {
		t.Errorf("expected MyMemory fallback, got %q", got)
	}
}

func TestTranslateReturnsOriginalOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL, srv.URL)
	got := tr.Translate(context.Background(), "Hello, world", "ru")
	if got != "Hello, world" {
		t.Errorf("expected original text back, got %q", got)
	}
}

func TestTranslateEmptyAndNoLang(t *testing.T) {
	tr := testTranslator("http://127.0.0.1:0", "http://127.0.0.1:0")
	if got := tr.Translate(context.Background(), "", "ru"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
	if got := tr.Translate(context.Background(), "text", ""); got != "text" {
		t.Errorf("expected passthrough without target lang, got %q", got)
	}
}

func TestTranslateMemoized(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `[[["привет","hello",null]]]`)
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL, "http://127.0.0.1:0")
	ctx := context.Background()
	tr.Translate(ctx, "hello", "ru")
	tr.Translate(ctx, "hello", "ru")
	if n := requests.Load(); n != 1 {
		t.Errorf("expected 1 backend call, got %d", n)
	}

	// A different target language is a different memo entry.
	tr.Translate(ctx, "hello", "de")
	if n := requests.Load(); n != 2 {
		t.Errorf("expected 2 backend calls across languages, got %d", n)
	}
}

func TestMemoEvictsOldest(t *testing.T) {
	tr := testTranslator("http://127.0.0.1:0", "http://127.0.0.1:0")
	for i := 0; i <= memoCapacity; i++ {
		tr.store(fmt.Sprintf("key-%d", i), "v")
	}
	if tr.order.Len() != memoCapacity {
		t.Errorf("expected memo bounded at %d, got %d", memoCapacity, tr.order.Len())
	}
	if _, ok := tr.memo["key-0"]; ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := tr.memo[fmt.Sprintf("key-%d", memoCapacity)]; !ok {
		t.Error("expected newest entry retained")
	}
}

func TestSourceLang(t *testing.T) {
	if got := sourceLang("привет"); got != "ru" {
		t.Errorf("expected ru for Cyrillic text, got %q", got)
	}
	if got := sourceLang("hello"); got != "en" {
		t.Errorf("expected en for Latin text, got %q", got)
	}
}
