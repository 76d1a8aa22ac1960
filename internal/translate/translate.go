// Package translate provides best-effort text translation. Failures
// never surface: callers always get usable text back, at worst the
// original.
package translate

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	maxInputRunes    = 4500
	maxResponseBytes = 256 * 1024
	clientTimeout    = 20 * time.Second
	memoCapacity     = 512
)

// Translator tries the public Google Translate endpoint first and
// MyMemory second, memoizing results in a fixed-size LRU so repeated
// refresh cycles don't re-translate unchanged items.
type Translator struct {
	client      *http.Client
	googleURL   string
	myMemoryURL string

	mu    sync.Mutex
	memo  map[string]*list.Element
	order *list.List
}

type memoEntry struct {
	key  string
	text string
}

func New() *Translator {
	return &Translator{
		client:      &http.Client{Timeout: clientTimeout},
		googleURL:   "https://translate.googleapis.com/translate_a/single",
		myMemoryURL: "https://api.mymemory.translated.net/get",
		memo:        make(map[string]*list.Element),
		order:       list.New(),
	}
}

// Translate returns text rendered in lang, or text unchanged when both
// backends fail. It never returns an error.
func (t *Translator) Translate(ctx context.Context, text, lang string) string {
	text = strings.TrimSpace(text)
	if text == "" || lang == "" {
		return text
	}
	if rs := []rune(text); len(rs) > maxInputRunes {
		text = string(rs[:maxInputRunes])
	}

	key := lang + "\x00" + text
	if out, ok := t.lookup(key); ok {
		return out
	}

	out := t.viaGoogle(ctx, text, lang)
	if out == "" {
		out = t.viaMyMemory(ctx, text, lang)
	}
	if out == "" {
		out = text
	}
	t.store(key, out)
	return out
}

func (t *Translator) lookup(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.memo[key]
	if !ok {
		return "", false
	}
	t.order.MoveToFront(el)
	return el.Value.(*memoEntry).text, true
}

func (t *Translator) store(key, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if el, ok := t.memo[key]; ok {
		el.Value.(*memoEntry).text = text
		t.order.MoveToFront(el)
		return
	}
	t.memo[key] = t.order.PushFront(&memoEntry{key: key, text: text})
	if t.order.Len() > memoCapacity {
		oldest := t.order.Back()
		t.order.Remove(oldest)
		delete(t.memo, oldest.Value.(*memoEntry).key)
	}
}

// viaGoogle uses the keyless client=gtx endpoint. Response shape:
// [[["translated","original",...],...],...]
func (t *Translator) viaGoogle(ctx context.Context, text, lang string) string {
	apiURL := fmt.Sprintf("%s?client=gtx&sl=auto&tl=%s&dt=t&q=%s",
		t.googleURL, url.QueryEscape(lang), url.QueryEscape(text))
	body, err := t.get(ctx, apiURL)
	if err != nil {
		slog.Debug("translate (google-gtx) failed", "err", err)
		return ""
	}

	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return ""
	}
	outer, ok := raw[0].([]any)
	if !ok {
		return ""
	}
	var result strings.Builder
	for _, seg := range outer {
		pair, ok := seg.([]any)
		if !ok || len(pair) < 1 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			result.WriteString(s)
		}
	}
	return strings.TrimSpace(result.String())
}

func (t *Translator) viaMyMemory(ctx context.Context, text, lang string) string {
	apiURL := fmt.Sprintf("%s?langpair=%s|%s&q=%s",
		t.myMemoryURL, sourceLang(text), url.QueryEscape(lang), url.QueryEscape(text))
	body, err := t.get(ctx, apiURL)
	if err != nil {
		slog.Debug("translate (mymemory) failed", "err", err)
		return ""
	}

	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText)
}

func (t *Translator) get(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// MyMemory needs a concrete source language; feeds here are either
// Latin-script or Russian.
func sourceLang(text string) string {
	for _, r := range text {
		if r >= 0x0400 && r <= 0x04ff {
			return "ru"
		}
	}
	return "en"
}
