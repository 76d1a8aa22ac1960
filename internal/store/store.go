// Package store owns the aggregated item collection: the merged,
// deduplicated item list, its search index, and the TTL-gated refresh
// that rebuilds both.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/Nixter77/news-agregator/internal/config"
	"github.com/Nixter77/news-agregator/internal/news"
	"github.com/Nixter77/news-agregator/internal/search"
)

var (
	ErrNoSources        = errors.New("no sources configured")
	ErrAllSourcesFailed = errors.New("all sources failed")
)

// Fetcher retrieves the raw payload for one feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Translator renders text in the target language, best-effort.
type Translator interface {
	Translate(ctx context.Context, text, lang string) string
}

// snapshot is the unit of replacement: items, id lookup, index and
// timestamp always swap together, so readers never see a half-built
// state. The index's query memo is dropped with it on every rebuild.
type snapshot struct {
	items []news.Item
	byID  map[string]news.Item
	index *search.Index
	stamp time.Time
}

// Store is the process-wide news cache. One refresh runs at a time;
// concurrent readers keep getting the previous snapshot until the new
// one is swapped in.
type Store struct {
	cfg        *config.Config
	fetcher    Fetcher
	translator Translator // optional

	refreshMu sync.Mutex

	mu   sync.RWMutex
	snap *snapshot
}

// New creates a Store. translator may be nil; it is only consulted
// when the config sets a target language.
func New(cfg *config.Config, fetcher Fetcher, translator Translator) *Store {
	return &Store{cfg: cfg, fetcher: fetcher, translator: translator}
}

func (s *Store) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) stale() bool {
	snap := s.current()
	if snap == nil {
		return true
	}
	ttl := s.cfg.TTL()
	if ttl <= 0 {
		return true
	}
	return time.Since(snap.stamp) >= ttl
}

// Items returns the cached item list, refreshing first when the
// snapshot is stale or missing. A refresh that fails wholesale after a
// prior success degrades to the previous snapshot.
func (s *Store) Items(ctx context.Context) ([]news.Item, error) {
	if s.stale() {
		if err := s.refresh(ctx, false); err != nil {
			return nil, err
		}
	}
	snap := s.current()
	if snap == nil {
		return nil, nil
	}
	return snap.items, nil
}

// Refresh re-runs the whole pipeline regardless of TTL.
func (s *Store) Refresh(ctx context.Context) error {
	return s.refresh(ctx, true)
}

// LastRefresh reports when the current snapshot was built; zero when
// nothing has been fetched yet.
func (s *Store) LastRefresh() time.Time {
	snap := s.current()
	if snap == nil {
		return time.Time{}
	}
	return snap.stamp
}

// ItemByID looks an item up in the current snapshot.
func (s *Store) ItemByID(id string) (news.Item, bool) {
	snap := s.current()
	if snap == nil {
		return news.Item{}, false
	}
	it, ok := snap.byID[id]
	return it, ok
}

// Search filters the current snapshot conjunctively: every query term
// must match via at least one of its script variants. It never
// triggers a refresh; an empty query returns all items in order.
func (s *Store) Search(query string) []news.Item {
	snap := s.current()
	if snap == nil {
		return nil
	}
	positions := snap.index.Search(search.QueryGroups(query))
	out := make([]news.Item, 0, len(positions))
	for _, pos := range positions {
		if pos < len(snap.items) {
			out = append(out, snap.items[pos])
		}
	}
	return out
}

func (s *Store) refresh(ctx context.Context, force bool) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// A concurrent caller may have refreshed while we waited.
	if !force && !s.stale() {
		return nil
	}

	sources := s.cfg.Sources
	if len(sources) == 0 {
		return ErrNoSources
	}

	results := make([][]news.Item, len(sources))
	failures := make([]error, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency())
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			items, err := s.fetchSource(ctx, src)
			if err != nil {
				// One bad source never fails the cycle.
				failures[i] = err
				slog.Warn("source skipped", "source", src.Name, "err", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range failures {
		if err != nil {
			failed++
		}
	}
	if failed == len(sources) {
		if s.current() == nil {
			return fmt.Errorf("refresh: %w", ErrAllSourcesFailed)
		}
		slog.Warn("refresh produced nothing, keeping previous snapshot", "sources", failed)
		return nil
	}

	items := news.Merge(results...)
	byID := make(map[string]news.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	next := &snapshot{
		items: items,
		byID:  byID,
		index: search.Build(items),
		stamp: time.Now(),
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	slog.Info("refresh complete", "items", len(items), "sources", len(sources), "failed", failed)
	return nil
}

// fetchSource runs the full per-source pipeline: raw fetch, parse,
// truncate to the per-source cap, normalize, optional translation.
func (s *Store) fetchSource(ctx context.Context, src config.Source) ([]news.Item, error) {
	payload, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.Name, err)
	}

	entries := feed.Items
	if limit := s.cfg.PerSourceLimit(); len(entries) > limit {
		entries = entries[:limit]
	}

	now := time.Now()
	items := make([]news.Item, 0, len(entries))
	for _, entry := range entries {
		it, ok := news.Normalize(src.Name, entry, now)
		if !ok {
			continue
		}
		if s.translator != nil && s.cfg.TargetLang != "" {
			it.Title = s.translator.Translate(ctx, it.OrigTitle, s.cfg.TargetLang)
			it.Description = s.translator.Translate(ctx, it.OrigDescription, s.cfg.TargetLang)
		}
		items = append(items, it)
	}
	return items, nil
}
