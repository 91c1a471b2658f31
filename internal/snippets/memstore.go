package snippets

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// CursorMarker is the inline marker a template uses to place the cursor
// after expansion.
const CursorMarker = "[]"

// MemStore is an in-memory Store. It is the reference implementation used
// in tests and by embedders that manage persistence themselves.
type MemStore struct {
	mu       sync.RWMutex
	byTrig   map[string]Snippet
	onChange []func()

	// Clock is used for dynamic date/time variables. Overridable in tests.
	Clock func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		byTrig: make(map[string]Snippet),
		Clock:  time.Now,
	}
}

// Add registers or replaces a snippet and notifies change subscribers.
func (s *MemStore) Add(snip Snippet) {
	s.mu.Lock()
	s.byTrig[snip.Trigger] = snip
	subs := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Remove deletes the snippet for trigger and notifies change subscribers.
func (s *MemStore) Remove(trigger string) {
	s.mu.Lock()
	delete(s.byTrig, trigger)
	subs := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// OnChange registers a callback invoked after every Add or Remove.
func (s *MemStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// AllTriggers returns the registered triggers in sorted order.
func (s *MemStore) AllTriggers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byTrig))
	for t := range s.byTrig {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the snippet for trigger.
func (s *MemStore) Lookup(trigger string) (Snippet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snip, ok := s.byTrig[trigger]
	return snip, ok
}

// ResolveTemplate expands {date}, {time} and {datetime} variables, then
// extracts the inline cursor marker. The returned offset counts characters
// from the end of the final text.
func (s *MemStore) ResolveTemplate(content string) (string, int, error) {
	now := s.Clock()
	text := strings.NewReplacer(
		"{date}", now.Format("2006-01-02"),
		"{time}", now.Format("15:04"),
		"{datetime}", now.Format("2006-01-02 15:04"),
	).Replace(content)

	cursor := NoCursor
	if idx := strings.LastIndex(text, CursorMarker); idx >= 0 {
		after := text[idx+len(CursorMarker):]
		text = text[:idx] + after
		cursor = len([]rune(after))
	}
	return text, cursor, nil
}
