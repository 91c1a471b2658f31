// Package trie implements trigger matching over the typed-character buffer.
//
// Triggers are stored reversed, so finding "the longest registered trigger
// that is a suffix of the buffer" is a single walk from the buffer's end
// backwards: O(k) in the longest trigger length, independent of both the
// number of registered triggers and the buffer length.
//
// Registration swaps a freshly built root behind an atomic pointer
// (copy-on-write), so lookups running concurrently with registration never
// observe a partially built node.
package trie

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"unicode"
)

// ErrEmptyTrigger is returned when registering an empty trigger.
var ErrEmptyTrigger = errors.New("trigger must not be empty")

// node is a prefix-tree node over reversed triggers.
type node struct {
	children map[rune]*node
	terminal bool
	trigger  string
}

// Matcher holds the registered trigger set and answers suffix lookups.
type Matcher struct {
	mu       sync.Mutex // serializes writers; lookups are lock-free
	triggers map[string]struct{}
	root     atomic.Pointer[node]
}

// New creates an empty matcher.
func New() *Matcher {
	m := &Matcher{triggers: make(map[string]struct{})}
	m.root.Store(&node{})
	return m
}

// Register adds a trigger. Registering an already-known trigger is a no-op.
func (m *Matcher) Register(trigger string) error {
	if trigger == "" {
		return ErrEmptyTrigger
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.triggers[trigger]; ok {
		return nil
	}
	m.triggers[trigger] = struct{}{}
	m.rebuild()
	return nil
}

// Unregister removes a trigger. Unknown triggers are ignored.
func (m *Matcher) Unregister(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.triggers[trigger]; !ok {
		return
	}
	delete(m.triggers, trigger)
	m.rebuild()
}

// Clear removes every registered trigger.
func (m *Matcher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = make(map[string]struct{})
	m.root.Store(&node{})
}

// Triggers returns the registered triggers in sorted order.
func (m *Matcher) Triggers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.triggers))
	for t := range m.triggers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered triggers.
func (m *Matcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.triggers)
}

// rebuild constructs a fresh tree from the trigger set and publishes it.
// Callers must hold m.mu.
func (m *Matcher) rebuild() {
	root := &node{}
	for trigger := range m.triggers {
		runes := []rune(trigger)
		n := root
		for i := len(runes) - 1; i >= 0; i-- {
			if n.children == nil {
				n.children = make(map[rune]*node)
			}
			child := n.children[runes[i]]
			if child == nil {
				child = &node{}
				n.children[runes[i]] = child
			}
			n = child
		}
		n.terminal = true
		n.trigger = trigger
	}
	m.root.Store(root)
}

// FindMatch returns the longest registered trigger that ends exactly at the
// end of buf and starts at the buffer start or immediately after a word
// delimiter. The longest-wins tie-break falls out of the walk structure:
// deeper terminals overwrite shallower ones.
func (m *Matcher) FindMatch(buf string) (string, bool) {
	root := m.root.Load()
	if len(root.children) == 0 || buf == "" {
		return "", false
	}

	runes := []rune(buf)
	n := root
	best := ""
	for i := len(runes) - 1; i >= 0; i-- {
		child := n.children[runes[i]]
		if child == nil {
			break
		}
		n = child
		if n.terminal && (i == 0 || isDelimiter(runes[i-1])) {
			best = n.trigger
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// delimiters that may precede a trigger besides whitespace.
const punctDelimiters = `.,;:!?"'()[]{}<>/\-`

func isDelimiter(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	for _, d := range punctDelimiters {
		if r == d {
			return true
		}
	}
	return false
}
