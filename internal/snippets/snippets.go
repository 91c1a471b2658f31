// Package snippets defines the contract between the expansion engine and
// the snippet store. The engine never owns snippet persistence; it reads
// snippets by trigger through the Store interface and asks the store to
// resolve dynamic template content off the real-time path.
package snippets

import "errors"

// NoCursor marks a snippet or resolution without a cursor placement.
const NoCursor = -1

// Snippet is a registered trigger/content pair.
type Snippet struct {
	// Trigger is the short token that activates the snippet.
	Trigger string

	// Content is the replacement template. It may contain dynamic
	// variables and a cursor marker, resolved by ResolveTemplate.
	Content string

	// CursorMarker is an explicit cursor offset from the end of the
	// resolved text, or NoCursor. Template resolution may override it
	// when the content carries an inline marker.
	CursorMarker int
}

// Store is the external snippet collaborator.
type Store interface {
	// AllTriggers returns every registered trigger.
	AllTriggers() []string

	// Lookup returns the snippet registered for trigger.
	Lookup(trigger string) (Snippet, bool)

	// ResolveTemplate expands dynamic variables in content and extracts
	// the cursor marker. It returns the final text and the cursor offset
	// from the end of the text (NoCursor when absent). It may interact
	// with the user and must not be called from the capture callback.
	ResolveTemplate(content string) (text string, cursorOffset int, err error)
}

// ErrNotFound is returned by stores when a trigger has no snippet.
var ErrNotFound = errors.New("snippet not found")
