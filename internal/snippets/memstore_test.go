package snippets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreAddLookupRemove(t *testing.T) {
	s := NewMemStore()
	s.Add(Snippet{Trigger: "!sig", Content: "Best, Alex", CursorMarker: NoCursor})

	snip, ok := s.Lookup("!sig")
	require.True(t, ok)
	assert.Equal(t, "Best, Alex", snip.Content)

	_, ok = s.Lookup("!other")
	assert.False(t, ok)

	s.Remove("!sig")
	_, ok = s.Lookup("!sig")
	assert.False(t, ok)
}

func TestMemStoreAllTriggersSorted(t *testing.T) {
	s := NewMemStore()
	s.Add(Snippet{Trigger: "!b"})
	s.Add(Snippet{Trigger: "!a"})
	s.Add(Snippet{Trigger: "!c"})

	assert.Equal(t, []string{"!a", "!b", "!c"}, s.AllTriggers())
}

func TestMemStoreOnChange(t *testing.T) {
	s := NewMemStore()
	calls := 0
	s.OnChange(func() { calls++ })

	s.Add(Snippet{Trigger: "!a"})
	s.Remove("!a")

	assert.Equal(t, 2, calls)
}

func TestResolveTemplateVariables(t *testing.T) {
	s := NewMemStore()
	s.Clock = func() time.Time {
		return time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	}

	text, cursor, err := s.ResolveTemplate("Today is {date} at {time}")
	require.NoError(t, err)
	assert.Equal(t, "Today is 2026-08-30 at 09:15", text)
	assert.Equal(t, NoCursor, cursor)
}

func TestResolveTemplateCursorMarker(t *testing.T) {
	s := NewMemStore()

	text, cursor, err := s.ResolveTemplate("Dear [],\nRegards")
	require.NoError(t, err)
	assert.Equal(t, "Dear ,\nRegards", text)
	// The cursor sits 9 characters left of the end: ",\nRegards".
	assert.Equal(t, 9, cursor)
}

func TestResolveTemplateMarkerAtEnd(t *testing.T) {
	s := NewMemStore()

	text, cursor, err := s.ResolveTemplate("content[]")
	require.NoError(t, err)
	assert.Equal(t, "content", text)
	assert.Equal(t, 0, cursor)
}

func TestResolveTemplatePlainText(t *testing.T) {
	s := NewMemStore()

	text, cursor, err := s.ResolveTemplate("just text")
	require.NoError(t, err)
	assert.Equal(t, "just text", text)
	assert.Equal(t, NoCursor, cursor)
}
