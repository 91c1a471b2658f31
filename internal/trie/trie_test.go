package trie

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatchBasic(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("!mail"))

	got, ok := m.FindMatch("hello !mail")
	require.True(t, ok)
	assert.Equal(t, "!mail", got)
}

func TestFindMatchLongestWins(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("mail"))
	require.NoError(t, m.Register("!mail"))

	got, ok := m.FindMatch("hi !mail")
	require.True(t, ok)
	assert.Equal(t, "!mail", got, "longer trigger must win when both are suffixes")
}

func TestFindMatchWordBoundary(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("mail"))

	tests := []struct {
		buf   string
		match bool
	}{
		{"gmail", false},
		{"hi mail", true},
		{"mail", true}, // buffer start counts as a boundary
		{"hotmail", false},
		{"line\nmail", true},
		{"(mail", true},
		{"re:mail", true},
		{"5mail", false},
	}

	for _, tt := range tests {
		t.Run(tt.buf, func(t *testing.T) {
			got, ok := m.FindMatch(tt.buf)
			assert.Equal(t, tt.match, ok, "buffer %q", tt.buf)
			if tt.match {
				assert.Equal(t, "mail", got)
			}
		})
	}
}

func TestFindMatchOnlyAtBufferEnd(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("!sig"))

	_, ok := m.FindMatch("!sig and more")
	assert.False(t, ok, "trigger must end exactly at the buffer end")
}

func TestFindMatchEmptyInputs(t *testing.T) {
	m := New()
	_, ok := m.FindMatch("anything")
	assert.False(t, ok, "empty matcher never matches")

	require.NoError(t, m.Register("x"))
	_, ok = m.FindMatch("")
	assert.False(t, ok, "empty buffer never matches")
}

func TestRegisterValidation(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Register(""), ErrEmptyTrigger)
	require.NoError(t, m.Register("dup"))
	require.NoError(t, m.Register("dup"), "duplicate registration is a no-op")
	assert.Equal(t, 1, m.Len())
}

func TestUnregister(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("!a"))
	require.NoError(t, m.Register("!b"))

	m.Unregister("!a")
	m.Unregister("never-registered")

	_, ok := m.FindMatch("x !a")
	assert.False(t, ok)
	got, ok := m.FindMatch("x !b")
	require.True(t, ok)
	assert.Equal(t, "!b", got)
	assert.Equal(t, []string{"!b"}, m.Triggers())
}

func TestClear(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("!a"))
	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok := m.FindMatch("!a")
	assert.False(t, ok)
}

func TestConcurrentLookupDuringRegistration(t *testing.T) {
	m := New()
	require.NoError(t, m.Register("!base"))

	stop := make(chan struct{})
	writerDone := make(chan struct{})

	// Writer churns registrations.
	go func() {
		defer close(writerDone)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			trig := fmt.Sprintf("!t%d", i%50)
			_ = m.Register(trig)
			if i%3 == 0 {
				m.Unregister(trig)
			}
		}
	}()

	// Readers must always see a consistent tree.
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for j := 0; j < 5000; j++ {
				got, ok := m.FindMatch("hello !base")
				if !ok || got != "!base" {
					t.Errorf("lookup lost registered trigger: %q %v", got, ok)
					return
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	<-writerDone
}
