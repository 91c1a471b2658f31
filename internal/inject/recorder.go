package inject

import "sync"

// Call is one recorded injector operation.
type Call struct {
	Op string // "backspace", "select_backward", "delete_selection", "paste", "cursor_left"
	N  int
}

// Recorder is an Injector test double that records calls instead of
// injecting input. Individual operations can be made to fail.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	// FailSelect makes SelectBackward fail, exercising the
	// backspace-delete fallback.
	FailSelect error

	// FailPaste makes PasteChord fail.
	FailPaste error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(op string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: op, N: n})
}

// Backspace records the call.
func (r *Recorder) Backspace(n int) error {
	r.record("backspace", n)
	return nil
}

// SelectBackward records the call or fails when configured.
func (r *Recorder) SelectBackward(n int) error {
	if r.FailSelect != nil {
		return r.FailSelect
	}
	r.record("select_backward", n)
	return nil
}

// DeleteSelection records the call.
func (r *Recorder) DeleteSelection() error {
	r.record("delete_selection", 0)
	return nil
}

// PasteChord records the call or fails when configured.
func (r *Recorder) PasteChord() error {
	if r.FailPaste != nil {
		return r.FailPaste
	}
	r.record("paste", 0)
	return nil
}

// CursorLeft records the call.
func (r *Recorder) CursorLeft(n int) error {
	r.record("cursor_left", n)
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call{}, r.calls...)
}

// Ops returns just the operation names in order.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}
