package notifications

import (
	"sync"
	"time"
)

// DefaultToastDuration is how long a toast stays visible.
const DefaultToastDuration = 4 * time.Second

// Level is a toast's severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Toast is a transient in-app message.
type Toast struct {
	Level   Level
	Message string
	Expiry  time.Time
	seq     uint64
}

// Toasts holds the single visible toast. A newer toast replaces the older
// one, and each toast clears itself when it expires unless replaced.
// It is safe for concurrent use.
type Toasts struct {
	mu       sync.Mutex
	current  *Toast
	seq      uint64
	duration time.Duration
	onChange func()
}

// NewToasts creates a toast holder. onChange is called (from a background
// goroutine for expiry) whenever the visible toast changes.
func NewToasts(duration time.Duration, onChange func()) *Toasts {
	if duration <= 0 {
		duration = DefaultToastDuration
	}
	return &Toasts{duration: duration, onChange: onChange}
}

// Show displays a toast, replacing any visible one.
func (t *Toasts) Show(level Level, message string) {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.current = &Toast{Level: level, Message: message, Expiry: time.Now().Add(t.duration), seq: seq}
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange()
	}

	time.AfterFunc(t.duration, func() { t.expire(seq) })
}

func (t *Toasts) Info(message string)    { t.Show(LevelInfo, message) }
func (t *Toasts) Warning(message string) { t.Show(LevelWarning, message) }
func (t *Toasts) Error(message string)   { t.Show(LevelError, message) }

// expire clears the toast if it has not been replaced.
func (t *Toasts) expire(seq uint64) {
	t.mu.Lock()
	if t.current == nil || t.current.seq != seq {
		t.mu.Unlock()
		return
	}
	t.current = nil
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange()
	}
}

// Dismiss clears the visible toast.
func (t *Toasts) Dismiss() {
	t.mu.Lock()
	had := t.current != nil
	t.current = nil
	t.mu.Unlock()

	if had && t.onChange != nil {
		t.onChange()
	}
}

// Current returns the visible toast.
func (t *Toasts) Current() (Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Toast{}, false
	}
	return *t.current, true
}
