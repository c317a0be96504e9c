package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/m96-chan/Keysmith/internal/history"
	"github.com/m96-chan/Keysmith/internal/keymap"
)

// ErrNoKeymap is returned by operations that need a loaded document.
var ErrNoKeymap = errors.New("no keymap loaded")

// Store loads and persists the document.
type Store interface {
	Load() (keymap.Keymap, error)
	Save(keymap.Keymap) error
}

// Handler receives editor notifications. Nil callbacks are skipped. They
// are invoked without the editor lock held.
type Handler struct {
	// OnChange fires after any change to the document or selection state.
	OnChange func()
	// OnBindingChanged fires after a committed edit of one key binding.
	OnBindingChanged func(layer, pos int, b keymap.Binding)
}

// Editor owns the keymap document for one session. Every undoable change
// goes through Update, which snapshots the current document before
// applying the change.
type Editor struct {
	mu sync.Mutex

	store   Store
	handler Handler

	doc     *keymap.Keymap
	loadErr error
	dirty   bool
	history *history.Stack[keymap.Keymap]

	activeLayer   int
	selectedCombo int
	clipboard     *keymap.Binding
	pick          *pickState
}

// New returns an editor backed by store, keeping at most limit undo
// snapshots.
func New(store Store, limit int) *Editor {
	return &Editor{
		store:         store,
		history:       history.NewStack[keymap.Keymap](limit),
		selectedCombo: -1,
	}
}

// SetHandler replaces the notification callbacks.
func (e *Editor) SetHandler(h Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// Load replaces the document with the store's content and clears history.
// On failure the editor holds no document and every edit is a no-op until
// a later Load succeeds.
func (e *Editor) Load() error {
	k, err := e.store.Load()

	e.mu.Lock()
	e.pick = nil
	e.history.Clear()
	e.dirty = false
	e.activeLayer = 0
	e.selectedCombo = -1
	if err != nil {
		e.doc = nil
		e.loadErr = err
	} else {
		e.doc = &k
		e.loadErr = nil
	}
	h := e.handler
	e.mu.Unlock()

	if err != nil {
		slog.Error("failed to load keymap", "error", err)
		notify(h)
		return fmt.Errorf("loading keymap: %w", err)
	}
	if issues := k.Validate(); len(issues) > 0 {
		for _, i := range issues {
			slog.Warn("keymap issue", "issue", i.String())
		}
	}
	notify(h)
	return nil
}

// Save persists the committed document. An in-progress pick is not saved.
func (e *Editor) Save() error {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return ErrNoKeymap
	}
	k := e.committedLocked()
	e.mu.Unlock()

	if err := e.store.Save(k); err != nil {
		return fmt.Errorf("saving keymap: %w", err)
	}

	e.mu.Lock()
	e.dirty = false
	h := e.handler
	e.mu.Unlock()
	notify(h)
	return nil
}

// Store returns the store the editor loads from and saves to.
func (e *Editor) Store() Store {
	return e.store
}

// Keymap returns a copy of the current document, including any picker
// preview.
func (e *Editor) Keymap() (keymap.Keymap, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return keymap.Keymap{}, false
	}
	return e.doc.Clone(), true
}

// Loaded reports whether a document is held.
func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc != nil
}

// LoadError returns the error from the last failed Load, or nil.
func (e *Editor) LoadError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// Dirty reports whether the document has unsaved changes.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// UndoDepth returns how many undo steps are available.
func (e *Editor) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Len()
}

// Update snapshots the document and replaces it with fn's result. It is a
// no-op without a loaded document.
func (e *Editor) Update(fn func(keymap.Keymap) keymap.Keymap) bool {
	e.mu.Lock()
	ok := e.updateLocked(fn)
	h := e.handler
	e.mu.Unlock()

	if ok {
		notify(h)
	}
	return ok
}

func (e *Editor) updateLocked(fn func(keymap.Keymap) keymap.Keymap) bool {
	return e.updateRemapLocked(fn, nil)
}

// updateRemapLocked applies fn to the committed document, so a picker
// preview never reaches history or the result. remap, when set, adjusts
// the pick to the new document before the preview is written back.
func (e *Editor) updateRemapLocked(fn func(keymap.Keymap) keymap.Keymap, remap func()) bool {
	if e.doc == nil {
		return false
	}
	e.history.Push(e.committedLocked())
	next := fn(e.committedLocked())
	e.doc = &next
	if remap != nil {
		remap()
	}
	if e.pick != nil {
		if e.pick.combo < len(e.doc.Combos) {
			e.previewLocked()
		} else {
			e.pick = nil
		}
	}
	e.dirty = true
	return true
}

// Undo restores the most recent snapshot. The replaced state is not kept,
// so repeated calls walk further back. An in-progress pick is abandoned.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return false
	}
	prev, err := e.history.Pop()
	if err != nil {
		e.mu.Unlock()
		return false
	}
	e.abandonPickLocked()
	e.doc = &prev
	e.dirty = true
	e.clampSelectionLocked()
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// AdoptLive replaces the document's layers with those resolved on a
// device. It bypasses history and clears it, since earlier snapshots
// describe layers the device no longer has. Without a loaded document it
// creates one.
func (e *Editor) AdoptLive(layers []keymap.Layer) {
	e.mu.Lock()
	e.abandonPickLocked()
	e.history.Clear()
	var next keymap.Keymap
	if e.doc == nil {
		next = keymap.New(0).ReplaceLayers(layers)
	} else {
		next = e.doc.ReplaceLayers(layers)
	}
	e.doc = &next
	e.loadErr = nil
	e.dirty = true
	e.clampSelectionLocked()
	h := e.handler
	e.mu.Unlock()

	notify(h)
}

// committedLocked returns a copy of the document with any picker preview
// replaced by the combo's committed positions.
func (e *Editor) committedLocked() keymap.Keymap {
	k := e.doc.Clone()
	if e.pick != nil && e.pick.combo < len(k.Combos) {
		k.Combos[e.pick.combo].Positions = slices.Clone(e.pick.base)
	}
	return k
}

func (e *Editor) clampSelectionLocked() {
	if e.doc == nil {
		return
	}
	if e.activeLayer >= len(e.doc.Layers) {
		e.activeLayer = 0
	}
	if e.selectedCombo >= len(e.doc.Combos) {
		e.selectedCombo = -1
	}
}

func notify(h Handler) {
	if h.OnChange != nil {
		h.OnChange()
	}
}
