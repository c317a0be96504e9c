package editor

import (
	"slices"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

// pickState tracks an in-progress position pick for one combo. base holds
// the committed positions; working is the sorted set being edited and is
// mirrored into the document as a preview.
type pickState struct {
	combo   int
	base    []int
	working []int
}

// StartPicking enters position picking for combo i. A pick in progress on
// another combo is committed first.
func (e *Editor) StartPicking(i int) bool {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Combos) {
		e.mu.Unlock()
		return false
	}
	if e.pick != nil && e.pick.combo == i {
		e.mu.Unlock()
		return true
	}
	e.finishPickLocked()
	e.selectedCombo = i
	e.startPickLocked(i)
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

func (e *Editor) startPickLocked(i int) {
	base := slices.Clone(e.doc.Combos[i].Positions)
	e.pick = &pickState{
		combo:   i,
		base:    base,
		working: keymap.CanonicalPositions(base),
	}
	e.previewLocked()
}

// TogglePosition adds or removes pos from the working set and previews the
// result without touching history.
func (e *Editor) TogglePosition(pos int) bool {
	e.mu.Lock()
	if e.pick == nil || e.doc == nil || pos < 0 || pos >= e.doc.KeyCount() {
		e.mu.Unlock()
		return false
	}
	if idx := slices.Index(e.pick.working, pos); idx >= 0 {
		e.pick.working = slices.Delete(e.pick.working, idx, idx+1)
	} else {
		e.pick.working = keymap.CanonicalPositions(append(e.pick.working, pos))
	}
	e.previewLocked()
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

func (e *Editor) previewLocked() {
	if e.pick.combo >= len(e.doc.Combos) {
		return
	}
	e.doc.Combos[e.pick.combo].Positions = slices.Clone(e.pick.working)
}

// FinishPicking commits the working set as one undoable edit. Nothing is
// recorded when the positions did not change.
func (e *Editor) FinishPicking() bool {
	e.mu.Lock()
	if e.pick == nil {
		e.mu.Unlock()
		return false
	}
	e.finishPickLocked()
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

func (e *Editor) finishPickLocked() {
	p := e.pick
	if p == nil || e.doc == nil {
		e.pick = nil
		return
	}
	final := slices.Clone(p.working)
	e.abandonPickLocked()
	if slices.Equal(final, p.base) {
		return
	}
	e.updateLocked(func(k keymap.Keymap) keymap.Keymap { return k.SetComboPositions(p.combo, final) })
}

// CancelPicking leaves picking and restores the committed positions.
func (e *Editor) CancelPicking() bool {
	e.mu.Lock()
	if e.pick == nil {
		e.mu.Unlock()
		return false
	}
	e.abandonPickLocked()
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// abandonPickLocked drops the pick and writes the committed positions back
// into the document.
func (e *Editor) abandonPickLocked() {
	p := e.pick
	if p == nil {
		return
	}
	e.pick = nil
	if e.doc != nil && p.combo < len(e.doc.Combos) {
		e.doc.Combos[p.combo].Positions = p.base
	}
}

// SelectCombo selects combo i, or clears the selection for -1. Selecting a
// different combo while picking abandons the uncommitted pick.
func (e *Editor) SelectCombo(i int) {
	e.mu.Lock()
	if e.doc == nil || i < -1 || i >= len(e.doc.Combos) {
		e.mu.Unlock()
		return
	}
	if e.pick != nil && e.pick.combo != i {
		e.abandonPickLocked()
	}
	e.selectedCombo = i
	h := e.handler
	e.mu.Unlock()

	notify(h)
}

// Picking returns the combo being picked.
func (e *Editor) Picking() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pick == nil {
		return -1, false
	}
	return e.pick.combo, true
}

// PickingPositions returns a copy of the working set.
func (e *Editor) PickingPositions() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pick == nil {
		return nil
	}
	return slices.Clone(e.pick.working)
}
