package editor

import "github.com/m96-chan/Keysmith/internal/keymap"

// ActiveLayer returns the layer being edited.
func (e *Editor) ActiveLayer() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeLayer
}

// SetActiveLayer switches the edited layer. Out-of-range values are ignored.
func (e *Editor) SetActiveLayer(i int) {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Layers) || i == e.activeLayer {
		e.mu.Unlock()
		return
	}
	e.activeLayer = i
	h := e.handler
	e.mu.Unlock()
	notify(h)
}

// SelectedCombo returns the selected combo index, or -1.
func (e *Editor) SelectedCombo() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedCombo
}

// SetBinding assigns b to a key and reports the edit for live sync.
func (e *Editor) SetBinding(layer, pos int, b keymap.Binding) bool {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return false
	}
	if _, ok := e.doc.Binding(layer, pos); !ok {
		e.mu.Unlock()
		return false
	}
	e.updateLocked(func(k keymap.Keymap) keymap.Keymap { return k.SetBinding(layer, pos, b) })
	h := e.handler
	e.mu.Unlock()

	notify(h)
	if h.OnBindingChanged != nil {
		h.OnBindingChanged(layer, pos, b.Clone())
	}
	return true
}

// AddCombo appends a default combo, selects it and starts picking its
// positions.
func (e *Editor) AddCombo() bool {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return false
	}
	e.finishPickLocked()
	i := len(e.doc.Combos)
	e.updateLocked(keymap.Keymap.AddCombo)
	e.selectedCombo = i
	e.startPickLocked(i)
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// UpdateCombo replaces combo i.
func (e *Editor) UpdateCombo(i int, c keymap.Combo) bool {
	return e.comboEdit(i, func(k keymap.Keymap) keymap.Keymap { return k.UpdateCombo(i, c) })
}

// SetComboBinding replaces the output binding of combo i. Combo edits are
// never mirrored to a device.
func (e *Editor) SetComboBinding(i int, b keymap.Binding) bool {
	return e.comboEdit(i, func(k keymap.Keymap) keymap.Keymap { return k.SetComboBinding(i, b) })
}

func (e *Editor) comboEdit(i int, fn func(keymap.Keymap) keymap.Keymap) bool {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Combos) {
		e.mu.Unlock()
		return false
	}
	if e.pick != nil && e.pick.combo == i {
		e.abandonPickLocked()
	}
	e.updateLocked(fn)
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// DeleteCombo removes combo i, clearing the selection and any pick on it.
func (e *Editor) DeleteCombo(i int) bool {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Combos) {
		e.mu.Unlock()
		return false
	}
	if e.pick != nil && e.pick.combo == i {
		e.abandonPickLocked()
	}
	e.updateRemapLocked(func(k keymap.Keymap) keymap.Keymap { return k.DeleteCombo(i) }, func() {
		if e.pick != nil && e.pick.combo > i {
			e.pick.combo--
		}
	})
	switch {
	case e.selectedCombo == i:
		e.selectedCombo = -1
	case e.selectedCombo > i:
		e.selectedCombo--
	}
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// DuplicateCombo appends a copy of combo i.
func (e *Editor) DuplicateCombo(i int) bool {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Combos) {
		e.mu.Unlock()
		return false
	}
	e.updateLocked(func(k keymap.Keymap) keymap.Keymap { return k.DuplicateCombo(i) })
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// AddLayer appends a transparent layer and makes it active.
func (e *Editor) AddLayer() bool {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return false
	}
	e.updateLocked(keymap.Keymap.AddLayer)
	e.activeLayer = len(e.doc.Layers) - 1
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// DeleteLayer removes layer i, folding references to it. The base layer
// cannot be deleted.
func (e *Editor) DeleteLayer(i int) bool {
	e.mu.Lock()
	if e.doc == nil || i <= 0 || i >= len(e.doc.Layers) {
		e.mu.Unlock()
		return false
	}
	e.updateLocked(func(k keymap.Keymap) keymap.Keymap { return k.DeleteLayer(i) })
	switch {
	case e.activeLayer == i:
		e.activeLayer = 0
	case e.activeLayer > i:
		e.activeLayer--
	}
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// RenameLayer renames layer i. Blank names are ignored.
func (e *Editor) RenameLayer(i int, name string) bool {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Layers) {
		e.mu.Unlock()
		return false
	}
	e.updateLocked(func(k keymap.Keymap) keymap.Keymap { return k.RenameLayer(i, name) })
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// DuplicateLayer appends a copy of layer i.
func (e *Editor) DuplicateLayer(i int) bool {
	e.mu.Lock()
	if e.doc == nil || i < 0 || i >= len(e.doc.Layers) {
		e.mu.Unlock()
		return false
	}
	e.updateLocked(func(k keymap.Keymap) keymap.Keymap { return k.DuplicateLayer(i) })
	h := e.handler
	e.mu.Unlock()

	notify(h)
	return true
}

// SetBehaviors replaces the behavior list.
func (e *Editor) SetBehaviors(list []keymap.Behavior) bool {
	return e.Update(func(k keymap.Keymap) keymap.Keymap { return k.SetBehaviors(list) })
}

// SetMouseConfig replaces the mouse tuning.
func (e *Editor) SetMouseConfig(cfg keymap.MouseConfig) bool {
	return e.Update(func(k keymap.Keymap) keymap.Keymap { return k.SetMouseConfig(cfg) })
}

// CopyBinding stores the binding at layer/pos in the editor clipboard.
func (e *Editor) CopyBinding(layer, pos int) (keymap.Binding, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return keymap.Binding{}, false
	}
	b, ok := e.doc.Binding(layer, pos)
	if !ok {
		return keymap.Binding{}, false
	}
	e.clipboard = &b
	return b.Clone(), true
}

// SetClipboard stores b in the editor clipboard.
func (e *Editor) SetClipboard(b keymap.Binding) {
	b = b.Clone()
	e.mu.Lock()
	e.clipboard = &b
	e.mu.Unlock()
}

// Clipboard returns the binding held in the editor clipboard.
func (e *Editor) Clipboard() (keymap.Binding, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clipboard == nil {
		return keymap.Binding{}, false
	}
	return e.clipboard.Clone(), true
}

// PasteBinding assigns the clipboard binding to layer/pos as a regular
// binding edit.
func (e *Editor) PasteBinding(layer, pos int) bool {
	b, ok := e.Clipboard()
	if !ok {
		return false
	}
	return e.SetBinding(layer, pos, b)
}
