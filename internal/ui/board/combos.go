package board

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/ui/keys"
)

// ComboAction is a combo list command sent to the owner.
type ComboAction int

const (
	ComboSelect ComboAction = iota
	ComboAdd
	ComboDelete
	ComboDuplicate
	ComboPick
	ComboDone
	ComboCancel
)

// ComboList shows the keymap's combos.
type ComboList struct {
	*tview.List
	cfg      *config.Config
	updating bool
	picking  bool
	onAction func(ComboAction, int)
}

// NewComboList creates an empty combo list.
func NewComboList(cfg *config.Config) *ComboList {
	cl := &ComboList{
		List: tview.NewList(),
		cfg:  cfg,
	}
	cl.SetHighlightFullLine(true)
	cl.ShowSecondaryText(true)
	cl.SetWrapAround(false)
	cl.SetBorder(true).SetTitle(" Combos ")
	cl.SetInputCapture(cl.handleInput)
	cl.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if !cl.updating {
			cl.emit(ComboSelect, index)
		}
	})
	return cl
}

// SetOnAction sets the callback for combo commands.
func (cl *ComboList) SetOnAction(fn func(ComboAction, int)) {
	cl.onAction = fn
}

// SetCombos rebuilds the list. selected is -1 when no combo is selected;
// picking names the combo whose keys are being edited, or -1.
func (cl *ComboList) SetCombos(combos []keymap.Combo, layerNames []string, selected, picking int) {
	cl.updating = true
	defer func() { cl.updating = false }()

	cl.picking = picking >= 0
	cl.Clear()
	theme := cl.cfg.Theme.Combos
	for i, c := range combos {
		style := theme.Combo
		if i == picking {
			style = theme.Picked
		}
		main := style.Tag() + tview.Escape(c.Name) + style.Reset()
		cl.AddItem(main, ComboSummary(c, layerNames), 0, nil)
	}
	if selected >= 0 && selected < len(combos) {
		cl.SetCurrentItem(selected)
	}
}

// ComboSummary describes a combo's keys, output and layers in one line.
func ComboSummary(c keymap.Combo, layerNames []string) string {
	positions := make([]string, len(c.Positions))
	for i, p := range c.Positions {
		positions[i] = fmt.Sprint(p)
	}
	keysText := strings.Join(positions, "+")
	if keysText == "" {
		keysText = "no keys"
	}
	out := keymap.ResolveLabel(c.Binding, layerNames).Main
	text := fmt.Sprintf("  %s → %s (%dms)", keysText, out, c.TimeoutMS)
	if len(c.Layers) > 0 {
		names := make([]string, len(c.Layers))
		for i, l := range c.Layers {
			if l >= 0 && l < len(layerNames) {
				names[i] = layerNames[l]
			} else {
				names[i] = fmt.Sprint(l)
			}
		}
		text += " on " + strings.Join(names, ",")
	}
	return tview.Escape(text)
}

func (cl *ComboList) handleInput(event *tcell.EventKey) *tcell.EventKey {
	kb := cl.cfg.Keybinds.Combos
	name := keys.Normalize(event.Name())
	cur := cl.GetCurrentItem()

	if cl.picking {
		switch name {
		case kb.Done:
			cl.emit(ComboDone, cur)
			return nil
		case kb.Cancel:
			cl.emit(ComboCancel, cur)
			return nil
		}
	}

	switch name {
	case kb.Up:
		if cur > 0 {
			cl.SetCurrentItem(cur - 1)
		}
		return nil
	case kb.Down:
		if cur < cl.GetItemCount()-1 {
			cl.SetCurrentItem(cur + 1)
		}
		return nil
	case kb.Add:
		cl.emit(ComboAdd, cur)
		return nil
	case kb.Delete:
		if cl.GetItemCount() > 0 {
			cl.emit(ComboDelete, cur)
		}
		return nil
	case kb.Duplicate:
		if cl.GetItemCount() > 0 {
			cl.emit(ComboDuplicate, cur)
		}
		return nil
	case kb.Pick:
		if cl.GetItemCount() > 0 {
			cl.emit(ComboPick, cur)
		}
		return nil
	}
	return event
}

func (cl *ComboList) emit(a ComboAction, i int) {
	if cl.onAction != nil {
		cl.onAction(a, i)
	}
}
