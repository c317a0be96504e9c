package board

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sahilm/fuzzy"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/ui/keys"
)

// pickerEntry is one choice in the keycode picker.
type pickerEntry struct {
	binding     keymap.Binding
	displayText string
	searchText  string
}

// KeycodePicker is a modal popup for fuzzy-searching keycodes and actions.
// Typing a full binding such as "lt 1 SPACE" and pressing enter assigns it
// as typed.
type KeycodePicker struct {
	*tview.Flex
	cfg      *config.Config
	input    *tview.InputField
	list     *tview.List
	entries  []pickerEntry
	filtered []int // indices into entries for current filter
	onSelect func(keymap.Binding)
	onClose  func()
}

// NewKeycodePicker creates a picker over the keycode and action catalogs.
func NewKeycodePicker(cfg *config.Config) *KeycodePicker {
	kp := &KeycodePicker{
		cfg:     cfg,
		entries: catalogEntries(),
	}

	kp.input = tview.NewInputField()
	kp.input.SetLabel(" Binding: ")
	kp.input.SetFieldBackgroundColor(tcell.ColorDefault)
	kp.input.SetChangedFunc(kp.onInputChanged)
	kp.input.SetInputCapture(kp.handleInput)

	kp.list = tview.NewList()
	kp.list.SetHighlightFullLine(true)
	kp.list.ShowSecondaryText(false)
	kp.list.SetWrapAround(false)

	kp.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(kp.input, 1, 0, true).
		AddItem(kp.list, 0, 1, false)
	kp.SetBorder(true).SetTitle(" Set Binding ")

	kp.showAll()
	return kp
}

func catalogEntries() []pickerEntry {
	var out []pickerEntry
	for _, code := range keymap.AllKeycodes() {
		label := keymap.KeyLabel(code)
		out = append(out, pickerEntry{
			binding:     keymap.Kp(code),
			displayText: fmt.Sprintf("%-8s kp %s", label, code),
			searchText:  strings.ToLower(code + " " + label),
		})
	}
	for _, a := range keymap.Actions {
		out = append(out, pickerEntry{
			binding:     keymap.Binding{Action: a.Name, Params: []string{}},
			displayText: fmt.Sprintf("%-8s %s: %s", a.Name, a.Title, a.Description),
			searchText:  strings.ToLower(a.Name + " " + a.Title),
		})
	}
	return out
}

// SetOnSelect sets the callback for a chosen binding.
func (kp *KeycodePicker) SetOnSelect(fn func(keymap.Binding)) {
	kp.onSelect = fn
}

// SetOnClose sets the callback for closing the picker.
func (kp *KeycodePicker) SetOnClose(fn func()) {
	kp.onClose = fn
}

// Reset prefills the input with the current binding's text.
func (kp *KeycodePicker) Reset(current string) {
	kp.input.SetText(current)
	if current == "" {
		kp.showAll()
	}
}

// Input returns the search field, for focusing.
func (kp *KeycodePicker) Input() *tview.InputField {
	return kp.input
}

func (kp *KeycodePicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	kb := kp.cfg.Keybinds.Picker
	name := keys.Normalize(event.Name())

	switch {
	case name == kb.Close:
		kp.close()
		return nil

	case name == kb.Select:
		kp.selectCurrent()
		return nil

	case name == kb.Up || event.Key() == tcell.KeyUp:
		cur := kp.list.GetCurrentItem()
		if cur > 0 {
			kp.list.SetCurrentItem(cur - 1)
		}
		return nil

	case name == kb.Down || event.Key() == tcell.KeyDown:
		cur := kp.list.GetCurrentItem()
		if cur < kp.list.GetItemCount()-1 {
			kp.list.SetCurrentItem(cur + 1)
		}
		return nil
	}

	return event
}

// onInputChanged filters the list based on the current search text.
func (kp *KeycodePicker) onInputChanged(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		kp.showAll()
		return
	}

	targets := make([]string, len(kp.entries))
	for i, e := range kp.entries {
		targets[i] = e.searchText
	}

	matches := fuzzy.Find(strings.ToLower(text), targets)

	kp.filtered = make([]int, len(matches))
	for i, m := range matches {
		kp.filtered[i] = m.Index
	}

	kp.rebuildList()
}

// showAll displays every entry.
func (kp *KeycodePicker) showAll() {
	kp.filtered = make([]int, len(kp.entries))
	for i := range kp.entries {
		kp.filtered[i] = i
	}
	kp.rebuildList()
}

// rebuildList updates the tview.List from the filtered entries.
func (kp *KeycodePicker) rebuildList() {
	kp.list.Clear()
	for _, idx := range kp.filtered {
		kp.list.AddItem(tview.Escape(kp.entries[idx].displayText), "", 0, nil)
	}
	if kp.list.GetItemCount() > 0 {
		kp.list.SetCurrentItem(0)
	}
}

// Choice returns the binding enter would assign: the typed text when it
// holds parameters or matches nothing, otherwise the highlighted entry.
func (kp *KeycodePicker) Choice() (keymap.Binding, bool) {
	text := strings.TrimSpace(kp.input.GetText())
	if strings.Contains(text, " ") || (text != "" && len(kp.filtered) == 0) {
		b, err := keymap.ParseBinding(text)
		return b, err == nil
	}
	cur := kp.list.GetCurrentItem()
	if cur < 0 || cur >= len(kp.filtered) {
		return keymap.Binding{}, false
	}
	return kp.entries[kp.filtered[cur]].binding.Clone(), true
}

func (kp *KeycodePicker) selectCurrent() {
	b, ok := kp.Choice()
	if !ok {
		return
	}
	if kp.onSelect != nil {
		kp.onSelect(b)
	}
	kp.close()
}

// close signals the picker should be hidden.
func (kp *KeycodePicker) close() {
	if kp.onClose != nil {
		kp.onClose()
	}
}

// FilteredCount returns the number of currently visible entries.
func (kp *KeycodePicker) FilteredCount() int {
	return len(kp.filtered)
}
