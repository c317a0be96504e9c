package app

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/ui/board"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a := New(testConfig(), Deps{Store: &memStore{doc: twoKeyDoc()}, Device: newFakeDevice()})
	a.ctrl.remember = func(device.Info) error { return nil }
	if err := a.ctrl.Editor.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(a.ctrl.Close)
	a.refresh()
	return a
}

func keyRune(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestRefreshFillsView(t *testing.T) {
	a := newTestApp(t)

	if got := a.view.Board.GetTitle(); got != " BASE (1/2) " {
		t.Errorf("board title = %q", got)
	}
	if got := a.view.StatusBar.GetText(true); got != " disconnected  |  BASE" {
		t.Errorf("status = %q", got)
	}

	a.ctrl.Editor.SetBinding(0, 0, keymap.Kp("Z"))
	a.refresh()
	if got := a.view.StatusBar.GetText(true); got != " disconnected  |  BASE*" {
		t.Errorf("dirty status = %q", got)
	}
}

func TestCapKind(t *testing.T) {
	k := twoKeyDoc()
	tests := []struct {
		binding keymap.Binding
		want    board.KeyKind
	}{
		{keymap.Kp("A"), board.KindKey},
		{keymap.Trans(), board.KindTransparent},
		{keymap.Binding{Action: "mo", Params: []string{"1"}}, board.KindLayerRef},
		{keymap.Binding{Action: "lt", Params: []string{"1", "SPACE"}}, board.KindLayerRef},
		{keymap.Binding{Action: "mt", Params: []string{"LSHIFT", "A"}}, board.KindHold},
		{keymap.Binding{Action: "mystery", Params: []string{}}, board.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.binding.String(), func(t *testing.T) {
			label := keymap.ResolveLabel(tt.binding, k.LayerNames())
			if got := capKind(k, tt.binding, label); got != tt.want {
				t.Errorf("capKind(%s) = %v, want %v", tt.binding, got, tt.want)
			}
		})
	}
}

func TestQuitKeyRefusesWhenDirty(t *testing.T) {
	a := newTestApp(t)
	a.ctrl.Editor.SetBinding(0, 0, keymap.Kp("Z"))

	ev := a.handleGlobalKey(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl))
	if ev != nil {
		t.Error("quit key not consumed")
	}
	toast, ok := a.ctrl.Toasts.Current()
	if !ok || !strings.Contains(toast.Message, "unsaved changes") {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
}

func TestGlobalKeysPassThroughInCommandMode(t *testing.T) {
	a := newTestApp(t)

	if ev := a.handleGlobalKey(keyRune(':')); ev != nil {
		t.Fatal("command key not consumed")
	}
	if !a.view.CommandMode() {
		t.Fatal("command bar not shown")
	}
	if ev := a.handleGlobalKey(keyRune('u')); ev == nil {
		t.Error("typing in the command bar triggered undo")
	}
}

func TestUndoKey(t *testing.T) {
	a := newTestApp(t)
	a.ctrl.Editor.SetBinding(0, 0, keymap.Kp("Z"))

	a.handleGlobalKey(keyRune('u'))
	if got := binding(t, a.ctrl, 0, 0); got.String() != "kp A" {
		t.Errorf("binding after undo = %q", got)
	}
}

func TestEditKeyOpensPickerAndAssigns(t *testing.T) {
	a := newTestApp(t)

	a.onBoardAction(board.ActionEdit, 1)
	if !a.view.ModalOpen() {
		t.Fatal("picker not open")
	}
	if got := a.view.Picker.Input().GetText(); got != "kp B" {
		t.Errorf("picker prefill = %q", got)
	}

	a.view.Picker.Input().SetText("mo 1")
	b, ok := a.view.Picker.Choice()
	if !ok {
		t.Fatal("no choice")
	}
	a.onPickerChoice(b)
	if got := binding(t, a.ctrl, 0, 1); got.String() != "mo 1" {
		t.Errorf("binding = %q", got)
	}
}

func TestBoardActions(t *testing.T) {
	a := newTestApp(t)

	a.onBoardAction(board.ActionClear, 0)
	if got := binding(t, a.ctrl, 0, 0); got.Action != "trans" {
		t.Errorf("cleared binding = %q", got)
	}

	a.onBoardAction(board.ActionNextLayer, 0)
	if a.ctrl.Editor.ActiveLayer() != 1 {
		t.Errorf("layer = %d, want 1", a.ctrl.Editor.ActiveLayer())
	}
	a.onBoardAction(board.ActionNextLayer, 0)
	if a.ctrl.Editor.ActiveLayer() != 0 {
		t.Errorf("layer = %d, want wrap to 0", a.ctrl.Editor.ActiveLayer())
	}
	a.onBoardAction(board.ActionPrevLayer, 0)
	if a.ctrl.Editor.ActiveLayer() != 1 {
		t.Errorf("layer = %d, want wrap to 1", a.ctrl.Editor.ActiveLayer())
	}

	a.onBoardAction(board.ActionMove, 1)
	if a.ctrl.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", a.ctrl.Cursor())
	}
}

func TestComboPickingFromBoard(t *testing.T) {
	a := newTestApp(t)

	a.onComboAction(board.ComboAdd, 0)
	a.refresh()
	if got := a.view.StatusBar.GetText(true); !strings.Contains(got, "PICK") {
		t.Errorf("status = %q, want PICK mode", got)
	}
	a.onBoardAction(board.ActionEdit, 0)
	a.onBoardAction(board.ActionEdit, 1)
	a.onComboAction(board.ComboDone, 0)

	k, _ := a.ctrl.Editor.Keymap()
	if len(k.Combos) != 1 || len(k.Combos[0].Positions) != 2 {
		t.Errorf("combos = %+v", k.Combos)
	}
	if a.view.ModalOpen() {
		t.Error("editing while picking opened the keycode picker")
	}
}

func TestHelpText(t *testing.T) {
	text := helpText(testConfig().Keybinds)
	for _, want := range []string{":bind <binding>", "Save keymap", "Ctrl+S", ":layer"} {
		if !strings.Contains(text, want) {
			t.Errorf("help text missing %q", want)
		}
	}
}
