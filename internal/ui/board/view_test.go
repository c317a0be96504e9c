package board

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func newTestView() *View {
	return New(tview.NewApplication(), testConfig())
}

func TestViewCycleBottom(t *testing.T) {
	v := newTestView()
	want := []Bottom{BottomConsole, BottomPreview, BottomHidden, BottomConsole}
	for i, w := range want {
		if got := v.CycleBottom(); got != w {
			t.Errorf("cycle %d = %v, want %v", i, got, w)
		}
	}
}

func TestViewFocusCycle(t *testing.T) {
	v := newTestView()
	tab := tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)

	if ev := v.HandleKey(tab); ev != nil {
		t.Fatal("tab not consumed")
	}
	if v.ActivePanel() != PanelCombos {
		t.Errorf("panel = %v, want combos", v.ActivePanel())
	}
	v.HandleKey(tab)
	if v.ActivePanel() != PanelBoard {
		t.Errorf("panel = %v, want board with the bottom hidden", v.ActivePanel())
	}

	v.SetBottom(BottomConsole)
	v.FocusPanel(PanelBottom)
	if v.ActivePanel() != PanelBottom {
		t.Errorf("panel = %v, want bottom", v.ActivePanel())
	}
	v.SetBottom(BottomHidden)
	if v.ActivePanel() != PanelBoard {
		t.Errorf("hiding the bottom left focus on %v", v.ActivePanel())
	}
}

func TestViewToggleConsoleKey(t *testing.T) {
	v := newTestView()
	v.HandleKey(tcell.NewEventKey(tcell.KeyRune, '`', tcell.ModNone))
	if v.BottomShown() != BottomConsole {
		t.Errorf("bottom = %v, want console", v.BottomShown())
	}
}

func TestViewModalsBlockPanelKeys(t *testing.T) {
	v := newTestView()
	tab := tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)

	v.ShowCommandBar()
	if !v.CommandMode() {
		t.Fatal("command mode not entered")
	}
	if ev := v.HandleKey(tab); ev == nil {
		t.Error("tab consumed in command mode")
	}
	v.HideCommandBar()

	v.ShowPicker("kp A")
	if !v.ModalOpen() {
		t.Fatal("picker not shown")
	}
	if ev := v.HandleKey(tab); ev == nil {
		t.Error("tab consumed with the picker open")
	}
	v.HidePicker()
	if v.ModalOpen() {
		t.Error("picker still open")
	}
}
