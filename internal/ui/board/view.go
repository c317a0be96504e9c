package board

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/ui/keys"
)

// Panel identifies which panel is focused.
type Panel int

const (
	PanelBoard Panel = iota
	PanelCombos
	PanelBottom
)

// Bottom selects what the bottom panel shows.
type Bottom int

const (
	BottomHidden Bottom = iota
	BottomConsole
	BottomPreview
)

const (
	pageMain   = "main"
	pagePicker = "picker"
	pageHelp   = "help"
)

// View is the main editor layout containing all panels.
type View struct {
	*tview.Pages
	app *tview.Application
	cfg *config.Config

	Board      *Board
	Combos     *ComboList
	Console    *Console
	Preview    *Preview
	StatusBar  *StatusBar
	CommandBar *CommandBar
	Picker     *KeycodePicker
	Help       *tview.TextView

	root        *tview.Flex
	mainFlex    *tview.Flex
	activePanel Panel
	bottom      Bottom
	commandMode bool
}

// New creates the main view.
//
// Layout:
//
//	Pages
//	├── main: root (FlexRow)
//	│   ├── mainFlex (FlexColumn)
//	│   │   ├── Board (proportional)
//	│   │   └── Combos (fixed 34 cols)
//	│   ├── Console | Preview (fixed 12 rows, optional)
//	│   └── StatusBar | CommandBar (fixed 1 row)
//	├── picker: KeycodePicker (centered modal)
//	└── help: Help (centered modal)
func New(app *tview.Application, cfg *config.Config) *View {
	v := &View{
		app:        app,
		cfg:        cfg,
		Board:      NewBoard(cfg),
		Combos:     NewComboList(cfg),
		Console:    NewConsole(cfg),
		Preview:    NewPreview(cfg),
		StatusBar:  NewStatusBar(cfg),
		CommandBar: NewCommandBar(cfg),
		Picker:     NewKeycodePicker(cfg),
	}

	v.Help = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	v.Help.SetBorder(true).SetTitle(" Help ")
	v.Help.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || keys.Normalize(event.Name()) == cfg.Keybinds.Help {
			v.HideHelp()
			return nil
		}
		return event
	})

	v.mainFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(v.Board, 0, 1, true).
		AddItem(v.Combos, 34, 0, false)
	v.root = tview.NewFlex().SetDirection(tview.FlexRow)
	v.rebuildRoot()

	v.Pages = tview.NewPages().
		AddPage(pageMain, v.root, true, true).
		AddPage(pagePicker, modal(v.Picker, 70, 20), true, false).
		AddPage(pageHelp, modal(v.Help, 80, 30), true, false)

	v.activePanel = PanelBoard
	v.applyBorderStyles()
	return v
}

// modal centers p in a box of the given size.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// rebuildRoot reconstructs the root flex after the bottom panel or the
// command bar changed. tview has no InsertItem, so we Clear() and re-add.
func (v *View) rebuildRoot() {
	v.root.Clear()
	v.root.AddItem(v.mainFlex, 0, 1, true)
	switch v.bottom {
	case BottomConsole:
		v.root.AddItem(v.Console, 12, 0, false)
	case BottomPreview:
		v.root.AddItem(v.Preview, 12, 0, false)
	}
	if v.commandMode {
		v.root.AddItem(v.CommandBar, 1, 0, false)
	} else {
		v.root.AddItem(v.StatusBar, 1, 0, false)
	}
}

// FocusPanel sets focus to the given panel and updates border colors.
func (v *View) FocusPanel(panel Panel) {
	if panel == PanelBottom && v.bottom == BottomHidden {
		panel = PanelBoard
	}
	v.activePanel = panel
	v.applyBorderStyles()

	switch panel {
	case PanelBoard:
		v.app.SetFocus(v.Board)
	case PanelCombos:
		v.app.SetFocus(v.Combos)
	case PanelBottom:
		if v.bottom == BottomConsole {
			v.app.SetFocus(v.Console)
		} else {
			v.app.SetFocus(v.Preview)
		}
	}
}

// ActivePanel returns the focused panel.
func (v *View) ActivePanel() Panel {
	return v.activePanel
}

// CycleBottom rotates the bottom panel: hidden, console, preview.
func (v *View) CycleBottom() Bottom {
	v.SetBottom((v.bottom + 1) % 3)
	return v.bottom
}

// SetBottom chooses what the bottom panel shows.
func (v *View) SetBottom(b Bottom) {
	v.bottom = b
	v.rebuildRoot()
	if b == BottomHidden && v.activePanel == PanelBottom {
		v.FocusPanel(PanelBoard)
	}
	v.applyBorderStyles()
}

// BottomShown returns what the bottom panel shows.
func (v *View) BottomShown() Bottom {
	return v.bottom
}

// ShowCommandBar replaces the status bar with the command input.
func (v *View) ShowCommandBar() {
	v.commandMode = true
	v.CommandBar.Reset()
	v.rebuildRoot()
	v.app.SetFocus(v.CommandBar)
}

// HideCommandBar restores the status bar and the previous focus.
func (v *View) HideCommandBar() {
	v.commandMode = false
	v.rebuildRoot()
	v.FocusPanel(v.activePanel)
}

// CommandMode reports whether the command bar is open.
func (v *View) CommandMode() bool {
	return v.commandMode
}

// ShowPicker opens the keycode picker prefilled with current.
func (v *View) ShowPicker(current string) {
	v.Picker.Reset(current)
	v.ShowPage(pagePicker)
	v.app.SetFocus(v.Picker.Input())
}

// HidePicker closes the keycode picker.
func (v *View) HidePicker() {
	v.HidePage(pagePicker)
	v.FocusPanel(v.activePanel)
}

// ShowHelp opens the help popup with text.
func (v *View) ShowHelp(text string) {
	v.Help.SetText(text)
	v.Help.ScrollToBeginning()
	v.ShowPage(pageHelp)
	v.app.SetFocus(v.Help)
}

// HideHelp closes the help popup.
func (v *View) HideHelp() {
	v.HidePage(pageHelp)
	v.FocusPanel(v.activePanel)
}

// ModalOpen reports whether a popup has focus.
func (v *View) ModalOpen() bool {
	front, _ := v.GetFrontPage()
	return front != pageMain
}

// HandleKey processes view-level keybindings. Returns nil to consume the
// event.
func (v *View) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	if v.commandMode || v.ModalOpen() {
		return event
	}
	switch keys.Normalize(event.Name()) {
	case v.cfg.Keybinds.FocusNext:
		v.FocusPanel(v.nextPanel(1))
		return nil
	case v.cfg.Keybinds.FocusPrev:
		v.FocusPanel(v.nextPanel(-1))
		return nil
	case v.cfg.Keybinds.ToggleConsole:
		v.CycleBottom()
		return nil
	}
	return event
}

func (v *View) nextPanel(step int) Panel {
	n := 2
	if v.bottom != BottomHidden {
		n = 3
	}
	return Panel((int(v.activePanel) + step + n) % n)
}

// applyBorderStyles updates border colors based on which panel is active.
func (v *View) applyBorderStyles() {
	focusedFg, _, _ := v.cfg.Theme.Border.Focused.Style.Decompose()
	normalFg, _, _ := v.cfg.Theme.Border.Normal.Style.Decompose()
	focusedTitleFg, _, _ := v.cfg.Theme.Title.Focused.Style.Decompose()
	normalTitleFg, _, _ := v.cfg.Theme.Title.Normal.Style.Decompose()

	type bordered struct {
		box   *tview.Box
		panel Panel
	}

	panels := []bordered{
		{v.Board.Box, PanelBoard},
		{v.Combos.Box, PanelCombos},
		{v.Console.Box, PanelBottom},
		{v.Preview.Box, PanelBottom},
	}

	for _, p := range panels {
		if p.panel == v.activePanel {
			p.box.SetBorderColor(focusedFg)
			p.box.SetTitleColor(focusedTitleFg)
		} else {
			p.box.SetBorderColor(normalFg)
			p.box.SetTitleColor(normalTitleFg)
		}
	}
}
