package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/ui/board"
	"github.com/m96-chan/Keysmith/internal/ui/keys"
)

// App is the top-level application struct.
type App struct {
	Config *config.Config
	tview  *tview.Application
	ctrl   *Controller
	view   *board.View

	// editPos is the key the open keycode picker assigns to.
	editPos int

	redraw   atomic.Bool
	stopOnce sync.Once
}

// New creates the application and wires the view to a controller built
// from deps.
func New(cfg *config.Config, deps Deps) *App {
	a := &App{
		Config: cfg,
		tview:  tview.NewApplication(),
		ctrl:   NewController(cfg, deps),
	}
	a.view = board.New(a.tview, cfg)
	a.wire()
	return a
}

// Controller returns the session controller.
func (a *App) Controller() *Controller {
	return a.ctrl
}

// Run starts the TUI event loop and the device session. It returns when
// the user quits or the process is signalled.
func (a *App) Run() error {
	a.tview.EnableMouse(a.Config.Mouse)

	// Set up OS signal handling for graceful shutdown.
	sigCtx, sigStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigStop()
	go func() {
		<-sigCtx.Done()
		a.shutdown()
	}()

	// Register global keybindings.
	a.tview.SetInputCapture(a.handleGlobalKey)
	a.tview.SetRoot(a.view, true)

	a.ctrl.Start()
	a.refresh()
	defer a.ctrl.Close()

	return a.tview.Run()
}

// shutdown stops the TUI. Background tasks are stopped by Run on return.
func (a *App) shutdown() {
	a.stopOnce.Do(a.tview.Stop)
}

func (a *App) wire() {
	a.ctrl.SetHandler(Handler{
		OnChange: a.scheduleRefresh,
		OnQuit:   a.shutdown,
		OnOptionChanged: func(name string) {
			if name == "mouse" {
				a.tview.EnableMouse(a.Config.Mouse)
			}
		},
	})

	a.view.Board.SetOnAction(a.onBoardAction)
	a.view.Combos.SetOnAction(a.onComboAction)

	a.view.Picker.SetOnSelect(a.onPickerChoice)
	a.view.Picker.SetOnClose(a.view.HidePicker)

	a.view.CommandBar.SetCommands(CommandNames())
	for name, words := range commandArgs() {
		a.view.CommandBar.SetArgs(name, words)
	}
	a.view.CommandBar.SetOnExecute(func(line string) {
		a.view.HideCommandBar()
		go a.runCommand(line)
	})
	a.view.CommandBar.SetOnClose(a.view.HideCommandBar)
}

// scheduleRefresh queues a redraw. Calls made while one is pending are
// coalesced.
func (a *App) scheduleRefresh() {
	if !a.redraw.CompareAndSwap(false, true) {
		return
	}
	go a.tview.QueueUpdateDraw(func() {
		a.redraw.Store(false)
		a.refresh()
	})
}

// runCommand executes a command line and reports the result as a toast.
func (a *App) runCommand(line string) {
	msg, err := a.ctrl.Execute(line)
	if err != nil {
		slog.Debug("command failed", "command", line, "error", err)
		a.ctrl.Toasts.Error(err.Error())
		return
	}
	if msg != "" {
		a.ctrl.Toasts.Info(msg)
	}
}

// refresh copies controller state into the view. Must run on the tview
// event loop.
func (a *App) refresh() {
	ctrl := a.ctrl
	k, loaded := ctrl.Editor.Keymap()
	layer := ctrl.Editor.ActiveLayer()
	names := k.LayerNames()

	var caps []board.KeyCap
	layerName := ""
	if loaded && layer < len(k.Layers) {
		caps = keyCaps(k, layer, names)
		layerName = k.Layers[layer].Name
		a.view.Board.SetTitle(fmt.Sprintf(" %s (%d/%d) ", layerName, layer+1, len(k.Layers)))
	} else {
		a.view.Board.SetTitle(" Keymap ")
	}
	a.view.Board.SetKeys(caps, ctrl.Session.Layout())
	a.view.Board.SetCursor(ctrl.Cursor())

	picking, isPicking := ctrl.Editor.Picking()
	a.view.Board.SetPicking(ctrl.Editor.PickingPositions(), isPicking)
	if !isPicking {
		picking = -1
	}
	a.view.Combos.SetCombos(k.Combos, names, ctrl.Editor.SelectedCombo(), picking)

	a.view.Console.SetLines(ctrl.Console.Lines(), ctrl.Console.Building())
	if loaded && a.view.BottomShown() == board.BottomPreview {
		a.view.Preview.SetKeymap(k)
	}

	sb := a.view.StatusBar
	sb.SetDevice(ctrl.Session.Status(), ctrl.Session.BehaviorsReady())
	if bat, ok := ctrl.Session.Battery(); ok {
		sb.SetBattery(bat.String())
	} else {
		sb.SetBattery("")
	}
	sb.SetLayer(layerName, ctrl.Editor.Dirty())
	switch {
	case isPicking:
		sb.SetMode("PICK")
	case ctrl.PendingLiveUpdates() > 0:
		sb.SetMode("SYNC")
	default:
		sb.SetMode("")
	}
	sb.SetNotice(ctrl.Toasts.Current())
}

// keyCaps resolves the labels of one layer.
func keyCaps(k keymap.Keymap, layer int, names []string) []board.KeyCap {
	bindings := k.Layers[layer].Bindings
	caps := make([]board.KeyCap, len(bindings))
	for i, b := range bindings {
		label := keymap.ResolveLabel(b, names)
		caps[i] = board.KeyCap{Label: label, Kind: capKind(k, b, label)}
	}
	return caps
}

func capKind(k keymap.Keymap, b keymap.Binding, label keymap.Label) board.KeyKind {
	switch {
	case b.Action == "trans":
		return board.KindTransparent
	case keymap.IsLayerRef(b):
		return board.KindLayerRef
	case !knownAction(k, b.Action):
		return board.KindUnknown
	case label.Top != "":
		return board.KindHold
	}
	return board.KindKey
}

func knownAction(k keymap.Keymap, name string) bool {
	if _, ok := keymap.LookupAction(name); ok {
		return true
	}
	_, ok := k.FindBehavior(name)
	return ok
}

func (a *App) onBoardAction(action board.Action, pos int) {
	ctrl := a.ctrl
	layer := ctrl.Editor.ActiveLayer()

	switch action {
	case board.ActionMove:
		ctrl.SetCursor(pos)
	case board.ActionEdit:
		if _, picking := ctrl.Editor.Picking(); picking {
			ctrl.Editor.TogglePosition(pos)
			return
		}
		k, ok := ctrl.Editor.Keymap()
		if !ok {
			ctrl.Toasts.Error("No keymap loaded")
			return
		}
		current, _ := k.Binding(layer, pos)
		a.editPos = pos
		a.view.ShowPicker(current.String())
	case board.ActionCopy:
		if b, ok := ctrl.Copy(layer, pos); ok {
			ctrl.Toasts.Info("Copied " + b.String())
		}
	case board.ActionPaste:
		if !ctrl.Paste(layer, pos) {
			ctrl.Toasts.Warning("Nothing to paste")
		}
	case board.ActionClear:
		ctrl.Editor.SetBinding(layer, pos, keymap.Trans())
	case board.ActionNextLayer, board.ActionPrevLayer:
		k, ok := ctrl.Editor.Keymap()
		if !ok || len(k.Layers) == 0 {
			return
		}
		step := 1
		if action == board.ActionPrevLayer {
			step = -1
		}
		n := len(k.Layers)
		ctrl.Editor.SetActiveLayer((layer + step + n) % n)
	}
}

// onPickerChoice assigns the keycode picker's choice to the key it was
// opened on.
func (a *App) onPickerChoice(b keymap.Binding) {
	if !a.ctrl.Editor.SetBinding(a.ctrl.Editor.ActiveLayer(), a.editPos, b) {
		a.ctrl.Toasts.Error("No keymap loaded")
	}
}

func (a *App) onComboAction(action board.ComboAction, i int) {
	ed := a.ctrl.Editor
	switch action {
	case board.ComboSelect:
		ed.SelectCombo(i)
	case board.ComboAdd:
		if ed.AddCombo() {
			a.view.FocusPanel(board.PanelBoard)
		}
	case board.ComboDelete:
		ed.DeleteCombo(i)
	case board.ComboDuplicate:
		ed.DuplicateCombo(i)
	case board.ComboPick:
		if ed.StartPicking(i) {
			a.view.FocusPanel(board.PanelBoard)
		}
	case board.ComboDone:
		ed.FinishPicking()
	case board.ComboCancel:
		ed.CancelPicking()
	}
}

// handleGlobalKey processes global keybindings. It returns nil to consume the
// event or the original event to let it propagate.
func (a *App) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	kb := a.Config.Keybinds
	name := keys.Normalize(event.Name())

	if name == kb.Quit {
		if err := a.ctrl.Quit(false); err != nil {
			a.ctrl.Toasts.Error(err.Error())
		}
		return nil
	}
	if a.view.CommandMode() || a.view.ModalOpen() {
		return event
	}

	switch name {
	case kb.Help:
		a.view.ShowHelp(helpText(kb))
	case kb.CommandMode:
		a.view.ShowCommandBar()
	case kb.Save:
		if err := a.ctrl.Save(); err != nil {
			a.ctrl.Toasts.Error(err.Error())
		}
	case kb.Reload:
		if err := a.ctrl.Reload(false); err != nil {
			a.ctrl.Toasts.Error(err.Error())
		}
	case kb.Undo:
		if !a.ctrl.Editor.Undo() {
			a.ctrl.Toasts.Warning("Nothing to undo")
		}
	case kb.Build:
		if err := a.ctrl.Build(); err != nil {
			a.ctrl.Toasts.Error(err.Error())
		} else {
			a.view.SetBottom(board.BottomConsole)
		}
	case kb.ToggleLock:
		if err := a.ctrl.ToggleLock(); err != nil {
			a.ctrl.Toasts.Error(err.Error())
		}
	case kb.Reconnect:
		go a.ctrl.Reconnect()
	case kb.Disconnect:
		go a.ctrl.Disconnect()
	default:
		if a.handleLayerKey(name) {
			return nil
		}
		if _, picking := a.ctrl.Editor.Picking(); picking && name == kb.Combos.Cancel {
			a.ctrl.Editor.CancelPicking()
			return nil
		}
		if ev := a.view.HandleKey(event); ev == nil {
			a.refresh()
			return nil
		}
		return event
	}
	return nil
}

// handleLayerKey runs the layer keybinds while the board has focus and
// reports whether name was one.
func (a *App) handleLayerKey(name string) bool {
	if a.view.ActivePanel() != board.PanelBoard {
		return false
	}
	kb := a.Config.Keybinds.Layers
	switch name {
	case kb.Add:
		go a.runCommand("layer add")
	case kb.Delete:
		go a.runCommand("layer delete")
	case kb.Duplicate:
		go a.runCommand("layer dup")
	case kb.Rename:
		a.view.ShowCommandBar()
		a.view.CommandBar.SetText("layer rename ")
	default:
		return false
	}
	return true
}

// helpText lists the keybinds and commands.
func helpText(kb config.Keybinds) string {
	var b strings.Builder
	b.WriteString("[::b]Keys[::-]\n")
	rows := [][2]string{
		{kb.Help, "Toggle this help"},
		{kb.CommandMode, "Command mode"},
		{kb.Save, "Save keymap"},
		{kb.Reload, "Reload keymap"},
		{kb.Undo, "Undo"},
		{kb.Build, "Build firmware"},
		{kb.ToggleConsole, "Cycle console / preview"},
		{kb.ToggleLock, "Lock or unlock the device"},
		{kb.Reconnect, "Reconnect"},
		{kb.Disconnect, "Disconnect"},
		{kb.Board.Edit, "Edit key / pick combo key"},
		{kb.Board.Copy, "Copy key"},
		{kb.Board.Paste, "Paste key"},
		{kb.Board.Clear, "Clear key"},
		{kb.Board.NextLayer, "Next layer"},
		{kb.Board.PrevLayer, "Previous layer"},
		{kb.Layers.Add, "Add layer"},
		{kb.Layers.Delete, "Delete layer"},
		{kb.Layers.Rename, "Rename layer"},
		{kb.Layers.Duplicate, "Duplicate layer"},
		{kb.Quit, "Quit"},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-10s %s\n", tview.Escape(keys.Describe(r[0])), r[1])
	}

	b.WriteString("\n[::b]Commands[::-]\n")
	for _, cmd := range Commands() {
		usage := ":" + cmd.Name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		fmt.Fprintf(&b, "  %s\n      %s\n", tview.Escape(usage), cmd.Description)
	}
	return b.String()
}
