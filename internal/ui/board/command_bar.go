package board

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
)

// historyLimit bounds the remembered command lines.
const historyLimit = 100

// CommandBar is the ":" line. Tab completes command names and, for
// commands with registered arguments, their first argument. Up and Down
// browse earlier lines.
type CommandBar struct {
	*tview.InputField
	cfg *config.Config

	commands []string
	args     map[string][]string

	history []string
	// browse is the history index being shown, len(history) when not
	// browsing. draft holds the unfinished line while browsing.
	browse int
	draft  string

	onExecute func(line string)
	onClose   func()
}

func NewCommandBar(cfg *config.Config) *CommandBar {
	cb := &CommandBar{
		InputField: tview.NewInputField(),
		cfg:        cfg,
		args:       make(map[string][]string),
	}
	cb.SetLabel(":")
	cb.SetFieldBackgroundColor(tcell.ColorDefault)
	cb.SetInputCapture(cb.handleInput)
	cb.SetAutocompleteFunc(cb.autocomplete)
	cb.SetAutocompletedFunc(func(text string, _, _ int) bool {
		cb.SetText(text)
		return true
	})
	return cb
}

// SetCommands sets the command names offered for completion.
func (cb *CommandBar) SetCommands(names []string) {
	cb.commands = names
}

// SetArgs registers the first-argument completions of command.
func (cb *CommandBar) SetArgs(command string, words []string) {
	cb.args[command] = words
}

func (cb *CommandBar) SetOnExecute(fn func(line string)) { cb.onExecute = fn }
func (cb *CommandBar) SetOnClose(fn func())              { cb.onClose = fn }

// Reset clears the input and leaves history browsing.
func (cb *CommandBar) Reset() {
	cb.SetText("")
	cb.browse = len(cb.history)
	cb.draft = ""
}

func (cb *CommandBar) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter:
		cb.execute()
	case tcell.KeyEscape:
		if cb.onClose != nil {
			cb.onClose()
		}
	case tcell.KeyUp:
		cb.historyPrev()
	case tcell.KeyDown:
		cb.historyNext()
	default:
		return event
	}
	return nil
}

func (cb *CommandBar) execute() {
	line := strings.TrimSpace(cb.GetText())
	if line == "" {
		if cb.onClose != nil {
			cb.onClose()
		}
		return
	}
	cb.remember(line)
	cb.Reset()
	if cb.onExecute != nil {
		cb.onExecute(line)
	}
}

// remember appends line unless it repeats the newest entry.
func (cb *CommandBar) remember(line string) {
	if n := len(cb.history); n > 0 && cb.history[n-1] == line {
		return
	}
	cb.history = append(cb.history, line)
	if len(cb.history) > historyLimit {
		cb.history = cb.history[len(cb.history)-historyLimit:]
	}
}

func (cb *CommandBar) historyPrev() {
	if cb.browse == 0 {
		return
	}
	if cb.browse == len(cb.history) {
		cb.draft = cb.GetText()
	}
	cb.browse--
	cb.SetText(cb.history[cb.browse])
}

func (cb *CommandBar) historyNext() {
	if cb.browse >= len(cb.history) {
		return
	}
	cb.browse++
	if cb.browse == len(cb.history) {
		cb.SetText(cb.draft)
		return
	}
	cb.SetText(cb.history[cb.browse])
}

func (cb *CommandBar) autocomplete(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)

	command, rest, hasArg := strings.Cut(text, " ")
	if !hasArg {
		return withPrefix(cb.commands, text, "")
	}
	rest = strings.TrimLeft(rest, " ")
	if strings.Contains(rest, " ") {
		return nil
	}
	return withPrefix(cb.args[command], rest, command+" ")
}

func withPrefix(words []string, prefix, lead string) []string {
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, lead+w)
		}
	}
	return out
}
