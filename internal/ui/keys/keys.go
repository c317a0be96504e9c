package keys

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Normalize converts tcell key names to the config format.
// tcell outputs "Ctrl-C" (hyphen) for bare Ctrl keys but config uses "Ctrl+C" (plus).
func Normalize(name string) string {
	return strings.ReplaceAll(name, "Ctrl-", "Ctrl+")
}

// Matches reports whether event is the configured key. An empty binding
// never matches.
func Matches(event *tcell.EventKey, binding string) bool {
	return binding != "" && Normalize(event.Name()) == binding
}

// Describe turns a configured key into the text shown in help: "Rune[j]"
// becomes "j".
func Describe(binding string) string {
	if inner, ok := strings.CutPrefix(binding, "Rune["); ok {
		return strings.TrimSuffix(inner, "]")
	}
	return binding
}
