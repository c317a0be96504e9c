package config

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// StyleWrapper wraps tcell.Style and implements TOML unmarshalling.
// In TOML it is represented as a table with optional "foreground",
// "background", and "attributes" string fields. The raw values are kept
// so the style can also be written as a tview color tag.
type StyleWrapper struct {
	tcell.Style

	fg, bg, attrs string
}

// makeStyle builds a style from tview color names and attribute letters
// (e.g. "b", "bu").
func makeStyle(fg, bg, attrs string) StyleWrapper {
	style := tcell.StyleDefault
	if fg != "" {
		style = style.Foreground(tcell.GetColor(fg))
	}
	if bg != "" {
		style = style.Background(tcell.GetColor(bg))
	}
	var mask tcell.AttrMask
	for _, r := range attrs {
		mask |= letterAttrs[r]
	}
	if mask != 0 {
		style = style.Attributes(mask)
	}
	return StyleWrapper{Style: style, fg: fg, bg: bg, attrs: attrs}
}

// UnmarshalTOML implements the toml.Unmarshaler interface.
func (s *StyleWrapper) UnmarshalTOML(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("expected table for style, got %T", data)
	}

	fg, _ := m["foreground"].(string)
	bg, _ := m["background"].(string)
	var letters string
	if attrs, ok := m["attributes"].(string); ok && attrs != "" {
		if _, err := stringToAttrMask(attrs); err != nil {
			return err
		}
		letters = attrsToTviewString(attrs)
	}

	*s = makeStyle(fg, bg, letters)
	return nil
}

// Tag returns the tview color tag that starts this style.
func (s StyleWrapper) Tag() string {
	fg := orDash(s.fg)
	if s.bg == "" && s.attrs == "" {
		return "[" + fg + "]"
	}
	return "[" + fg + ":" + orDash(s.bg) + ":" + orDash(s.attrs) + "]"
}

// Reset returns the tview tag that ends this style.
func (s StyleWrapper) Reset() string {
	switch {
	case s.bg != "":
		return "[-:-:-]"
	case s.attrs != "":
		return "[-::-]"
	default:
		return "[-]"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var letterAttrs = map[rune]tcell.AttrMask{
	'b': tcell.AttrBold,
	'i': tcell.AttrItalic,
	'u': tcell.AttrUnderline,
	'd': tcell.AttrDim,
	'r': tcell.AttrReverse,
	'l': tcell.AttrBlink,
	's': tcell.AttrStrikeThrough,
}

// attrsToTviewString converts "bold|underline" into tview attribute
// letters ("bu"), in a fixed order.
func attrsToTviewString(s string) string {
	mask, err := stringToAttrMask(s)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, r := range "biudrls" {
		if mask&letterAttrs[r] != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stringToAttrMask parses a pipe-separated list of attribute names into
// a tcell.AttrMask. For example: "bold|underline".
func stringToAttrMask(s string) (tcell.AttrMask, error) {
	var mask tcell.AttrMask
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch part {
		case "bold":
			mask |= tcell.AttrBold
		case "italic":
			mask |= tcell.AttrItalic
		case "underline":
			mask |= tcell.AttrUnderline
		case "dim":
			mask |= tcell.AttrDim
		case "reverse":
			mask |= tcell.AttrReverse
		case "blink":
			mask |= tcell.AttrBlink
		case "strikethrough":
			mask |= tcell.AttrStrikeThrough
		case "none", "":
			// no-op
		default:
			return 0, fmt.Errorf("unknown style attribute: %q", part)
		}
	}
	return mask, nil
}

// Theme holds the complete theme configuration.
type Theme struct {
	Preset    string         `toml:"preset"`
	Border    BorderTheme    `toml:"border"`
	Title     TitleTheme     `toml:"title"`
	Board     BoardTheme     `toml:"board"`
	Combos    CombosTheme    `toml:"combos"`
	StatusBar StatusBarTheme `toml:"status_bar"`
	Console   ConsoleTheme   `toml:"console"`
	Toast     ToastTheme     `toml:"toast"`
}

// BorderTheme configures border styling.
type BorderTheme struct {
	Focused StyleWrapper `toml:"focused"`
	Normal  StyleWrapper `toml:"normal"`
}

// TitleTheme configures title bar styling.
type TitleTheme struct {
	Focused StyleWrapper `toml:"focused"`
	Normal  StyleWrapper `toml:"normal"`
}

// BoardTheme configures the key board.
type BoardTheme struct {
	Key         StyleWrapper `toml:"key"`
	Selected    StyleWrapper `toml:"selected"`
	Transparent StyleWrapper `toml:"transparent"`
	LayerRef    StyleWrapper `toml:"layer_ref"`
	Hold        StyleWrapper `toml:"hold"`
	Unknown     StyleWrapper `toml:"unknown"`
}

// CombosTheme configures the combo list and picked positions.
type CombosTheme struct {
	Combo    StyleWrapper `toml:"combo"`
	Selected StyleWrapper `toml:"selected"`
	Picked   StyleWrapper `toml:"picked"`
}

// StatusBarTheme configures the status bar styling.
type StatusBarTheme struct {
	Text         StyleWrapper `toml:"text"`
	Connected    StyleWrapper `toml:"connected"`
	Disconnected StyleWrapper `toml:"disconnected"`
	Locked       StyleWrapper `toml:"locked"`
	Dirty        StyleWrapper `toml:"dirty"`
}

// ConsoleTheme configures build console lines.
type ConsoleTheme struct {
	Stdout  StyleWrapper `toml:"stdout"`
	Stderr  StyleWrapper `toml:"stderr"`
	Success StyleWrapper `toml:"success"`
	Failure StyleWrapper `toml:"failure"`
}

// ToastTheme configures transient notices.
type ToastTheme struct {
	Info    StyleWrapper `toml:"info"`
	Warning StyleWrapper `toml:"warning"`
	Error   StyleWrapper `toml:"error"`
}
