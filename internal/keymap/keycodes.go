package keymap

import "github.com/sahilm/fuzzy"

// KeycodeCategory groups keycodes for the picker.
type KeycodeCategory struct {
	Name  string
	Codes []string
}

// Keycodes is the picker catalog, in display order.
var Keycodes = []KeycodeCategory{
	{"Letters", []string{
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	}},
	{"Numbers", []string{"N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8", "N9", "N0"}},
	{"F-Keys", []string{"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12"}},
	{"Modifiers", []string{"LSHFT", "RSHFT", "LCTRL", "RCTRL", "LALT", "RALT", "LGUI", "RGUI"}},
	{"Navigation", []string{"UP", "DOWN", "LEFT", "RIGHT", "HOME", "END", "PG_UP", "PG_DN"}},
	{"Editing", []string{"BSPC", "DEL", "TAB", "RET", "ESC", "SPACE", "INS"}},
	{"Symbols", []string{
		"MINUS", "EQUAL", "LBKT", "RBKT", "BSLH", "SEMI", "SQT", "GRAVE", "COMMA", "DOT", "FSLH",
		"EXCL", "AT", "HASH", "DLLR", "PRCNT", "CARET", "AMPS", "STAR", "LPAR", "RPAR",
		"UNDER", "PLUS", "PIPE", "TILDE", "DQT", "LT", "GT", "LBRC", "RBRC", "QMARK", "COLON",
	}},
	{"Media", []string{
		"C_VOL_UP", "C_VOL_DN", "C_MUTE", "C_PP", "C_NEXT", "C_PREV",
		"C_BRI_UP", "C_BRI_DN", "C_PLAY_PAUSE",
	}},
	{"Mouse", []string{"LCLK", "RCLK", "MCLK", "MB4", "MB5"}},
	{"International", []string{
		"NON_US_HASH", "NON_US_BSLH",
		"INT1", "INT2", "INT3", "INT4", "INT5", "INT6", "INT7", "INT8", "INT9",
		"LANG1", "LANG2", "LANG3", "LANG4", "LANG5", "LANG6", "LANG7", "LANG8", "LANG9",
	}},
}

// Action describes one binding action offered by the picker.
type Action struct {
	Name        string
	Title       string
	Description string
	Params      int
}

// Actions lists the known binding actions.
var Actions = []Action{
	{"kp", "Key Press", "Send a keycode when pressed", 1},
	{"mt", "Mod-Tap", "Hold: modifier, tap: keycode", 2},
	{"lt", "Layer-Tap", "Hold: activate layer, tap: keycode", 2},
	{"sk", "Sticky Key", "One-shot modifier for the next keypress", 1},
	{"kt", "Key Toggle", "Press to toggle a key on, again to toggle off", 1},
	{"gresc", "Grave Escape", "Tap: Escape, with Shift or GUI held: grave", 0},
	{"caps_word", "Caps Word", "Capitalizes the next word", 0},
	{"key_repeat", "Key Repeat", "Repeats the last pressed key", 0},
	{"td", "Tap Dance", "Different action per tap count", 0},
	{"hml", "HRM Left", "Positional hold-tap for the left hand", 2},
	{"hmr", "HRM Right", "Positional hold-tap for the right hand", 2},
	{"lt_th", "Layer-Tap Thumb", "Layer-tap tuned for thumb keys", 2},
	{"mo", "Momentary", "Activate layer while held", 1},
	{"tog", "Toggle", "Toggle layer on or off", 1},
	{"sl", "Sticky Layer", "Activate layer for the next keypress", 1},
	{"to", "To Layer", "Switch to layer until another to", 1},
	{"trans", "Transparent", "Falls through to the layer below", 0},
	{"none", "None", "Blocks the key", 0},
	{"mmv", "Move", "Move the mouse cursor", 1},
	{"msc", "Scroll", "Scroll the mouse wheel", 1},
	{"mkp", "Click", "Press a mouse button", 1},
	{"bt", "Bluetooth", "Profile switching, pairing and clearing", 1},
	{"out", "Output", "Select USB or Bluetooth output", 1},
	{"comma_morph", ", → ;", "Shifted comma sends semicolon", 0},
	{"dot_morph", ". → :", "Shifted period sends colon", 0},
	{"fat_arrow", "=> Macro", "Types =>", 0},
	{"soft_off", "Soft Off", "Put the keyboard into deep sleep", 0},
	{"bootloader", "Bootloader", "Enter firmware flash mode", 0},
	{"sys_reset", "Reset", "Reset the microcontroller", 0},
	{"ext_power", "Ext Power", "Control external power output", 1},
	{"studio_unlock", "Studio Unlock", "Unlock the device for live editing", 0},
}

// AllKeycodes returns every catalog keycode in display order.
func AllKeycodes() []string {
	var out []string
	for _, c := range Keycodes {
		out = append(out, c.Codes...)
	}
	return out
}

// LookupAction returns the catalog entry for name.
func LookupAction(name string) (Action, bool) {
	for _, a := range Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// KeycodeMatch is a search hit: the keycode and its display label.
type KeycodeMatch struct {
	Code  string
	Label string
}

// SearchKeycodes fuzzy-matches query against keycodes and their labels,
// best match first. An empty query returns the whole catalog.
func SearchKeycodes(query string, limit int) []KeycodeMatch {
	codes := AllKeycodes()
	if query == "" {
		if limit > 0 && limit < len(codes) {
			codes = codes[:limit]
		}
		out := make([]KeycodeMatch, len(codes))
		for i, c := range codes {
			out[i] = KeycodeMatch{Code: c, Label: KeyLabel(c)}
		}
		return out
	}

	matches := fuzzy.Find(query, codes)
	count := len(matches)
	if limit > 0 && count > limit {
		count = limit
	}

	out := make([]KeycodeMatch, 0, count)
	for i := 0; i < count; i++ {
		c := codes[matches[i].Index]
		out = append(out, KeycodeMatch{Code: c, Label: KeyLabel(c)})
	}
	return out
}
