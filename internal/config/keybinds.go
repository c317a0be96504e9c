package config

// Keybinds holds all keybinding configuration. Values are plain strings
// matching the tcell.EventKey.Name() format (e.g. "Rune[j]", "Ctrl+S", "Enter").
type Keybinds struct {
	Quit          string `toml:"quit"`
	Help          string `toml:"help"`
	CommandMode   string `toml:"command_mode"`
	Save          string `toml:"save"`
	Reload        string `toml:"reload"`
	Undo          string `toml:"undo"`
	Build         string `toml:"build"`
	ToggleConsole string `toml:"toggle_console"`
	ToggleLock    string `toml:"toggle_lock"`
	Reconnect     string `toml:"reconnect"`
	Disconnect    string `toml:"disconnect"`
	FocusNext     string `toml:"focus_next"`
	FocusPrev     string `toml:"focus_prev"`

	Board  BoardKeybinds  `toml:"board"`
	Combos CombosKeybinds `toml:"combos"`
	Layers LayersKeybinds `toml:"layers"`
	Picker PickerKeybinds `toml:"picker"`
}

// BoardKeybinds holds keybindings for the key board panel.
type BoardKeybinds struct {
	Left      string `toml:"left"`
	Right     string `toml:"right"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	NextLayer string `toml:"next_layer"`
	PrevLayer string `toml:"prev_layer"`
	Edit      string `toml:"edit"`
	Copy      string `toml:"copy"`
	Paste     string `toml:"paste"`
	Clear     string `toml:"clear"`
}

// CombosKeybinds holds keybindings for the combo list and position picking.
type CombosKeybinds struct {
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Add       string `toml:"add"`
	Delete    string `toml:"delete"`
	Duplicate string `toml:"duplicate"`
	Pick      string `toml:"pick"`
	Done      string `toml:"done"`
	Cancel    string `toml:"cancel"`
}

// LayersKeybinds holds keybindings for layer management.
type LayersKeybinds struct {
	Add       string `toml:"add"`
	Delete    string `toml:"delete"`
	Rename    string `toml:"rename"`
	Duplicate string `toml:"duplicate"`
}

// PickerKeybinds holds keybindings for the keycode picker popup.
type PickerKeybinds struct {
	Close  string `toml:"close"`
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Select string `toml:"select"`
}
