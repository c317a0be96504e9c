package keymap

import (
	"regexp"
	"strconv"
	"strings"
)

// Label is the display text for a key: Main is the tap output, Top an
// optional hold or qualifier shown above it.
type Label struct {
	Top  string
	Main string
}

// DefaultLayerNames are used for layer references when no names are given.
var DefaultLayerNames = []string{"BASE", "NAV", "NUM", "FUN", "UTIL", "GAME"}

// Nerd Font MDI glyphs.
const (
	glyphBackspace = "\U000F006E"
	glyphDelete    = "\U000F0E7E"
	glyphReturn    = "\U000F0311"
	glyphTab       = "\U000F0312"
	glyphSpace     = "\U000F1050"
	glyphVolUp     = "\U000F057E"
	glyphVolDown   = "\U000F057F"
	glyphMute      = "\U000F0581"
	glyphPlay      = "\U000F040A"
	glyphPause     = "\U000F03E4"
	glyphStop      = "\U000F04DB"
	glyphNext      = "\U000F04AD"
	glyphPrev      = "\U000F04AE"
	glyphPower     = "\U000F0425"
	glyphLock      = "\U000F033E"
	glyphHome      = "\U000F02DC"
	glyphSleep     = "\U000F04B2"
	glyphBluetooth = "\U000F00AF"
	glyphUSB       = "\U000F0553"
	glyphBriDown   = "\U000F00DE"
	glyphBriUp     = "\U000F00E0"
)

var keyLabels = map[string]string{
	// modifiers
	"LGUI": "Gui", "RGUI": "Gui", "LEFT_GUI": "Gui", "RIGHT_GUI": "Gui",
	"LWIN": "Win", "RWIN": "Win", "LEFT_WIN": "Win", "RIGHT_WIN": "Win",
	"LCMD": "Cmd", "RCMD": "Cmd", "LEFT_COMMAND": "Cmd", "RIGHT_COMMAND": "Cmd",
	"LMETA": "Meta", "RMETA": "Meta", "LEFT_META": "Meta", "RIGHT_META": "Meta",
	"LALT": "Alt", "RALT": "Alt", "LEFT_ALT": "Alt", "RIGHT_ALT": "Alt",
	"LCTRL": "Ctrl", "RCTRL": "Ctrl", "LEFT_CONTROL": "Ctrl", "RIGHT_CONTROL": "Ctrl",
	"LSHFT": "Shft", "RSHFT": "Shft", "LEFT_SHIFT": "Shft", "RIGHT_SHIFT": "Shft",
	"LSHIFT": "Shft", "RSHIFT": "Shft",

	// navigation
	"UP": "↑", "DOWN": "↓", "LEFT": "←", "RIGHT": "→",
	"UP_ARROW": "↑", "DOWN_ARROW": "↓", "LEFT_ARROW": "←", "RIGHT_ARROW": "→",
	"HOME": glyphHome, "END": "End",
	"PG_UP": "PgUp", "PG_DN": "PgDn", "PAGE_UP": "PgUp", "PAGE_DOWN": "PgDn",

	// editing
	"BSPC": glyphBackspace, "BACKSPACE": glyphBackspace,
	"DEL": glyphDelete, "DELETE": glyphDelete,
	"TAB": glyphTab,
	"RET": glyphReturn, "RETURN": glyphReturn, "ENTER": glyphReturn,
	"RET2": glyphReturn, "RETURN2": glyphReturn,
	"ESC": "Esc", "ESCAPE": "Esc",
	"SPACE": glyphSpace,
	"INS": "Ins", "INSERT": "Ins",

	// locks
	"CAPS": "Caps", "CAPSLOCK": "Caps", "CLCK": "Caps",
	"LCAPS": "Caps", "LOCKING_CAPS": "Caps",
	"SCROLLLOCK": "ScrLk", "LSLCK": "ScrLk", "LOCKING_SCROLL": "ScrLk", "SLCK": "ScrLk",
	"KP_NUMLOCK": "NumLk", "KP_NUM": "NumLk", "KP_NLCK": "NumLk",
	"LNLCK": "NumLk", "LOCKING_NUM": "NumLk",

	// numbers
	"N0": "0", "N1": "1", "N2": "2", "N3": "3", "N4": "4",
	"N5": "5", "N6": "6", "N7": "7", "N8": "8", "N9": "9",
	"NUMBER_0": "0", "NUMBER_1": "1", "NUMBER_2": "2", "NUMBER_3": "3", "NUMBER_4": "4",
	"NUMBER_5": "5", "NUMBER_6": "6", "NUMBER_7": "7", "NUMBER_8": "8", "NUMBER_9": "9",

	// symbols
	"MINUS": "-", "EQUAL": "=", "LBKT": "[", "RBKT": "]", "BSLH": "\\",
	"LEFT_BRACKET": "[", "RIGHT_BRACKET": "]", "BACKSLASH": "\\",
	"SEMI": ";", "SEMICOLON": ";", "SQT": "'", "SINGLE_QUOTE": "'", "APOSTROPHE": "'", "APOS": "'",
	"GRAVE": "`", "COMMA": ",", "DOT": ".", "PERIOD": ".", "FSLH": "/", "SLASH": "/",
	"EXCL": "!", "EXCLAMATION": "!", "AT": "@", "AT_SIGN": "@",
	"HASH": "#", "POUND": "#", "DLLR": "$", "DOLLAR": "$", "PRCNT": "%", "PERCENT": "%",
	"CARET": "^", "AMPS": "&", "AMPERSAND": "&", "STAR": "*", "ASTERISK": "*", "ASTRK": "*",
	"LPAR": "(", "RPAR": ")", "LEFT_PARENTHESIS": "(", "RIGHT_PARENTHESIS": ")",
	"UNDER": "_", "UNDERSCORE": "_", "PLUS": "+", "PIPE": "|", "PIPE2": "|",
	"TILDE": "~", "TILDE2": "~", "DQT": "\"", "DOUBLE_QUOTES": "\"",
	"LT": "<", "LESS_THAN": "<", "GT": ">", "GREATER_THAN": ">",
	"LBRC": "{", "LEFT_BRACE": "{", "RBRC": "}", "RIGHT_BRACE": "}",
	"QMARK": "?", "QUESTION": "?", "COLON": ":",
	"NON_US_BSLH": "\\", "NUBS": "\\", "NON_US_BACKSLASH": "\\",
	"NON_US_HASH": "#", "NUHS": "#",

	// system
	"PSCRN": "PScr", "PRINTSCREEN": "PScr",
	"PAUSE_BREAK": "Pause",
	"SYSREQ": "SysRq", "ATTENTION": "SysRq",

	// keypad
	"KP_N0": "KP 0", "KP_N1": "KP 1", "KP_N2": "KP 2", "KP_N3": "KP 3", "KP_N4": "KP 4",
	"KP_N5": "KP 5", "KP_N6": "KP 6", "KP_N7": "KP 7", "KP_N8": "KP 8", "KP_N9": "KP 9",
	"KP_PLUS": "KP +", "KP_MINUS": "KP -", "KP_SUBTRACT": "KP -",
	"KP_MULTIPLY": "KP *", "KP_ASTERISK": "KP *",
	"KP_DIVIDE": "KP /", "KP_SLASH": "KP /",
	"KP_DOT": "KP .", "KP_COMMA": "KP ,", "KP_EQUAL": "KP =",
	"KP_ENTER": "KP " + glyphReturn,
	"KP_LPAR": "KP (", "KP_RPAR": "KP )",
	"KP_CLEAR": "KP Clr", "CLEAR": "Clr",

	// media
	"C_PLAY": glyphPlay, "C_PAUSE": glyphPause, "C_STOP": glyphStop,
	"C_PP": glyphPlay, "C_PLAY_PAUSE": glyphPlay, "K_PP": glyphPlay, "K_PLAY_PAUSE": glyphPlay,
	"C_NEXT": glyphNext, "K_NEXT": glyphNext,
	"C_PREV": glyphPrev, "C_PREVIOUS": glyphPrev, "K_PREV": glyphPrev, "K_PREVIOUS": glyphPrev,
	"C_FF": "FF", "C_FAST_FORWARD": "FF", "C_RW": "RW", "C_REWIND": "RW",
	"C_EJECT": "Eject", "K_EJECT": "Eject",
	"C_VOL_UP": glyphVolUp, "C_VOLUME_UP": glyphVolUp, "K_VOL_UP": glyphVolUp, "K_VOLUME_UP": glyphVolUp,
	"C_VOL_DN": glyphVolDown, "C_VOLUME_DOWN": glyphVolDown, "K_VOL_DN": glyphVolDown, "K_VOLUME_DOWN": glyphVolDown,
	"C_MUTE": glyphMute, "K_MUTE": glyphMute,
	"C_BRI_UP": glyphBriUp, "C_BRI_INC": glyphBriUp, "C_BRIGHTNESS_INC": glyphBriUp,
	"C_BRI_DN": glyphBriDown, "C_BRI_DEC": glyphBriDown, "C_BRIGHTNESS_DEC": glyphBriDown,
	"C_BRI_MIN": "Bri Min", "C_BRI_MAX": "Bri Max", "C_BRI_AUTO": "Bri A",

	// power
	"C_PWR": glyphPower, "C_POWER": glyphPower, "K_PWR": glyphPower, "K_POWER": glyphPower,
	"C_SLEEP": glyphSleep, "K_SLEEP": glyphSleep,
	"C_AL_LOCK": glyphLock, "C_AL_SCREENSAVER": glyphLock, "K_LOCK": glyphLock,

	// application control
	"C_AC_HOME": glyphHome, "C_AC_BACK": "Back", "C_AC_FORWARD": "Fwd",
	"C_AC_REFRESH": "Rfsh", "K_REFRESH": "Rfsh", "C_AC_STOP": "Stop",
	"C_AC_SEARCH": "Srch", "C_AC_FIND": "Srch", "K_FIND": "Srch",
	"C_AC_BOOKMARKS": "Bkmk", "C_AC_ZOOM_IN": "Z+", "C_AC_ZOOM_OUT": "Z-",
	"C_AC_CUT": "Cut", "C_AC_COPY": "Copy", "C_AC_PASTE": "Pste",
	"C_AC_UNDO": "Undo", "C_AC_REDO": "Redo",
	"C_AL_CALC": "Calc", "C_AL_CALCULATOR": "Calc", "K_CALC": "Calc",
	"C_AL_FILES": "Files", "C_AL_WWW": "Web", "K_WWW": "Web",
	"C_AL_MAIL": "Mail", "C_AL_EMAIL": "Mail",
	"GLOBE": "Globe",
	"K_UNDO": "Undo", "K_CUT": "Cut", "K_COPY": "Copy", "K_PASTE": "Pste",
	"K_REDO": "Redo", "K_AGAIN": "Redo",
	"K_APP": "Menu", "K_CONTEXT_MENU": "Menu", "K_CMENU": "Menu", "K_APPLICATION": "Menu",

	// international
	"INT1": "Int1", "INT_RO": "Ro", "INT2": "Int2", "INT_KANA": "Kana",
	"INT3": "Int3", "INT_YEN": "¥", "INT4": "Int4", "INT_HENKAN": "Henk",
	"INT5": "Int5", "INT_MUHENKAN": "Muhn",
	"LANG1": "Lang1", "LANG_HANGEUL": "Hang", "LANG2": "Lang2", "LANG_HANJA": "Hnja",

	// mouse
	"LCLK": "LClk", "RCLK": "RClk", "MCLK": "MClk", "MB4": "MB4", "MB5": "MB5",
	"MOVE_LEFT": "←", "MOVE_RIGHT": "→", "MOVE_UP": "↑", "MOVE_DOWN": "↓",
	"SCRL_UP": "S↑", "SCRL_DOWN": "S↓", "SCRL_LEFT": "S←", "SCRL_RIGHT": "S→",

	// bluetooth and output
	"BT_SEL": glyphBluetooth, "BT_CLR": "BT Clr", "BT_CLR_ALL": "BT ClrA",
	"BT_NXT": "BT→", "BT_PRV": "BT←",
	"OUT_TOG": glyphUSB + "/" + glyphBluetooth, "OUT_USB": glyphUSB, "OUT_BLE": glyphBluetooth,
}

var modifierPrefixes = map[string]string{
	"LC": "C-", "RC": "C-",
	"LS": "S-", "RS": "S-",
	"LA": "A-", "RA": "A-",
	"LG": "G-", "RG": "G-",
}

var modWrapperRe = regexp.MustCompile(`^(L[CSAG]|R[CSAG])\((.+)\)$`)

// KeyLabel returns the display label for a single keycode, unwrapping
// modifier functions such as LC(X) into "C-X".
func KeyLabel(code string) string {
	if code == "LS(LC(LA(LGUI)))" || code == "RS(RC(RA(RGUI)))" {
		return "Hyper"
	}
	if m := modWrapperRe.FindStringSubmatch(code); m != nil {
		return modifierPrefixes[m[1]] + KeyLabel(m[2])
	}
	if l, ok := keyLabels[code]; ok {
		return l
	}
	return code
}

// ResolveLabel maps a binding to its display label. layerNames resolves
// layer references; when nil, DefaultLayerNames is used.
func ResolveLabel(b Binding, layerNames []string) Label {
	if layerNames == nil {
		layerNames = DefaultLayerNames
	}
	p := func(i int) string {
		if i < len(b.Params) {
			return b.Params[i]
		}
		return ""
	}
	layer := func() string {
		return layerName(p(0), layerNames)
	}

	switch b.Action {
	case "kp", "mkp":
		return Label{Main: KeyLabel(p(0))}
	case "hml", "hmr", "mt":
		return Label{Top: KeyLabel(p(0)), Main: KeyLabel(p(1))}
	case "lt", "lt_th":
		return Label{Top: layer(), Main: KeyLabel(p(1))}
	case "trans":
		return Label{}
	case "none":
		return Label{Main: "✕"}
	case "bt":
		switch p(0) {
		case "BT_CLR":
			return Label{Main: "BT Clr"}
		case "BT_CLR_ALL":
			return Label{Main: "Clr All"}
		case "BT_NXT":
			return Label{Main: "BT ▸"}
		case "BT_PRV":
			return Label{Main: "BT ◂"}
		case "BT_DISC":
			return Label{Top: glyphBluetooth, Main: "DC" + p(1)}
		case "BT_SEL":
			return Label{Top: glyphBluetooth, Main: p(1)}
		case "":
			return Label{Main: "BT"}
		}
		return Label{Main: KeyLabel(p(0))}
	case "out":
		if p(0) == "" {
			return Label{Main: KeyLabel("OUT_TOG")}
		}
		return Label{Main: KeyLabel(p(0))}
	case "tog":
		return Label{Top: "TOG", Main: layer()}
	case "mo":
		return Label{Top: "MO", Main: layer()}
	case "sl":
		return Label{Top: "SL", Main: layer()}
	case "to":
		return Label{Top: "TO", Main: layer()}
	case "comma_morph":
		return Label{Top: ";", Main: ","}
	case "dot_morph":
		return Label{Top: ":", Main: "."}
	case "mmv":
		return Label{Top: "Mouse", Main: KeyLabel(p(0))}
	case "msc":
		return Label{Top: "Scrl", Main: KeyLabel(p(0))}
	case "caps_word":
		return Label{Main: "Caps"}
	case "studio_unlock":
		return Label{Main: glyphLock}
	case "fat_arrow":
		return Label{Main: "=>"}
	case "sk":
		return Label{Top: "SK", Main: KeyLabel(p(0))}
	case "kt":
		return Label{Top: "KT", Main: KeyLabel(p(0))}
	case "key_repeat":
		return Label{Main: "RPT"}
	case "bootloader":
		return Label{Main: "BOOT"}
	case "sys_reset":
		return Label{Main: "RST"}
	case "soft_off":
		return Label{Main: glyphSleep}
	case "ext_power":
		return Label{Top: glyphPower, Main: trimOr(p(0), "EP_", "TOG")}
	case "rgb_ug":
		return Label{Top: "RGB", Main: trimOr(p(0), "RGB_", "TOG")}
	case "bl":
		return Label{Top: "BL", Main: trimOr(p(0), "BL_", "TOG")}
	case "gresc":
		return Label{Main: "Esc/`"}
	case "td":
		return Label{Top: "TD", Main: p(0)}
	case "conditional_layer":
		return Label{Top: "CL", Main: p(0)}
	default:
		return Label{Main: b.Action}
	}
}

func layerName(ref string, names []string) string {
	idx, err := strconv.Atoi(ref)
	if err != nil || idx < 0 || idx >= len(names) {
		return ref
	}
	return names[idx]
}

func trimOr(s, prefix, fallback string) string {
	if s == "" {
		return fallback
	}
	return strings.TrimPrefix(s, prefix)
}
