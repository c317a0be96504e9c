package config

// BuiltinTheme returns a fully populated Theme for the given preset name.
// Unknown names fall back to "default".
func BuiltinTheme(name string) Theme {
	switch name {
	case "dark":
		return darkTheme()
	case "light":
		return lightTheme()
	case "monokai":
		return monokaiTheme()
	case "solarized_dark":
		return solarizedDarkTheme()
	default:
		return defaultTheme()
	}
}

// PresetNames lists the builtin theme presets.
func PresetNames() []string {
	return []string{"default", "dark", "light", "monokai", "solarized_dark"}
}

// palette is the handful of colors a preset varies.
type palette struct {
	name                          string
	text, muted, accent, selected string
	ok, warn, bad, ref            string
	selectBg                      string
}

func (p palette) theme() Theme {
	return Theme{
		Preset: p.name,
		Border: BorderTheme{
			Focused: makeStyle(p.accent, "", ""),
			Normal:  makeStyle(p.muted, "", ""),
		},
		Title: TitleTheme{
			Focused: makeStyle(p.text, "", "b"),
			Normal:  makeStyle(p.muted, "", ""),
		},
		Board: BoardTheme{
			Key:         makeStyle(p.text, "", ""),
			Selected:    makeStyle(p.selected, p.selectBg, "b"),
			Transparent: makeStyle(p.muted, "", "d"),
			LayerRef:    makeStyle(p.ref, "", ""),
			Hold:        makeStyle(p.accent, "", ""),
			Unknown:     makeStyle(p.bad, "", "u"),
		},
		Combos: CombosTheme{
			Combo:    makeStyle(p.text, "", ""),
			Selected: makeStyle(p.selected, p.selectBg, "b"),
			Picked:   makeStyle(p.warn, "", "b"),
		},
		StatusBar: StatusBarTheme{
			Text:         makeStyle(p.text, "", ""),
			Connected:    makeStyle(p.ok, "", ""),
			Disconnected: makeStyle(p.muted, "", ""),
			Locked:       makeStyle(p.warn, "", "b"),
			Dirty:        makeStyle(p.warn, "", ""),
		},
		Console: ConsoleTheme{
			Stdout:  makeStyle(p.text, "", ""),
			Stderr:  makeStyle(p.bad, "", ""),
			Success: makeStyle(p.ok, "", "b"),
			Failure: makeStyle(p.bad, "", "b"),
		},
		Toast: ToastTheme{
			Info:    makeStyle(p.text, "", ""),
			Warning: makeStyle(p.warn, "", "b"),
			Error:   makeStyle(p.bad, "", "b"),
		},
	}
}

func defaultTheme() Theme {
	return palette{
		name: "default", text: "white", muted: "gray", accent: "blue", selected: "white",
		ok: "green", warn: "yellow", bad: "red", ref: "cyan", selectBg: "blue",
	}.theme()
}

func darkTheme() Theme {
	return palette{
		name: "dark", text: "#d0d0d0", muted: "#606060", accent: "#5f87ff", selected: "#ffffff",
		ok: "#87d787", warn: "#ffd75f", bad: "#ff5f5f", ref: "#5fd7d7", selectBg: "#303030",
	}.theme()
}

func lightTheme() Theme {
	return palette{
		name: "light", text: "black", muted: "#808080", accent: "navy", selected: "black",
		ok: "darkgreen", warn: "#af5f00", bad: "darkred", ref: "teal", selectBg: "#d0d0d0",
	}.theme()
}

func monokaiTheme() Theme {
	return palette{
		name: "monokai", text: "#f8f8f2", muted: "#75715e", accent: "#66d9ef", selected: "#272822",
		ok: "#a6e22e", warn: "#e6db74", bad: "#f92672", ref: "#ae81ff", selectBg: "#a6e22e",
	}.theme()
}

func solarizedDarkTheme() Theme {
	return palette{
		name: "solarized_dark", text: "#839496", muted: "#586e75", accent: "#268bd2", selected: "#fdf6e3",
		ok: "#859900", warn: "#b58900", bad: "#dc322f", ref: "#2aa198", selectBg: "#073642",
	}.theme()
}
