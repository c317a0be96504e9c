package config

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestMakeStyle_Tag(t *testing.T) {
	tests := []struct {
		name string
		fg   string
		bg   string
		attr string
		want string
	}{
		{"fg only", "green", "", "", "[green]"},
		{"fg+attr", "green", "", "b", "[green:-:b]"},
		{"fg+bg+attr", "green", "black", "b", "[green:black:b]"},
		{"fg+bg", "white", "blue", "", "[white:blue:-]"},
		{"empty", "", "", "", "[-]"},
		{"attr only", "", "", "d", "[-:-:d]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := makeStyle(tt.fg, tt.bg, tt.attr)
			got := s.Tag()
			if got != tt.want {
				t.Errorf("makeStyle(%q,%q,%q).Tag() = %q, want %q", tt.fg, tt.bg, tt.attr, got, tt.want)
			}
		})
	}
}

func TestStyleWrapper_Reset(t *testing.T) {
	tests := []struct {
		name string
		fg   string
		bg   string
		attr string
		want string
	}{
		{"fg only", "green", "", "", "[-]"},
		{"fg+attr", "green", "", "b", "[-::-]"},
		{"fg+bg+attr", "green", "black", "b", "[-:-:-]"},
		{"empty", "", "", "", "[-]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := makeStyle(tt.fg, tt.bg, tt.attr)
			got := s.Reset()
			if got != tt.want {
				t.Errorf("Reset() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttrsToTviewString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"bold", "b"},
		{"bold|underline", "bu"},
		{"dim|italic", "id"},
		{"bold|italic|underline|dim|reverse|blink|strikethrough", "biudrls"},
		{"", ""},
		{"none", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := attrsToTviewString(tt.input)
			if got != tt.want {
				t.Errorf("attrsToTviewString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuiltinTheme_Default(t *testing.T) {
	theme := BuiltinTheme("default")
	if theme.Preset != "default" {
		t.Errorf("expected preset=default, got %q", theme.Preset)
	}
	if theme.Board.Selected.Tag() != "[white:blue:b]" {
		t.Errorf("selected tag = %q, want [white:blue:b]", theme.Board.Selected.Tag())
	}
	if theme.Console.Stderr.Tag() != "[red]" {
		t.Errorf("stderr tag = %q, want [red]", theme.Console.Stderr.Tag())
	}
}

func TestBuiltinTheme_UnknownFallsBackToDefault(t *testing.T) {
	theme := BuiltinTheme("nonexistent")
	def := BuiltinTheme("default")
	if theme.Board.Selected.Tag() != def.Board.Selected.Tag() {
		t.Error("unknown preset should fall back to default")
	}
}

func TestBuiltinTheme_AllPresetsPopulated(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			theme := BuiltinTheme(name)
			if theme.Preset != name {
				t.Errorf("preset = %q, want %q", theme.Preset, name)
			}
			if theme.Board.Key.Tag() == "[-]" {
				t.Error("key tag should not be empty default")
			}
			if theme.Toast.Error.Tag() == "[-]" {
				t.Error("toast error tag should not be empty default")
			}
		})
	}
}

func TestMakeStyle_Colors(t *testing.T) {
	s := makeStyle("green", "blue", "b")
	fg, bg, attrs := s.Decompose()
	if fg != tcell.GetColor("green") {
		t.Errorf("foreground = %v", fg)
	}
	if bg != tcell.GetColor("blue") {
		t.Errorf("background = %v", bg)
	}
	if attrs&tcell.AttrBold == 0 {
		t.Error("bold should be set")
	}
}
