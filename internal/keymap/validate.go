package keymap

import (
	"fmt"
	"strconv"
)

// builtinActions are actions the firmware provides without a behavior
// definition in the document.
var builtinActions = map[string]bool{
	"rgb_ug":            true,
	"bl":                true,
	"conditional_layer": true,
	"macro_tap":         true,
	"macro_press":       true,
	"macro_release":     true,
}

func init() {
	for _, a := range Actions {
		builtinActions[a.Name] = true
	}
}

// Issue is a problem found in a document. Issues never stop a document from
// loading; they are reported to the user.
type Issue struct {
	Layer    int // -1 when not tied to a layer
	Position int // -1 when not tied to a key
	Combo    int // -1 when not tied to a combo
	Message  string
}

func (i Issue) String() string {
	switch {
	case i.Combo >= 0:
		return fmt.Sprintf("combo %d: %s", i.Combo, i.Message)
	case i.Position >= 0:
		return fmt.Sprintf("layer %d key %d: %s", i.Layer, i.Position, i.Message)
	case i.Layer >= 0:
		return fmt.Sprintf("layer %d: %s", i.Layer, i.Message)
	default:
		return i.Message
	}
}

// Validate checks bindings that reference undefined behaviors or missing
// layers, layers whose width differs from the base layer, and combos with
// positions outside the board.
func (k Keymap) Validate() []Issue {
	var issues []Issue
	defined := make(map[string]bool, len(k.Behaviors))
	for _, b := range k.Behaviors {
		defined[b.BehaviorName()] = true
	}

	check := func(b Binding, layer, pos, combo int) {
		if !builtinActions[b.Action] && !defined[b.Action] {
			issues = append(issues, Issue{layer, pos, combo,
				fmt.Sprintf("undefined behavior %q", b.Action)})
		}
		if IsLayerRef(b) {
			if ref, err := strconv.Atoi(b.Params[0]); err == nil && (ref < 0 || ref >= len(k.Layers)) {
				issues = append(issues, Issue{layer, pos, combo,
					fmt.Sprintf("%s references missing layer %d", b.Action, ref)})
			}
		}
	}

	width := k.KeyCount()
	for li, l := range k.Layers {
		if len(l.Bindings) != width {
			issues = append(issues, Issue{li, -1, -1,
				fmt.Sprintf("has %d keys, base layer has %d", len(l.Bindings), width)})
		}
		for pi, b := range l.Bindings {
			check(b, li, pi, -1)
		}
	}

	for ci, c := range k.Combos {
		check(c.Binding, -1, -1, ci)
		for _, p := range c.Positions {
			if p < 0 || p >= width {
				issues = append(issues, Issue{-1, -1, ci,
					fmt.Sprintf("position %d is outside the board", p)})
			}
		}
		for _, l := range c.Layers {
			if l < 0 || l >= len(k.Layers) {
				issues = append(issues, Issue{-1, -1, ci,
					fmt.Sprintf("references missing layer %d", l)})
			}
		}
		if c.TimeoutMS <= 0 {
			issues = append(issues, Issue{-1, -1, ci, "timeout must be positive"})
		}
	}

	return issues
}
