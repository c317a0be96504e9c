package keymap

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// layerRefActions are the actions whose first param is a layer index.
var layerRefActions = map[string]bool{
	"lt":    true,
	"lt_th": true,
	"tog":   true,
	"mo":    true,
	"sl":    true,
	"to":    true,
}

// IsLayerRef reports whether b refers to a layer through its first param.
func IsLayerRef(b Binding) bool {
	return layerRefActions[b.Action] && len(b.Params) > 0
}

// SetBinding replaces the binding at the given layer and position.
func (k Keymap) SetBinding(layer, pos int, b Binding) Keymap {
	out := k.Clone()
	if layer < 0 || layer >= len(out.Layers) {
		return out
	}
	l := &out.Layers[layer]
	if pos < 0 || pos >= len(l.Bindings) {
		return out
	}
	l.Bindings[pos] = b.Clone()
	return out
}

// DefaultCombo returns the combo appended by AddCombo for a document that
// already holds n combos.
func DefaultCombo(n int) Combo {
	return Combo{
		Name:      fmt.Sprintf("combo_%d", n),
		Positions: []int{},
		Binding:   Kp("A"),
		TimeoutMS: DefaultComboTimeoutMS,
		Layers:    []int{},
	}
}

// AddCombo appends a default combo. Its index is len(k.Combos).
func (k Keymap) AddCombo() Keymap {
	out := k.Clone()
	out.Combos = append(out.Combos, DefaultCombo(len(k.Combos)))
	return out
}

// UpdateCombo replaces combo i. Positions and layers are canonicalized and a
// non-positive timeout is reset to the default.
func (k Keymap) UpdateCombo(i int, c Combo) Keymap {
	out := k.Clone()
	if i < 0 || i >= len(out.Combos) {
		return out
	}
	out.Combos[i] = normalizeCombo(c)
	return out
}

// SetComboPositions replaces the positions of combo i.
func (k Keymap) SetComboPositions(i int, positions []int) Keymap {
	out := k.Clone()
	if i < 0 || i >= len(out.Combos) {
		return out
	}
	out.Combos[i].Positions = CanonicalPositions(positions)
	return out
}

// SetComboBinding replaces the output binding of combo i.
func (k Keymap) SetComboBinding(i int, b Binding) Keymap {
	out := k.Clone()
	if i < 0 || i >= len(out.Combos) {
		return out
	}
	out.Combos[i].Binding = b.Clone()
	return out
}

// DeleteCombo removes combo i.
func (k Keymap) DeleteCombo(i int) Keymap {
	out := k.Clone()
	if i < 0 || i >= len(out.Combos) {
		return out
	}
	out.Combos = slices.Delete(out.Combos, i, i+1)
	return out
}

// DuplicateCombo appends a copy of combo i named "<name>_copy".
func (k Keymap) DuplicateCombo(i int) Keymap {
	out := k.Clone()
	if i < 0 || i >= len(out.Combos) {
		return out
	}
	dup := out.Combos[i].Clone()
	dup.Name += "_copy"
	out.Combos = append(out.Combos, dup)
	return out
}

// AddLayer appends a layer named "LAYER<n>" filled with transparent
// bindings, as wide as the base layer.
func (k Keymap) AddLayer() Keymap {
	out := k.Clone()
	n := len(out.Layers)
	out.Layers = append(out.Layers, transLayer(fmt.Sprintf("LAYER%d", n), n, k.KeyCount()))
	return out
}

// DeleteLayer removes layer del and rewrites every layer reference in
// bindings and combos: references to del fold to the base layer and
// references above it shift down by one. Deleting the base layer is a
// no-op.
func (k Keymap) DeleteLayer(del int) Keymap {
	out := k.Clone()
	if del <= 0 || del >= len(out.Layers) {
		return out
	}
	out.Layers = slices.Delete(out.Layers, del, del+1)
	for li := range out.Layers {
		l := &out.Layers[li]
		l.Index = li
		for bi, b := range l.Bindings {
			l.Bindings[bi] = foldBinding(b, del)
		}
	}
	for ci := range out.Combos {
		c := &out.Combos[ci]
		c.Binding = foldBinding(c.Binding, del)
		if len(c.Layers) == 0 {
			continue
		}
		layers := make([]int, len(c.Layers))
		for i, ref := range c.Layers {
			layers[i] = foldIndex(ref, del)
		}
		c.Layers = CanonicalPositions(layers)
	}
	return out
}

func foldIndex(ref, del int) int {
	switch {
	case ref == del:
		return 0
	case ref > del:
		return ref - 1
	default:
		return ref
	}
}

func foldBinding(b Binding, del int) Binding {
	if !IsLayerRef(b) {
		return b
	}
	ref, err := strconv.Atoi(b.Params[0])
	if err != nil {
		return b
	}
	folded := foldIndex(ref, del)
	if folded == ref {
		return b
	}
	b.Params[0] = strconv.Itoa(folded)
	return b
}

// RenameLayer sets the name of layer i. Blank names are ignored.
func (k Keymap) RenameLayer(i int, name string) Keymap {
	out := k.Clone()
	name = strings.TrimSpace(name)
	if i < 0 || i >= len(out.Layers) || name == "" {
		return out
	}
	out.Layers[i].Name = name
	return out
}

// DuplicateLayer appends a copy of layer i named "<name>_COPY".
func (k Keymap) DuplicateLayer(i int) Keymap {
	out := k.Clone()
	if i < 0 || i >= len(out.Layers) {
		return out
	}
	dup := out.Layers[i].clone()
	dup.Name += "_COPY"
	dup.Index = len(out.Layers)
	out.Layers = append(out.Layers, dup)
	return out
}

// SetBehaviors replaces the behavior list.
func (k Keymap) SetBehaviors(list []Behavior) Keymap {
	out := k.Clone()
	out.Behaviors = make([]Behavior, len(list))
	for i, b := range list {
		out.Behaviors[i] = CloneBehavior(b)
	}
	return out
}

// SetMouseConfig replaces the mouse tuning.
func (k Keymap) SetMouseConfig(cfg MouseConfig) Keymap {
	out := k.Clone()
	out.Mouse = cfg
	return out
}

// ReplaceLayers swaps the layer list for the given one, renumbering Index.
// Combos, behaviors and mouse settings are kept. It is used when adopting
// a keymap resolved on a device.
func (k Keymap) ReplaceLayers(layers []Layer) Keymap {
	out := k.Clone()
	out.Layers = make([]Layer, len(layers))
	for i, l := range layers {
		out.Layers[i] = l.clone()
		out.Layers[i].Index = i
	}
	if len(out.Layers) == 0 {
		out.Layers = []Layer{transLayer("BASE", 0, DefaultKeyCount)}
	}
	return out
}

func normalizeCombo(c Combo) Combo {
	c = c.Clone()
	c.Positions = CanonicalPositions(c.Positions)
	c.Layers = CanonicalPositions(c.Layers)
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = DefaultComboTimeoutMS
	}
	return c
}
