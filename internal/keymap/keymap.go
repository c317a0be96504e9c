package keymap

import (
	"slices"
	"strings"
)

// DefaultKeyCount is the number of key positions given to a new layer when
// the document has no base layer to copy the width from.
const DefaultKeyCount = 38

// DefaultComboTimeoutMS is the timeout assigned to new combos and to combos
// committed with a non-positive timeout.
const DefaultComboTimeoutMS = 80

// Binding is one action invocation assigned to a key, combo or behavior slot.
type Binding struct {
	Action string
	Params []string
}

// Kp returns a plain keypress binding.
func Kp(key string) Binding {
	return Binding{Action: "kp", Params: []string{key}}
}

// Trans returns the transparent binding used to fill new layers.
func Trans() Binding {
	return Binding{Action: "trans"}
}

// Clone returns a copy that shares no memory with b.
func (b Binding) Clone() Binding {
	return Binding{Action: b.Action, Params: slices.Clone(b.Params)}
}

// Equal reports whether two bindings have the same action and params.
func (b Binding) Equal(o Binding) bool {
	return b.Action == o.Action && slices.Equal(b.Params, o.Params)
}

// String renders the binding in its text form, e.g. "lt 1 SPACE".
func (b Binding) String() string {
	if len(b.Params) == 0 {
		return b.Action
	}
	return b.Action + " " + strings.Join(b.Params, " ")
}

// Layer is a full set of bindings, one per physical key position.
type Layer struct {
	Name     string
	Index    int
	Bindings []Binding
}

func (l Layer) clone() Layer {
	out := Layer{Name: l.Name, Index: l.Index, Bindings: make([]Binding, len(l.Bindings))}
	for i, b := range l.Bindings {
		out.Bindings[i] = b.Clone()
	}
	return out
}

// Combo fires Binding when every key in Positions is pressed within
// TimeoutMS. An empty Layers list means the combo is active on all layers.
type Combo struct {
	Name               string
	Positions          []int
	Binding            Binding
	TimeoutMS          int
	Layers             []int
	RequirePriorIdleMS *int
	SlowRelease        bool
}

// Clone returns a deep copy of the combo.
func (c Combo) Clone() Combo {
	out := c
	out.Positions = slices.Clone(c.Positions)
	out.Layers = slices.Clone(c.Layers)
	out.Binding = c.Binding.Clone()
	if c.RequirePriorIdleMS != nil {
		v := *c.RequirePriorIdleMS
		out.RequirePriorIdleMS = &v
	}
	return out
}

// MouseConfig holds the pointer and scroll acceleration tuning.
type MouseConfig struct {
	MoveSpeed           int `toml:"move_speed"`
	ScrollSpeed         int `toml:"scroll_speed"`
	MoveTimeToMaxMS     int `toml:"move_time_to_max_ms"`
	MoveAccelExponent   int `toml:"move_accel_exponent"`
	ScrollTimeToMaxMS   int `toml:"scroll_time_to_max_ms"`
	ScrollAccelExponent int `toml:"scroll_accel_exponent"`
}

// DefaultMouseConfig returns the firmware's stock mouse tuning.
func DefaultMouseConfig() MouseConfig {
	return MouseConfig{
		MoveSpeed:           1500,
		ScrollSpeed:         20,
		MoveTimeToMaxMS:     300,
		MoveAccelExponent:   1,
		ScrollTimeToMaxMS:   300,
		ScrollAccelExponent: 0,
	}
}

// Keymap is the editable document: layers, combos, behaviors and mouse
// settings. Operations on it never mutate the receiver; they return a new
// value that shares no memory with the old one.
type Keymap struct {
	Layers    []Layer
	Combos    []Combo
	Behaviors []Behavior
	Mouse     MouseConfig
}

// New returns a document with a single base layer of n transparent keys.
func New(n int) Keymap {
	if n <= 0 {
		n = DefaultKeyCount
	}
	return Keymap{
		Layers: []Layer{transLayer("BASE", 0, n)},
		Mouse:  DefaultMouseConfig(),
	}
}

// Clone returns a deep copy of the document.
func (k Keymap) Clone() Keymap {
	out := Keymap{Mouse: k.Mouse}
	if k.Layers != nil {
		out.Layers = make([]Layer, len(k.Layers))
		for i, l := range k.Layers {
			out.Layers[i] = l.clone()
		}
	}
	if k.Combos != nil {
		out.Combos = make([]Combo, len(k.Combos))
		for i, c := range k.Combos {
			out.Combos[i] = c.Clone()
		}
	}
	if k.Behaviors != nil {
		out.Behaviors = make([]Behavior, len(k.Behaviors))
		for i, b := range k.Behaviors {
			out.Behaviors[i] = CloneBehavior(b)
		}
	}
	return out
}

// Binding returns the binding at the given layer and position.
func (k Keymap) Binding(layer, pos int) (Binding, bool) {
	if layer < 0 || layer >= len(k.Layers) {
		return Binding{}, false
	}
	l := k.Layers[layer]
	if pos < 0 || pos >= len(l.Bindings) {
		return Binding{}, false
	}
	return l.Bindings[pos].Clone(), true
}

// LayerNames returns the layer names in order.
func (k Keymap) LayerNames() []string {
	names := make([]string, len(k.Layers))
	for i, l := range k.Layers {
		names[i] = l.Name
	}
	return names
}

// KeyCount returns the number of key positions per layer, taken from the
// base layer.
func (k Keymap) KeyCount() int {
	if len(k.Layers) == 0 {
		return DefaultKeyCount
	}
	return len(k.Layers[0].Bindings)
}

func transLayer(name string, index, n int) Layer {
	l := Layer{Name: name, Index: index, Bindings: make([]Binding, n)}
	for i := range l.Bindings {
		l.Bindings[i] = Trans()
	}
	return l
}

// CanonicalPositions returns positions deduplicated and in ascending order.
func CanonicalPositions(positions []int) []int {
	out := slices.Clone(positions)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int{}
	}
	return out
}
