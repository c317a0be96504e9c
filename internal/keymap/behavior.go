package keymap

import "slices"

// Behavior is a named custom key function referenced from bindings by its
// name. The concrete types are HoldTap, ModMorph, Macro and TapDance.
type Behavior interface {
	BehaviorName() string
	Kind() string
	behavior()
}

// HoldTap sends HoldBindings when held and TapBindings when tapped.
type HoldTap struct {
	Name                    string
	Label                   string
	Flavor                  string
	TappingTermMS           int
	QuickTapMS              int
	RequirePriorIdleMS      *int
	HoldTriggerKeyPositions []int
	HoldTriggerOnRelease    bool
	HoldBindings            string
	TapBindings             string
}

// ModMorph sends Shifted instead of Normal while any of Mods is held.
type ModMorph struct {
	Name    string
	Label   string
	Normal  Binding
	Shifted Binding
	Mods    []string
}

// Macro plays Bindings in sequence.
type Macro struct {
	Name     string
	Label    string
	WaitMS   int
	TapMS    int
	Bindings []Binding
}

// TapDance picks one of Bindings by the number of taps within the term.
type TapDance struct {
	Name          string
	Label         string
	TappingTermMS int
	Bindings      []Binding
}

func (HoldTap) behavior()  {}
func (ModMorph) behavior() {}
func (Macro) behavior()    {}
func (TapDance) behavior() {}

func (b HoldTap) BehaviorName() string  { return b.Name }
func (b ModMorph) BehaviorName() string { return b.Name }
func (b Macro) BehaviorName() string    { return b.Name }
func (b TapDance) BehaviorName() string { return b.Name }

func (HoldTap) Kind() string  { return "HoldTap" }
func (ModMorph) Kind() string { return "ModMorph" }
func (Macro) Kind() string    { return "Macro" }
func (TapDance) Kind() string { return "TapDance" }

// CloneBehavior returns a deep copy of b.
func CloneBehavior(b Behavior) Behavior {
	switch b := b.(type) {
	case HoldTap:
		out := b
		out.HoldTriggerKeyPositions = slices.Clone(b.HoldTriggerKeyPositions)
		if b.RequirePriorIdleMS != nil {
			v := *b.RequirePriorIdleMS
			out.RequirePriorIdleMS = &v
		}
		return out
	case ModMorph:
		out := b
		out.Normal = b.Normal.Clone()
		out.Shifted = b.Shifted.Clone()
		out.Mods = slices.Clone(b.Mods)
		return out
	case Macro:
		out := b
		out.Bindings = cloneBindings(b.Bindings)
		return out
	case TapDance:
		out := b
		out.Bindings = cloneBindings(b.Bindings)
		return out
	default:
		return b
	}
}

func cloneBindings(bs []Binding) []Binding {
	if bs == nil {
		return nil
	}
	out := make([]Binding, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
	}
	return out
}

// FindBehavior returns the behavior with the given name.
func (k Keymap) FindBehavior(name string) (Behavior, bool) {
	for _, b := range k.Behaviors {
		if b.BehaviorName() == name {
			return CloneBehavior(b), true
		}
	}
	return nil, false
}
