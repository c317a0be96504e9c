package keymap

import (
	"strings"
	"testing"
)

func TestValidateCleanDocument(t *testing.T) {
	if issues := sampleDoc().Validate(); len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestValidateFlagsProblems(t *testing.T) {
	k := New(3).AddLayer()
	k.Layers[0].Bindings[0] = Binding{Action: "my_macro"}
	k.Layers[0].Bindings[1] = Binding{Action: "mo", Params: []string{"5"}}
	k.Layers[1].Bindings = k.Layers[1].Bindings[:2]
	k.Combos = []Combo{{Name: "c", Positions: []int{0, 7}, Binding: Binding{Action: "ghost"}, TimeoutMS: 0, Layers: []int{4}}}

	issues := k.Validate()
	var text []string
	for _, i := range issues {
		text = append(text, i.String())
	}
	joined := strings.Join(text, "\n")

	for _, want := range []string{
		`layer 0 key 0: undefined behavior "my_macro"`,
		"layer 0 key 1: mo references missing layer 5",
		"layer 1: has 2 keys, base layer has 3",
		`combo 0: undefined behavior "ghost"`,
		"combo 0: position 7 is outside the board",
		"combo 0: references missing layer 4",
		"combo 0: timeout must be positive",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing issue %q in:\n%s", want, joined)
		}
	}
}

func TestValidateAcceptsDefinedBehavior(t *testing.T) {
	k := New(1).SetBehaviors([]Behavior{Macro{Name: "my_macro"}})
	k = k.SetBinding(0, 0, Binding{Action: "my_macro"})
	if issues := k.Validate(); len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}
}
