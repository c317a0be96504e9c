package keymap

import (
	"slices"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

var refActions = []string{"lt", "lt_th", "tog", "mo", "sl", "to"}

// genDoc draws a document with 2..6 layers whose bindings mix plain keys
// and numeric layer references, plus a few combos restricted to layers.
func genDoc(t *rapid.T) Keymap {
	nLayers := rapid.IntRange(2, 6).Draw(t, "layers")
	width := rapid.IntRange(1, 8).Draw(t, "width")
	k := New(width)
	for i := 1; i < nLayers; i++ {
		k = k.AddLayer()
	}
	for li := range k.Layers {
		for pi := range k.Layers[li].Bindings {
			if rapid.Bool().Draw(t, "isRef") {
				action := rapid.SampledFrom(refActions).Draw(t, "action")
				ref := rapid.IntRange(0, nLayers-1).Draw(t, "ref")
				k.Layers[li].Bindings[pi] = Binding{Action: action, Params: []string{strconv.Itoa(ref), "X"}}
			} else {
				k.Layers[li].Bindings[pi] = Kp(rapid.SampledFrom([]string{"A", "B", "1", "2"}).Draw(t, "key"))
			}
		}
	}
	nCombos := rapid.IntRange(0, 3).Draw(t, "combos")
	for i := 0; i < nCombos; i++ {
		layers := rapid.SliceOfDistinct(rapid.IntRange(0, nLayers-1), rapid.ID[int]).Draw(t, "comboLayers")
		slices.Sort(layers)
		k = k.AddCombo()
		k.Combos[i].Layers = layers
		k.Combos[i].Positions = []int{0}
	}
	return k
}

func TestPropertyDeleteLayerReferenceIntegrity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := genDoc(t)
		del := rapid.IntRange(1, len(k.Layers)-1).Draw(t, "delete")
		got := k.DeleteLayer(del)

		if len(got.Layers) != len(k.Layers)-1 {
			t.Fatalf("layer count %d, want %d", len(got.Layers), len(k.Layers)-1)
		}

		survivors := slices.Delete(slices.Clone(k.Layers), del, del+1)
		for li, l := range survivors {
			for pi, before := range l.Bindings {
				after := got.Layers[li].Bindings[pi]
				if !IsLayerRef(before) {
					if !after.Equal(before) {
						t.Fatalf("non-reference binding %v changed to %v", before, after)
					}
					continue
				}
				ref, _ := strconv.Atoi(before.Params[0])
				want := ref
				switch {
				case ref == del:
					want = 0
				case ref > del:
					want = ref - 1
				}
				if after.Params[0] != strconv.Itoa(want) {
					t.Fatalf("ref %d after deleting %d became %s, want %d", ref, del, after.Params[0], want)
				}
				if after.Action != before.Action || after.Params[1] != before.Params[1] {
					t.Fatalf("binding %v altered beyond its layer ref: %v", before, after)
				}
			}
		}

		for ci, c := range got.Combos {
			if !slices.IsSorted(c.Layers) {
				t.Fatalf("combo %d layers unsorted: %v", ci, c.Layers)
			}
			for _, l := range c.Layers {
				if l < 0 || l >= len(got.Layers) {
					t.Fatalf("combo %d references missing layer %d", ci, l)
				}
			}
		}
	})
}

func TestPropertyCanonicalPositions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(rapid.IntRange(0, 40)).Draw(t, "positions")
		k := New(41).AddCombo().SetComboPositions(0, in)
		got := k.Combos[0].Positions

		for i := 1; i < len(got); i++ {
			if got[i] <= got[i-1] {
				t.Fatalf("positions not strictly ascending: %v", got)
			}
		}
		for _, p := range in {
			if !slices.Contains(got, p) {
				t.Fatalf("position %d lost: %v from %v", p, got, in)
			}
		}
		for _, p := range got {
			if !slices.Contains(in, p) {
				t.Fatalf("position %d invented: %v from %v", p, got, in)
			}
		}
	})
}

func TestPropertyDuplicateComboIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := genDoc(t).AddCombo()
		i := rapid.IntRange(0, len(k.Combos)-1).Draw(t, "combo")
		back := k.DuplicateCombo(i).DeleteCombo(len(k.Combos))
		if len(back.Combos) != len(k.Combos) {
			t.Fatalf("combo count %d, want %d", len(back.Combos), len(k.Combos))
		}
		for ci := range k.Combos {
			a, b := k.Combos[ci], back.Combos[ci]
			if a.Name != b.Name || !slices.Equal(a.Positions, b.Positions) || !slices.Equal(a.Layers, b.Layers) || !a.Binding.Equal(b.Binding) {
				t.Fatalf("combo %d changed: %+v -> %+v", ci, a, b)
			}
		}
	})
}
