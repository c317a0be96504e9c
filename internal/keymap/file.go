package keymap

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

type fileDoc struct {
	Layers    []fileLayer    `toml:"layer"`
	Combos    []fileCombo    `toml:"combo,omitempty"`
	Behaviors []fileBehavior `toml:"behavior,omitempty"`
	Mouse     MouseConfig    `toml:"mouse"`
}

type fileLayer struct {
	Name     string     `toml:"name"`
	Bindings [][]string `toml:"bindings"`
}

type fileCombo struct {
	Name               string   `toml:"name"`
	Positions          []int    `toml:"positions"`
	Binding            []string `toml:"binding"`
	TimeoutMS          int      `toml:"timeout_ms"`
	Layers             []int    `toml:"layers"`
	RequirePriorIdleMS *int     `toml:"require_prior_idle_ms,omitempty"`
	SlowRelease        bool     `toml:"slow_release"`
}

// fileBehavior is the flat record for every behavior kind; Type selects
// which fields apply.
type fileBehavior struct {
	Type  string `toml:"type"`
	Name  string `toml:"name"`
	Label string `toml:"label"`

	Flavor                  string `toml:"flavor,omitempty"`
	TappingTermMS           int    `toml:"tapping_term_ms,omitempty"`
	QuickTapMS              int    `toml:"quick_tap_ms,omitempty"`
	RequirePriorIdleMS      *int   `toml:"require_prior_idle_ms,omitempty"`
	HoldTriggerKeyPositions []int  `toml:"hold_trigger_key_positions,omitempty"`
	HoldTriggerOnRelease    bool   `toml:"hold_trigger_on_release,omitempty"`
	HoldBindings            string `toml:"hold_bindings,omitempty"`
	TapBindings             string `toml:"tap_bindings,omitempty"`

	Normal  []string `toml:"normal,omitempty"`
	Shifted []string `toml:"shifted,omitempty"`
	Mods    []string `toml:"mods,omitempty"`

	WaitMS   int        `toml:"wait_ms,omitempty"`
	TapMS    int        `toml:"tap_ms,omitempty"`
	Bindings [][]string `toml:"bindings,omitempty"`
}

// Marshal encodes the document as TOML.
func Marshal(k Keymap) ([]byte, error) {
	doc := fileDoc{Mouse: k.Mouse}
	for _, l := range k.Layers {
		doc.Layers = append(doc.Layers, fileLayer{Name: l.Name, Bindings: encodeBindings(l.Bindings)})
	}
	for _, c := range k.Combos {
		doc.Combos = append(doc.Combos, fileCombo{
			Name:               c.Name,
			Positions:          nonNil(c.Positions),
			Binding:            encodeBinding(c.Binding),
			TimeoutMS:          c.TimeoutMS,
			Layers:             nonNil(c.Layers),
			RequirePriorIdleMS: c.RequirePriorIdleMS,
			SlowRelease:        c.SlowRelease,
		})
	}
	for _, b := range k.Behaviors {
		doc.Behaviors = append(doc.Behaviors, encodeBehavior(b))
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding keymap: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a TOML document. A missing [mouse] table yields the
// default mouse tuning. Combo positions and layers are canonicalized.
func Unmarshal(data []byte) (Keymap, error) {
	doc := fileDoc{Mouse: DefaultMouseConfig()}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Keymap{}, fmt.Errorf("parsing keymap: %w", err)
	}
	if len(doc.Layers) == 0 {
		return Keymap{}, errors.New("keymap has no layers")
	}

	k := Keymap{Mouse: doc.Mouse}
	for i, l := range doc.Layers {
		bs, err := decodeBindings(l.Bindings)
		if err != nil {
			return Keymap{}, fmt.Errorf("layer %d (%s): %w", i, l.Name, err)
		}
		k.Layers = append(k.Layers, Layer{Name: l.Name, Index: i, Bindings: bs})
	}
	for i, c := range doc.Combos {
		b, err := decodeBinding(c.Binding)
		if err != nil {
			return Keymap{}, fmt.Errorf("combo %d (%s): %w", i, c.Name, err)
		}
		k.Combos = append(k.Combos, normalizeCombo(Combo{
			Name:               c.Name,
			Positions:          c.Positions,
			Binding:            b,
			TimeoutMS:          c.TimeoutMS,
			Layers:             c.Layers,
			RequirePriorIdleMS: c.RequirePriorIdleMS,
			SlowRelease:        c.SlowRelease,
		}))
	}
	for i, fb := range doc.Behaviors {
		b, err := decodeBehavior(fb)
		if err != nil {
			return Keymap{}, fmt.Errorf("behavior %d (%s): %w", i, fb.Name, err)
		}
		k.Behaviors = append(k.Behaviors, b)
	}
	return k, nil
}

func encodeBinding(b Binding) []string {
	return append([]string{b.Action}, b.Params...)
}

func encodeBindings(bs []Binding) [][]string {
	out := make([][]string, len(bs))
	for i, b := range bs {
		out[i] = encodeBinding(b)
	}
	return out
}

func decodeBinding(raw []string) (Binding, error) {
	if len(raw) == 0 || raw[0] == "" {
		return Binding{}, ErrEmptyBinding
	}
	b := Binding{Action: raw[0]}
	if len(raw) > 1 {
		b.Params = append([]string(nil), raw[1:]...)
	}
	return b, nil
}

func decodeBindings(raw [][]string) ([]Binding, error) {
	out := make([]Binding, len(raw))
	for i, r := range raw {
		b, err := decodeBinding(r)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func encodeBehavior(b Behavior) fileBehavior {
	fb := fileBehavior{Type: b.Kind(), Name: b.BehaviorName()}
	switch b := b.(type) {
	case HoldTap:
		fb.Label = b.Label
		fb.Flavor = b.Flavor
		fb.TappingTermMS = b.TappingTermMS
		fb.QuickTapMS = b.QuickTapMS
		fb.RequirePriorIdleMS = b.RequirePriorIdleMS
		fb.HoldTriggerKeyPositions = b.HoldTriggerKeyPositions
		fb.HoldTriggerOnRelease = b.HoldTriggerOnRelease
		fb.HoldBindings = b.HoldBindings
		fb.TapBindings = b.TapBindings
	case ModMorph:
		fb.Label = b.Label
		fb.Normal = encodeBinding(b.Normal)
		fb.Shifted = encodeBinding(b.Shifted)
		fb.Mods = b.Mods
	case Macro:
		fb.Label = b.Label
		fb.WaitMS = b.WaitMS
		fb.TapMS = b.TapMS
		fb.Bindings = encodeBindings(b.Bindings)
	case TapDance:
		fb.Label = b.Label
		fb.TappingTermMS = b.TappingTermMS
		fb.Bindings = encodeBindings(b.Bindings)
	}
	return fb
}

func decodeBehavior(fb fileBehavior) (Behavior, error) {
	switch fb.Type {
	case "HoldTap":
		return HoldTap{
			Name:                    fb.Name,
			Label:                   fb.Label,
			Flavor:                  fb.Flavor,
			TappingTermMS:           fb.TappingTermMS,
			QuickTapMS:              fb.QuickTapMS,
			RequirePriorIdleMS:      fb.RequirePriorIdleMS,
			HoldTriggerKeyPositions: fb.HoldTriggerKeyPositions,
			HoldTriggerOnRelease:    fb.HoldTriggerOnRelease,
			HoldBindings:            fb.HoldBindings,
			TapBindings:             fb.TapBindings,
		}, nil
	case "ModMorph":
		normal, err := decodeBinding(fb.Normal)
		if err != nil {
			return nil, fmt.Errorf("normal: %w", err)
		}
		shifted, err := decodeBinding(fb.Shifted)
		if err != nil {
			return nil, fmt.Errorf("shifted: %w", err)
		}
		return ModMorph{Name: fb.Name, Label: fb.Label, Normal: normal, Shifted: shifted, Mods: fb.Mods}, nil
	case "Macro":
		bs, err := decodeBindings(fb.Bindings)
		if err != nil {
			return nil, err
		}
		return Macro{Name: fb.Name, Label: fb.Label, WaitMS: fb.WaitMS, TapMS: fb.TapMS, Bindings: bs}, nil
	case "TapDance":
		bs, err := decodeBindings(fb.Bindings)
		if err != nil {
			return nil, err
		}
		return TapDance{Name: fb.Name, Label: fb.Label, TappingTermMS: fb.TappingTermMS, Bindings: bs}, nil
	default:
		return nil, fmt.Errorf("unknown behavior type %q", fb.Type)
	}
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

// FileStore persists a keymap as a TOML file. It remembers the digest of
// the last content it read or wrote so a file watcher can tell its own
// writes apart from external edits.
type FileStore struct {
	Path string

	mu     sync.Mutex
	digest [sha256.Size]byte
}

// NewFileStore returns a store for the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads and decodes the keymap file.
func (s *FileStore) Load() (Keymap, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Keymap{}, fmt.Errorf("reading keymap: %w", err)
	}
	k, err := Unmarshal(data)
	if err != nil {
		return Keymap{}, err
	}
	s.remember(data)
	return k, nil
}

// Save encodes the keymap and replaces the file atomically.
func (s *FileStore) Save(k Keymap) error {
	data, err := Marshal(k)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".keymap-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing keymap: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing keymap: %w", err)
	}
	s.remember(data)
	return nil
}

// ChangedOnDisk reports whether the file content differs from what the
// store last read or wrote.
func (s *FileStore) ChangedOnDisk() (bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.digest, nil
}

func (s *FileStore) remember(data []byte) {
	sum := sha256.Sum256(data)
	s.mu.Lock()
	s.digest = sum
	s.mu.Unlock()
}
