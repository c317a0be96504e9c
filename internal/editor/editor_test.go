package editor

import (
	"errors"
	"reflect"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

type memStore struct {
	doc     keymap.Keymap
	loadErr error
	saveErr error
	saved   []keymap.Keymap
}

func (s *memStore) Load() (keymap.Keymap, error) {
	if s.loadErr != nil {
		return keymap.Keymap{}, s.loadErr
	}
	return s.doc.Clone(), nil
}

func (s *memStore) Save(k keymap.Keymap) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, k.Clone())
	return nil
}

func loaded(t *testing.T, doc keymap.Keymap) (*Editor, *memStore) {
	t.Helper()
	s := &memStore{doc: doc}
	e := New(s, 50)
	if err := e.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e, s
}

func current(t *testing.T, e *Editor) keymap.Keymap {
	t.Helper()
	k, ok := e.Keymap()
	if !ok {
		t.Fatal("no document loaded")
	}
	return k
}

func TestLoadFailureBlocksEditing(t *testing.T) {
	s := &memStore{loadErr: errors.New("boom")}
	e := New(s, 50)

	if err := e.Load(); err == nil {
		t.Fatal("expected load error")
	}
	if e.LoadError() == nil {
		t.Error("LoadError is nil after failed load")
	}
	if e.Loaded() {
		t.Error("Loaded() true after failed load")
	}
	if e.SetBinding(0, 0, keymap.Kp("A")) {
		t.Error("SetBinding succeeded without a document")
	}
	if e.Update(func(k keymap.Keymap) keymap.Keymap { return k.AddLayer() }) {
		t.Error("Update succeeded without a document")
	}
	if e.AddCombo() || e.AddLayer() || e.Undo() {
		t.Error("intent succeeded without a document")
	}
	if err := e.Save(); !errors.Is(err, ErrNoKeymap) {
		t.Errorf("Save = %v, want ErrNoKeymap", err)
	}
	if e.Dirty() {
		t.Error("dirty without a document")
	}

	s.loadErr = nil
	s.doc = keymap.New(4)
	if err := e.Load(); err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if e.LoadError() != nil {
		t.Error("LoadError not cleared by successful retry")
	}
}

func TestUpdateSnapshotsAndMarksDirty(t *testing.T) {
	e, _ := loaded(t, keymap.New(4))
	before := current(t, e)

	if !e.SetBinding(0, 1, keymap.Kp("Q")) {
		t.Fatal("SetBinding failed")
	}
	if !e.Dirty() {
		t.Error("not dirty after edit")
	}
	if e.UndoDepth() != 1 {
		t.Errorf("UndoDepth = %d, want 1", e.UndoDepth())
	}

	if !e.Undo() {
		t.Fatal("Undo failed")
	}
	if !reflect.DeepEqual(current(t, e), before) {
		t.Error("undo did not restore the previous document")
	}
	if !e.Dirty() {
		t.Error("undo should leave the document dirty")
	}
	if e.Undo() {
		t.Error("Undo succeeded with empty history")
	}
}

func TestUndoWalksBackWithoutRedo(t *testing.T) {
	e, _ := loaded(t, keymap.New(4))
	e.SetBinding(0, 0, keymap.Kp("A"))
	e.SetBinding(0, 0, keymap.Kp("B"))
	e.SetBinding(0, 0, keymap.Kp("C"))

	e.Undo()
	if b, _ := current(t, e).Binding(0, 0); !b.Equal(keymap.Kp("B")) {
		t.Errorf("after one undo = %v, want kp B", b)
	}
	e.Undo()
	if b, _ := current(t, e).Binding(0, 0); !b.Equal(keymap.Kp("A")) {
		t.Errorf("after two undos = %v, want kp A", b)
	}
	if e.UndoDepth() != 1 {
		t.Errorf("UndoDepth = %d, want 1", e.UndoDepth())
	}
}

func TestHistoryCap(t *testing.T) {
	e, _ := loaded(t, keymap.New(2))
	for i := 0; i < 60; i++ {
		e.Update(func(k keymap.Keymap) keymap.Keymap { return k.AddCombo() })
	}
	if e.UndoDepth() != 50 {
		t.Fatalf("UndoDepth = %d, want 50", e.UndoDepth())
	}
	for e.Undo() {
	}
	if n := len(current(t, e).Combos); n != 10 {
		t.Errorf("oldest recoverable document has %d combos, want 10", n)
	}
}

func TestSaveClearsDirty(t *testing.T) {
	e, s := loaded(t, keymap.New(2))
	e.AddLayer()
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.Dirty() {
		t.Error("dirty after save")
	}
	if len(s.saved) != 1 || len(s.saved[0].Layers) != 2 {
		t.Errorf("saved = %+v", s.saved)
	}

	s.saveErr = errors.New("disk full")
	e.AddLayer()
	if err := e.Save(); err == nil {
		t.Error("expected save error")
	}
	if !e.Dirty() {
		t.Error("failed save cleared dirty")
	}
}

func TestLayerIntentsTrackActiveLayer(t *testing.T) {
	e, _ := loaded(t, keymap.New(3))
	e.AddLayer()
	e.AddLayer()
	if e.ActiveLayer() != 2 {
		t.Fatalf("ActiveLayer = %d, want 2 after adding", e.ActiveLayer())
	}

	e.DeleteLayer(1)
	if e.ActiveLayer() != 1 {
		t.Errorf("ActiveLayer = %d, want 1 after deleting a lower layer", e.ActiveLayer())
	}
	e.DeleteLayer(1)
	if e.ActiveLayer() != 0 {
		t.Errorf("ActiveLayer = %d, want 0 after deleting the active layer", e.ActiveLayer())
	}
	if e.DeleteLayer(0) {
		t.Error("DeleteLayer(0) reported success")
	}

	e.RenameLayer(0, "HOME")
	e.DuplicateLayer(0)
	k := current(t, e)
	if k.Layers[0].Name != "HOME" || k.Layers[1].Name != "HOME_COPY" {
		t.Errorf("layer names = %v", k.LayerNames())
	}
}

func TestBindingHookFiresOnlyForKeyEdits(t *testing.T) {
	e, _ := loaded(t, keymap.New(4))
	var keyEdits, changes atomic.Int32
	e.SetHandler(Handler{
		OnChange:         func() { changes.Add(1) },
		OnBindingChanged: func(layer, pos int, b keymap.Binding) { keyEdits.Add(1) },
	})

	e.SetBinding(0, 0, keymap.Kp("A"))
	e.AddCombo()
	e.SetComboBinding(0, keymap.Kp("ESC"))
	e.UpdateCombo(0, keymap.Combo{Name: "x", Positions: []int{1, 2}, Binding: keymap.Kp("B"), TimeoutMS: 50})
	e.SetBinding(0, 99, keymap.Kp("A"))

	if got := keyEdits.Load(); got != 1 {
		t.Errorf("binding hook fired %d times, want 1", got)
	}
	if changes.Load() < 4 {
		t.Errorf("OnChange fired %d times, want at least 4", changes.Load())
	}
}

func TestCopyPasteBinding(t *testing.T) {
	e, _ := loaded(t, keymap.New(4))
	e.SetBinding(0, 0, keymap.Binding{Action: "lt", Params: []string{"1", "TAB"}})

	if _, ok := e.CopyBinding(0, 9); ok {
		t.Error("copy out of range succeeded")
	}
	b, ok := e.CopyBinding(0, 0)
	if !ok || b.Action != "lt" {
		t.Fatalf("CopyBinding = %v, %v", b, ok)
	}
	var pasted []int
	e.SetHandler(Handler{OnBindingChanged: func(layer, pos int, b keymap.Binding) { pasted = append(pasted, pos) }})
	if !e.PasteBinding(0, 3) {
		t.Fatal("PasteBinding failed")
	}
	if got, _ := current(t, e).Binding(0, 3); !got.Equal(b) {
		t.Errorf("pasted = %v, want %v", got, b)
	}
	if !slices.Equal(pasted, []int{3}) {
		t.Errorf("paste was not reported as a key edit: %v", pasted)
	}

	e.Undo()
	if got, _ := current(t, e).Binding(0, 3); got.Action != "trans" {
		t.Errorf("paste not undoable, got %v", got)
	}
}

func TestAdoptLiveClearsHistory(t *testing.T) {
	e, _ := loaded(t, keymap.New(2))
	e.AddCombo()
	e.FinishPicking()
	e.SetBinding(0, 0, keymap.Kp("Z"))
	if e.UndoDepth() == 0 {
		t.Fatal("setup recorded no undo steps")
	}

	e.AdoptLive([]keymap.Layer{{Name: "LIVE", Bindings: []keymap.Binding{keymap.Kp("A"), keymap.Kp("B")}}})
	if e.UndoDepth() != 0 {
		t.Errorf("UndoDepth = %d, want 0", e.UndoDepth())
	}
	if e.Undo() {
		t.Error("Undo after adopting succeeded")
	}
	k := current(t, e)
	if k.Layers[0].Name != "LIVE" || len(k.Combos) != 1 {
		t.Errorf("adopted document = %+v", k)
	}
}

func TestAdoptLiveWithoutDocument(t *testing.T) {
	e := New(&memStore{loadErr: errors.New("missing")}, 50)
	_ = e.Load()
	e.AdoptLive([]keymap.Layer{{Name: "LIVE", Bindings: []keymap.Binding{keymap.Kp("A")}}})
	if !e.Loaded() || e.LoadError() != nil {
		t.Error("adopting a live keymap did not create a document")
	}
}

func TestDeleteComboClearsSelection(t *testing.T) {
	e, _ := loaded(t, keymap.New(4))
	e.AddCombo()
	e.AddCombo()
	if e.SelectedCombo() != 1 {
		t.Fatalf("SelectedCombo = %d, want 1", e.SelectedCombo())
	}
	e.DeleteCombo(1)
	if e.SelectedCombo() != -1 {
		t.Errorf("SelectedCombo = %d, want -1", e.SelectedCombo())
	}
	if _, ok := e.Picking(); ok {
		t.Error("still picking a deleted combo")
	}
}
