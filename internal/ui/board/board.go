package board

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/ui/keys"
)

// Cell size of one key unit on screen.
const (
	cellWidth  = 8
	cellHeight = 3
	gridCols   = 10
)

// KeyKind selects how a key cap is styled.
type KeyKind int

const (
	KindKey KeyKind = iota
	KindTransparent
	KindLayerRef
	KindHold
	KindUnknown
)

// KeyCap is one key as drawn on the board.
type KeyCap struct {
	Label keymap.Label
	Kind  KeyKind
}

// Action is a board command sent to the owner.
type Action int

const (
	ActionMove Action = iota
	ActionEdit
	ActionCopy
	ActionPaste
	ActionClear
	ActionNextLayer
	ActionPrevLayer
)

// Board draws the keys of one layer and moves a cursor over them.
type Board struct {
	*tview.Box
	cfg *config.Config

	caps     []KeyCap
	geometry []device.KeyGeometry
	cursor   int
	picked   map[int]bool
	picking  bool

	onAction func(Action, int)
}

// NewBoard creates an empty board.
func NewBoard(cfg *config.Config) *Board {
	b := &Board{
		Box: tview.NewBox(),
		cfg: cfg,
	}
	b.SetBorder(true).SetTitle(" Keymap ")
	b.SetInputCapture(b.handleInput)
	return b
}

// SetOnAction sets the callback for board commands. pos is the key the
// command applies to; for ActionMove it is the new cursor position.
func (b *Board) SetOnAction(fn func(Action, int)) {
	b.onAction = fn
}

// SetKeys replaces the key caps. A nil geometry lays keys out in rows of
// ten.
func (b *Board) SetKeys(caps []KeyCap, geometry []device.KeyGeometry) {
	b.caps = caps
	if len(geometry) < len(caps) {
		geometry = GridGeometry(len(caps), gridCols)
	}
	b.geometry = geometry
	b.cursor = min(b.cursor, max(len(caps)-1, 0))
}

// SetCursor moves the highlighted key.
func (b *Board) SetCursor(pos int) {
	b.cursor = pos
}

// Cursor returns the highlighted key.
func (b *Board) Cursor() int {
	return b.cursor
}

// SetPicking marks the positions of the combo being edited.
func (b *Board) SetPicking(positions []int, picking bool) {
	b.picking = picking
	b.picked = make(map[int]bool, len(positions))
	for _, p := range positions {
		b.picked[p] = true
	}
}

// Picking reports whether the board shows a combo being edited.
func (b *Board) Picking() bool {
	return b.picking
}

func (b *Board) handleInput(event *tcell.EventKey) *tcell.EventKey {
	kb := b.cfg.Keybinds.Board
	name := keys.Normalize(event.Name())

	move := func(dx, dy int) *tcell.EventKey {
		next := Neighbor(b.geometry, b.cursor, dx, dy)
		if next != b.cursor {
			b.cursor = next
			b.emit(ActionMove, next)
		}
		return nil
	}

	switch {
	case name == kb.Left || event.Key() == tcell.KeyLeft:
		return move(-1, 0)
	case name == kb.Right || event.Key() == tcell.KeyRight:
		return move(1, 0)
	case name == kb.Up || event.Key() == tcell.KeyUp:
		return move(0, -1)
	case name == kb.Down || event.Key() == tcell.KeyDown:
		return move(0, 1)
	case name == kb.Edit:
		b.emit(ActionEdit, b.cursor)
		return nil
	case name == kb.Copy:
		b.emit(ActionCopy, b.cursor)
		return nil
	case name == kb.Paste:
		b.emit(ActionPaste, b.cursor)
		return nil
	case name == kb.Clear:
		b.emit(ActionClear, b.cursor)
		return nil
	case name == kb.NextLayer:
		b.emit(ActionNextLayer, b.cursor)
		return nil
	case name == kb.PrevLayer:
		b.emit(ActionPrevLayer, b.cursor)
		return nil
	}
	return event
}

func (b *Board) emit(a Action, pos int) {
	if b.onAction != nil {
		b.onAction(a, pos)
	}
}

// Draw renders the key caps inside the box.
func (b *Board) Draw(screen tcell.Screen) {
	b.Box.DrawForSubclass(screen, b)
	x0, y0, width, height := b.GetInnerRect()
	theme := b.cfg.Theme

	for i, kc := range b.caps {
		if i >= len(b.geometry) {
			break
		}
		g := b.geometry[i]
		x := x0 + int(math.Round(g.X*cellWidth))
		y := y0 + int(math.Round(g.Y*cellHeight))
		w := max(int(math.Round(g.W*cellWidth))-1, 1)
		if x+w > x0+width || y+1 >= y0+height {
			continue
		}

		style := b.capStyle(i, kc.Kind)
		if kc.Label.Top != "" {
			tview.Print(screen, theme.Board.Hold.Tag()+tview.Escape(kc.Label.Top)+theme.Board.Hold.Reset(),
				x, y, w, tview.AlignCenter, tcell.ColorDefault)
		}
		tview.Print(screen, style.Tag()+tview.Escape(kc.Label.Main)+style.Reset(),
			x, y+1, w, tview.AlignCenter, tcell.ColorDefault)
	}
}

func (b *Board) capStyle(i int, kind KeyKind) config.StyleWrapper {
	theme := b.cfg.Theme
	switch {
	case i == b.cursor:
		return theme.Board.Selected
	case b.picking && b.picked[i]:
		return theme.Combos.Picked
	}
	switch kind {
	case KindTransparent:
		return theme.Board.Transparent
	case KindLayerRef:
		return theme.Board.LayerRef
	case KindUnknown:
		return theme.Board.Unknown
	default:
		return theme.Board.Key
	}
}

// GridGeometry lays n keys out in rows of cols keys.
func GridGeometry(n, cols int) []device.KeyGeometry {
	out := make([]device.KeyGeometry, n)
	for i := range out {
		out[i] = device.KeyGeometry{
			Index: i,
			X:     float64(i % cols),
			Y:     float64(i / cols),
			W:     1,
			H:     1,
		}
	}
	return out
}

// Neighbor returns the key nearest to from in direction (dx, dy), or from
// when no key lies that way. Keys straight ahead win over keys off to the
// side.
func Neighbor(geometry []device.KeyGeometry, from, dx, dy int) int {
	if from < 0 || from >= len(geometry) {
		return from
	}
	cx, cy := center(geometry[from])
	best, bestScore := from, math.Inf(1)
	for i, g := range geometry {
		if i == from {
			continue
		}
		x, y := center(g)
		along := (x-cx)*float64(dx) + (y-cy)*float64(dy)
		if along <= 0.25 {
			continue
		}
		across := math.Abs((x-cx)*float64(dy)) + math.Abs((y-cy)*float64(dx))
		if score := along + 2*across; score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func center(g device.KeyGeometry) (float64, float64) {
	return g.X + g.W/2, g.Y + g.H/2
}
