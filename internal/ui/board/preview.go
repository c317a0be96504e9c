package board

import (
	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/highlight"
	"github.com/m96-chan/Keysmith/internal/keymap"
)

// Preview shows the keymap file as it would be saved.
type Preview struct {
	*tview.TextView
	cfg *config.Config
}

// NewPreview creates an empty preview panel.
func NewPreview(cfg *config.Config) *Preview {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	tv.SetBorder(true).SetTitle(" keymap.toml ")
	return &Preview{TextView: tv, cfg: cfg}
}

// SetKeymap renders k as highlighted TOML.
func (p *Preview) SetKeymap(k keymap.Keymap) {
	data, err := keymap.Marshal(k)
	if err != nil {
		p.SetText(tview.Escape(err.Error()))
		return
	}
	p.SetText(highlight.Render(string(data), "toml", p.cfg.UI.SyntaxTheme))
}
