package board

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/build"
	"github.com/m96-chan/Keysmith/internal/config"
)

// Console shows the output of the last build.
type Console struct {
	*tview.TextView
	cfg *config.Config
}

// NewConsole creates an empty console panel.
func NewConsole(cfg *config.Config) *Console {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	tv.SetBorder(true).SetTitle(" Build ")
	return &Console{TextView: tv, cfg: cfg}
}

// SetLines replaces the console text and follows the newest line.
func (c *Console) SetLines(lines []build.Line, building bool) {
	c.SetText(c.Render(lines))
	if building {
		c.SetTitle(" Build (running) ")
	} else {
		c.SetTitle(" Build ")
	}
	c.ScrollToEnd()
}

// Render formats lines with the console theme.
func (c *Console) Render(lines []build.Line) string {
	theme := c.cfg.Theme.Console
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		style := theme.Stdout
		switch l.Kind {
		case build.LineStderr:
			style = theme.Stderr
		case build.LineStatus:
			style = theme.Failure
			if l.Text == build.StatusLine(0) {
				style = theme.Success
			}
		}
		b.WriteString(style.Tag())
		b.WriteString(tview.Escape(l.Text))
		b.WriteString(style.Reset())
	}
	return b.String()
}
