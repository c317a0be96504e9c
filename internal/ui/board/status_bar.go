package board

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/notifications"
)

// StatusBar displays the device state, the active layer and the latest
// notice at the bottom of the screen.
type StatusBar struct {
	*tview.TextView
	cfg     *config.Config
	device  string
	battery string
	layer   string
	dirty   bool
	mode    string
	notice  string
}

// NewStatusBar creates a themed status bar.
func NewStatusBar(cfg *config.Config) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)

	fg, bg, _ := cfg.Theme.StatusBar.Text.Style.Decompose()
	tv.SetTextColor(fg)
	tv.SetBackgroundColor(bg)

	return &StatusBar{
		TextView: tv,
		cfg:      cfg,
	}
}

// SetDevice updates the connection status.
func (sb *StatusBar) SetDevice(st device.Status, ready bool) {
	theme := sb.cfg.Theme.StatusBar
	style := theme.Disconnected
	text := st.String()
	if c, ok := st.(device.Connected); ok {
		style = theme.Connected
		if c.Locked {
			style = theme.Locked
		} else if !ready {
			text += " (loading)"
		}
	}
	sb.device = style.Tag() + tview.Escape(text) + style.Reset()
	sb.render()
}

// SetBattery updates the battery text. An empty string hides it.
func (sb *StatusBar) SetBattery(s string) {
	sb.battery = s
	sb.render()
}

// SetLayer updates the active layer name.
func (sb *StatusBar) SetLayer(name string, dirty bool) {
	sb.layer = name
	sb.dirty = dirty
	sb.render()
}

// SetMode shows a mode such as "PICK" while it is active.
func (sb *StatusBar) SetMode(mode string) {
	sb.mode = mode
	sb.render()
}

// SetNotice shows the current toast. ok false clears it.
func (sb *StatusBar) SetNotice(t notifications.Toast, ok bool) {
	if !ok {
		sb.notice = ""
		sb.render()
		return
	}
	theme := sb.cfg.Theme.Toast
	style := theme.Info
	switch t.Level {
	case notifications.LevelWarning:
		style = theme.Warning
	case notifications.LevelError:
		style = theme.Error
	}
	sb.notice = style.Tag() + tview.Escape(t.Message) + style.Reset()
	sb.render()
}

// render rebuilds the status bar text from current state.
func (sb *StatusBar) render() {
	var parts []string
	if sb.device != "" {
		parts = append(parts, sb.device)
	}
	if sb.battery != "" {
		parts = append(parts, "battery "+sb.battery)
	}
	if sb.layer != "" {
		layer := tview.Escape(sb.layer)
		if sb.dirty {
			dirty := sb.cfg.Theme.StatusBar.Dirty
			layer += dirty.Tag() + "*" + dirty.Reset()
		}
		parts = append(parts, layer)
	}
	if sb.mode != "" {
		parts = append(parts, sb.mode)
	}
	if sb.notice != "" {
		parts = append(parts, sb.notice)
	}
	sb.TextView.SetText(" " + strings.Join(parts, "  |  "))
}
