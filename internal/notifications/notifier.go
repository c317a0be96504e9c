package notifications

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/m96-chan/Keysmith/internal/consts"
)

// DefaultInterval is the quiet period after a routine notification.
const DefaultInterval = 3 * time.Second

// Notification is one desktop notification. Urgent ones skip the quiet
// period and ask the desktop to keep them on screen.
type Notification struct {
	Title  string
	Body   string
	Urgent bool
}

// BuildFinished describes a finished build. Failures are urgent.
func BuildFinished(code int) Notification {
	if code == 0 {
		return Notification{Title: "Build succeeded", Body: "Firmware is ready to flash."}
	}
	return Notification{
		Title:  "Build failed",
		Body:   fmt.Sprintf("The build exited with code %d.", code),
		Urgent: true,
	}
}

// Notifier posts desktop notifications in the background.
type Notifier struct {
	mu       sync.Mutex
	interval time.Duration
	lastSent time.Time
	post     func(Notification) error
}

// New returns a notifier with the default quiet period.
func New() *Notifier {
	return &Notifier{interval: DefaultInterval, post: postPlatform}
}

// Send posts n unless a routine notification went out within the quiet
// period. It reports whether n was posted.
func (n *Notifier) Send(note Notification) bool {
	n.mu.Lock()
	now := time.Now()
	if !note.Urgent && now.Sub(n.lastSent) < n.interval {
		n.mu.Unlock()
		return false
	}
	n.lastSent = now
	post := n.post
	n.mu.Unlock()

	go func() {
		if err := post(note); err != nil {
			slog.Debug("desktop notification failed", "title", note.Title, "error", err)
		}
	}()
	return true
}

func postPlatform(note Notification) error {
	switch runtime.GOOS {
	case "linux":
		urgency := "normal"
		if note.Urgent {
			urgency = "critical"
		}
		return exec.Command("notify-send", "--app-name="+consts.Name, "--urgency="+urgency, note.Title, note.Body).Run()
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", note.Body, note.Title)
		if note.Urgent {
			script += ` sound name "Basso"`
		}
		return exec.Command("osascript", "-e", script).Run()
	}
	slog.Debug("desktop notifications not supported", "os", runtime.GOOS)
	return nil
}
