package notifications

import (
	"testing"
	"time"
)

func TestNotifierQuietPeriod(t *testing.T) {
	n := New()
	sent := make(chan string, 4)
	n.post = func(note Notification) error {
		sent <- note.Title
		return nil
	}

	if !n.Send(Notification{Title: "first"}) {
		t.Fatal("first notification was held back")
	}
	if n.Send(Notification{Title: "second"}) {
		t.Error("routine notification inside the quiet period was posted")
	}
	if !n.Send(Notification{Title: "urgent", Urgent: true}) {
		t.Error("urgent notification was held back")
	}

	got := map[string]bool{}
	for range 2 {
		select {
		case title := <-sent:
			got[title] = true
		case <-time.After(time.Second):
			t.Fatalf("posted %v, want first and urgent", got)
		}
	}
	if !got["first"] || !got["urgent"] {
		t.Errorf("posted %v, want first and urgent", got)
	}
	select {
	case title := <-sent:
		t.Errorf("unexpected post %q", title)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBuildFinished(t *testing.T) {
	tests := []struct {
		code       int
		wantTitle  string
		wantUrgent bool
	}{
		{0, "Build succeeded", false},
		{1, "Build failed", true},
		{-1, "Build failed", true},
	}
	for _, tt := range tests {
		note := BuildFinished(tt.code)
		if note.Title != tt.wantTitle || note.Urgent != tt.wantUrgent || note.Body == "" {
			t.Errorf("BuildFinished(%d) = %+v", tt.code, note)
		}
	}
}

func TestToastExpires(t *testing.T) {
	changed := make(chan struct{}, 10)
	ts := NewToasts(30*time.Millisecond, func() { changed <- struct{}{} })

	ts.Warning("Live sync failed")
	if got, ok := ts.Current(); !ok || got.Message != "Live sync failed" || got.Level != LevelWarning {
		t.Fatalf("Current = %+v, %v", got, ok)
	}
	<-changed

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("toast did not expire")
	}
	if _, ok := ts.Current(); ok {
		t.Error("toast still visible after expiry")
	}
}

func TestNewerToastReplacesOlder(t *testing.T) {
	ts := NewToasts(60*time.Millisecond, nil)
	ts.Info("first")
	time.Sleep(40 * time.Millisecond)
	ts.Error("second")

	// The first toast's timer fires now and must not clear the second.
	time.Sleep(30 * time.Millisecond)
	got, ok := ts.Current()
	if !ok || got.Message != "second" {
		t.Errorf("Current = %+v, %v, want second", got, ok)
	}
}

func TestDismiss(t *testing.T) {
	ts := NewToasts(time.Minute, nil)
	ts.Info("hello")
	ts.Dismiss()
	if _, ok := ts.Current(); ok {
		t.Error("toast visible after Dismiss")
	}
}
