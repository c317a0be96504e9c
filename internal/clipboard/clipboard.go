// Package clipboard mirrors copied bindings to the system clipboard in
// their text form ("lt 1 TAB").
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	sysclip "github.com/atotto/clipboard"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

// ErrUnavailable is returned when no system clipboard is reachable.
var ErrUnavailable = errors.New("clipboard: no system clipboard available")

// backend is swapped out in tests.
var backend = struct {
	write func(string) error
	read  func() (string, error)
}{sysclip.WriteAll, sysclip.ReadAll}

// Available reports whether a system clipboard was detected.
func Available() bool {
	return !sysclip.Unsupported
}

// WriteText copies text to the system clipboard.
func WriteText(text string) error {
	if !Available() {
		return ErrUnavailable
	}
	return backend.write(text)
}

// ReadText returns text from the system clipboard.
func ReadText() (string, error) {
	if !Available() {
		return "", ErrUnavailable
	}
	out, err := backend.read()
	if err != nil {
		return "", fmt.Errorf("clipboard: paste failed: %w", err)
	}
	return out, nil
}

// WriteBinding copies a binding in text form.
func WriteBinding(b keymap.Binding) error {
	return WriteText(b.String())
}

// ReadBinding parses the clipboard's first line as a binding.
func ReadBinding() (keymap.Binding, error) {
	text, err := ReadText()
	if err != nil {
		return keymap.Binding{}, err
	}
	line, _, _ := strings.Cut(text, "\n")
	b, err := keymap.ParseBinding(line)
	if err != nil {
		return keymap.Binding{}, fmt.Errorf("clipboard does not hold a binding: %w", err)
	}
	return b, nil
}
