package build

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Kind tags a build event.
type Kind string

const (
	KindStdout Kind = "stdout"
	KindStderr Kind = "stderr"
	KindExit   Kind = "exit"
)

// Event is one message from a running build: an output line or the final
// exit code.
type Event struct {
	Kind Kind
	Line string
	Code int
}

func Stdout(line string) Event { return Event{Kind: KindStdout, Line: line} }
func Stderr(line string) Event { return Event{Kind: KindStderr, Line: line} }
func Exit(code int) Event      { return Event{Kind: KindExit, Code: code} }

type wireEvent struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type lineData struct {
	Line string `json:"line"`
}

type exitData struct {
	Code int `json:"code"`
}

// MarshalJSON encodes the event as {"event": kind, "data": {...}}.
func (e Event) MarshalJSON() ([]byte, error) {
	var data any
	switch e.Kind {
	case KindStdout, KindStderr:
		data = lineData{Line: e.Line}
	case KindExit:
		data = exitData{Code: e.Code}
	default:
		return nil, fmt.Errorf("unknown build event kind %q", e.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Event: e.Kind, Data: raw})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Event {
	case KindStdout, KindStderr:
		var d lineData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return fmt.Errorf("decoding %s event: %w", w.Event, err)
		}
		*e = Event{Kind: w.Event, Line: d.Line}
	case KindExit:
		var d exitData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return fmt.Errorf("decoding exit event: %w", err)
		}
		*e = Event{Kind: KindExit, Code: d.Code}
	default:
		return fmt.Errorf("unknown build event kind %q", w.Event)
	}
	return nil
}
