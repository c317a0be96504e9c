package keymap

import (
	"errors"
	"strings"
)

// ErrEmptyBinding is returned when parsing blank binding text.
var ErrEmptyBinding = errors.New("empty binding")

// ParseBinding parses the text form produced by Binding.String. A leading
// "&" is accepted and stripped, so devicetree-style "&kp A" parses too.
// Parenthesised modifier wrappers such as "LC(LS(A))" are kept as a single
// param even when they contain spaces.
func ParseBinding(s string) (Binding, error) {
	fields := splitParams(strings.TrimSpace(s))
	if len(fields) == 0 {
		return Binding{}, ErrEmptyBinding
	}
	action := strings.TrimPrefix(fields[0], "&")
	if action == "" {
		return Binding{}, ErrEmptyBinding
	}
	b := Binding{Action: action}
	if len(fields) > 1 {
		b.Params = fields[1:]
	}
	return b, nil
}

func splitParams(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case (r == ' ' || r == '\t') && depth == 0:
			flush()
		case r == ' ' || r == '\t':
			// whitespace inside a wrapper is dropped
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
