// Package highlight renders source text (the keymap's TOML form) as
// tview-tagged text using chroma.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rivo/tview"
)

// DefaultTheme is used when the configured chroma style is unknown.
const DefaultTheme = "monokai"

// Render highlights src as lang with the named chroma style. Unknown
// languages fall back to plain text; tokenising errors return the escaped
// source.
func Render(src, lang, theme string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(theme)
	if style == nil {
		style = styles.Get(DefaultTheme)
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return tview.Escape(src)
	}

	var buf strings.Builder
	for _, token := range iterator.Tokens() {
		text := tview.Escape(token.Value)
		entry := style.Get(token.Type)
		if !entry.Colour.IsSet() {
			buf.WriteString(text)
			continue
		}

		attrs := ""
		if entry.Bold == chroma.Yes {
			attrs += "b"
		}
		if entry.Italic == chroma.Yes {
			attrs += "i"
		}
		hex := entry.Colour.String()
		if attrs != "" {
			fmt.Fprintf(&buf, "[%s::%s]%s[-::-]", hex, attrs, text)
		} else {
			fmt.Fprintf(&buf, "[%s]%s[-]", hex, text)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Themes lists the available chroma style names.
func Themes() []string {
	return styles.Names()
}
