// Package escape implements the textual escaping used for strata values and
// keys. Values escape only the characters that would break the line grammar;
// keys additionally escape the characters that act as separators, so that any
// string can serve as a key.
package escape

import "strings"

// Marker introduces every escape sequence.
const Marker = '\\'

// Escape encodes text so it survives a line-oriented reload. The empty string
// becomes `\x`. Backslash, tab, newline and carriage return are substituted,
// and a leading or trailing space is anchored with `\x` so that value
// trimming on reload cannot consume it.
func Escape(text string) string {
	if text == "" {
		return `\x`
	}
	var b strings.Builder
	b.Grow(len(text) + 2)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			b.WriteString(`\s`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(text[i])
		}
	}
	s := b.String()
	if s[0] == ' ' {
		s = `\x` + s
	}
	if s[len(s)-1] == ' ' {
		s += `\x`
	}
	return s
}

// EscapeKey encodes text for use as a key. On top of Escape it substitutes
// the separator characters `.`, `:` and `=`, and anchors the result with a
// leading `\x` when it would otherwise start with a list marker and be
// misread as a list item.
func EscapeKey(text string) string {
	s := Escape(text)
	if strings.ContainsAny(s, ".:=") {
		var b strings.Builder
		b.Grow(len(s) + 4)
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '.':
				b.WriteString(`\d`)
			case ':':
				b.WriteString(`\c`)
			case '=':
				b.WriteString(`\e`)
			default:
				b.WriteByte(s[i])
			}
		}
		s = b.String()
	}
	if s[0] == '-' || s[0] == '>' {
		s = `\x` + s
	}
	return s
}

// Unescape reverses Escape. Inputs without a backslash are returned
// unchanged without allocating.
func Unescape(text string) string {
	return unescape(text, false)
}

// UnescapeKey reverses EscapeKey.
func UnescapeKey(text string) string {
	return unescape(text, true)
}

func unescape(text string, key bool) string {
	if !strings.ContainsRune(text, rune(Marker)) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] != Marker || i+1 == len(text) {
			b.WriteByte(text[i])
			continue
		}
		i++
		switch text[i] {
		case 's':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'x':
			// anchor, carries no content
		case 'd':
			if key {
				b.WriteByte('.')
			} else {
				b.WriteByte(Marker)
				b.WriteByte(text[i])
			}
		case 'c':
			if key {
				b.WriteByte(':')
			} else {
				b.WriteByte(Marker)
				b.WriteByte(text[i])
			}
		case 'e':
			if key {
				b.WriteByte('=')
			} else {
				b.WriteByte(Marker)
				b.WriteByte(text[i])
			}
		default:
			// Unknown sequence, keep it verbatim.
			b.WriteByte(Marker)
			b.WriteByte(text[i])
		}
	}
	return b.String()
}
