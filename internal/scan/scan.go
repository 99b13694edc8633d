// Package scan turns raw document bytes into a slice of classified physical
// lines. It owns the lexical preprocessing: newline normalization, tab
// expansion and indentation counting. The parser above it only ever sees
// clean space-indented lines.
package scan

import "strings"

// Kind classifies a physical line.
type Kind int

const (
	// Blank lines carry no content and are skipped by the parser.
	Blank Kind = iota
	// Comment lines start with '#' and attach to the next node.
	Comment
	// Content lines hold a key/value or a list item.
	Content
)

// Line is one physical line after preprocessing.
type Line struct {
	Num    int    // 1-based line number in the source
	Kind   Kind
	Indent int    // count of leading spaces after tab expansion
	Text   string // content after the indentation; comment text for Comment lines
	Raw    string // the original line, kept for error reporting
}

// Lines normalizes line endings, expands tabs and classifies every physical
// line of input. CRLF and lone CR both count as one line break. A tab expands
// to four spaces, except immediately after the complex-list marker '>' where
// it expands to three so the following text aligns as if the marker itself
// occupied a full indent step.
func Lines(input []byte) []Line {
	text := strings.ReplaceAll(string(input), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		lines = append(lines, classify(i+1, r))
	}
	return lines
}

func classify(num int, raw string) Line {
	expanded := expandTabs(raw)

	indent := 0
	for indent < len(expanded) && expanded[indent] == ' ' {
		indent++
	}
	rest := expanded[indent:]

	switch {
	case rest == "":
		return Line{Num: num, Kind: Blank, Raw: raw}
	case rest[0] == '#':
		return Line{Num: num, Kind: Comment, Indent: indent, Text: commentText(rest), Raw: raw}
	default:
		return Line{Num: num, Kind: Content, Indent: indent, Text: rest, Raw: raw}
	}
}

func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 3*strings.Count(s, "\t"))
	for i := 0; i < len(s); i++ {
		if s[i] != '\t' {
			b.WriteByte(s[i])
			continue
		}
		if i > 0 && s[i-1] == '>' {
			b.WriteString("   ")
		} else {
			b.WriteString("    ")
		}
	}
	return b.String()
}

func commentText(rest string) string {
	rest = rest[1:] // drop '#'
	return strings.TrimPrefix(rest, " ")
}
