package strata

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"

	"github.com/strata-format/go-strata/internal/escape"
)

// Marshal returns the textual encoding of sec.
func Marshal(sec *Section, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, opts...)
	if err := e.Encode(sec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encoder writes document trees to an output stream.
type Encoder struct {
	w    io.Writer
	opts []Option
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the encoding of sec to the stream. Re-parsing the output
// yields a structurally equivalent tree: same keys in the same order, same
// node kinds and values, same comment attachment.
func (e *Encoder) Encode(sec *Section) error {
	o, err := newOptions(e.opts)
	if err != nil {
		return err
	}
	w := &writer{w: e.w, indent: o.indent, newline: o.newline}
	if err := w.section(sec, 0); err != nil {
		return err
	}
	return w.comments(sec.PostComments, 0)
}

// writer emits lines at absolute columns. Regular nesting steps by the
// configured indent; complex list elements step by two, the width of the
// "> " marker.
type writer struct {
	w       io.Writer
	indent  int
	newline string
}

func (w *writer) raw(s string) error {
	_, err := io.WriteString(w.w, s)
	return err
}

func (w *writer) line(col int, text string) error {
	return w.raw(strings.Repeat(" ", col) + text + w.newline)
}

func (w *writer) comments(lines []string, col int) error {
	for _, c := range lines {
		if err := w.line(col, "# "+c); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) section(sec *Section, col int) error {
	for _, key := range sec.keys {
		if err := w.key(key, sec.nodes[key], col); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) key(key string, n *Node, col int) error {
	if err := w.comments(n.Comments, col); err != nil {
		return err
	}
	if err := w.line(col, w.keyLine(key, n)); err != nil {
		return err
	}
	return w.keyBody(n, col)
}

// keyLine renders the single line a key occupies; bodies of sections and
// lists follow separately.
func (w *writer) keyLine(key string, n *Node) string {
	ek := escape.EscapeKey(key)
	switch n.kind {
	case KindSection, KindList:
		return ek + ":"
	case KindBinary:
		return ek + "= " + base64.StdEncoding.EncodeToString(n.bin)
	default:
		text, _ := n.scalarText()
		return ek + ": " + escape.Escape(text)
	}
}

func (w *writer) keyBody(n *Node, col int) error {
	switch n.kind {
	case KindSection:
		return w.section(n.sec, col+w.indent)
	case KindList:
		return w.list(n.items, col+w.indent)
	}
	return nil
}

func (w *writer) list(items []*Node, col int) error {
	for _, n := range items {
		if err := w.comments(n.Comments, col); err != nil {
			return err
		}
		if err := w.item(n, col, strings.Repeat(" ", col)); err != nil {
			return err
		}
	}
	return nil
}

// item writes one list element. lead carries the indentation plus any
// enclosing '>' markers for the element's first line.
func (w *writer) item(n *Node, col int, lead string) error {
	switch n.kind {
	case KindBinary:
		return w.raw(lead + "= " + base64.StdEncoding.EncodeToString(n.bin) + w.newline)
	case KindSection:
		return w.sectionItem(n.sec, col, lead)
	case KindList:
		return w.listItem(n.items, col, lead)
	default:
		text, _ := n.scalarText()
		return w.raw(lead + "- " + escape.Escape(text) + w.newline)
	}
}

// sectionItem writes a section element: the first key rides the marker line,
// the remaining keys continue at the column implied by the marker's width.
func (w *writer) sectionItem(sec *Section, col int, lead string) error {
	if sec.Len() == 0 {
		return w.raw(lead + ">" + w.newline)
	}
	first := sec.nodes[sec.keys[0]]
	if err := w.comments(first.Comments, col); err != nil {
		return err
	}
	if err := w.raw(lead + "> " + w.keyLine(sec.keys[0], first) + w.newline); err != nil {
		return err
	}
	if err := w.keyBody(first, col+2); err != nil {
		return err
	}
	for _, key := range sec.keys[1:] {
		if err := w.key(key, sec.nodes[key], col+2); err != nil {
			return err
		}
	}
	return nil
}

// listItem writes a nested list element: the first inner element rides the
// marker line, the rest continue two columns in.
func (w *writer) listItem(items []*Node, col int, lead string) error {
	if len(items) == 0 {
		return w.raw(lead + ">" + w.newline)
	}
	if err := w.comments(items[0].Comments, col); err != nil {
		return err
	}
	if err := w.item(items[0], col+2, lead+"> "); err != nil {
		return err
	}
	for _, n := range items[1:] {
		if err := w.comments(n.Comments, col+2); err != nil {
			return err
		}
		if err := w.item(n, col+2, strings.Repeat(" ", col+2)); err != nil {
			return err
		}
	}
	return nil
}
