package strata

import (
	"encoding/base64"
	"strings"

	"github.com/strata-format/go-strata/internal/escape"
	"github.com/strata-format/go-strata/internal/scan"
	"github.com/strata-format/go-strata/internal/typeinfer"
)

// Parse reads a document from data and returns its root section. Parsing
// stops at the first syntax error, which is returned as a *FormatError; no
// partial tree is produced.
func Parse(data []byte, opts ...Option) (*Section, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	p := &parser{lines: scan.Lines(data)}
	root := NewSection()
	root.sep = o.sep
	root.startLine = 1

	if ln, ok := p.peek(); ok {
		root.startLine = ln.Num
		if err := p.parseSection(root, ln.Indent); err != nil {
			return nil, err
		}
		if trailing, more := p.peek(); more {
			return nil, formatErr(trailing, "indentation does not match any open block")
		}
	}
	root.PostComments = p.takeComments()
	return root, nil
}

type parser struct {
	lines    []scan.Line
	pos      int
	comments []string
}

// peek advances over blank and comment lines, accumulating comment text for
// the next node, and reports the next content line without consuming it.
func (p *parser) peek() (scan.Line, bool) {
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		switch ln.Kind {
		case scan.Blank:
			p.pos++
		case scan.Comment:
			p.comments = append(p.comments, ln.Text)
			p.pos++
		default:
			return ln, true
		}
	}
	return scan.Line{}, false
}

func (p *parser) take() { p.pos++ }

func (p *parser) takeComments() []string {
	c := p.comments
	p.comments = nil
	return c
}

func formatErr(ln scan.Line, reason string) error {
	return &FormatError{Line: ln.Num, Text: ln.Raw, Reason: reason}
}

// listElemStart reports whether c opens a list item line: '-' scalar,
// '=' binary, '>' complex.
func listElemStart(c byte) bool {
	return c == '-' || c == '=' || c == '>'
}

// splitKeyLine scans text for the first ':' or '=' outside escape sequences.
func splitKeyLine(text string) (key string, sep byte, rest string, ok bool) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case escape.Marker:
			i++ // a separator inside an escape sequence is literal
		case ':', '=':
			return text[:i], text[i], text[i+1:], true
		}
	}
	return "", 0, "", false
}

func inferNode(text string) *Node {
	v := typeinfer.Infer(text)
	switch v.Kind {
	case typeinfer.Int:
		return NewInt(v.Int)
	case typeinfer.Float:
		return NewFloat(v.Float)
	case typeinfer.Bool:
		return NewBool(v.Bool)
	}
	return NewString(v.Str)
}

// parseSection reads key lines at exactly indent into sec until the input
// ends or a shallower line closes the block. The first content line under an
// opened key fixed indent; any deeper line here means the indentation does
// not match an open block.
func (p *parser) parseSection(sec *Section, indent int) error {
	for {
		ln, ok := p.peek()
		if !ok || ln.Indent < indent {
			return nil
		}
		if ln.Indent > indent {
			return formatErr(ln, "indentation does not match any open block")
		}
		if listElemStart(ln.Text[0]) {
			return formatErr(ln, "list item without an open key")
		}

		p.take()
		comments := p.takeComments()

		keyRaw, sepByte, rest, found := splitKeyLine(ln.Text)
		if !found {
			return formatErr(ln, "missing ':' or '=' key separator")
		}
		keyRaw = strings.TrimRight(keyRaw, " ")
		if keyRaw == "" {
			return formatErr(ln, "empty key label")
		}
		key := escape.UnescapeKey(keyRaw)
		rest = strings.Trim(rest, " ")

		var node *Node
		switch {
		case sepByte == '=':
			raw, err := base64.StdEncoding.DecodeString(rest)
			if err != nil {
				return formatErr(ln, "invalid base64 value")
			}
			node = NewBinary(raw)
			if nxt, more := p.peek(); more && nxt.Indent > indent {
				return formatErr(nxt, "binary key cannot open a subsection")
			}
		case rest != "":
			node = inferNode(escape.Unescape(rest))
		default:
			// Open key: whatever follows decides its value.
			var err error
			node, err = p.parseOpenKey(sec, indent, ln)
			if err != nil {
				return err
			}
		}
		node.Comments = comments
		sec.SetRoot(key, node)
	}
}

// parseOpenKey resolves a bare "key:" line. List items may follow at the
// key's own indentation or deeper; a deeper non-list line opens a nested
// section; anything else leaves the key as an empty section.
func (p *parser) parseOpenKey(parent *Section, indent int, keyLine scan.Line) (*Node, error) {
	nxt, ok := p.peek()
	if !ok || nxt.Indent < indent {
		return NewSectionNode(newChildSection(parent, keyLine.Num)), nil
	}
	if nxt.Indent == indent {
		if listElemStart(nxt.Text[0]) {
			items, err := p.parseList(parent, indent)
			if err != nil {
				return nil, err
			}
			return NewList(items...), nil
		}
		return NewSectionNode(newChildSection(parent, keyLine.Num)), nil
	}
	if listElemStart(nxt.Text[0]) {
		items, err := p.parseList(parent, nxt.Indent)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	}
	child := newChildSection(parent, keyLine.Num)
	if err := p.parseSection(child, nxt.Indent); err != nil {
		return nil, err
	}
	return NewSectionNode(child), nil
}

// parseList reads list item lines at exactly indent. A key line at the same
// indentation closes the list and is left for the enclosing section.
func (p *parser) parseList(parent *Section, indent int) ([]*Node, error) {
	items := []*Node{}
	for {
		ln, ok := p.peek()
		if !ok || ln.Indent < indent {
			return items, nil
		}
		if ln.Indent > indent {
			return nil, formatErr(ln, "indentation does not match any open block")
		}
		if !listElemStart(ln.Text[0]) {
			return items, nil
		}

		switch ln.Text[0] {
		case '-':
			p.take()
			n := inferNode(escape.Unescape(strings.Trim(ln.Text[1:], " ")))
			n.Comments = p.takeComments()
			items = append(items, n)
		case '=':
			p.take()
			raw, err := base64.StdEncoding.DecodeString(strings.Trim(ln.Text[1:], " "))
			if err != nil {
				return nil, formatErr(ln, "invalid base64 value")
			}
			n := NewBinary(raw)
			n.Comments = p.takeComments()
			items = append(items, n)
		case '>':
			n, err := p.parseComplexItem(parent, indent, ln)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
	}
}

// parseComplexItem handles a '>' marker line: a nested list when the marker
// is followed by another list symbol, otherwise a synthesized section whose
// first key sits on the marker line itself. Further lines of the element
// continue at the column where the marker's content started. Comments above
// the marker stay pending and attach to the first element inside it, the
// spot the serializer emits them from; only a bare marker keeps them on the
// element itself.
func (p *parser) parseComplexItem(parent *Section, indent int, marker scan.Line) (*Node, error) {
	rest := marker.Text[1:]
	lead := 0
	for lead < len(rest) && rest[lead] == ' ' {
		lead++
	}
	content := rest[lead:]
	col := indent + 1 + lead

	if content == "" {
		p.take()
		n := NewSectionNode(newChildSection(parent, marker.Num))
		n.Comments = p.takeComments()
		return n, nil
	}

	// Re-read the marker line as its own content at the implied column.
	p.lines[p.pos] = scan.Line{
		Num:    marker.Num,
		Kind:   scan.Content,
		Indent: col,
		Text:   content,
		Raw:    marker.Raw,
	}

	if listElemStart(content[0]) {
		nested, err := p.parseList(parent, col)
		if err != nil {
			return nil, err
		}
		return NewList(nested...), nil
	}

	child := newChildSection(parent, marker.Num)
	if err := p.parseSection(child, col); err != nil {
		return nil, err
	}
	return NewSectionNode(child), nil
}
