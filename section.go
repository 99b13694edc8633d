package strata

import (
	"slices"
	"strings"
)

// Section is an ordered mapping from key to Node. Keys keep their insertion
// order, and a parallel case-folded index backs case-insensitive lookup; the
// two are always updated together. A Section is not internally synchronized.
type Section struct {
	// PostComments holds comment lines that trailed the last node. They are
	// only meaningful on the document root.
	PostComments []string

	keys      []string
	nodes     map[string]*Node
	folded    map[string]string
	sep       rune
	startLine int
}

// NewSection returns an empty section with the default '.' path separator.
func NewSection() *Section {
	return &Section{
		nodes:  make(map[string]*Node),
		folded: make(map[string]string),
		sep:    '.',
	}
}

func newChildSection(parent *Section, line int) *Section {
	s := NewSection()
	s.sep = parent.sep
	s.startLine = line
	return s
}

// Len returns the number of keys in the section.
func (s *Section) Len() int { return len(s.keys) }

// Keys returns the section's keys in insertion order.
func (s *Section) Keys() []string { return slices.Clone(s.keys) }

// Separator returns the section's path separator.
func (s *Section) Separator() rune { return s.sep }

// SetSeparator changes the character dotted paths are split on.
func (s *Section) SetSeparator(r rune) { s.sep = r }

// StartLine returns the 1-based source line the section started on, or zero
// for sections built in memory.
func (s *Section) StartLine() int { return s.startLine }

func foldKey(key string) string { return strings.ToLower(key) }

// Root returns the node stored directly under key. Lookup is exact first and
// case-insensitive second.
func (s *Section) Root(key string) (*Node, bool) {
	if n, ok := s.nodes[key]; ok {
		return n, true
	}
	if canonical, ok := s.folded[foldKey(key)]; ok {
		return s.nodes[canonical], true
	}
	return nil, false
}

// SetRoot stores n directly under key, overwriting any previous node while
// keeping the key's position. Both the ordered and the case-folded index are
// updated together.
func (s *Section) SetRoot(key string, n *Node) {
	if _, exists := s.nodes[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.nodes[key] = n
	s.folded[foldKey(key)] = key
}

// Remove deletes key and returns whether it was present. Like Root it falls
// back to a case-insensitive match.
func (s *Section) Remove(key string) bool {
	if _, ok := s.nodes[key]; !ok {
		canonical, ok := s.folded[foldKey(key)]
		if !ok {
			return false
		}
		key = canonical
	}
	delete(s.nodes, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	fold := foldKey(key)
	if s.folded[fold] == key {
		delete(s.folded, fold)
		// Another key may still fold to the same form.
		for _, k := range s.keys {
			if foldKey(k) == fold {
				s.folded[fold] = k
				break
			}
		}
	}
	return true
}

// splitPath splits a dotted path on the section's separator. A path that is
// empty, ends in the separator, or contains an empty segment is a UsageError.
func (s *Section) splitPath(op, path string) ([]string, error) {
	if path == "" {
		return nil, usageErr(op, "empty path")
	}
	if strings.HasSuffix(path, string(s.sep)) {
		return nil, usageErr(op, "path %q ends in the separator", path)
	}
	parts := strings.Split(path, string(s.sep))
	for _, p := range parts {
		if p == "" {
			return nil, usageErr(op, "path %q contains an empty segment", path)
		}
	}
	return parts, nil
}

// Get resolves a dotted path and returns the node it addresses, or nil if
// any segment is absent. Passing through a segment that holds a non-section
// value is a UsageError.
func (s *Section) Get(path string) (*Node, error) {
	parts, err := s.splitPath("Get", path)
	if err != nil {
		return nil, err
	}
	cur := s
	for _, part := range parts[:len(parts)-1] {
		n, ok := cur.Root(part)
		if !ok {
			return nil, nil
		}
		if n.kind != KindSection {
			return nil, usageErr("Get", "path segment %q holds a %s, not a section", part, n.kind)
		}
		cur = n.sec
	}
	n, _ := cur.Root(parts[len(parts)-1])
	return n, nil
}

// Set resolves a dotted path and stores n at its end, creating intermediate
// sections as needed. Writing through a segment that already holds a
// non-section value is a UsageError.
func (s *Section) Set(path string, n *Node) error {
	parts, err := s.splitPath("Set", path)
	if err != nil {
		return err
	}
	cur := s
	for _, part := range parts[:len(parts)-1] {
		existing, ok := cur.Root(part)
		if !ok {
			child := newChildSection(cur, 0)
			cur.SetRoot(part, NewSectionNode(child))
			cur = child
			continue
		}
		if existing.kind != KindSection {
			return usageErr("Set", "path segment %q holds a %s, not a section", part, existing.kind)
		}
		cur = existing.sec
	}
	cur.SetRoot(parts[len(parts)-1], n)
	return nil
}

// SetValue converts v with NewValue and stores it at path.
func (s *Section) SetValue(path string, v any) error {
	n, err := NewValue(v)
	if err != nil {
		return err
	}
	return s.Set(path, n)
}

// Default returns the node at path if present; otherwise it stores v there
// and returns the freshly created node.
func (s *Section) Default(path string, v any) (*Node, error) {
	n, err := s.Get(path)
	if err != nil {
		return nil, err
	}
	if n != nil {
		return n, nil
	}
	n, err = NewValue(v)
	if err != nil {
		return nil, err
	}
	if err := s.Set(path, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Equal reports structural equality: same keys in the same order, equal
// nodes, and equal post comments.
func (s *Section) Equal(o *Section) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !slices.Equal(s.keys, o.keys) || !slices.Equal(s.PostComments, o.PostComments) {
		return false
	}
	for _, key := range s.keys {
		if !s.nodes[key].Equal(o.nodes[key]) {
			return false
		}
	}
	return true
}
