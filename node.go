package strata

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/strata-format/go-strata/internal/typeinfer"
)

// Kind identifies which of the node forms a Node holds.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindBinary
	KindList
	KindSection
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindSection:
		return "section"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one value in a document tree: a scalar, an owned byte sequence, an
// ordered list of nodes, or a nested section. Every node carries the comment
// lines that appeared directly above it in source.
type Node struct {
	// Comments holds the preceding comment lines, newline-split, without
	// the '#' prefix.
	Comments []string

	kind  Kind
	num   int64
	fnum  float64
	flag  bool
	str   string
	bin   []byte
	items []*Node
	sec   *Section
}

// NewString returns a String node.
func NewString(s string) *Node { return &Node{kind: KindString, str: s} }

// NewInt returns an Integer node.
func NewInt(i int64) *Node { return &Node{kind: KindInt, num: i} }

// NewFloat returns a Float node.
func NewFloat(f float64) *Node { return &Node{kind: KindFloat, fnum: f} }

// NewBool returns a Boolean node.
func NewBool(b bool) *Node { return &Node{kind: KindBool, flag: b} }

// NewBinary returns a Binary node owning a copy of b.
func NewBinary(b []byte) *Node {
	return &Node{kind: KindBinary, bin: bytes.Clone(b)}
}

// NewList returns a List node holding items.
func NewList(items ...*Node) *Node {
	return &Node{kind: KindList, items: items}
}

// NewSectionNode returns a Section node wrapping sec. A nil sec wraps a fresh
// empty section.
func NewSectionNode(sec *Section) *Node {
	if sec == nil {
		sec = NewSection()
	}
	return &Node{kind: KindSection, sec: sec}
}

// NewValue converts a plain Go value into a Node. Supported inputs are
// strings, booleans, signed and unsigned integers, floats, []byte, *Node,
// *Section, []any and map[string]any.
func NewValue(v any) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return NewString(""), nil
	case *Node:
		return val, nil
	case *Section:
		return NewSectionNode(val), nil
	case string:
		return NewString(val), nil
	case bool:
		return NewBool(val), nil
	case int:
		return NewInt(int64(val)), nil
	case int8:
		return NewInt(int64(val)), nil
	case int16:
		return NewInt(int64(val)), nil
	case int32:
		return NewInt(int64(val)), nil
	case int64:
		return NewInt(val), nil
	case uint:
		return newUintValue(uint64(val))
	case uint8:
		return NewInt(int64(val)), nil
	case uint16:
		return NewInt(int64(val)), nil
	case uint32:
		return NewInt(int64(val)), nil
	case uint64:
		return newUintValue(val)
	case float32:
		return NewFloat(float64(val)), nil
	case float64:
		return NewFloat(val), nil
	case []byte:
		return NewBinary(val), nil
	case []any:
		items := make([]*Node, 0, len(val))
		for _, el := range val {
			n, err := NewValue(el)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
		return NewList(items...), nil
	case map[string]any:
		sec := NewSection()
		for _, key := range sortedKeys(val) {
			n, err := NewValue(val[key])
			if err != nil {
				return nil, err
			}
			sec.SetRoot(key, n)
		}
		return NewSectionNode(sec), nil
	default:
		return nil, fmt.Errorf("strata: unsupported value type %T", v)
	}
}

func newUintValue(v uint64) (*Node, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("strata: cannot store uint64 %d (overflows int64)", v)
	}
	return NewInt(int64(v)), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Kind reports which form the node holds.
func (n *Node) Kind() Kind { return n.kind }

// Int64 returns the integer value. It is zero unless Kind is KindInt.
func (n *Node) Int64() int64 { return n.num }

// Float64 returns the float value. It is zero unless Kind is KindFloat.
func (n *Node) Float64() float64 { return n.fnum }

// Bool returns the boolean value. It is false unless Kind is KindBool.
func (n *Node) Bool() bool { return n.flag }

// Text returns the string value. It is empty unless Kind is KindString.
func (n *Node) Text() string { return n.str }

// Bytes returns the node's owned byte sequence. The caller must not modify
// it. It is nil unless Kind is KindBinary.
func (n *Node) Bytes() []byte { return n.bin }

// Items returns the node's element slice. The slice is live; callers may
// reorder or replace elements. It is nil unless Kind is KindList.
func (n *Node) Items() []*Node { return n.items }

// Append adds items to a List node.
func (n *Node) Append(items ...*Node) {
	n.items = append(n.items, items...)
}

// Section returns the nested section, or nil unless Kind is KindSection.
func (n *Node) Section() *Section { return n.sec }

// scalarText is the canonical textual form of a scalar node. It reports
// false for binary, list and section nodes, which have no single-token form.
func (n *Node) scalarText() (string, bool) {
	switch n.kind {
	case KindString:
		return n.str, true
	case KindInt:
		return typeinfer.FormatInt(n.num), true
	case KindFloat:
		return typeinfer.FormatFloat(n.fnum), true
	case KindBool:
		return typeinfer.FormatBool(n.flag), true
	}
	return "", false
}

// AsString converts the node to a string: directly for String nodes,
// otherwise through the scalar's canonical textual form.
func (n *Node) AsString() (string, bool) {
	return n.scalarText()
}

// AsInt64 converts the node to an int64: directly for Integer nodes,
// otherwise by parsing the scalar's textual form.
func (n *Node) AsInt64() (int64, bool) {
	if n.kind == KindInt {
		return n.num, true
	}
	text, ok := n.scalarText()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	return v, err == nil
}

// AsUint64 converts the node to a uint64 under the same ladder as AsInt64.
func (n *Node) AsUint64() (uint64, bool) {
	if n.kind == KindInt {
		if n.num < 0 {
			return 0, false
		}
		return uint64(n.num), true
	}
	text, ok := n.scalarText()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(text, 10, 64)
	return v, err == nil
}

// AsFloat64 converts the node to a float64: directly for Float nodes,
// otherwise by parsing the scalar's textual form.
func (n *Node) AsFloat64() (float64, bool) {
	if n.kind == KindFloat {
		return n.fnum, true
	}
	text, ok := n.scalarText()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	return v, err == nil
}

// AsBool converts the node to a bool. A non-boolean scalar converts when its
// textual form is "true" or "false", compared case-insensitively.
func (n *Node) AsBool() (bool, bool) {
	if n.kind == KindBool {
		return n.flag, true
	}
	text, ok := n.scalarText()
	if !ok {
		return false, false
	}
	switch {
	case strings.EqualFold(text, "true"):
		return true, true
	case strings.EqualFold(text, "false"):
		return false, true
	}
	return false, false
}

// Value returns the node's content as a plain Go value: int64, float64,
// bool, string, []byte, []any or map[string]any.
func (n *Node) Value() any {
	switch n.kind {
	case KindInt:
		return n.num
	case KindFloat:
		return n.fnum
	case KindBool:
		return n.flag
	case KindString:
		return n.str
	case KindBinary:
		return bytes.Clone(n.bin)
	case KindList:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = it.Value()
		}
		return out
	case KindSection:
		out := make(map[string]any, n.sec.Len())
		for _, key := range n.sec.Keys() {
			child, _ := n.sec.Root(key)
			out[key] = child.Value()
		}
		return out
	}
	return nil
}

// Equal reports structural equality: same kind, same value, same comments,
// and for lists and sections the same elements in the same order.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.kind != o.kind || !slices.Equal(n.Comments, o.Comments) {
		return false
	}
	switch n.kind {
	case KindInt:
		return n.num == o.num
	case KindFloat:
		return n.fnum == o.fnum
	case KindBool:
		return n.flag == o.flag
	case KindString:
		return n.str == o.str
	case KindBinary:
		return bytes.Equal(n.bin, o.bin)
	case KindList:
		return slices.EqualFunc(n.items, o.items, (*Node).Equal)
	case KindSection:
		return n.sec.Equal(o.sec)
	}
	return false
}
