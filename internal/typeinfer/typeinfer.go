// Package typeinfer classifies raw scalar tokens. A token is accepted as a
// number only when re-stringifying the parsed value reproduces it exactly, so
// forms like "007" or "+1" that would silently change representation on a
// save stay strings. Integers are tried before floats so whole numbers are
// never stored as floats.
package typeinfer

import "strconv"

// Kind is the inferred scalar kind of a token.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
)

// Value holds the result of classifying one token.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// Infer classifies token. The zero token is the empty string.
func Infer(token string) Value {
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		if FormatInt(i) == token {
			return Value{Kind: Int, Int: i}
		}
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		if FormatFloat(f) == token {
			return Value{Kind: Float, Float: f}
		}
	}
	switch token {
	case "true":
		return Value{Kind: Bool, Bool: true}
	case "false":
		return Value{Kind: Bool, Bool: false}
	}
	return Value{Kind: String, Str: token}
}

// FormatInt is the canonical textual form of an integer value.
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// FormatFloat is the canonical textual form of a float value.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatBool is the canonical textual form of a boolean value.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
