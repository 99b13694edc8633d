package strata

import "math"

// The typed accessors resolve a dotted path and apply a fixed coercion
// ladder: the native value when the node already holds that type, a
// conversion of its textual form otherwise, and the caller's default when
// neither applies or the path cannot be resolved.

// GetString returns the string value at path, or def.
func (s *Section) GetString(path, def string) string {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsString(); ok {
		return v
	}
	return def
}

// GetBool returns the boolean value at path, or def. A non-boolean scalar
// whose text reads "true" counts as true, case-insensitively.
func (s *Section) GetBool(path string, def bool) bool {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsBool(); ok {
		return v
	}
	return def
}

// GetInt returns the integer value at path, or def.
func (s *Section) GetInt(path string, def int) int {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsInt64(); ok {
		if int64(int(v)) == v {
			return int(v)
		}
	}
	return def
}

// GetInt64 returns the 64-bit integer value at path, or def.
func (s *Section) GetInt64(path string, def int64) int64 {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsInt64(); ok {
		return v
	}
	return def
}

// GetUint64 returns the unsigned integer value at path, or def.
func (s *Section) GetUint64(path string, def uint64) uint64 {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsUint64(); ok {
		return v
	}
	return def
}

// GetFloat64 returns the float value at path, or def.
func (s *Section) GetFloat64(path string, def float64) float64 {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsFloat64(); ok {
		return v
	}
	return def
}

// GetFloat32 returns the float value at path narrowed to 32 bits, or def
// when the value would overflow.
func (s *Section) GetFloat32(path string, def float32) float32 {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	if v, ok := n.AsFloat64(); ok {
		if math.Abs(v) <= math.MaxFloat32 {
			return float32(v)
		}
	}
	return def
}

// GetBytes returns the binary value at path, or def.
func (s *Section) GetBytes(path string, def []byte) []byte {
	n, err := s.Get(path)
	if err != nil || n == nil || n.kind != KindBinary {
		return def
	}
	return n.Bytes()
}

// GetStringSlice returns the list at path converted element-wise to strings.
// It returns def when the node is not a list or any element is not a scalar.
func (s *Section) GetStringSlice(path string, def []string) []string {
	n, err := s.Get(path)
	if err != nil || n == nil || n.kind != KindList {
		return def
	}
	out := make([]string, len(n.items))
	for i, it := range n.items {
		v, ok := it.AsString()
		if !ok {
			return def
		}
		out[i] = v
	}
	return out
}

// GetList returns the node list at path, or def.
func (s *Section) GetList(path string, def []*Node) []*Node {
	n, err := s.Get(path)
	if err != nil || n == nil || n.kind != KindList {
		return def
	}
	return n.Items()
}

// GetSection returns the nested section at path, or nil.
func (s *Section) GetSection(path string) *Section {
	n, err := s.Get(path)
	if err != nil || n == nil || n.kind != KindSection {
		return nil
	}
	return n.Section()
}

// GetAny returns the plain Go value at path, or def.
func (s *Section) GetAny(path string, def any) any {
	n, err := s.Get(path)
	if err != nil || n == nil {
		return def
	}
	return n.Value()
}
