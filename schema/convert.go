package schema

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	strata "github.com/strata-format/go-strata"
)

// Conversion closures are generated once per field at registration. Encoding
// turns a field value into a document node; decoding applies the same
// coercion ladder as the tree's typed accessors and reports false, not an
// error, when the node cannot convert, so the caller falls back to the
// field's default.
type (
	encodeFunc func(v reflect.Value, includeUnmodified bool) (*strata.Node, error)
	decodeFunc func(n *strata.Node, v reflect.Value) (bool, error)
)

func scalarEncoder(t reflect.Type) encodeFunc {
	switch t.Kind() {
	case reflect.String:
		return func(v reflect.Value, _ bool) (*strata.Node, error) {
			return strata.NewString(v.String()), nil
		}
	case reflect.Bool:
		return func(v reflect.Value, _ bool) (*strata.Node, error) {
			return strata.NewBool(v.Bool()), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value, _ bool) (*strata.Node, error) {
			return strata.NewInt(v.Int()), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(v reflect.Value, _ bool) (*strata.Node, error) {
			u := v.Uint()
			if u > math.MaxInt64 {
				return nil, fmt.Errorf("schema: value %d overflows the storable integer range", u)
			}
			return strata.NewInt(int64(u)), nil
		}
	default: // Float32, Float64; isScalarType admits nothing else
		return func(v reflect.Value, _ bool) (*strata.Node, error) {
			return strata.NewFloat(v.Float()), nil
		}
	}
}

func scalarDecoder(t reflect.Type) decodeFunc {
	switch t.Kind() {
	case reflect.String:
		return func(n *strata.Node, v reflect.Value) (bool, error) {
			s, ok := n.AsString()
			if ok {
				v.SetString(s)
			}
			return ok, nil
		}
	case reflect.Bool:
		return func(n *strata.Node, v reflect.Value) (bool, error) {
			b, ok := n.AsBool()
			if ok {
				v.SetBool(b)
			}
			return ok, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(n *strata.Node, v reflect.Value) (bool, error) {
			i, ok := n.AsInt64()
			if !ok || v.OverflowInt(i) {
				return false, nil
			}
			v.SetInt(i)
			return true, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(n *strata.Node, v reflect.Value) (bool, error) {
			u, ok := n.AsUint64()
			if !ok || v.OverflowUint(u) {
				return false, nil
			}
			v.SetUint(u)
			return true, nil
		}
	default:
		return func(n *strata.Node, v reflect.Value) (bool, error) {
			f, ok := n.AsFloat64()
			if !ok || v.OverflowFloat(f) {
				return false, nil
			}
			v.SetFloat(f)
			return true, nil
		}
	}
}

func encodeBinary(v reflect.Value, _ bool) (*strata.Node, error) {
	return strata.NewBinary(v.Bytes()), nil
}

func decodeBinary(n *strata.Node, v reflect.Value) (bool, error) {
	if n.Kind() != strata.KindBinary {
		return false, nil
	}
	v.SetBytes(append([]byte(nil), n.Bytes()...))
	return true, nil
}

func sliceEncoder(elem encodeFunc) encodeFunc {
	return func(v reflect.Value, all bool) (*strata.Node, error) {
		items := make([]*strata.Node, v.Len())
		for i := 0; i < v.Len(); i++ {
			n, err := elem(v.Index(i), all)
			if err != nil {
				return nil, err
			}
			items[i] = n
		}
		return strata.NewList(items...), nil
	}
}

func sliceDecoder(t reflect.Type, elem decodeFunc) decodeFunc {
	return func(n *strata.Node, v reflect.Value) (bool, error) {
		if n.Kind() != strata.KindList {
			return false, nil
		}
		items := n.Items()
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, it := range items {
			ok, err := elem(it, out.Index(i))
			if err != nil || !ok {
				return false, err
			}
		}
		v.Set(out)
		return true, nil
	}
}

func mapEncoder(elem encodeFunc) encodeFunc {
	return func(v reflect.Value, all bool) (*strata.Node, error) {
		keys := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)

		sec := strata.NewSection()
		for _, key := range keys {
			n, err := elem(v.MapIndex(reflect.ValueOf(key)), all)
			if err != nil {
				return nil, err
			}
			sec.SetRoot(key, n)
		}
		return strata.NewSectionNode(sec), nil
	}
}

func mapDecoder(t reflect.Type, elem decodeFunc) decodeFunc {
	return func(n *strata.Node, v reflect.Value) (bool, error) {
		if n.Kind() != strata.KindSection {
			return false, nil
		}
		sec := n.Section()
		out := reflect.MakeMapWithSize(t, sec.Len())
		for _, key := range sec.Keys() {
			child, _ := sec.Root(key)
			tmp := reflect.New(t.Elem()).Elem()
			ok, err := elem(child, tmp)
			if err != nil || !ok {
				return false, err
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), tmp)
		}
		v.Set(out)
		return true, nil
	}
}

// elementConverters resolves the converter pair for a collection element
// type: scalars, byte slices, or nested schema structs.
func elementConverters(elem reflect.Type, building []reflect.Type) (encodeFunc, decodeFunc, error) {
	switch {
	case elem.Kind() == reflect.Slice && elem.Elem().Kind() == reflect.Uint8:
		return encodeBinary, decodeBinary, nil
	case isScalarType(elem):
		return scalarEncoder(elem), scalarDecoder(elem), nil
	case isNestedType(elem):
		return nestedConverters(elem, building)
	default:
		return nil, nil, fmt.Errorf("unsupported element type %s", elem)
	}
}

func nestedConverters(elem reflect.Type, building []reflect.Type) (encodeFunc, decodeFunc, error) {
	inner := elem
	ptr := inner.Kind() == reflect.Pointer
	if ptr {
		inner = inner.Elem()
	}
	ns, err := forTypeLocked(inner, building)
	if err != nil {
		return nil, nil, err
	}

	// Collection elements have no bit of their own; the collection's bit
	// governs, so elements always serialize in full.
	enc := func(v reflect.Value, _ bool) (*strata.Node, error) {
		if ptr {
			if v.IsNil() {
				return strata.NewSectionNode(nil), nil
			}
			v = v.Elem()
		}
		sec, err := ns.save(v, true)
		if err != nil {
			return nil, err
		}
		return strata.NewSectionNode(sec), nil
	}
	dec := func(n *strata.Node, v reflect.Value) (bool, error) {
		if n.Kind() != strata.KindSection {
			return false, nil
		}
		target := v
		if ptr {
			if v.IsNil() {
				v.Set(reflect.New(inner))
			}
			target = v.Elem()
		}
		if err := ns.load(target, n.Section()); err != nil {
			return false, err
		}
		return true, nil
	}
	return enc, dec, nil
}
