package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Defaulter lets a schema struct populate non-zero defaults. It runs once,
// on the reference instance constructed at registration, before the defaults
// are captured.
type Defaulter interface {
	SetDefaults()
}

type fieldKind int

const (
	kindScalar fieldKind = iota
	kindBinary
	kindSlice
	kindMap
	kindNested
)

// Field describes one bound struct field.
type Field struct {
	Name    string // document key
	Comment string // emitted as the key's preceding comment

	kind   fieldKind
	index  int // struct field index
	bit    int // modification bit index
	typ    reflect.Type
	nested *Schema // set for kindNested
	def    reflect.Value
	encode encodeFunc
	decode decodeFunc
}

// Schema is the field-descriptor table for one record type, built once per
// type and shared process-wide.
type Schema struct {
	typ        reflect.Type
	fields     []*Field
	byFold     map[string]*Field
	flagsIndex int
}

// Type returns the struct type the schema describes.
func (s *Schema) Type() reflect.Type { return s.typ }

// Fields returns the schema's field descriptors in declaration order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

var flagsType = reflect.TypeOf(Flags{})

// The registry memoizes one registration per type, successful or not.
// Lookups after the first use are lock-free; first registrations of a type
// are serialized so the build cost is paid exactly once.
var (
	registry   sync.Map // reflect.Type -> *registration
	registerMu sync.Mutex
)

type registration struct {
	schema *Schema
	err    error
}

// For returns the memoized schema for record's type, registering it on first
// use. Registration failures (unsupported field types, missing Flags embed,
// cyclic schema graphs) are also memoized and returned on every later call.
func For(record any) (*Schema, error) {
	t := reflect.TypeOf(record)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %T is not a struct type", record)
	}
	return forType(t)
}

func forType(t reflect.Type) (*Schema, error) {
	if r, ok := registry.Load(t); ok {
		reg := r.(*registration)
		return reg.schema, reg.err
	}
	registerMu.Lock()
	defer registerMu.Unlock()
	return forTypeLocked(t, nil)
}

// forTypeLocked registers t and, recursively, every schema type it nests.
// building holds the types currently under construction so a cycle is
// detected instead of recursing forever.
func forTypeLocked(t reflect.Type, building []reflect.Type) (*Schema, error) {
	if r, ok := registry.Load(t); ok {
		reg := r.(*registration)
		return reg.schema, reg.err
	}
	for _, b := range building {
		if b == t {
			return nil, fmt.Errorf("schema: cyclic schema through %s", t)
		}
	}
	s, err := build(t, append(building, t))
	if err != nil {
		s = nil
	}
	registry.Store(t, &registration{schema: s, err: err})
	return s, err
}

func build(t reflect.Type, building []reflect.Type) (*Schema, error) {
	flagsIndex := -1
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == flagsType {
			flagsIndex = i
			break
		}
	}
	if flagsIndex < 0 {
		return nil, fmt.Errorf("schema: %s must embed schema.Flags", t)
	}

	s := &Schema{typ: t, byFold: make(map[string]*Field), flagsIndex: flagsIndex}

	// The reference instance supplies every field's default, captured once
	// by deep copy so no live record can alias it.
	ref := reflect.New(t)
	if d, ok := ref.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	refElem := ref.Elem()

	bit := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if i == flagsIndex || !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("strata")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}

		f := &Field{
			Name:    name,
			Comment: sf.Tag.Get("comment"),
			index:   i,
			bit:     bit,
			typ:     sf.Type,
		}
		if err := f.bind(building); err != nil {
			return nil, fmt.Errorf("schema: field %s.%s: %w", t, sf.Name, err)
		}
		f.def = deepCopy(refElem.Field(i))

		s.fields = append(s.fields, f)
		s.byFold[strings.ToLower(name)] = f
		bit++
	}
	return s, nil
}

// bind classifies the field's type and generates its conversion closures.
// An unsupported type fails here, at registration, never per call.
func (f *Field) bind(building []reflect.Type) error {
	t := f.typ
	switch {
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		f.kind = kindBinary
		f.encode = encodeBinary
		f.decode = decodeBinary
		return nil
	case isScalarType(t):
		f.kind = kindScalar
		f.encode = scalarEncoder(t)
		f.decode = scalarDecoder(t)
		return nil
	case t.Kind() == reflect.Slice:
		enc, dec, err := elementConverters(t.Elem(), building)
		if err != nil {
			return err
		}
		f.kind = kindSlice
		f.encode = sliceEncoder(enc)
		f.decode = sliceDecoder(t, dec)
		return nil
	case t.Kind() == reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", t.Key())
		}
		enc, dec, err := elementConverters(t.Elem(), building)
		if err != nil {
			return err
		}
		f.kind = kindMap
		f.encode = mapEncoder(enc)
		f.decode = mapDecoder(t, dec)
		return nil
	case isNestedType(t):
		elem := t
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		ns, err := forTypeLocked(elem, building)
		if err != nil {
			return err
		}
		f.kind = kindNested
		f.nested = ns
		return nil
	default:
		return fmt.Errorf("unsupported field type %s", t)
	}
}

func isScalarType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNestedType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// deepCopy duplicates v structurally so the copy shares no mutable
// containers with the original. Embedded Flags reset to zero: a default
// never carries tracking state.
func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMap(v.Type())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Struct:
		if v.Type() == flagsType {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(deepCopy(v.Field(i)))
		}
		return out
	default:
		return v
	}
}

func commentLines(comment string) []string {
	if comment == "" {
		return nil
	}
	return strings.Split(comment, "\n")
}
