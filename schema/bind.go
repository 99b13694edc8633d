package schema

import (
	"fmt"
	"reflect"
	"strings"

	strata "github.com/strata-format/go-strata"
)

// Save encodes record into a new document section. With includeUnmodified
// false only fields whose modification bit is set are emitted, plus nested
// records that contain a modified field anywhere below; true emits every
// bound field. Field comments from the comment tag precede their keys.
func Save(record any, includeUnmodified bool) (*strata.Section, error) {
	s, rv, err := instance(record, false)
	if err != nil {
		return nil, err
	}
	return s.save(rv, includeUnmodified)
}

// Load decodes sec into record, which must be a pointer to a schema struct.
// Every bound field is written: a key present in sec sets the field and its
// modification bit, while an absent or unconvertible key resets the field to
// its registered default and clears the bit. Change callbacks do not fire
// during a load.
func Load(record any, sec *strata.Section) error {
	s, rv, err := instance(record, true)
	if err != nil {
		return err
	}
	if sec == nil {
		sec = strata.NewSection()
	}
	return s.load(rv, sec)
}

// AnyModified reports whether any field of record, at any nesting depth, has
// its modification bit set.
func AnyModified(record any) (bool, error) {
	s, rv, err := instance(record, false)
	if err != nil {
		return false, err
	}
	return s.anyModifiedDeep(rv), nil
}

func instance(record any, mutate bool) (*Schema, reflect.Value, error) {
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, reflect.Value{}, fmt.Errorf("schema: nil record")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, reflect.Value{}, fmt.Errorf("schema: %T is not a schema struct", record)
	}
	if mutate && !rv.CanAddr() {
		return nil, reflect.Value{}, fmt.Errorf("schema: record must be a pointer to a struct, got %T", record)
	}
	s, err := forType(rv.Type())
	if err != nil {
		return nil, reflect.Value{}, err
	}
	return s, rv, nil
}

func (s *Schema) flagsValue(rv reflect.Value) Flags {
	return rv.Field(s.flagsIndex).Interface().(Flags)
}

func (s *Schema) flagsPtr(rv reflect.Value) *Flags {
	return rv.Field(s.flagsIndex).Addr().Interface().(*Flags)
}

func (s *Schema) save(rv reflect.Value, all bool) (*strata.Section, error) {
	flags := s.flagsValue(rv)
	sec := strata.NewSection()
	for _, f := range s.fields {
		fv := rv.Field(f.index)
		var n *strata.Node
		if f.kind == kindNested {
			inner := fv
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					if !all && !flags.bit(f.bit) {
						continue
					}
					n = strata.NewSectionNode(nil)
				} else {
					inner = inner.Elem()
				}
			}
			if n == nil {
				if !all && !flags.bit(f.bit) && !f.nested.anyModifiedDeep(inner) {
					continue
				}
				child, err := f.nested.save(inner, all)
				if err != nil {
					return nil, err
				}
				n = strata.NewSectionNode(child)
			}
		} else {
			if !all && !flags.bit(f.bit) {
				continue
			}
			var err error
			n, err = f.encode(fv, all)
			if err != nil {
				return nil, fmt.Errorf("schema: field %s: %w", f.Name, err)
			}
		}
		n.Comments = commentLines(f.Comment)
		sec.SetRoot(f.Name, n)
	}
	return sec, nil
}

func (s *Schema) load(rv reflect.Value, sec *strata.Section) error {
	flags := s.flagsPtr(rv)
	for _, f := range s.fields {
		fv := rv.Field(f.index)
		node, present := sec.Root(f.Name)

		if f.kind == kindNested {
			if present && node.Kind() == strata.KindSection {
				target := fv
				if target.Kind() == reflect.Pointer {
					if target.IsNil() {
						target.Set(reflect.New(target.Type().Elem()))
					}
					target = target.Elem()
				}
				if err := f.nested.load(target, node.Section()); err != nil {
					return err
				}
				flags.setBit(f.bit)
			} else {
				f.resetNested(fv)
				flags.clearBit(f.bit)
			}
			continue
		}

		ok := false
		if present {
			var err error
			ok, err = f.decode(node, fv)
			if err != nil {
				return fmt.Errorf("schema: field %s: %w", f.Name, err)
			}
		}
		if ok {
			flags.setBit(f.bit)
		} else {
			fv.Set(deepCopy(f.def))
			flags.clearBit(f.bit)
		}
	}
	return nil
}

// resetNested restores a nested field to its default value, keeping any
// change callbacks registered on the record it replaces.
func (f *Field) resetNested(fv reflect.Value) {
	var saved []func(string)
	if fl := f.nestedFlags(fv); fl != nil {
		saved = fl.onChange
	}
	fv.Set(deepCopy(f.def))
	if fl := f.nestedFlags(fv); fl != nil {
		fl.onChange = saved
	}
}

func (f *Field) nestedFlags(fv reflect.Value) *Flags {
	inner := fv
	if inner.Kind() == reflect.Pointer {
		if inner.IsNil() {
			return nil
		}
		inner = inner.Elem()
	}
	return f.nested.flagsPtr(inner)
}

func (s *Schema) anyModifiedDeep(rv reflect.Value) bool {
	fl := s.flagsValue(rv)
	if fl.any() {
		return true
	}
	for _, f := range s.fields {
		if f.kind != kindNested {
			continue
		}
		inner := rv.Field(f.index)
		if inner.Kind() == reflect.Pointer {
			if inner.IsNil() {
				continue
			}
			inner = inner.Elem()
		}
		if f.nested.anyModifiedDeep(inner) {
			return true
		}
	}
	return false
}

func (s *Schema) setAllDeep(rv reflect.Value) {
	flags := s.flagsPtr(rv)
	for _, f := range s.fields {
		flags.setBit(f.bit)
		if f.kind != kindNested {
			continue
		}
		inner := rv.Field(f.index)
		if inner.Kind() == reflect.Pointer {
			if inner.IsNil() {
				continue
			}
			inner = inner.Elem()
		}
		f.nested.setAllDeep(inner)
	}
}

func (s *Schema) clearAllDeep(rv reflect.Value) {
	s.flagsPtr(rv).clearAll()
	for _, f := range s.fields {
		if f.kind != kindNested {
			continue
		}
		inner := rv.Field(f.index)
		if inner.Kind() == reflect.Pointer {
			if inner.IsNil() {
				continue
			}
			inner = inner.Elem()
		}
		f.nested.clearAllDeep(inner)
	}
}

// FieldByPath resolves a dotted, case-insensitive path against the schema.
// Every segment but the last must name a nested record field.
func (s *Schema) FieldByPath(path string) (*Field, error) {
	cur := s
	parts := strings.Split(path, ".")
	for i, part := range parts {
		f, err := cur.lookup(path, part)
		if err != nil {
			return nil, err
		}
		if i == len(parts)-1 {
			return f, nil
		}
		if f.kind != kindNested {
			return nil, fmt.Errorf("schema: field %q in path %q is not a nested record", f.Name, path)
		}
		cur = f.nested
	}
	return nil, fmt.Errorf("schema: empty path")
}

func (s *Schema) lookup(path, part string) (*Field, error) {
	if part == "" {
		return nil, fmt.Errorf("schema: empty segment in path %q", path)
	}
	f, ok := s.byFold[strings.ToLower(part)]
	if !ok {
		return nil, fmt.Errorf("schema: %s has no field %q", s.typ, part)
	}
	return f, nil
}

// resolved is the outcome of walking a dotted path on a live record: the
// final field, the struct value that holds it, the record's root Flags for
// notification, and the path rewritten with declared field names.
type resolved struct {
	field  *Field
	schema *Schema // schema of the struct holding field
	holder reflect.Value
	root   *Flags
	path   string
}

func resolvePath(record any, path string, mutate bool) (*resolved, error) {
	s, rv, err := instance(record, mutate)
	if err != nil {
		return nil, err
	}
	var root *Flags
	if rv.CanAddr() {
		root = s.flagsPtr(rv)
	}

	parts := strings.Split(path, ".")
	canon := make([]string, 0, len(parts))
	cur, curS := rv, s
	for i, part := range parts {
		f, err := curS.lookup(path, part)
		if err != nil {
			return nil, err
		}
		canon = append(canon, f.Name)
		if i == len(parts)-1 {
			return &resolved{field: f, schema: curS, holder: cur, root: root, path: strings.Join(canon, ".")}, nil
		}
		if f.kind != kindNested {
			return nil, fmt.Errorf("schema: field %q in path %q is not a nested record", f.Name, path)
		}
		next := cur.Field(f.index)
		if next.Kind() == reflect.Pointer {
			if next.IsNil() {
				if !mutate {
					return nil, fmt.Errorf("schema: nil %q in path %q", f.Name, path)
				}
				next.Set(reflect.New(next.Type().Elem()))
			}
			next = next.Elem()
		}
		cur, curS = next, f.nested
	}
	return nil, fmt.Errorf("schema: empty path")
}

// Get returns the current value of the field at path.
func Get(record any, path string) (any, error) {
	r, err := resolvePath(record, path, false)
	if err != nil {
		return nil, err
	}
	return r.holder.Field(r.field.index).Interface(), nil
}

// Set writes value to the field at path, sets the field's modification bit,
// and fires the record's change callbacks with the resolved path. The value
// must be assignable to the field's type; numeric values additionally
// convert between numeric kinds.
func Set(record any, path string, value any) error {
	r, err := resolvePath(record, path, true)
	if err != nil {
		return err
	}
	fv := r.holder.Field(r.field.index)
	nv := reflect.ValueOf(value)
	switch {
	case !nv.IsValid():
		return fmt.Errorf("schema: cannot set %q to nil", r.path)
	case nv.Type().AssignableTo(fv.Type()):
		fv.Set(nv)
	case isNumericKind(nv.Kind()) && isNumericKind(fv.Kind()) && nv.Type().ConvertibleTo(fv.Type()):
		fv.Set(nv.Convert(fv.Type()))
	default:
		return fmt.Errorf("schema: cannot set %q (%s) from %T", r.path, fv.Type(), value)
	}
	r.schema.flagsPtr(r.holder).setBit(r.field.bit)
	if r.root != nil {
		r.root.notify(r.path)
	}
	return nil
}

// IsModified reports whether the field at path has its modification bit
// set. For a nested record field it also reports true when any field below
// it is modified.
func IsModified(record any, path string) (bool, error) {
	r, err := resolvePath(record, path, false)
	if err != nil {
		return false, err
	}
	flags := r.schema.flagsValue(r.holder)
	if flags.bit(r.field.bit) {
		return true, nil
	}
	if r.field.kind == kindNested {
		inner := r.holder.Field(r.field.index)
		if inner.Kind() == reflect.Pointer {
			if inner.IsNil() {
				return false, nil
			}
			inner = inner.Elem()
		}
		return r.field.nested.anyModifiedDeep(inner), nil
	}
	return false, nil
}

// SetModified sets or clears the modification bit of the field at path
// without touching the field's value. On a nested record field the change
// cascades through every field below it. An empty path applies to the whole
// record.
func SetModified(record any, path string, modified bool) error {
	s, rv, err := instance(record, true)
	if err != nil {
		return err
	}
	if path == "" {
		if modified {
			s.setAllDeep(rv)
		} else {
			s.clearAllDeep(rv)
		}
		return nil
	}
	r, err := resolvePath(record, path, true)
	if err != nil {
		return err
	}
	flags := r.schema.flagsPtr(r.holder)
	if modified {
		flags.setBit(r.field.bit)
	} else {
		flags.clearBit(r.field.bit)
	}
	if r.field.kind == kindNested {
		inner := r.holder.Field(r.field.index)
		if inner.Kind() == reflect.Pointer {
			if inner.IsNil() {
				return nil
			}
			inner = inner.Elem()
		}
		if modified {
			r.field.nested.setAllDeep(inner)
		} else {
			r.field.nested.clearAllDeep(inner)
		}
	}
	return nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
