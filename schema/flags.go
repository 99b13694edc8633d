package schema

// Flags carries a record's per-field modification bits and change-callback
// registrations. Schema structs embed it anonymously; the binder locates the
// embedded field by type. The zero value is ready to use and means "nothing
// modified".
type Flags struct {
	modified []uint64
	onChange []func(field string)
}

// OnChange registers fn to run whenever a field of this record is written
// through the binder. fn receives the dotted path of the written field.
func (f *Flags) OnChange(fn func(field string)) {
	f.onChange = append(f.onChange, fn)
}

func (f *Flags) notify(field string) {
	for _, fn := range f.onChange {
		fn(field)
	}
}

func (f *Flags) bit(i int) bool {
	w := i / 64
	return w < len(f.modified) && f.modified[w]&(1<<(i%64)) != 0
}

func (f *Flags) setBit(i int) {
	w := i / 64
	for len(f.modified) <= w {
		f.modified = append(f.modified, 0)
	}
	f.modified[w] |= 1 << (i % 64)
}

func (f *Flags) clearBit(i int) {
	w := i / 64
	if w < len(f.modified) {
		f.modified[w] &^= 1 << (i % 64)
	}
}

func (f *Flags) any() bool {
	for _, w := range f.modified {
		if w != 0 {
			return true
		}
	}
	return false
}

func (f *Flags) clearAll() {
	for i := range f.modified {
		f.modified[i] = 0
	}
}
