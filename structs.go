package bencode

import (
	"reflect"
	"slices"
	"strings"
)

// A structField describes one struct field that participates in
// encoding, with its wire name and the traversal path to reach it.
type structField struct {
	// Name is the dictionary key the field encodes to.
	Name string
	// Idx is the field's traversal path, partitioned into segments
	// that end at struct pointers which may need allocating. See
	// allocSteps.
	Idx [][]int
	// Type is the field's type.
	Type reflect.Type
	// OmitEmpty elides the field when its value is the zero value.
	OmitEmpty bool
}

// structFields returns the encodable fields of t, sorted by wire
// name so that struct encodings are canonical. Field names and
// behavior are controlled with `bencode:"name,omitempty"` tags, and
// `bencode:"-"` excludes a field entirely.
func structFields(t reflect.Type) ([]*structField, error) {
	var ret []*structField
	seen := map[string]bool{}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := f.Name
		var omitEmpty bool
		if tag, ok := f.Tag.Lookup("bencode"); ok {
			base, opts, _ := strings.Cut(tag, ",")
			if base == "-" && opts == "" {
				continue
			}
			if base != "" {
				name = base
			}
			for _, opt := range strings.Split(opts, ",") {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}
		if seen[name] {
			return nil, typeErr(t, "duplicate dictionary key %q", name)
		}
		seen[name] = true
		ret = append(ret, &structField{
			Name:      name,
			Idx:       allocSteps(t, f.Index),
			Type:      f.Type,
			OmitEmpty: omitEmpty,
		})
	}
	slices.SortFunc(ret, func(a, b *structField) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ret, nil
}

// allocSteps partitions a multi-hop traversal of struct fields into
// segments that end at either the final value, or a struct pointer
// that might be nil.
//
// This can be used to traverse to idx while allocating missing
// structs, by using FieldByIndex repeatedly to traverse to each
// pointer and check for nil-ness.
func allocSteps(t reflect.Type, idx []int) [][]int {
	var ret [][]int
	prev := 0
	t = t.Field(idx[0]).Type
	for i := 1; i < len(idx); i++ {
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			// Hop through a struct pointer that might be nil, cut.
			ret = append(ret, idx[prev:i])
			prev = i
			t = t.Elem()
		}
		t = t.Field(idx[i]).Type
	}
	ret = append(ret, idx[prev:])
	return ret
}

// get returns the field's value within struct v. The second return
// is false if a pointer on the path is nil, in which case the caller
// should treat the field as its zero value.
func (f *structField) get(v reflect.Value) (reflect.Value, bool) {
	for i, hop := range f.Idx {
		if i > 0 {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v, true
}

// getAlloc is like get, but allocates nil struct pointers along the
// path so the field can be set. v must be addressable.
func (f *structField) getAlloc(v reflect.Value) reflect.Value {
	for i, hop := range f.Idx {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}
