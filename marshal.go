package bencode

import (
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Marshal returns the bencode encoding of v.
//
// Marshal traverses the value v recursively. If an encountered value
// implements [Marshaler], Marshal calls MarshalBencode on it to
// produce its encoding.
//
// Otherwise, Marshal uses the following type-dependent default
// encodings:
//
// Integer values of any width, signed or unsigned, encode to bencode
// integers, as do [big.Int] values. Booleans encode as the integers
// 0 and 1.
//
// String values, byte slices and byte arrays encode to bencode byte
// strings.
//
// Other slice and array values encode as bencode lists. A nil slice
// encodes the same as an empty slice.
//
// Struct values encode as bencode dictionaries. Each exported struct
// field becomes a dictionary entry, keyed by the field name, subject
// to the usual Go visibility rules for embedded fields. The
// `bencode:"name,omitempty"` tag overrides the key, and
// `bencode:"-"` excludes the field. Entries are emitted sorted by
// key, so struct encodings are canonical.
//
// Map values encode as bencode dictionaries, sorted by key. The
// map's key underlying type must be string.
//
// Pointer values encode as the value pointed to. A nil pointer
// encodes as the zero value of the type pointed to.
//
// [Value] values encode as themselves, preserving dictionary entry
// order. Interface values encode as the value they hold.
//
// Float, complex, channel and function values cannot be encoded.
// Attempting to encode such values causes Marshal to return a
// [TypeError].
func Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, typeErr(nil, "cannot marshal nil interface")
	}
	val := reflect.ValueOf(v)
	enc, err := encoderFor(val.Type())
	if err != nil {
		return nil, err
	}
	return enc(nil, val)
}

// Marshaler is the interface implemented by types that can marshal
// themselves to bencode. MarshalBencode must return a single
// complete bencode value; its output is emitted verbatim.
type Marshaler interface {
	MarshalBencode() ([]byte, error)
}

// An encoderFunc appends the encoding of val to out.
type encoderFunc func(out []byte, val reflect.Value) ([]byte, error)

var encoders codecCache[encoderFunc]

func init() {
	// This needs to be an init func to break the initialization
	// cycle between the cache and the calls to the cache within
	// uncachedEncoder.
	encoders.OnRecursive = newLazyEncoder
}

// newLazyEncoder handles self-referential types. It defers building
// the encoder until first use, at which point the type's cycle is no
// longer mid-construction.
func newLazyEncoder(t reflect.Type) encoderFunc {
	var (
		once sync.Once
		enc  encoderFunc
		err  error
	)
	return func(out []byte, v reflect.Value) ([]byte, error) {
		once.Do(func() { enc, err = uncachedEncoder(t) })
		if err != nil {
			return nil, err
		}
		return enc(out, v)
	}
}

func encoderFor(t reflect.Type) (encoderFunc, error) {
	if enc, ok := encoders.Get(t); ok {
		return enc, nil
	}
	enc, err := uncachedEncoder(t)
	if err != nil {
		encoders.Put(t, newErrEncoder(err))
		return nil, err
	}
	encoders.Put(t, enc)
	return enc, nil
}

func uncachedEncoder(t reflect.Type) (encoderFunc, error) {
	debugCodec("typeEncoder(%s)", t)

	switch t {
	case valueType:
		return encodeValueValue, nil
	case bigIntType:
		return encodeBigInt, nil
	}

	// If a value's pointer type implements Marshaler, we can use it
	// without a value copy, but only for addressable values, which
	// requires an additional runtime check.
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(marshalerType) {
		return newCondAddrMarshalEncoder(t), nil
	} else if t.Implements(marshalerType) {
		return newMarshalEncoder(), nil
	}

	switch {
	case t.Kind() == reflect.Pointer:
		return newPtrEncoder(t)
	case t.Kind() == reflect.Bool:
		return encodeBool, nil
	case intKinds.Has(t.Kind()):
		return encodeInt, nil
	case uintKinds.Has(t.Kind()):
		return encodeUint, nil
	case t.Kind() == reflect.String:
		return encodeGoString, nil
	case t.Kind() == reflect.Slice, t.Kind() == reflect.Array:
		return newSliceEncoder(t)
	case t.Kind() == reflect.Struct:
		return newStructEncoder(t)
	case t.Kind() == reflect.Map:
		return newMapEncoder(t)
	case t.Kind() == reflect.Interface:
		return encodeIface, nil
	}
	return nil, typeErr(t, "no bencode mapping for type")
}

func newErrEncoder(err error) encoderFunc {
	return func([]byte, reflect.Value) ([]byte, error) {
		return nil, err
	}
}

func encodeValueValue(out []byte, v reflect.Value) ([]byte, error) {
	val := v.Interface().(Value)
	if val.Kind() == KindInvalid {
		return nil, &EncodeError{Got: val.Kind()}
	}
	return appendValue(out, val)
}

func encodeBigInt(out []byte, v reflect.Value) ([]byte, error) {
	n := v.Interface().(big.Int)
	out = append(out, 'i')
	out = n.Append(out, 10)
	return append(out, 'e'), nil
}

func newCondAddrMarshalEncoder(t reflect.Type) encoderFunc {
	ptr := newMarshalEncoder()
	if t.Implements(marshalerType) {
		val := newMarshalEncoder()
		return func(out []byte, v reflect.Value) ([]byte, error) {
			if v.CanAddr() {
				return ptr(out, v.Addr())
			}
			return val(out, v)
		}
	}
	return func(out []byte, v reflect.Value) ([]byte, error) {
		if !v.CanAddr() {
			return nil, typeErr(t, "Marshaler is only implemented on pointer receiver, and cannot take the address of given value")
		}
		return ptr(out, v.Addr())
	}
}

func newMarshalEncoder() encoderFunc {
	return func(out []byte, v reflect.Value) ([]byte, error) {
		m := v.Interface().(Marshaler)
		bs, err := m.MarshalBencode()
		if err != nil {
			return nil, err
		}
		return append(out, bs...), nil
	}
}

func newPtrEncoder(t reflect.Type) (encoderFunc, error) {
	elemEnc, err := encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	fn := func(out []byte, v reflect.Value) ([]byte, error) {
		if v.IsNil() {
			return elemEnc(out, reflect.Zero(t.Elem()))
		}
		return elemEnc(out, v.Elem())
	}
	return fn, nil
}

func encodeBool(out []byte, v reflect.Value) ([]byte, error) {
	if v.Bool() {
		return append(out, 'i', '1', 'e'), nil
	}
	return append(out, 'i', '0', 'e'), nil
}

func encodeInt(out []byte, v reflect.Value) ([]byte, error) {
	out = append(out, 'i')
	out = strconv.AppendInt(out, v.Int(), 10)
	return append(out, 'e'), nil
}

func encodeUint(out []byte, v reflect.Value) ([]byte, error) {
	out = append(out, 'i')
	out = strconv.AppendUint(out, v.Uint(), 10)
	return append(out, 'e'), nil
}

func encodeGoString(out []byte, v reflect.Value) ([]byte, error) {
	s := v.String()
	out = strconv.AppendInt(out, int64(len(s)), 10)
	out = append(out, ':')
	return append(out, s...), nil
}

func encodeIface(out []byte, v reflect.Value) ([]byte, error) {
	if v.IsNil() {
		return nil, typeErr(v.Type(), "cannot encode nil interface value")
	}
	elem := v.Elem()
	enc, err := encoderFor(elem.Type())
	if err != nil {
		return nil, err
	}
	return enc(out, elem)
}

func newSliceEncoder(t reflect.Type) (encoderFunc, error) {
	if t.Elem().Kind() == reflect.Uint8 {
		if t.Kind() == reflect.Slice {
			// Fast path for []byte.
			return func(out []byte, v reflect.Value) ([]byte, error) {
				return appendString(out, v.Bytes()), nil
			}, nil
		}
		// Byte arrays also encode as strings, so fixed-size
		// digests round-trip as the byte strings they are.
		return func(out []byte, v reflect.Value) ([]byte, error) {
			bs := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(bs), v)
			return appendString(out, bs), nil
		}, nil
	}

	elemEnc, err := encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	fn := func(out []byte, v reflect.Value) ([]byte, error) {
		out = append(out, 'l')
		for i := 0; i < v.Len(); i++ {
			var err error
			out, err = elemEnc(out, v.Index(i))
			if err != nil {
				return nil, err
			}
		}
		return append(out, 'e'), nil
	}
	return fn, nil
}

func newStructEncoder(t reflect.Type) (encoderFunc, error) {
	fields, err := structFields(t)
	if err != nil {
		return nil, err
	}
	encs := make([]encoderFunc, len(fields))
	for i, f := range fields {
		fEnc, err := encoderFor(f.Type)
		if err != nil {
			return nil, err
		}
		encs[i] = fEnc
	}

	fn := func(out []byte, v reflect.Value) ([]byte, error) {
		out = append(out, 'd')
		for i, f := range fields {
			fv, ok := f.get(v)
			if !ok {
				fv = reflect.Zero(f.Type)
			}
			if f.OmitEmpty && fv.IsZero() {
				continue
			}
			out = appendString(out, []byte(f.Name))
			var err error
			out, err = encs[i](out, fv)
			if err != nil {
				return nil, err
			}
		}
		return append(out, 'e'), nil
	}
	return fn, nil
}

func newMapEncoder(t reflect.Type) (encoderFunc, error) {
	if t.Key().Kind() != reflect.String {
		return nil, typeErr(t, "invalid dictionary key type %s", t.Key())
	}
	vEnc, err := encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}

	fn := func(out []byte, v reflect.Value) ([]byte, error) {
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})
		out = append(out, 'd')
		for _, k := range keys {
			out = appendString(out, []byte(k.String()))
			var err error
			out, err = vEnc(out, v.MapIndex(k))
			if err != nil {
				return nil, err
			}
		}
		return append(out, 'e'), nil
	}
	return fn, nil
}
