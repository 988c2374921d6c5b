package bencode

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sync"
)

// Unmarshal parses the bencode value in data and stores the result
// in the value pointed to by v. Unlike [Decode], Unmarshal is
// strict: data must contain exactly one value, and trailing bytes
// are an error.
//
// Unmarshal inverts the encodings documented on [Marshal]: integers
// into any integer type they fit (and into bool for 0 and 1, and
// into [big.Int] always), byte strings into string, []byte or byte
// array types, lists into slices or arrays, dictionaries into
// string-keyed maps or structs. Unknown dictionary keys are skipped
// when decoding into a struct. If the target implements
// [Unmarshaler], UnmarshalBencode is called with the exact byte span
// of the value.
//
// Decoding into an 'any' value produces int64 (or *big.Int when the
// value does not fit), string, []any and map[string]any, with
// duplicate dictionary keys resolved last-wins.
func Unmarshal(data []byte, v any) error {
	if v == nil {
		return errors.New("bencode: can't unmarshal into nil interface")
	}
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer {
		return errors.New("bencode: can't unmarshal into a non-pointer")
	}
	if val.IsNil() {
		return errors.New("bencode: can't unmarshal into nil pointer")
	}
	dec, err := decoderFor(val.Elem().Type())
	if err != nil {
		return err
	}
	end, err := dec(data, 0, val.Elem())
	if err != nil {
		return err
	}
	if n := len(data) - end - 1; n > 0 {
		return fmt.Errorf("bencode: %d unused trailing bytes", n)
	}
	return nil
}

// Unmarshaler is the interface implemented by types that can
// unmarshal themselves from bencode. UnmarshalBencode receives the
// exact byte span of one value, which it must not retain.
type Unmarshaler interface {
	UnmarshalBencode([]byte) error
}

// A decoderFunc parses the value at pos in data into val, returning
// the index of the last byte consumed. val is addressable.
type decoderFunc func(data []byte, pos int, val reflect.Value) (int, error)

var decoders codecCache[decoderFunc]

func init() {
	// This needs to be an init func to break the initialization
	// cycle between the cache and the calls to the cache within
	// uncachedDecoder.
	decoders.OnRecursive = newLazyDecoder
}

// newLazyDecoder handles self-referential types, like
// newLazyEncoder.
func newLazyDecoder(t reflect.Type) decoderFunc {
	var (
		once sync.Once
		dec  decoderFunc
		err  error
	)
	return func(data []byte, pos int, v reflect.Value) (int, error) {
		once.Do(func() { dec, err = uncachedDecoder(t) })
		if err != nil {
			return 0, err
		}
		return dec(data, pos, v)
	}
}

func decoderFor(t reflect.Type) (decoderFunc, error) {
	if dec, ok := decoders.Get(t); ok {
		return dec, nil
	}
	dec, err := uncachedDecoder(t)
	if err != nil {
		decoders.Put(t, newErrDecoder(err))
		return nil, err
	}
	decoders.Put(t, dec)
	return dec, nil
}

func uncachedDecoder(t reflect.Type) (decoderFunc, error) {
	debugCodec("typeDecoder(%s)", t)

	switch t {
	case valueType:
		return decodeValueValue, nil
	case bigIntType:
		return decodeBigIntValue, nil
	}

	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(unmarshalerType) {
		return decodeUnmarshaler, nil
	}

	switch {
	case t.Kind() == reflect.Pointer:
		return newPtrDecoder(t)
	case t.Kind() == reflect.Bool:
		return decodeBoolValue, nil
	case intKinds.Has(t.Kind()):
		return decodeIntValue, nil
	case uintKinds.Has(t.Kind()):
		return decodeUintValue, nil
	case t.Kind() == reflect.String:
		return decodeStringValue, nil
	case t.Kind() == reflect.Slice, t.Kind() == reflect.Array:
		return newSliceDecoder(t)
	case t.Kind() == reflect.Struct:
		return newStructDecoder(t)
	case t.Kind() == reflect.Map:
		return newMapDecoder(t)
	case t == anyType:
		return decodeAnyValue, nil
	case t.Kind() == reflect.Interface:
		return nil, typeErr(t, "can only unmarshal into 'any', not other interface types")
	}
	return nil, typeErr(t, "no bencode mapping for type")
}

func newErrDecoder(err error) decoderFunc {
	return func([]byte, int, reflect.Value) (int, error) {
		return 0, err
	}
}

func decodeValueValue(data []byte, pos int, v reflect.Value) (int, error) {
	if pos < 0 || pos >= len(data) {
		return 0, &DecodeError{Pos: pos, Reason: "unexpected end of input"}
	}
	val, end, err := decodeValue(data, pos, 0)
	if errors.Is(err, errBadTag) {
		return 0, &DecodeError{Pos: pos, Reason: fmt.Sprintf("invalid value tag %q", data[pos])}
	}
	if err != nil {
		return 0, err
	}
	v.Set(reflect.ValueOf(val))
	return end, nil
}

func decodeBigIntValue(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeInteger(data, pos)
	if err != nil {
		return 0, err
	}
	v.Set(reflect.ValueOf(val.num).Elem())
	return end, nil
}

func decodeUnmarshaler(data []byte, pos int, v reflect.Value) (int, error) {
	if pos < 0 || pos >= len(data) {
		return 0, &DecodeError{Pos: pos, Reason: "unexpected end of input"}
	}
	_, end, err := decodeValue(data, pos, 0)
	if errors.Is(err, errBadTag) {
		return 0, &DecodeError{Pos: pos, Reason: fmt.Sprintf("invalid value tag %q", data[pos])}
	}
	if err != nil {
		return 0, err
	}
	u := v.Addr().Interface().(Unmarshaler)
	if err := u.UnmarshalBencode(data[pos : end+1]); err != nil {
		return 0, err
	}
	return end, nil
}

func newPtrDecoder(t reflect.Type) (decoderFunc, error) {
	elem := t.Elem()
	elemDec, err := decoderFor(elem)
	if err != nil {
		return nil, err
	}
	fn := func(data []byte, pos int, v reflect.Value) (int, error) {
		if v.IsNil() {
			v.Set(reflect.New(elem))
		}
		return elemDec(data, pos, v.Elem())
	}
	return fn, nil
}

func decodeBoolValue(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeInteger(data, pos)
	if err != nil {
		return 0, err
	}
	switch n, ok := val.Int64(); {
	case ok && n == 0:
		v.SetBool(false)
	case ok && n == 1:
		v.SetBool(true)
	default:
		return 0, fmt.Errorf("bencode: cannot unmarshal integer %s into %s", val.num, v.Type())
	}
	return end, nil
}

func decodeIntValue(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeInteger(data, pos)
	if err != nil {
		return 0, err
	}
	n, ok := val.Int64()
	if !ok || v.OverflowInt(n) {
		return 0, fmt.Errorf("bencode: integer %s overflows %s", val.num, v.Type())
	}
	v.SetInt(n)
	return end, nil
}

func decodeUintValue(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeInteger(data, pos)
	if err != nil {
		return 0, err
	}
	if val.num.Sign() < 0 || !val.num.IsUint64() || v.OverflowUint(val.num.Uint64()) {
		return 0, fmt.Errorf("bencode: integer %s overflows %s", val.num, v.Type())
	}
	v.SetUint(val.num.Uint64())
	return end, nil
}

func decodeStringValue(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeString(data, pos)
	if err != nil {
		return 0, err
	}
	v.SetString(string(val.raw))
	return end, nil
}

func newSliceDecoder(t reflect.Type) (decoderFunc, error) {
	if t.Elem().Kind() == reflect.Uint8 {
		if t.Kind() == reflect.Slice {
			return decodeByteSlice, nil
		}
		return decodeByteArray, nil
	}

	elemDec, err := decoderFor(t.Elem())
	if err != nil {
		return nil, err
	}

	if t.Kind() == reflect.Array {
		fn := func(data []byte, pos int, v reflect.Value) (int, error) {
			return decodeArrayElems(data, pos, v, elemDec)
		}
		return fn, nil
	}

	fn := func(data []byte, pos int, v reflect.Value) (int, error) {
		if pos < 0 || pos >= len(data) || data[pos] != 'l' {
			return 0, &DecodeListError{Pos: pos, Reason: "start of list not found"}
		}
		v.Set(v.Slice(0, 0))
		cur := pos + 1
		for cur < len(data) {
			if data[cur] == 'e' {
				return cur, nil
			}
			elem := reflect.New(t.Elem()).Elem()
			end, err := elemDec(data, cur, elem)
			if err != nil {
				return 0, err
			}
			v.Set(reflect.Append(v, elem))
			cur = end + 1
		}
		return 0, &DecodeListError{Pos: len(data), Reason: "end of list not found"}
	}
	return fn, nil
}

func decodeArrayElems(data []byte, pos int, v reflect.Value, elemDec decoderFunc) (int, error) {
	if pos < 0 || pos >= len(data) || data[pos] != 'l' {
		return 0, &DecodeListError{Pos: pos, Reason: "start of list not found"}
	}
	cur, i := pos+1, 0
	for cur < len(data) {
		if data[cur] == 'e' {
			if i != v.Len() {
				return 0, fmt.Errorf("bencode: cannot unmarshal list with %d elements into %s", i, v.Type())
			}
			return cur, nil
		}
		if i >= v.Len() {
			return 0, fmt.Errorf("bencode: too many list elements for %s", v.Type())
		}
		end, err := elemDec(data, cur, v.Index(i))
		if err != nil {
			return 0, err
		}
		i++
		cur = end + 1
	}
	return 0, &DecodeListError{Pos: len(data), Reason: "end of list not found"}
}

func decodeByteSlice(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeString(data, pos)
	if err != nil {
		return 0, err
	}
	// Copy, so the result does not alias the input buffer.
	v.SetBytes(append([]byte(nil), val.raw...))
	return end, nil
}

func decodeByteArray(data []byte, pos int, v reflect.Value) (int, error) {
	val, end, err := decodeString(data, pos)
	if err != nil {
		return 0, err
	}
	if len(val.raw) != v.Len() {
		return 0, fmt.Errorf("bencode: cannot unmarshal %d-byte string into %s", len(val.raw), v.Type())
	}
	reflect.Copy(v, reflect.ValueOf(val.raw))
	return end, nil
}

func newStructDecoder(t reflect.Type) (decoderFunc, error) {
	fields, err := structFields(t)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*structField, len(fields))
	decs := make(map[string]decoderFunc, len(fields))
	for _, f := range fields {
		fDec, err := decoderFor(f.Type)
		if err != nil {
			return nil, err
		}
		byName[f.Name] = f
		decs[f.Name] = fDec
	}

	fn := func(data []byte, pos int, v reflect.Value) (int, error) {
		if pos < 0 || pos >= len(data) || data[pos] != 'd' {
			return 0, &DecodeDictionaryError{Pos: pos, Reason: "start of dictionary not found"}
		}
		cur := pos + 1
		for cur < len(data) {
			if data[cur] == 'e' {
				return cur, nil
			}
			key, end, err := decodeString(data, cur)
			if err != nil {
				return 0, err
			}
			cur = end + 1
			if cur >= len(data) {
				break
			}
			if f, ok := byName[string(key.raw)]; ok {
				end, err = decs[f.Name](data, cur, f.getAlloc(v))
			} else {
				// Unknown key, skip its value.
				_, end, err = decodeValue(data, cur, 0)
				if errors.Is(err, errBadTag) {
					err = &DecodeDictionaryError{Pos: cur, Reason: fmt.Sprintf("invalid value tag %q", data[cur])}
				}
			}
			if err != nil {
				return 0, err
			}
			cur = end + 1
		}
		return 0, &DecodeDictionaryError{Pos: len(data), Reason: "end of dictionary not found"}
	}
	return fn, nil
}

func newMapDecoder(t reflect.Type) (decoderFunc, error) {
	kt := t.Key()
	if kt.Kind() != reflect.String {
		return nil, typeErr(t, "invalid dictionary key type %s", kt)
	}
	vt := t.Elem()
	vDec, err := decoderFor(vt)
	if err != nil {
		return nil, err
	}

	fn := func(data []byte, pos int, v reflect.Value) (int, error) {
		if pos < 0 || pos >= len(data) || data[pos] != 'd' {
			return 0, &DecodeDictionaryError{Pos: pos, Reason: "start of dictionary not found"}
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(t))
		} else {
			v.Clear()
		}
		key := reflect.New(kt).Elem()
		cur := pos + 1
		for cur < len(data) {
			if data[cur] == 'e' {
				return cur, nil
			}
			kv, end, err := decodeString(data, cur)
			if err != nil {
				return 0, err
			}
			cur = end + 1
			if cur >= len(data) {
				break
			}
			val := reflect.New(vt).Elem()
			end, err = vDec(data, cur, val)
			if err != nil {
				return 0, err
			}
			// Duplicate keys resolve last-wins.
			key.SetString(string(kv.raw))
			v.SetMapIndex(key, val)
			cur = end + 1
		}
		return 0, &DecodeDictionaryError{Pos: len(data), Reason: "end of dictionary not found"}
	}
	return fn, nil
}

func decodeAnyValue(data []byte, pos int, v reflect.Value) (int, error) {
	if pos < 0 || pos >= len(data) {
		return 0, &DecodeError{Pos: pos, Reason: "unexpected end of input"}
	}
	val, end, err := decodeValue(data, pos, 0)
	if errors.Is(err, errBadTag) {
		return 0, &DecodeError{Pos: pos, Reason: fmt.Sprintf("invalid value tag %q", data[pos])}
	}
	if err != nil {
		return 0, err
	}
	v.Set(reflect.ValueOf(valueToAny(val)))
	return end, nil
}

// valueToAny materializes a decoded Value as plain Go data: int64 or
// *big.Int, string, []any and map[string]any.
func valueToAny(v Value) any {
	switch v.kind {
	case KindInteger:
		if n, ok := v.Int64(); ok {
			return n
		}
		return new(big.Int).Set(v.num)
	case KindString:
		return string(v.raw)
	case KindList:
		ret := make([]any, len(v.list))
		for i, e := range v.list {
			ret[i] = valueToAny(e)
		}
		return ret
	default:
		ret := make(map[string]any, len(v.dict))
		for _, p := range v.dict {
			ret[string(p.Key)] = valueToAny(p.Val)
		}
		return ret
	}
}
