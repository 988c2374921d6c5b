package bencode

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
)

// A Kind identifies which of the four bencode value categories a
// [Value] holds.
type Kind uint8

const (
	// KindInvalid is the kind of the zero Value. It does not
	// correspond to any bencode value, and cannot be encoded.
	KindInvalid Kind = iota
	// KindInteger is a signed, arbitrary precision integer.
	KindInteger
	// KindString is a binary-safe byte string.
	KindString
	// KindList is an ordered sequence of values.
	KindList
	// KindDict is an ordered sequence of string/value pairs.
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return "invalid"
	}
}

// A Pair is a single dictionary entry. Keys are raw bytes, because
// bencode dictionary keys are byte strings with no required text
// encoding.
type Pair struct {
	Key []byte
	Val Value
}

// KV returns a dictionary entry with a textual key.
func KV(key string, val Value) Pair {
	return Pair{Key: []byte(key), Val: val}
}

// A Value is a single bencode value of any kind: an integer, a byte
// string, a list, or a dictionary.
//
// The zero Value is invalid. Values are constructed by the decoder,
// or with [Int], [BigInt], [String], [Bytes], [List] and [Dict].
// Once constructed a Value should be treated as immutable; the codec
// never modifies one.
type Value struct {
	kind Kind
	num  *big.Int
	raw  []byte
	list []Value
	dict []Pair
}

// Int returns an integer Value.
func Int(v int64) Value {
	return Value{kind: KindInteger, num: big.NewInt(v)}
}

// BigInt returns an integer Value holding a copy of n. BigInt of a
// nil *big.Int returns the zero Value.
func BigInt(n *big.Int) Value {
	if n == nil {
		return Value{}
	}
	return Value{kind: KindInteger, num: new(big.Int).Set(n)}
}

// String returns a string Value holding the UTF-8 bytes of s.
//
// String and [Bytes] produce the same kind of Value. They exist
// because callers have both text and raw binary to encode, and the
// conversion between them should happen exactly once, at
// construction.
func String(s string) Value {
	return Value{kind: KindString, raw: []byte(s)}
}

// Bytes returns a string Value holding bs. The Value aliases bs
// rather than copying it.
func Bytes(bs []byte) Value {
	if bs == nil {
		bs = []byte{}
	}
	return Value{kind: KindString, raw: bs}
}

// List returns a list Value of the given elements, in order.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: elems}
}

// Dict returns a dictionary Value of the given entries, in order.
// The order is preserved by the encoder; callers wanting canonical
// output must present entries sorted by key.
func Dict(pairs ...Pair) Value {
	return Value{kind: KindDict, dict: pairs}
}

// Kind reports the kind of value v holds.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer v holds, or nil if v is not an integer.
// The returned value must not be modified.
func (v Value) Int() *big.Int {
	if v.kind != KindInteger {
		return nil
	}
	return v.num
}

// Int64 returns the integer v holds. The second return is false if v
// is not an integer, or its value does not fit in an int64.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInteger || !v.num.IsInt64() {
		return 0, false
	}
	return v.num.Int64(), true
}

// Bytes returns the byte string v holds, or nil if v is not a
// string. The returned slice must not be modified, and may alias the
// buffer v was decoded from.
func (v Value) Bytes() []byte {
	if v.kind != KindString {
		return nil
	}
	return v.raw
}

// Text returns the byte string v holds, as a Go string. It returns
// "" if v is not a string.
func (v Value) Text() string {
	if v.kind != KindString {
		return ""
	}
	return string(v.raw)
}

// Elems returns the elements of a list, or nil if v is not a list.
func (v Value) Elems() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Pairs returns the entries of a dictionary in their original order,
// including any duplicate keys, or nil if v is not a dictionary.
func (v Value) Pairs() []Pair {
	if v.kind != KindDict {
		return nil
	}
	return v.dict
}

// Len returns the number of bytes, elements or entries in a string,
// list or dictionary, and 0 for other kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len(v.raw)
	case KindList:
		return len(v.list)
	case KindDict:
		return len(v.dict)
	}
	return 0
}

// Lookup returns the value for key in a dictionary. If the
// dictionary contains the key more than once, the last entry wins.
// The second return is false if v is not a dictionary or does not
// contain key.
func (v Value) Lookup(key string) (Value, bool) {
	var (
		ret   Value
		found bool
	)
	for _, p := range v.dict {
		if string(p.Key) == key {
			ret, found = p.Val, true
		}
	}
	return ret, found
}

// AsMap materializes a dictionary into a Go map. Entry order is
// lost, and duplicate keys collapse to the last entry. AsMap returns
// nil if v is not a dictionary.
func (v Value) AsMap() map[string]Value {
	if v.kind != KindDict {
		return nil
	}
	ret := make(map[string]Value, len(v.dict))
	for _, p := range v.dict {
		ret[string(p.Key)] = p.Val
	}
	return ret
}

// Equal reports whether v and w hold the same value. Lists compare
// elementwise, dictionaries compare entrywise in order: two
// dictionaries with the same entries in different orders are not
// equal, since they encode to different bytes.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.num.Cmp(w.num) == 0
	case KindString:
		return bytes.Equal(v.raw, w.raw)
	case KindList:
		if len(v.list) != len(w.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(w.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.dict) != len(w.dict) {
			return false
		}
		for i := range v.dict {
			if !bytes.Equal(v.dict[i].Key, w.dict[i].Key) {
				return false
			}
			if !v.dict[i].Val.Equal(w.dict[i].Val) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String returns a human-readable rendering of v, for logs and
// debugging. It is not the bencode encoding; use [Encode] for that.
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindInteger:
		sb.WriteString(v.num.String())
	case KindString:
		fmt.Fprintf(sb, "%q", v.raw)
	case KindList:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeTo(sb)
		}
		sb.WriteByte(']')
	case KindDict:
		sb.WriteByte('{')
		for i, p := range v.dict {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%q: ", p.Key)
			p.Val.writeTo(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("<invalid>")
	}
}
