package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// maxNestingDepth bounds container recursion during decoding, so
// that a small corrupt input cannot exhaust the stack with deeply
// nested lists or dictionaries.
const maxNestingDepth = 1000

// errBadTag reports a byte that is not one of the four value tags.
// It never escapes the package; callers convert it to the error kind
// of the enclosing grammar rule.
var errBadTag = errors.New("invalid value tag")

// Decode parses the bencode value starting at pos in data and
// returns it. Input past the end of the value is ignored; use
// [Unmarshal] to require that a buffer contains exactly one value.
//
// Byte strings in the returned Value alias data rather than copying
// from it.
func Decode(data []byte, pos int) (Value, error) {
	if pos < 0 || pos >= len(data) {
		return Value{}, &DecodeError{Pos: pos, Reason: "unexpected end of input"}
	}
	v, _, err := decodeValue(data, pos, 0)
	if errors.Is(err, errBadTag) {
		return Value{}, &DecodeError{Pos: pos, Reason: fmt.Sprintf("invalid value tag %q", data[pos])}
	}
	return v, err
}

// DecodeInteger parses the integer starting at pos in data. It
// returns the value and the index of the terminating 'e', which is
// the last byte of the integer: the next value in data, if any,
// starts at the returned index plus one.
func DecodeInteger(data []byte, pos int) (Value, int, error) {
	return decodeInteger(data, pos)
}

// DecodeString parses the byte string starting at pos in data. It
// returns the value and the index of the last payload byte, or of
// the ':' separator for an empty string.
func DecodeString(data []byte, pos int) (Value, int, error) {
	return decodeString(data, pos)
}

// DecodeList parses the list starting at pos in data. It returns the
// value and the index of the terminating 'e'.
func DecodeList(data []byte, pos int) (Value, int, error) {
	return decodeList(data, pos, 0)
}

// DecodeDictionary parses the dictionary starting at pos in data. It
// returns the value and the index of the terminating 'e'.
func DecodeDictionary(data []byte, pos int) (Value, int, error) {
	return decodeDictionary(data, pos, 0)
}

// decodeValue parses the value starting at pos, dispatching on its
// tag byte. Container recursion carries depth. pos must be in range.
func decodeValue(data []byte, pos, depth int) (Value, int, error) {
	switch b := data[pos]; {
	case b == 'i':
		return decodeInteger(data, pos)
	case b >= '0' && b <= '9':
		return decodeString(data, pos)
	case b == 'l':
		return decodeList(data, pos, depth)
	case b == 'd':
		return decodeDictionary(data, pos, depth)
	}
	return Value{}, 0, errBadTag
}

func decodeInteger(data []byte, pos int) (Value, int, error) {
	if pos < 0 || pos >= len(data) {
		return Value{}, 0, &DecodeIntegerError{Pos: pos, Reason: "unexpected end of input"}
	}
	if data[pos] != 'i' {
		return Value{}, 0, &DecodeIntegerError{Pos: pos, Reason: "start of integer not found"}
	}
	end := bytes.IndexByte(data[pos:], 'e')
	if end < 0 {
		return Value{}, 0, &DecodeIntegerError{Pos: len(data), Reason: "end of integer not found"}
	}
	end += pos
	lit := data[pos+1 : end]
	if err := checkIntegerLiteral(lit); err != nil {
		return Value{}, 0, &DecodeIntegerError{Pos: pos + 1, Reason: err.Error()}
	}
	n, ok := new(big.Int).SetString(string(lit), 10)
	if !ok {
		return Value{}, 0, &DecodeIntegerError{Pos: pos + 1, Reason: "invalid integer literal"}
	}
	return Value{kind: KindInteger, num: n}, end, nil
}

// checkIntegerLiteral enforces the wire grammar for integer bodies:
// an optional '-' followed by digits, no leading zeros except the
// literal "0", and no "-0".
func checkIntegerLiteral(lit []byte) error {
	body := lit
	neg := false
	if len(body) > 0 && body[0] == '-' {
		neg = true
		body = body[1:]
	}
	if len(body) == 0 {
		return errors.New("empty integer literal")
	}
	for _, b := range body {
		if b < '0' || b > '9' {
			return fmt.Errorf("invalid byte %q in integer literal", b)
		}
	}
	if body[0] == '0' {
		if len(body) > 1 {
			return errors.New("integer literal has leading zeros")
		}
		if neg {
			return errors.New("negative zero is not a valid integer")
		}
	}
	return nil
}

func decodeString(data []byte, pos int) (Value, int, error) {
	if pos < 0 || pos >= len(data) {
		return Value{}, 0, &DecodeStringError{Pos: pos, Reason: "unexpected end of input"}
	}
	colon := bytes.IndexByte(data[pos:], ':')
	if colon < 0 {
		return Value{}, 0, &DecodeStringError{Pos: len(data), Reason: "':' of string not found"}
	}
	colon += pos
	length, err := parseLength(data[pos:colon])
	if err != nil {
		return Value{}, 0, &DecodeStringError{Pos: pos, Reason: err.Error()}
	}
	if rem := len(data) - colon - 1; rem < length {
		return Value{}, 0, &DecodeStringError{
			Pos:    len(data),
			Reason: fmt.Sprintf("string truncated, want %d bytes, have %d", length, rem),
		}
	}
	return Value{kind: KindString, raw: data[colon+1 : colon+1+length]}, colon + length, nil
}

// parseLength parses a string length prefix: decimal digits only, no
// sign, no leading zeros except the literal "0".
func parseLength(lit []byte) (int, error) {
	if len(lit) == 0 {
		return 0, errors.New("empty string length")
	}
	for _, b := range lit {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("invalid byte %q in string length", b)
		}
	}
	if lit[0] == '0' && len(lit) > 1 {
		return 0, errors.New("string length has leading zeros")
	}
	n, err := strconv.Atoi(string(lit))
	if err != nil {
		return 0, errors.New("string length out of range")
	}
	return n, nil
}

func decodeList(data []byte, pos, depth int) (Value, int, error) {
	if pos < 0 || pos >= len(data) {
		return Value{}, 0, &DecodeListError{Pos: pos, Reason: "unexpected end of input"}
	}
	if data[pos] != 'l' {
		return Value{}, 0, &DecodeListError{Pos: pos, Reason: "start of list not found"}
	}
	if depth >= maxNestingDepth {
		return Value{}, 0, &DecodeListError{Pos: pos, Reason: "nesting too deep"}
	}
	var elems []Value
	cur := pos + 1
	for cur < len(data) {
		if data[cur] == 'e' {
			return Value{kind: KindList, list: elems}, cur, nil
		}
		elem, end, err := decodeValue(data, cur, depth+1)
		if errors.Is(err, errBadTag) {
			return Value{}, 0, &DecodeListError{Pos: cur, Reason: fmt.Sprintf("invalid element tag %q", data[cur])}
		}
		if err != nil {
			return Value{}, 0, err
		}
		elems = append(elems, elem)
		cur = end + 1
	}
	return Value{}, 0, &DecodeListError{Pos: len(data), Reason: "end of list not found"}
}

func decodeDictionary(data []byte, pos, depth int) (Value, int, error) {
	if pos < 0 || pos >= len(data) {
		return Value{}, 0, &DecodeDictionaryError{Pos: pos, Reason: "unexpected end of input"}
	}
	if data[pos] != 'd' {
		return Value{}, 0, &DecodeDictionaryError{Pos: pos, Reason: "start of dictionary not found"}
	}
	if depth >= maxNestingDepth {
		return Value{}, 0, &DecodeDictionaryError{Pos: pos, Reason: "nesting too deep"}
	}
	var pairs []Pair
	cur := pos + 1
	for cur < len(data) {
		if data[cur] == 'e' {
			return Value{kind: KindDict, dict: pairs}, cur, nil
		}
		if b := data[cur]; b < '0' || b > '9' {
			return Value{}, 0, &DecodeDictionaryError{Pos: cur, Reason: fmt.Sprintf("dictionary key must be a string, got tag %q", b)}
		}
		key, end, err := decodeString(data, cur)
		if err != nil {
			return Value{}, 0, err
		}
		cur = end + 1
		if cur >= len(data) {
			break
		}
		val, end, err := decodeValue(data, cur, depth+1)
		if errors.Is(err, errBadTag) {
			return Value{}, 0, &DecodeDictionaryError{Pos: cur, Reason: fmt.Sprintf("invalid value tag %q", data[cur])}
		}
		if err != nil {
			return Value{}, 0, err
		}
		// Duplicate keys are preserved as parsed. Lookup and
		// AsMap resolve them last-wins.
		pairs = append(pairs, Pair{Key: key.raw, Val: val})
		cur = end + 1
	}
	return Value{}, 0, &DecodeDictionaryError{Pos: len(data), Reason: "end of dictionary not found"}
}
