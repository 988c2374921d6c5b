package bencode

import "strconv"

// Encode returns the bencode encoding of v.
func Encode(v Value) ([]byte, error) {
	if v.kind == KindInvalid {
		return nil, &EncodeError{Got: v.kind}
	}
	return appendValue(nil, v)
}

// EncodeInteger returns the encoding of an integer value, as
// 'i<decimal>e'. It fails with [EncodeIntegerError] if v is not an
// integer.
func EncodeInteger(v Value) ([]byte, error) {
	if v.kind != KindInteger {
		return nil, &EncodeIntegerError{Got: v.kind}
	}
	return appendInteger(nil, v), nil
}

// EncodeString returns the encoding of a byte string value, as
// '<length>:<payload>'. It fails with [EncodeStringError] if v is
// not a string.
func EncodeString(v Value) ([]byte, error) {
	if v.kind != KindString {
		return nil, &EncodeStringError{Got: v.kind}
	}
	return appendString(nil, v.raw), nil
}

// EncodeList returns the encoding of a list value, as 'l...e'. It
// fails with [EncodeListError] if v is not a list, or if any element
// is not encodable.
func EncodeList(v Value) ([]byte, error) {
	if v.kind != KindList {
		return nil, &EncodeListError{Got: v.kind, Index: -1}
	}
	return appendList(nil, v)
}

// EncodeDictionary returns the encoding of a dictionary value, as
// 'd...e'. Entries are emitted exactly in the order they appear in
// the value: producing canonical key-sorted output is the caller's
// responsibility. It fails with [EncodeDictionaryError] if v is not
// a dictionary, or if any entry value is not encodable.
func EncodeDictionary(v Value) ([]byte, error) {
	if v.kind != KindDict {
		return nil, &EncodeDictionaryError{Got: v.kind}
	}
	return appendDictionary(nil, v)
}

func appendValue(out []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindInteger:
		return appendInteger(out, v), nil
	case KindString:
		return appendString(out, v.raw), nil
	case KindList:
		return appendList(out, v)
	case KindDict:
		return appendDictionary(out, v)
	}
	return nil, &EncodeError{Got: v.kind}
}

func appendInteger(out []byte, v Value) []byte {
	out = append(out, 'i')
	out = v.num.Append(out, 10)
	return append(out, 'e')
}

func appendString(out, payload []byte) []byte {
	out = strconv.AppendInt(out, int64(len(payload)), 10)
	out = append(out, ':')
	return append(out, payload...)
}

func appendList(out []byte, v Value) ([]byte, error) {
	out = append(out, 'l')
	for i, elem := range v.list {
		// An unencodable element fails the whole call, same as
		// inside a dictionary.
		if elem.kind == KindInvalid {
			return nil, &EncodeListError{Got: elem.kind, Index: i}
		}
		var err error
		out, err = appendValue(out, elem)
		if err != nil {
			return nil, err
		}
	}
	return append(out, 'e'), nil
}

func appendDictionary(out []byte, v Value) ([]byte, error) {
	out = append(out, 'd')
	for _, p := range v.dict {
		out = appendString(out, p.Key)
		if p.Val.kind == KindInvalid {
			return nil, &EncodeDictionaryError{Got: p.Val.kind, Key: string(p.Key)}
		}
		var err error
		out, err = appendValue(out, p.Val)
		if err != nil {
			return nil, err
		}
	}
	return append(out, 'e'), nil
}
