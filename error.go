package bencode

import (
	"fmt"
	"reflect"
)

// DecodeError is the error returned by [Decode] when the input does
// not begin with any of the four bencode value tags.
type DecodeError struct {
	// Pos is the byte offset of the fault.
	Pos int
	// Reason is an explanation of what was wrong at Pos.
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bencode: %s, at position %d", e.Reason, e.Pos)
}

// DecodeIntegerError is the error returned when an integer value
// cannot be decoded.
type DecodeIntegerError struct {
	Pos    int
	Reason string
}

func (e *DecodeIntegerError) Error() string {
	return fmt.Sprintf("bencode: decoding integer: %s, at position %d", e.Reason, e.Pos)
}

// DecodeStringError is the error returned when a byte string value
// cannot be decoded.
type DecodeStringError struct {
	Pos    int
	Reason string
}

func (e *DecodeStringError) Error() string {
	return fmt.Sprintf("bencode: decoding string: %s, at position %d", e.Reason, e.Pos)
}

// DecodeListError is the error returned when a list value cannot be
// decoded.
type DecodeListError struct {
	Pos    int
	Reason string
}

func (e *DecodeListError) Error() string {
	return fmt.Sprintf("bencode: decoding list: %s, at position %d", e.Reason, e.Pos)
}

// DecodeDictionaryError is the error returned when a dictionary
// value cannot be decoded.
type DecodeDictionaryError struct {
	Pos    int
	Reason string
}

func (e *DecodeDictionaryError) Error() string {
	return fmt.Sprintf("bencode: decoding dictionary: %s, at position %d", e.Reason, e.Pos)
}

// EncodeError is the error returned by [Encode] when given a Value
// of no encodable kind.
type EncodeError struct {
	// Got is the kind that was presented.
	Got Kind
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("bencode: cannot encode %s value", e.Got)
}

// EncodeIntegerError is the error returned by [EncodeInteger] when
// given a Value that is not an integer.
type EncodeIntegerError struct {
	Got Kind
}

func (e *EncodeIntegerError) Error() string {
	return fmt.Sprintf("bencode: encoding integer: got %s value", e.Got)
}

// EncodeStringError is the error returned by [EncodeString] when
// given a Value that is not a byte string.
type EncodeStringError struct {
	Got Kind
}

func (e *EncodeStringError) Error() string {
	return fmt.Sprintf("bencode: encoding string: got %s value", e.Got)
}

// EncodeListError is the error returned by [EncodeList] when given a
// Value that is not a list, or a list containing an invalid element.
type EncodeListError struct {
	Got Kind
	// Index is the offending element index, or -1 if the list
	// itself was the wrong kind.
	Index int
}

func (e *EncodeListError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("bencode: encoding list: %s value at index %d", e.Got, e.Index)
	}
	return fmt.Sprintf("bencode: encoding list: got %s value", e.Got)
}

// EncodeDictionaryError is the error returned by [EncodeDictionary]
// when given a Value that is not a dictionary, or a dictionary
// containing an invalid value.
type EncodeDictionaryError struct {
	Got Kind
	// Key is the key whose value was invalid, or "" if the
	// dictionary itself was the wrong kind.
	Key string
}

func (e *EncodeDictionaryError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("bencode: encoding dictionary: %s value for key %q", e.Got, e.Key)
	}
	return fmt.Sprintf("bencode: encoding dictionary: got %s value", e.Got)
}

// TypeError is the error returned when a Go type cannot be
// represented in bencode.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type isn't representable
	// in bencode.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("bencode cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}
