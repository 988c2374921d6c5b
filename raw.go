package bencode

// RawValue is a raw encoded bencode value. It implements [Marshaler]
// and [Unmarshaler], so it can be used to capture a value's exact
// bytes during [Unmarshal] and emit them verbatim during [Marshal],
// for example to hash one field of a larger message without
// re-encoding it.
type RawValue []byte

var (
	_ Marshaler   = RawValue{}
	_ Unmarshaler = &RawValue{}
)

// MarshalBencode returns v as-is. It is the caller's responsibility
// that v holds one well-formed value.
func (v RawValue) MarshalBencode() ([]byte, error) {
	return v, nil
}

// UnmarshalBencode records a copy of the value's bytes.
func (v *RawValue) UnmarshalBencode(bs []byte) error {
	*v = append(RawValue(nil), bs...)
	return nil
}
