// Package bencode implements the bencode serialization format used
// by BitTorrent for storing and transmitting loosely structured
// data.
//
// Bencode has four value kinds: arbitrary precision signed integers
// ("i42e"), binary-safe byte strings ("4:spam"), ordered lists
// ("l4:spame") and dictionaries of string keys to values of any kind
// ("d4:spami42ee"). Dictionary entry order is significant on the
// wire and is preserved by this package in both directions.
//
// # Values
//
// [Decode] parses a buffer into a [Value], a tagged union over the
// four kinds, and [Encode] serializes a Value back to its exact byte
// representation. The per-kind functions ([DecodeInteger],
// [EncodeList], ...) expose the same machinery one grammar rule at a
// time; the decoding functions take and return byte offsets, where
// the returned offset is the index of the last byte consumed by the
// value.
//
// # Go types
//
// [Marshal] and [Unmarshal] convert between bencode and ordinary Go
// values directly, using reflection: integers, strings, byte
// slices, slices, string-keyed maps and tagged structs. Types can
// customize their encoding by implementing [Marshaler] and
// [Unmarshaler].
//
// All functions in this package are pure functions of their inputs
// and are safe for concurrent use.
package bencode
