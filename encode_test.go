package bencode_test

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sastadev/bencode"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   bencode.Value
		want string
	}{
		{bencode.Int(0), "i0e"},
		{bencode.Int(42), "i42e"},
		{bencode.Int(-42), "i-42e"},
		{bencode.BigInt(bigFromString("9223372036854775808")), "i9223372036854775808e"},
		{bencode.String(""), "0:"},
		{bencode.Bytes(nil), "0:"},
		{bencode.String("spam"), "4:spam"},
		{bencode.Bytes([]byte{0x00, 0xff}), "2:\x00\xff"},
		{bencode.List(), "le"},
		{bencode.List(bencode.String("spam")), "l4:spame"},
		{bencode.List(bencode.String("spam"), bencode.Int(42)), "l4:spami42ee"},
		{bencode.List(bencode.List()), "llee"},
		{bencode.Dict(), "de"},
		{bencode.Dict(bencode.KV("spam", bencode.Int(42))), "d4:spami42ee"},
		// Entry order is emitted exactly as given, never sorted.
		{bencode.Dict(
			bencode.KV("z", bencode.Int(1)),
			bencode.KV("a", bencode.Int(2)),
		), "d1:zi1e1:ai2ee"},
		// Duplicate keys are emitted as presented.
		{bencode.Dict(
			bencode.KV("a", bencode.Int(1)),
			bencode.KV("a", bencode.Int(2)),
		), "d1:ai1e1:ai2ee"},
	}

	for _, tc := range tests {
		got, err := bencode.Encode(tc.in)
		if err != nil {
			t.Errorf("Encode(%s) got err: %v", tc.in, err)
			continue
		}
		if !bytes.Equal(got, []byte(tc.want)) {
			t.Errorf("Encode(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEncodeKindErrors(t *testing.T) {
	str := bencode.String("spam")
	num := bencode.Int(1)

	if _, err := bencode.EncodeInteger(str); !is[*bencode.EncodeIntegerError](err) {
		t.Errorf("EncodeInteger(string) got %v, want EncodeIntegerError", err)
	}
	if _, err := bencode.EncodeString(num); !is[*bencode.EncodeStringError](err) {
		t.Errorf("EncodeString(integer) got %v, want EncodeStringError", err)
	}
	if _, err := bencode.EncodeList(num); !is[*bencode.EncodeListError](err) {
		t.Errorf("EncodeList(integer) got %v, want EncodeListError", err)
	}
	if _, err := bencode.EncodeDictionary(num); !is[*bencode.EncodeDictionaryError](err) {
		t.Errorf("EncodeDictionary(integer) got %v, want EncodeDictionaryError", err)
	}
	if _, err := bencode.Encode(bencode.Value{}); !is[*bencode.EncodeError](err) {
		t.Errorf("Encode(zero Value) got %v, want EncodeError", err)
	}
}

// TestEncodeInvalidElement pins the decision that an unencodable
// list element fails the whole call, the same as an unencodable
// dictionary value, rather than being silently dropped.
func TestEncodeInvalidElement(t *testing.T) {
	_, err := bencode.EncodeList(bencode.List(bencode.Int(1), bencode.Value{}))
	var le *bencode.EncodeListError
	if !errors.As(err, &le) {
		t.Fatalf("EncodeList with invalid element got %v, want EncodeListError", err)
	}
	if le.Index != 1 {
		t.Errorf("EncodeListError.Index = %d, want 1", le.Index)
	}

	_, err = bencode.EncodeDictionary(bencode.Dict(bencode.KV("k", bencode.Value{})))
	var de *bencode.EncodeDictionaryError
	if !errors.As(err, &de) {
		t.Fatalf("EncodeDictionary with invalid value got %v, want EncodeDictionaryError", err)
	}
	if de.Key != "k" {
		t.Errorf("EncodeDictionaryError.Key = %q, want \"k\"", de.Key)
	}

	// The same applies deep inside a nested value.
	_, err = bencode.Encode(bencode.List(bencode.Dict(bencode.KV("k", bencode.Value{}))))
	if !errors.As(err, &de) {
		t.Errorf("nested invalid value got %v, want EncodeDictionaryError", err)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []bencode.Value{
		bencode.Int(0),
		bencode.Int(-987654321),
		bencode.BigInt(new(big.Int).Lsh(big.NewInt(1), 100)),
		bencode.String(""),
		bencode.Bytes([]byte{0, 1, 2, 0xfe, 0xff}),
		bencode.List(),
		bencode.List(bencode.Int(1), bencode.String("two"), bencode.List(bencode.Int(3))),
		bencode.Dict(
			bencode.KV("announce", bencode.String("http://tracker.example/announce")),
			bencode.KV("info", bencode.Dict(
				bencode.KV("length", bencode.Int(351272960)),
				bencode.KV("name", bencode.String("image.iso")),
				bencode.KV("piece length", bencode.Int(262144)),
			)),
		),
		// Unsorted and duplicate keys survive a round trip intact.
		bencode.Dict(
			bencode.KV("z", bencode.Int(1)),
			bencode.KV("a", bencode.Int(2)),
			bencode.KV("a", bencode.Int(3)),
		),
	}

	for _, v := range values {
		bs, err := bencode.Encode(v)
		if err != nil {
			t.Errorf("Encode(%s) got err: %v", v, err)
			continue
		}
		got, err := bencode.Decode(bs, 0)
		if err != nil {
			t.Errorf("Decode(Encode(%s)) got err: %v", v, err)
			continue
		}
		if diff := cmp.Diff(got, v, valueCmp); diff != "" {
			t.Errorf("round trip of %s wrong output (-got+want):\n%s", v, diff)
		}
	}
}

// TestReencode checks that decode then encode reproduces a
// well-formed buffer byte for byte.
func TestReencode(t *testing.T) {
	bufs := []string{
		"i0e",
		"i-42e",
		"0:",
		"4:spam",
		"le",
		"llee",
		"l4:spami42ee",
		"de",
		"d4:spami42ee",
		"d3:keyl1:a1:bee",
		"d1:zi1e1:ai2ee",      // unsorted keys
		"d1:ai1e1:ai2ee",      // duplicate keys
		"d0:d0:i-1eee",        // empty keys, nested dict
		"l0:i0eld4:spamleeee", // mixed nesting
	}

	for _, in := range bufs {
		v, err := bencode.Decode([]byte(in), 0)
		if err != nil {
			t.Errorf("Decode(%q) got err: %v", in, err)
			continue
		}
		got, err := bencode.Encode(v)
		if err != nil {
			t.Errorf("Encode(Decode(%q)) got err: %v", in, err)
			continue
		}
		if !bytes.Equal(got, []byte(in)) {
			t.Errorf("re-encode of %q = %q, want identical bytes", in, got)
		}
	}
}
