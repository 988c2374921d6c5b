package bencode_test

import (
	"io"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sastadev/bencode"
)

func TestUnmarshal(t *testing.T) {
	type testCase struct {
		in      string
		want    any // pointer to expected value; nil target kind from it
		wantErr bool
	}
	ok := func(in string, want any) testCase {
		return testCase{in, want, false}
	}
	fail := func(in string, target any) testCase {
		return testCase{in, target, true}
	}
	tests := []testCase{
		ok("i42e", ptr(int(42))),
		ok("i-1e", ptr(int8(-1))),
		ok("i0e", ptr(false)),
		ok("i1e", ptr(true)),
		ok("i65535e", ptr(uint16(65535))),
		ok("4:spam", ptr("spam")),
		ok("0:", ptr("")),
		ok("2:\x00\xff", ptr([]byte{0x00, 0xff})),
		ok("4:abcd", ptr([4]byte{'a', 'b', 'c', 'd'})),
		ok("li1ei2ei3ee", ptr([]int{1, 2, 3})),
		ok("le", ptr([]int{})),
		ok("li1ei2ee", ptr([2]int{1, 2})),
		ok("d1:ai1e1:bi2ee", ptr(map[string]int{"a": 1, "b": 2})),
		ok("d1:ai1e1:ai2ee", ptr(map[string]int{"a": 2})), // duplicate key, last wins
		ok("i1208925819614629174706176e", new(big.Int).Lsh(big.NewInt(1), 80)),
		ok("i90e", ptr(seconds(90*time.Second))),

		fail("i2e", ptr(false)),         // out of range for bool
		fail("i128e", ptr(int8(0))),     // overflow
		fail("i-1e", ptr(uint8(0))),     // negative into unsigned
		fail("4:spam", ptr(0)),          // kind mismatch
		fail("i42e", ptr("")),           // kind mismatch
		fail("3:ab", ptr("")),           // truncated
		fail("5:abcde", ptr([4]byte{})), // length mismatch
		fail("li1ee", ptr([2]int{})),    // too few elements
		fail("li1ei2ei3ee", ptr([2]int{})),
		fail("di1ei2ee", ptr(map[string]int{})),
		fail("i42ei7e", ptr(0)), // trailing bytes
		fail("d1:ai1ee", ptr(map[int]int{})),
	}

	for _, tc := range tests {
		target := allocLike(tc.want)
		err := bencode.Unmarshal([]byte(tc.in), target)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Unmarshal(%q, %T) did not fail", tc.in, tc.want)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unmarshal(%q, %T) got err: %v", tc.in, tc.want, err)
			continue
		}
		if diff := cmp.Diff(target, tc.want, valueCmp, cmpopts.EquateEmpty(), cmp.Comparer(func(a, b *big.Int) bool {
			return a.Cmp(b) == 0
		})); diff != "" {
			t.Errorf("Unmarshal(%q) wrong output (-got+want):\n%s", tc.in, diff)
		}
	}
}

func TestUnmarshalStruct(t *testing.T) {
	in := "d7:comment8:not here6:lengthi4e4:name9:image.iso12:piece lengthi2e6:pieces2:abe"
	var got fileInfo
	if err := bencode.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	want := fileInfo{
		Name:        "image.iso",
		Length:      4,
		PieceLength: 2,
		Pieces:      []byte("ab"),
		// Comment is tagged `bencode:"-"`; the wire key "comment"
		// is unknown and skipped.
	}
	if diff := cmp.Diff(got, want, cmp.AllowUnexported(fileInfo{})); diff != "" {
		t.Errorf("wrong output (-got+want):\n%s", diff)
	}
}

func TestUnmarshalNestedAlloc(t *testing.T) {
	in := "d4:name1:a4:nextd4:name1:b4:nextd4:name1:ceee"
	var got listNode
	if err := bencode.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	want := listNode{Name: "a", Next: &listNode{Name: "b", Next: &listNode{Name: "c"}}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("wrong output (-got+want):\n%s", diff)
	}
}

func TestUnmarshalAny(t *testing.T) {
	in := "d5:filesld6:lengthi4e4:path1:aee4:sizei9ee"
	var got any
	if err := bencode.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	want := map[string]any{
		"files": []any{
			map[string]any{"length": int64(4), "path": "a"},
		},
		"size": int64(9),
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("wrong output (-got+want):\n%s", diff)
	}

	// Integers beyond int64 come back as *big.Int.
	var big80 any
	if err := bencode.Unmarshal([]byte("i1208925819614629174706176e"), &big80); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	n, ok := big80.(*big.Int)
	if !ok || n.Cmp(new(big.Int).Lsh(big.NewInt(1), 80)) != 0 {
		t.Errorf("got %v (%T), want *big.Int 2^80", big80, big80)
	}
}

func TestUnmarshalValue(t *testing.T) {
	// Decoding into a Value keeps entry order and duplicates, which
	// map targets cannot.
	var got bencode.Value
	if err := bencode.Unmarshal([]byte("d1:zi1e1:ai2e1:ai3ee"), &got); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	want := bencode.Dict(
		bencode.KV("z", bencode.Int(1)),
		bencode.KV("a", bencode.Int(2)),
		bencode.KV("a", bencode.Int(3)),
	)
	if diff := cmp.Diff(got, want, valueCmp); diff != "" {
		t.Errorf("wrong output (-got+want):\n%s", diff)
	}
}

func TestUnmarshalRawValue(t *testing.T) {
	type wrapper struct {
		Info bencode.RawValue `bencode:"info"`
		Name string           `bencode:"name"`
	}
	in := "d4:infod6:lengthi4ee4:name1:xe"
	var got wrapper
	if err := bencode.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	if want := "d6:lengthi4ee"; string(got.Info) != want {
		t.Errorf("Info = %q, want %q", got.Info, want)
	}
	if got.Name != "x" {
		t.Errorf("Name = %q, want \"x\"", got.Name)
	}

	// And it re-emits verbatim.
	out, err := bencode.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal got err: %v", err)
	}
	if string(out) != in {
		t.Errorf("re-marshal = %q, want %q", out, in)
	}
}

func TestUnmarshalTargetErrors(t *testing.T) {
	if err := bencode.Unmarshal([]byte("i1e"), nil); err == nil {
		t.Error("Unmarshal into nil did not fail")
	}
	var n int
	if err := bencode.Unmarshal([]byte("i1e"), n); err == nil {
		t.Error("Unmarshal into non-pointer did not fail")
	}
	if err := bencode.Unmarshal([]byte("i1e"), (*int)(nil)); err == nil {
		t.Error("Unmarshal into nil pointer did not fail")
	}
	var r io.Reader
	if err := bencode.Unmarshal([]byte("i1e"), &r); err == nil {
		t.Error("Unmarshal into non-empty interface did not fail")
	}
}

func TestUnmarshalNoAlias(t *testing.T) {
	data := []byte("3:abc")
	var got []byte
	if err := bencode.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal got err: %v", err)
	}
	data[2] = 'X'
	if string(got) != "abc" {
		t.Errorf("decoded bytes alias the input buffer: %q", got)
	}
}

// allocLike returns a fresh zero target of the same pointer type as
// want, so each test case decodes into clean memory.
func allocLike(want any) any {
	return reflect.New(reflect.TypeOf(want).Elem()).Interface()
}
