package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/creachadair/mds/heapq"
	"github.com/sastadev/bencode"
)

type indenter struct {
	prefix     string
	indentNext bool
}

func (i *indenter) s(msg string) {
	io.WriteString(i, msg+"\n")
}

func (i *indenter) f(msg string, args ...any) {
	fmt.Fprintf(i, msg+"\n", args...)
}

func (i *indenter) Write(bs []byte) (int, error) {
	ret := 0
	for len(bs) > 0 {
		if i.indentNext {
			i.indentNext = false
			_, err := io.WriteString(os.Stdout, i.prefix)
			if err != nil {
				return ret, err
			}
		}

		var wr []byte
		idx := bytes.IndexByte(bs, '\n')
		if idx >= 0 {
			i.indentNext = true
			wr, bs = bs[:idx+1], bs[idx+1:]
		} else {
			wr, bs = bs, nil
		}

		n, err := os.Stdout.Write(wr)
		ret += n
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (i *indenter) indent(n int) {
	i.prefix = strings.Repeat("  ", n)
}

func printValue(ind *indenter, v bencode.Value, trunc int) {
	printTree(ind, v, 0, trunc)
}

func printTree(i *indenter, v bencode.Value, depth, trunc int) {
	i.indent(depth)
	switch v.Kind() {
	case bencode.KindInteger:
		i.f("integer %s", v.Int())
	case bencode.KindString:
		i.f("string %s", formatBytes(v.Bytes(), trunc))
	case bencode.KindList:
		i.f("list (%d):", v.Len())
		for _, e := range v.Elems() {
			printTree(i, e, depth+1, trunc)
		}
	case bencode.KindDict:
		i.f("dictionary (%d):", v.Len())
		for _, p := range v.Pairs() {
			i.indent(depth + 1)
			i.f("%s:", formatBytes(p.Key, trunc))
			printTree(i, p.Val, depth+2, trunc)
		}
	}
}

// formatBytes renders a byte string for human eyes. Text is quoted,
// binary data shows a hex prefix, and anything over trunc bytes is
// elided with its full length.
func formatBytes(bs []byte, trunc int) string {
	if utf8.Valid(bs) {
		if trunc > 0 && len(bs) > trunc {
			return fmt.Sprintf("%s... (%d bytes)", strconv.Quote(string(bs[:trunc])), len(bs))
		}
		return strconv.Quote(string(bs))
	}
	if trunc > 0 && len(bs) > trunc {
		return fmt.Sprintf("0x%s... (%d bytes)", hex.EncodeToString(bs[:trunc]), len(bs))
	}
	return "0x" + hex.EncodeToString(bs)
}

type valueStats struct {
	ints, strs, lists, dicts int
	depth                    int
}

func summarize(v bencode.Value) valueStats {
	var st valueStats
	tally(v, 1, &st)
	return st
}

func tally(v bencode.Value, depth int, st *valueStats) {
	st.depth = max(st.depth, depth)
	switch v.Kind() {
	case bencode.KindInteger:
		st.ints++
	case bencode.KindString:
		st.strs++
	case bencode.KindList:
		st.lists++
		for _, e := range v.Elems() {
			tally(e, depth+1, st)
		}
	case bencode.KindDict:
		st.dicts++
		for _, p := range v.Pairs() {
			st.strs++
			tally(p.Val, depth+1, st)
		}
	}
}

type stringStat struct {
	bytes []byte
	path  string
}

// topStrings returns the n largest byte strings in v, largest first,
// with a path describing where each lives.
func topStrings(v bencode.Value, n int) []stringStat {
	if n <= 0 {
		return nil
	}
	q := heapq.New(func(a, b stringStat) int {
		return len(a.bytes) - len(b.bytes)
	})
	collectStrings(v, "$", q, n)

	ret := make([]stringStat, 0, q.Len())
	for !q.IsEmpty() {
		s, _ := q.Pop()
		ret = append(ret, s)
	}
	slices.Reverse(ret)
	return ret
}

func collectStrings(v bencode.Value, path string, q *heapq.Queue[stringStat], n int) {
	switch v.Kind() {
	case bencode.KindString:
		q.Add(stringStat{v.Bytes(), path})
		if q.Len() > n {
			q.Pop()
		}
	case bencode.KindList:
		for i, e := range v.Elems() {
			collectStrings(e, fmt.Sprintf("%s[%d]", path, i), q, n)
		}
	case bencode.KindDict:
		for _, p := range v.Pairs() {
			collectStrings(p.Val, path+"."+formatBytes(p.Key, 16), q, n)
		}
	}
}

// orderedObject is a JSON object that marshals its members in entry
// order, which map[string]any cannot.
type orderedObject []jsonMember

type jsonMember struct {
	key string
	val any
}

func (o orderedObject) set(key string, val any) orderedObject {
	for i, m := range o {
		if m.key == key {
			o[i].val = val
			return o
		}
	}
	return append(o, jsonMember{key, val})
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.val)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func base64Std(bs []byte) string {
	return base64.StdEncoding.EncodeToString(bs)
}
