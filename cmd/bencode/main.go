// Program bencode inspects and transcodes bencode files.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"slices"
	"unicode/utf8"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/fxamacker/cbor/v2"
	"github.com/kr/pretty"
	"github.com/sastadev/bencode"
)

var globalArgs struct {
	Truncate int `flag:"truncate,default=64,Truncate strings longer than this in show output"`
}

func main() {
	root := &command.C{
		Name:     "bencode",
		Usage:    "command args...",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "show",
				Usage: "show file...",
				Help: `Decode bencode files and print their value trees.

With --go, values are materialized into plain Go data and printed
with the pretty package instead.`,
				SetFlags: command.Flags(flax.MustBind, &showArgs),
				Run:      runShow,
			},
			{
				Name:  "json",
				Usage: "json file",
				Help: `Transcode a bencode file to JSON on stdout.

Byte strings that are not valid UTF-8 are emitted as base64 text,
since JSON strings cannot carry arbitrary bytes.`,
				Run: command.Adapt(runJSON),
			},
			{
				Name:  "cbor",
				Usage: "cbor file",
				Help: `Transcode a bencode file to CBOR on stdout.

CBOR is binary-safe, so byte strings survive the trip exactly. With
--det, output uses RFC 8949 core deterministic encoding.`,
				SetFlags: command.Flags(flax.MustBind, &cborArgs),
				Run:      command.Adapt(runCBOR),
			},
			{
				Name:  "pack",
				Usage: "pack file.json",
				Help: `Encode a JSON file as bencode on stdout.

Objects become dictionaries with lexicographically sorted keys,
arrays become lists, and numbers must be integers. Booleans encode
as the integers 0 and 1; null is rejected.`,
				Run: command.Adapt(runPack),
			},
			{
				Name:  "check",
				Usage: "check file...",
				Help: `Verify that files decode and re-encode byte for byte.

Prints a summary of each file's contents. With --top, also lists
the N largest byte strings.`,
				SetFlags: command.Flags(flax.MustBind, &checkArgs),
				Run:      runCheck,
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	command.RunOrFail(root.NewEnv(nil), os.Args[1:])
}

var showArgs struct {
	Go bool `flag:"go,Print values as Go data instead of a value tree"`
}

func runShow(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("show requires at least one file")
	}
	for _, path := range env.Args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if len(env.Args) > 1 {
			fmt.Printf("%s:\n", path)
		}
		if showArgs.Go {
			var v any
			if err := bencode.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", path, err)
			}
			pretty.Println(v)
			continue
		}
		v, err := bencode.Decode(data, 0)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		ind := &indenter{}
		printValue(ind, v, globalArgs.Truncate)
	}
	return nil
}

func runJSON(env *command.Env, path string) error {
	v, err := decodeFile(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonValue(v))
}

var cborArgs struct {
	Deterministic bool `flag:"det,Use RFC 8949 core deterministic encoding"`
}

func runCBOR(env *command.Env, path string) error {
	v, err := decodeFile(path)
	if err != nil {
		return err
	}
	var eo cbor.EncOptions
	if cborArgs.Deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return err
	}
	bs, err := em.Marshal(cborValue(v))
	if err != nil {
		return fmt.Errorf("encoding %s as CBOR: %w", path, err)
	}
	_, err = os.Stdout.Write(bs)
	return err
}

func runPack(env *command.Env, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	v, err := fromJSON(doc)
	if err != nil {
		return fmt.Errorf("converting %s: %w", path, err)
	}
	bs, err := bencode.Encode(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(bs)
	return err
}

var checkArgs struct {
	Top int `flag:"top,List the N largest byte strings"`
}

func runCheck(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("check requires at least one file")
	}
	for _, path := range env.Args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		v, err := bencode.Decode(data, 0)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		out, err := bencode.Encode(v)
		if err != nil {
			return fmt.Errorf("re-encoding %s: %w", path, err)
		}
		switch {
		case bytes.Equal(out, data):
			fmt.Printf("%s: ok, %d bytes\n", path, len(data))
		case len(out) < len(data) && bytes.Equal(out, data[:len(out)]):
			fmt.Printf("%s: ok, %d bytes (+%d trailing bytes ignored)\n", path, len(out), len(data)-len(out))
		default:
			return fmt.Errorf("%s: re-encode differs from input", path)
		}

		st := summarize(v)
		fmt.Printf("  integers %d, strings %d, lists %d, dictionaries %d, depth %d\n",
			st.ints, st.strs, st.lists, st.dicts, st.depth)
		for _, s := range topStrings(v, checkArgs.Top) {
			fmt.Printf("  %8d bytes  %s\n", len(s.bytes), s.path)
		}
	}
	return nil
}

func decodeFile(path string) (bencode.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bencode.Value{}, err
	}
	v, err := bencode.Decode(data, 0)
	if err != nil {
		return bencode.Value{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return v, nil
}

// fromJSON converts parsed JSON into a Value, sorting object keys so
// the output is canonical.
func fromJSON(doc any) (bencode.Value, error) {
	switch x := doc.(type) {
	case json.Number:
		n, ok := new(big.Int).SetString(x.String(), 10)
		if !ok {
			return bencode.Value{}, fmt.Errorf("number %s is not an integer", x)
		}
		return bencode.BigInt(n), nil
	case string:
		return bencode.String(x), nil
	case bool:
		if x {
			return bencode.Int(1), nil
		}
		return bencode.Int(0), nil
	case []any:
		elems := make([]bencode.Value, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return bencode.Value{}, err
			}
			elems[i] = v
		}
		return bencode.List(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		pairs := make([]bencode.Pair, len(keys))
		for i, k := range keys {
			v, err := fromJSON(x[k])
			if err != nil {
				return bencode.Value{}, err
			}
			pairs[i] = bencode.KV(k, v)
		}
		return bencode.Dict(pairs...), nil
	}
	return bencode.Value{}, fmt.Errorf("cannot encode JSON value %v (%T)", doc, doc)
}

// jsonValue converts a Value into data encoding/json can emit.
// Non-UTF-8 byte strings become base64 text, and integers beyond
// int64 become decimal strings, since JSON numbers lose precision.
func jsonValue(v bencode.Value) any {
	switch v.Kind() {
	case bencode.KindInteger:
		if n, ok := v.Int64(); ok {
			return n
		}
		return v.Int().String()
	case bencode.KindString:
		return jsonString(v.Bytes())
	case bencode.KindList:
		ret := make([]any, len(v.Elems()))
		for i, e := range v.Elems() {
			ret[i] = jsonValue(e)
		}
		return ret
	default:
		// Duplicate keys collapse last-wins, but entry order is
		// kept for the rest, via a manual ordered object below.
		ret := make(orderedObject, 0, len(v.Pairs()))
		for _, p := range v.Pairs() {
			ret = ret.set(jsonString(p.Key), jsonValue(p.Val))
		}
		return ret
	}
}

func cborValue(v bencode.Value) any {
	switch v.Kind() {
	case bencode.KindInteger:
		if n, ok := v.Int64(); ok {
			return n
		}
		return v.Int()
	case bencode.KindString:
		return v.Bytes()
	case bencode.KindList:
		ret := make([]any, len(v.Elems()))
		for i, e := range v.Elems() {
			ret[i] = cborValue(e)
		}
		return ret
	default:
		ret := make(map[string]any, len(v.Pairs()))
		for _, p := range v.Pairs() {
			ret[string(p.Key)] = cborValue(p.Val)
		}
		return ret
	}
}

func jsonString(bs []byte) string {
	if utf8.Valid(bs) {
		return string(bs)
	}
	return "base64:" + base64Std(bs)
}
