package bencode

import (
	"fmt"
	"log"
	"reflect"
	"sync"
)

const debugCodecs = false

func debugCodec(msg string, args ...any) {
	if !debugCodecs {
		return
	}
	log.Printf(msg, args...)
}

// A codecCache memoizes the codec func for each reflect.Type seen by
// [Marshal] and [Unmarshal].
//
// A nil entry marks a type whose codec is still being built. Hitting
// one means the type refers to itself, directly or through other
// types; Get hands out the OnRecursive fallback for it, which defers
// the real lookup until the whole cycle has been built.
type codecCache[V any] struct {
	OnRecursive func(reflect.Type) V
	m           sync.Map
}

func (c *codecCache[V]) Get(t reflect.Type) (val V, found bool) {
	ent, loaded := c.m.LoadOrStore(t, nil)
	if !loaded {
		var zero V
		return zero, false
	}
	if ent == nil {
		ret := c.OnRecursive(t)
		c.m.CompareAndSwap(t, nil, ret)
		return ret, true
	}
	if val, ok := ent.(V); ok {
		return val, true
	}
	panic(fmt.Sprintf("mystery value %v (%T) in cache", ent, ent))
}

func (c *codecCache[V]) Put(t reflect.Type, val V) {
	c.m.CompareAndSwap(t, nil, val)
}
