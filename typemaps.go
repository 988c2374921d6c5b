package bencode

import (
	"math/big"
	"reflect"

	"github.com/creachadair/mds/mapset"
)

var (
	valueType       = reflect.TypeFor[Value]()
	bigIntType      = reflect.TypeFor[big.Int]()
	anyType         = reflect.TypeFor[any]()
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()

	// intKinds and uintKinds are the reflect.Kinds that map to the
	// bencode integer type. Bencode integers are arbitrary
	// precision, so every fixed width is representable, as are int
	// and uint. uintptr is deliberately absent: a pointer-sized
	// machine word is not data worth serializing.
	intKinds = mapset.New(
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
	)
	uintKinds = mapset.New(
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
	)
)
