package seqring

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"code.hybscloud.com/atomix"
)

const wordSize = 8

// layout describes how one T is spread over uint64 words.
type layout struct {
	size  uintptr // unsafe.Sizeof(T)
	words int
}

func layoutOf[T any]() layout {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if !isPlainData(typ) {
		panic(fmt.Sprintf("seqring: payload type %s must be fixed-size plain data", typ))
	}
	size := unsafe.Sizeof(zero)
	return layout{
		size:  size,
		words: int((size + wordSize - 1) / wordSize),
	}
}

// isPlainData reports whether values of typ can be copied as raw bytes
// without sharing any memory with the source.
func isPlainData(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return typ.Len() == 0 || isPlainData(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if !isPlainData(typ.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// bytesOf exposes the memory of *v as a byte slice of the given size.
func bytesOf[T any](v *T, size uintptr) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), size)
}

// storeWords publishes v into dst. Each word store has release semantics,
// so none of them can be observed before the odd seq that precedes them.
func storeWords[T any](dst []atomix.Uint64, v *T, l layout) {
	src := bytesOf(v, l.size)
	var buf [wordSize]byte
	for k := range dst {
		off := k * wordSize
		if n := copy(buf[:], src[off:]); n < wordSize {
			clear(buf[n:])
		}
		dst[k].StoreRelease(binary.LittleEndian.Uint64(buf[:]))
	}
}

// loadWords copies src into v. Acquire loads keep the trailing seq check
// from being satisfied before the payload was actually read.
func loadWords[T any](v *T, src []atomix.Uint64, l layout) {
	dst := bytesOf(v, l.size)
	var buf [wordSize]byte
	for k := range src {
		binary.LittleEndian.PutUint64(buf[:], src[k].LoadAcquire())
		copy(dst[k*wordSize:], buf[:])
	}
}
