package buffers

import (
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// makeFlat allocates a flat slice of the Go type corresponding to dtype.
func makeFlat(dtype dtypes.DType, length int) any {
	return reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), length, length).Interface()
}

// reflectSliceOf returns the reflect.Value of flat, checking it is a slice.
func reflectSliceOf(flat any) reflect.Value {
	v := reflect.ValueOf(flat)
	if v.Kind() != reflect.Slice {
		exceptions.Panicf("buffers: expected a flat slice, got %T", flat)
	}
	return v
}

// copyFlat assumes both flat slices are of the same underlying type.
func copyFlat(flatDst, flatSrc any) {
	reflect.Copy(reflect.ValueOf(flatDst), reflect.ValueOf(flatSrc))
}

// Clone creates a new buffer with the same shape and a copy of the flat data.
func (b *Buffer) Clone() *Buffer {
	newBuffer := New(b.shape)
	copyFlat(newBuffer.flat, b.Flat())
	return newBuffer
}
