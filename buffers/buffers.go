// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package buffers implements the flat, contiguous storage used by the kernel packages.
//
// A Buffer holds a shape and a reference to the flat data, which is always a slice
// of the Go type corresponding to the shape's DType. Backing slices are recycled
// through per-dtype/size pools, so Resize is cheap when callers reuse output
// buffers across calls.
package buffers

import (
	"slices"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/tensorcompare/types/shapes"
)

// Buffer holds a shape and a reference to the flat data.
//
// The flat data is always a slice of the underlying data type (shape.DType),
// laid out in row-major order.
type Buffer struct {
	shape shapes.Shape

	// flat is always a slice of the underlying data type (shape.DType).
	flat any
}

// New creates a buffer of the given shape, with a newly allocated (or recycled) flat space.
//
// The contents of the flat data are undefined: recycled storage is not cleared.
func New(shape shapes.Shape) *Buffer {
	if !shape.Ok() {
		exceptions.Panicf("buffers.New: invalid shape %s", shape)
	}
	flat, err := getFlat(shape.DType, shape.Size())
	if err != nil {
		panic(err)
	}
	return &Buffer{shape: shape.Clone(), flat: flat}
}

// FromFlat creates a buffer wrapping the given flat slice -- no copy is made.
//
// The flat slice element type must correspond to the shape's DType, and its length
// must be exactly shape.Size().
func FromFlat(flat any, shape shapes.Shape) (*Buffer, error) {
	if !shape.Ok() {
		return nil, errors.Errorf("buffers.FromFlat: invalid shape %s", shape)
	}
	flatV := reflectSliceOf(flat)
	if dtypes.FromGoType(flatV.Type().Elem()) != shape.DType {
		return nil, errors.Errorf("buffers.FromFlat: flat data type (%s) does not match shape DType (%s)",
			flatV.Type().Elem(), shape.DType)
	}
	if flatV.Len() != shape.Size() {
		return nil, errors.Errorf("buffers.FromFlat: flat has %d elements, shape %s requires %d",
			flatV.Len(), shape, shape.Size())
	}
	return &Buffer{shape: shape.Clone(), flat: flat}, nil
}

// Shape of the buffer.
func (b *Buffer) Shape() shapes.Shape { return b.shape }

// DType of the buffer's elements.
func (b *Buffer) DType() dtypes.DType { return b.shape.DType }

// Rank of the buffer's shape.
func (b *Buffer) Rank() int { return b.shape.Rank() }

// Flat returns the flat data slice: always a slice of the Go type corresponding
// to the buffer's DType. It panics if the buffer was finalized.
func (b *Buffer) Flat() any {
	if b.flat == nil {
		exceptions.Panicf("Buffer.Flat: buffer (shape=%s) was already finalized", b.shape)
	}
	return b.flat
}

// String implements fmt.Stringer.
func (b *Buffer) String() string { return b.shape.String() }

// Resize changes the buffer to the given shape, reallocating the backing storage if
// the total size changes. The contents become undefined after a reallocation.
//
// The DType cannot be changed by Resize.
func (b *Buffer) Resize(shape shapes.Shape) error {
	if !shape.Ok() {
		return errors.Errorf("Buffer.Resize: invalid target shape %s", shape)
	}
	if shape.DType != b.shape.DType {
		return errors.Errorf("Buffer.Resize: cannot change dtype from %s to %s", b.shape.DType, shape.DType)
	}
	newSize := shape.Size()
	if newSize != b.shape.Size() {
		flat, err := getFlat(shape.DType, newSize)
		if err != nil {
			return errors.WithMessagef(err, "Buffer.Resize to %s", shape)
		}
		putFlat(b.shape.DType, b.flat, b.shape.Size())
		b.flat = flat
	}
	b.shape = shape.Clone()
	return nil
}

// Unsqueeze inserts a size-1 dimension at the given axis, without touching the
// flat data. axis must be in the range [0, rank].
func (b *Buffer) Unsqueeze(axis int) {
	if axis < 0 || axis > b.shape.Rank() {
		exceptions.Panicf("Buffer.Unsqueeze(%d) out-of-bounds for shape %s", axis, b.shape)
	}
	b.shape.Dimensions = slices.Insert(b.shape.Dimensions, axis, 1)
}

// Squeeze removes the dimension at the given axis, without touching the flat data.
// The dimension being removed must be 1.
func (b *Buffer) Squeeze(axis int) {
	if axis < 0 || axis >= b.shape.Rank() {
		exceptions.Panicf("Buffer.Squeeze(%d) out-of-bounds for shape %s", axis, b.shape)
	}
	if b.shape.Dimensions[axis] != 1 {
		exceptions.Panicf("Buffer.Squeeze(%d): axis has dimension %d, only size-1 axes can be squeezed (shape=%s)",
			axis, b.shape.Dimensions[axis], b.shape)
	}
	b.shape.Dimensions = slices.Delete(b.shape.Dimensions, axis, axis+1)
}

// Finalize returns the backing storage to the pool. The buffer must not be used afterwards.
func (b *Buffer) Finalize() {
	if b.flat == nil {
		return
	}
	putFlat(b.shape.DType, b.flat, b.shape.Size())
	b.flat = nil
	b.shape = shapes.Invalid()
}

// flatPools recycle flat slices, keyed by flatPoolKey.
// The underlying type is map[flatPoolKey]*sync.Pool.
var flatPools sync.Map

type flatPoolKey struct {
	dtype  dtypes.DType
	length int
}

// getFlat returns a flat slice of the given dtype and length, recycled if possible.
// The contents are undefined.
func getFlat(dtype dtypes.DType, length int) (any, error) {
	goType := dtype.GoType()
	if goType == nil {
		return nil, errors.Errorf("buffers: dtype %s has no Go type, cannot allocate storage", dtype)
	}
	key := flatPoolKey{dtype: dtype, length: length}
	poolInterface, ok := flatPools.Load(key)
	if !ok {
		poolInterface, _ = flatPools.LoadOrStore(key, &sync.Pool{
			New: func() any {
				if klog.V(2).Enabled() {
					klog.Infof("buffers: allocating %s for a %s[%d] flat slice",
						humanize.Bytes(uint64(dtype.Memory())*uint64(length)), dtype, length)
				}
				return makeFlat(dtype, length)
			},
		})
	}
	return poolInterface.(*sync.Pool).Get(), nil
}

// putFlat returns a flat slice to its pool. After this any references to it should be dropped.
func putFlat(dtype dtypes.DType, flat any, length int) {
	if flat == nil {
		return
	}
	key := flatPoolKey{dtype: dtype, length: length}
	poolInterface, ok := flatPools.Load(key)
	if !ok {
		return
	}
	poolInterface.(*sync.Pool).Put(flat)
}
