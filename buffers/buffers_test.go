package buffers

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/tensorcompare/types/shapes"
	"github.com/gomlx/tensorcompare/types/xslices"
)

func TestNewAndFromFlat(t *testing.T) {
	b := New(shapes.Make(dtypes.Float32, 2, 3))
	require.Equal(t, dtypes.Float32, b.DType())
	require.Equal(t, 2, b.Rank())
	require.Len(t, b.Flat().([]float32), 6)

	b2 := must.M1(FromFlat(xslices.Iota[int32](0, 6), shapes.Make(dtypes.Int32, 3, 2)))
	require.Equal(t, []int32{0, 1, 2, 3, 4, 5}, b2.Flat().([]int32))

	// DType mismatch between flat and shape.
	_, err := FromFlat([]float64{1, 2}, shapes.Make(dtypes.Float32, 2))
	require.Error(t, err)

	// Wrong number of elements.
	_, err = FromFlat([]float32{1, 2, 3}, shapes.Make(dtypes.Float32, 2))
	require.Error(t, err)
}

func TestResize(t *testing.T) {
	b := must.M1(FromFlat([]float32{1, 2, 3, 4, 5, 6}, shapes.Make(dtypes.Float32, 2, 3)))

	// Same size: flat is preserved, only the shape changes.
	require.NoError(t, b.Resize(shapes.Make(dtypes.Float32, 3, 2)))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, b.Flat().([]float32))
	assert.Equal(t, []int{3, 2}, b.Shape().Dimensions)

	// Different size: reallocates, contents undefined.
	require.NoError(t, b.Resize(shapes.Make(dtypes.Float32, 2, 2)))
	assert.Len(t, b.Flat().([]float32), 4)

	// DType change is not allowed.
	require.Error(t, b.Resize(shapes.Make(dtypes.Float64, 2, 2)))

	// Invalid shape.
	require.Error(t, b.Resize(shapes.Invalid()))
}

func TestUnsqueezeAndSqueeze(t *testing.T) {
	b := New(shapes.Make(dtypes.Int64, 4, 3))
	b.Unsqueeze(1)
	assert.Equal(t, []int{4, 1, 3}, b.Shape().Dimensions)
	b.Squeeze(1)
	assert.Equal(t, []int{4, 3}, b.Shape().Dimensions)

	require.Panics(t, func() { b.Unsqueeze(3) })
	require.Panics(t, func() { b.Squeeze(0) }) // Axis 0 has dimension 4.
	require.Panics(t, func() { b.Squeeze(2) })
}

func TestFinalizeAndRecycling(t *testing.T) {
	shape := shapes.Make(dtypes.Uint8, 1024)
	b := New(shape)
	flat := b.Flat().([]uint8)
	flat[0] = 42
	b.Finalize()
	require.Panics(t, func() { b.Flat() })

	// A fresh buffer of the same dtype/size may reuse the recycled storage,
	// so its contents are undefined -- only the length is guaranteed.
	b2 := New(shape)
	require.Len(t, b2.Flat().([]uint8), 1024)
}

func TestClone(t *testing.T) {
	b := must.M1(FromFlat([]int64{1, 2, 3}, shapes.Make(dtypes.Int64, 3)))
	c := b.Clone()
	c.Flat().([]int64)[0] = 100
	assert.Equal(t, []int64{1, 2, 3}, b.Flat().([]int64))
	assert.Equal(t, []int64{100, 2, 3}, c.Flat().([]int64))
}
