package shapes

import (
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))

	shape1 := Make(Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 3, shape1.Rank())
	require.Len(t, shape1.Dimensions, 3)
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, int(shape1.Memory()))

	// Zero dimensions are valid, but make for an empty shape.
	shape2 := Make(Int8, 3, 0, 2)
	require.True(t, shape2.Ok())
	require.Equal(t, 0, shape2.Size())

	// Negative dimensions panic.
	require.Panics(t, func() { _ = Make(Int8, 3, -1) })
}

func TestDim(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 3, shape.Dim(1))
	require.Equal(t, 2, shape.Dim(2))
	require.Equal(t, 4, shape.Dim(-3))
	require.Equal(t, 3, shape.Dim(-2))
	require.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestEqual(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.True(t, shape.Equal(Make(Float32, 4, 3, 2)))
	require.False(t, shape.Equal(Make(Float64, 4, 3, 2)))
	require.False(t, shape.Equal(Make(Float32, 4, 3)))
	require.False(t, shape.Equal(Make(Float32, 4, 3, 1)))
	require.True(t, shape.EqualDimensions(Make(Int64, 4, 3, 2)))

	shape2 := shape.Clone()
	require.True(t, shape.Equal(shape2))
	shape2.Dimensions[0] = 7
	require.Equal(t, 4, shape.Dimensions[0], "Clone() must deep-copy the dimensions")
}

func TestStrides(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.Equal(t, []int{6, 2, 1}, shape.Strides())
	require.Equal(t, 6, shape.Stride(0))
	require.Equal(t, 2, shape.Stride(1))
	require.Equal(t, 1, shape.Stride(2))
	require.Panics(t, func() { _ = shape.Stride(3) })

	scalar := Make(Float32)
	require.Empty(t, scalar.Strides())

	// The inner-most axis has stride 1 even when other axes have dimension 0.
	empty := Make(Float32, 0, 2)
	require.Equal(t, []int{2, 1}, empty.Strides())
}
