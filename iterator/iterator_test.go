package iterator

import (
	"slices"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/tensorcompare/buffers"
	"github.com/gomlx/tensorcompare/types/shapes"
)

func TestPlanOffsets(t *testing.T) {
	shape := shapes.Make(dtypes.Float32, 2, 3)
	buf := buffers.New(shape)
	plan := NewPlan(shape).AddOutput(buf)
	require.Equal(t, 6, plan.NumLanes())

	var got []int
	// A single chunk runs sequentially, so the row-major order is observable.
	plan.ForEach(func(offsets []int) {
		got = append(got, offsets[0])
	}, plan.NumLanes())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func TestPlanSquashAxis(t *testing.T) {
	operandShape := shapes.Make(dtypes.Float32, 2, 3, 4)
	outputShape := shapes.Make(dtypes.Float32, 2, 1, 4)
	operand := buffers.New(operandShape)
	values := buffers.New(outputShape)
	indices := buffers.New(shapes.Make(dtypes.Int64, 2, 1, 4))

	plan := NewPlan(operandShape).
		SquashAxis(1).
		AddOutput(values).
		AddOutput(indices).
		AddInput(operand)
	require.Equal(t, 2*4, plan.NumLanes())

	type lane struct{ values, indices, operand int }
	var got []lane
	plan.ForEach(func(offsets []int) {
		got = append(got, lane{offsets[0], offsets[1], offsets[2]})
	}, plan.NumLanes())

	var want []lane
	for i := range 2 {
		for k := range 4 {
			// Output strides: [4, 4, 1]; operand strides: [12, 4, 1]; axis 1 pinned to 0.
			want = append(want, lane{i*4 + k, i*4 + k, i*12 + k})
		}
	}
	assert.Equal(t, want, got)
}

func TestPlanForEachParallel(t *testing.T) {
	shape := shapes.Make(dtypes.Int32, 64, 32)
	buf := buffers.New(shape)
	flat := buf.Flat().([]int32)
	for ii := range flat {
		flat[ii] = -1
	}

	// One lane per work unit: exercises the parallel dispatch path.
	plan := NewPlan(shape).AddOutput(buf)
	plan.ForEach(func(offsets []int) {
		flat[offsets[0]] = int32(offsets[0])
	}, 1)
	for ii, v := range flat {
		require.Equal(t, int32(ii), v, "lane %d not visited exactly once", ii)
	}

	// Batched grain covers the same lanes.
	clear(flat)
	plan.ForEach(func(offsets []int) {
		flat[offsets[0]]++
	}, 7)
	require.NotContains(t, flat, int32(0))
	require.NotContains(t, flat, int32(2))
}

func TestPlanEmptyAndScalar(t *testing.T) {
	// Zero-dimension shapes enumerate no lanes.
	empty := shapes.Make(dtypes.Float32, 0, 3)
	plan := NewPlan(empty).AddOutput(buffers.New(empty))
	require.Equal(t, 0, plan.NumLanes())
	plan.ForEach(func([]int) { t.Fatal("no lanes expected") }, 1)

	// Scalar shapes enumerate exactly one lane, at offset 0.
	scalar := shapes.Make(dtypes.Float32)
	calls := 0
	NewPlan(scalar).AddOutput(buffers.New(scalar)).ForEach(func(offsets []int) {
		calls++
		require.Equal(t, []int{0}, slices.Clone(offsets))
	}, 1)
	require.Equal(t, 1, calls)
}

func TestPlanChecks(t *testing.T) {
	shape := shapes.Make(dtypes.Float32, 2, 3)
	plan := NewPlan(shape)
	require.Panics(t, func() { plan.SquashAxis(2) })
	require.Panics(t, func() { plan.AddInput(buffers.New(shapes.Make(dtypes.Float32, 3))) })
	require.Panics(t, func() { plan.AddInput(buffers.New(shapes.Make(dtypes.Float32, 2, 4))) })

	// A size-1 iteration axis is not a wildcard: only the squashed axis accepts
	// operands of a different extent there.
	narrow := NewPlan(shapes.Make(dtypes.Float32, 2, 1, 3))
	require.Panics(t, func() { narrow.AddInput(buffers.New(shapes.Make(dtypes.Float32, 2, 5, 3))) })
	narrow.AddInput(buffers.New(shapes.Make(dtypes.Float32, 2, 1, 3)))

	squashed := NewPlan(shapes.Make(dtypes.Float32, 2, 5, 3)).SquashAxis(1)
	squashed.AddOutput(buffers.New(shapes.Make(dtypes.Float32, 2, 1, 3)))
	squashed.AddInput(buffers.New(shapes.Make(dtypes.Float32, 2, 5, 3)))
}

func TestPlanSequentialMode(t *testing.T) {
	defaultParallelism := MaxParallelism()
	SetMaxParallelism(0)
	defer SetMaxParallelism(defaultParallelism)

	// With parallelism disabled every chunk runs inline, in row-major order,
	// even when the grain size splits the lanes into many work units.
	shape := shapes.Make(dtypes.Int32, 8, 4)
	buf := buffers.New(shape)
	plan := NewPlan(shape).AddOutput(buf)
	var got []int
	plan.ForEach(func(offsets []int) {
		got = append(got, offsets[0])
	}, 3)
	require.Len(t, got, 32)
	for ii, offset := range got {
		require.Equal(t, ii, offset)
	}
}
