// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package iterator implements a strided iteration plan over the lanes of
// multi-dimensional buffers.
//
// A Plan declares a static iteration shape and a fixed, ordered list of operand
// buffers (outputs first, then inputs). Plan.ForEach then enumerates every lane
// -- one combination of coordinates of the iteration shape -- and hands the
// per-operand flat element offsets of that lane to a callback, optionally
// across parallel workers.
//
// One axis can be "squashed" (declared as size-1 regardless of the buffers'
// true extent along it): the plan then enumerates exactly one lane per
// combination of the remaining coordinates, and the callback is expected to
// traverse the squashed axis manually, using the operand's stride. This is how
// the reduction kernels drive their per-lane scans.
package iterator

import (
	"slices"
	"sync"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/tensorcompare/buffers"
	"github.com/gomlx/tensorcompare/types/shapes"
)

// Plan declares a static iteration shape and the operand buffers to iterate over.
//
// Build it with NewPlan, optionally SquashAxis, then AddOutput/AddInput calls,
// and finally run it with ForEach. A Plan is not safe for concurrent mutation,
// but ForEach itself may dispatch lanes across parallel workers.
type Plan struct {
	dims         []int
	squashedAxis int
	operands     []operand
}

type operand struct {
	strides  []int
	isOutput bool
}

// NewPlan creates an iteration plan over the given shape.
//
// The shape is only used for its dimensions: operands of any dtype can be
// registered, as long as their dimensions are compatible (see AddOutput).
func NewPlan(shape shapes.Shape) *Plan {
	return &Plan{
		dims:         slices.Clone(shape.Dimensions),
		squashedAxis: -1,
	}
}

// SquashAxis declares the given axis as size-1 for enumeration purposes: the plan
// will enumerate one lane per combination of the remaining coordinates, and the
// callback traverses the axis manually. Only one axis can be squashed.
//
// It returns the plan to allow chaining.
func (p *Plan) SquashAxis(axis int) *Plan {
	if axis < 0 || axis >= len(p.dims) {
		exceptions.Panicf("Plan.SquashAxis(%d) out-of-bounds for iteration shape of rank %d", axis, len(p.dims))
	}
	if len(p.operands) > 0 {
		exceptions.Panicf("Plan.SquashAxis(%d) must be called before registering operands", axis)
	}
	p.squashedAxis = axis
	p.dims[axis] = 1
	return p
}

// AddOutput registers an output buffer with the plan. Buffers are registered in a
// fixed order -- the offsets slice given to the ForEach callback follows it.
//
// The buffer must have the same rank as the iteration shape, and its dimensions
// must match on every non-squashed axis. On the squashed axis any extent is
// accepted: the coordinate there is pinned to 0.
//
// It returns the plan to allow chaining.
func (p *Plan) AddOutput(buf *buffers.Buffer) *Plan {
	return p.addOperand(buf, true)
}

// AddInput registers an input buffer with the plan. See AddOutput.
func (p *Plan) AddInput(buf *buffers.Buffer) *Plan {
	return p.addOperand(buf, false)
}

func (p *Plan) addOperand(buf *buffers.Buffer, isOutput bool) *Plan {
	shape := buf.Shape()
	if shape.Rank() != len(p.dims) {
		exceptions.Panicf("Plan: operand #%d has rank %d, iteration shape has rank %d",
			len(p.operands), shape.Rank(), len(p.dims))
	}
	for axis, dim := range p.dims {
		if axis == p.squashedAxis {
			// Squashed axis: the coordinate is pinned to 0, any extent works.
			continue
		}
		if shape.Dimensions[axis] != dim {
			exceptions.Panicf("Plan: operand #%d (shape=%s) has dimension %d on axis %d, iteration shape requires %d",
				len(p.operands), shape, shape.Dimensions[axis], axis, dim)
		}
	}
	p.operands = append(p.operands, operand{strides: shape.Strides(), isOutput: isOutput})
	return p
}

// NumLanes returns the number of lanes the plan enumerates: the product of the
// iteration dimensions, with the squashed axis counting as 1.
func (p *Plan) NumLanes() int {
	numLanes := 1
	for _, dim := range p.dims {
		numLanes *= dim
	}
	return numLanes
}

// ForEach invokes fn once per lane, in unspecified order, with the flat element
// offset of each registered operand at that lane's base coordinates.
//
// The offsets slice is reused across invocations on the same worker: fn must not
// retain it. Lanes are dispatched in chunks of grainSize lanes per work unit,
// potentially across parallel workers -- a grainSize of 1 signals that every
// lane is worth parallelizing on its own. Lanes never share output elements, so
// fn needs no synchronization of its own writes.
func (p *Plan) ForEach(fn func(offsets []int), grainSize int) {
	numLanes := p.NumLanes()
	if numLanes == 0 {
		return
	}
	if grainSize < 1 {
		grainSize = 1
	}
	numChunks := (numLanes + grainSize - 1) / grainSize

	if numChunks == 1 || !workers.IsEnabled() {
		it := p.laneIteratorAt(0)
		for range numLanes {
			fn(it.offsets)
			it.next()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(numChunks)
	for chunk := range numChunks {
		start := chunk * grainSize
		count := min(grainSize, numLanes-start)
		workers.WaitToStart(func() {
			defer wg.Done()
			it := p.laneIteratorAt(start)
			for range count {
				fn(it.offsets)
				it.next()
			}
		})
	}
	wg.Wait()
}

// laneIterator enumerates lanes in row-major order, updating the per-operand
// offsets incrementally, odometer style.
type laneIterator struct {
	plan       *Plan
	perAxisIdx []int
	offsets    []int
}

// laneIteratorAt creates an iterator positioned at the given linearized lane index.
func (p *Plan) laneIteratorAt(lane int) *laneIterator {
	rank := len(p.dims)
	it := &laneIterator{
		plan:       p,
		perAxisIdx: make([]int, rank),
		offsets:    make([]int, len(p.operands)),
	}
	for axis := rank - 1; axis >= 0; axis-- {
		idx := lane % p.dims[axis]
		lane /= p.dims[axis]
		it.perAxisIdx[axis] = idx
		if idx == 0 {
			continue
		}
		for opIdx := range p.operands {
			it.offsets[opIdx] += idx * p.operands[opIdx].strides[axis]
		}
	}
	return it
}

// next advances the iterator to the following lane.
func (it *laneIterator) next() {
	p := it.plan
	for axis := len(p.dims) - 1; axis >= 0; axis-- {
		dim := p.dims[axis]
		if dim == 1 {
			continue
		}
		it.perAxisIdx[axis]++
		if it.perAxisIdx[axis] < dim {
			for opIdx := range p.operands {
				it.offsets[opIdx] += p.operands[opIdx].strides[axis]
			}
			return
		}
		it.perAxisIdx[axis] = 0
		for opIdx := range p.operands {
			it.offsets[opIdx] -= p.operands[opIdx].strides[axis] * (dim - 1)
		}
	}
}
