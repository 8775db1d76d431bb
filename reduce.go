// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensorcompare

import (
	"math"
	"math/cmplx"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/gomlx/tensorcompare/buffers"
	"github.com/gomlx/tensorcompare/iterator"
	"github.com/gomlx/tensorcompare/types/shapes"
)

// Min computes, for each lane of the operand orthogonal to the given axis, the
// minimum element along the axis and the axis position (0-based) where it occurs.
//
// The values output takes the operand's dtype and the indices output must have
// dtype Int64. Both are resized to the operand's shape with the axis dimension
// set to 1 (if keepdim) or removed (otherwise); their previous shapes and
// contents are discarded.
//
// The axis must be in range and have extent >= 1. Ties select the first
// occurrence. If a NaN occurs along the axis, the result is the first NaN stored
// by the scan and its index -- see the package documentation.
func Min(values, indices, operand *buffers.Buffer, axis int, keepdim bool) error {
	return reduceCompare(ReduceOpMin, values, indices, operand, axis, keepdim)
}

// Max is the maximum counterpart of Min: it selects per lane the maximum element
// along the axis and the axis position where it occurs.
func Max(values, indices, operand *buffers.Buffer, axis int, keepdim bool) error {
	return reduceCompare(ReduceOpMax, values, indices, operand, axis, keepdim)
}

// ArgMin computes only the indices of the per-lane minima: the axis position of
// the minimum element of each lane. See Min for the indices dtype and shape rules.
func ArgMin(indices, operand *buffers.Buffer, axis int, keepdim bool) error {
	values := buffers.New(shapes.Make(operand.DType()))
	defer values.Finalize()
	return Min(values, indices, operand, axis, keepdim)
}

// ArgMax computes only the indices of the per-lane maxima. See ArgMin.
func ArgMax(indices, operand *buffers.Buffer, axis int, keepdim bool) error {
	values := buffers.New(shapes.Make(operand.DType()))
	defer values.Finalize()
	return Max(values, indices, operand, axis, keepdim)
}

// reduceCompare orchestrates one reduction call: argument checks, output shape
// bookkeeping, iteration plan and dtype dispatch to the scan kernels.
func reduceCompare(op ReduceOpType, values, indices, operand *buffers.Buffer, axis int, keepdim bool) error {
	if err := checkReduceArgs(op, values, indices, operand, axis); err != nil {
		return err
	}
	plan, err := prepareReduceOutputs(values, indices, operand, axis)
	if err != nil {
		return errors.WithMessagef(err, "%s(axis=%d)", op, axis)
	}

	axisDim := operand.Shape().Dimensions[axis]
	axisStride := operand.Shape().Stride(axis)
	isMin := op == ReduceOpMin
	switch operand.DType() {
	case dtypes.Int8:
		reduceCompareOrdered[int8](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Int16:
		reduceCompareOrdered[int16](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Int32:
		reduceCompareOrdered[int32](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Int64:
		reduceCompareOrdered[int64](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Uint8:
		reduceCompareOrdered[uint8](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Uint16:
		reduceCompareOrdered[uint16](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Uint32:
		reduceCompareOrdered[uint32](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Uint64:
		reduceCompareOrdered[uint64](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Float32:
		reduceCompareOrdered[float32](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Float64:
		reduceCompareOrdered[float64](plan, values, indices, operand, axisDim, axisStride, isMin)
	case dtypes.Float16:
		reduceCompareByKey(plan, values, indices, operand, axisDim, axisStride, isMin, float16Key, float16IsNaN)
	case dtypes.BFloat16:
		reduceCompareByKey(plan, values, indices, operand, axisDim, axisStride, isMin, bfloat16Key, bfloat16IsNaN)
	case dtypes.Complex64:
		reduceCompareByKey(plan, values, indices, operand, axisDim, axisStride, isMin, complexKey[complex64], complexIsNaN[complex64])
	case dtypes.Complex128:
		reduceCompareByKey(plan, values, indices, operand, axisDim, axisStride, isMin, complexKey[complex128], complexIsNaN[complex128])
	default:
		// checkReduceArgs only lets supported dtypes through.
		exceptions.Panicf("%s: unsupported dtype %s", op, operand.DType())
	}

	if !keepdim {
		values.Squeeze(axis)
		indices.Squeeze(axis)
	}
	return nil
}

// checkReduceArgs validates dtypes and axis before any output is mutated.
func checkReduceArgs(op ReduceOpType, values, indices, operand *buffers.Buffer, axis int) error {
	if !supportedReduceDType(operand.DType()) {
		return errors.Wrapf(ErrTypeMismatch, "%s: operand dtype %s is not supported", op, operand.DType())
	}
	if values.DType() != operand.DType() {
		return errors.Wrapf(ErrTypeMismatch, "%s: values output has dtype %s, operand has dtype %s",
			op, values.DType(), operand.DType())
	}
	if indices.DType() != dtypes.Int64 {
		return errors.Wrapf(ErrTypeMismatch, "%s: indices output must have dtype %s, got %s",
			op, dtypes.Int64, indices.DType())
	}
	if axis < 0 || axis >= operand.Rank() {
		return errors.Wrapf(ErrInvalidAxis, "%s: axis %d out-of-range for operand shape %s",
			op, axis, operand.Shape())
	}
	if operand.Shape().Dimensions[axis] == 0 {
		return errors.Wrapf(ErrInvalidAxis, "%s: axis %d of operand shape %s has zero extent, nothing to reduce",
			op, axis, operand.Shape())
	}
	return nil
}

func supportedReduceDType(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
		dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
		dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64,
		dtypes.Complex64, dtypes.Complex128:
		return true
	}
	return false
}

// prepareReduceOutputs resizes both outputs to the operand's shape with the axis
// dimension set to 1, and builds the iteration plan with the axis squashed.
//
// Buffer.Resize reallocates to the full target shape whatever the buffer's
// previous rank, so outputs reused from an earlier call -- with or without the
// reduced axis -- need no re-shaping ahead of it.
func prepareReduceOutputs(values, indices, operand *buffers.Buffer, axis int) (*iterator.Plan, error) {
	targetShape := operand.Shape().Clone()
	targetShape.Dimensions[axis] = 1
	if err := values.Resize(targetShape); err != nil {
		return nil, errors.WithMessage(err, "resizing the values output")
	}
	if err := indices.Resize(shapes.Make(dtypes.Int64, targetShape.Dimensions...)); err != nil {
		return nil, errors.WithMessage(err, "resizing the indices output")
	}
	plan := iterator.NewPlan(operand.Shape()).
		SquashAxis(axis).
		AddOutput(values).
		AddOutput(indices).
		AddInput(operand)
	return plan, nil
}

// reduceCompareOrdered runs the per-lane scans for element types ordered by their
// native comparison operators (the ordering key is the identity). The NaN checks
// compile away for the integer instantiations.
func reduceCompareOrdered[T PODNumericConstraints](
	plan *iterator.Plan, values, indices, operand *buffers.Buffer, axisDim, axisStride int, isMin bool) {
	valuesFlat := values.Flat().([]T)
	indicesFlat := indices.Flat().([]int64)
	operandFlat := operand.Flat().([]T)
	if isMin {
		plan.ForEach(func(offsets []int) {
			best, bestIdx := scanMin(operandFlat, offsets[2], axisDim, axisStride)
			valuesFlat[offsets[0]] = best
			indicesFlat[offsets[1]] = bestIdx
		}, 1)
	} else {
		plan.ForEach(func(offsets []int) {
			best, bestIdx := scanMax(operandFlat, offsets[2], axisDim, axisStride)
			valuesFlat[offsets[0]] = best
			indicesFlat[offsets[1]] = bestIdx
		}, 1)
	}
}

// scanMin scans one lane: dim elements starting at base, stride elements apart.
//
// The update condition is the IEEE negation !(value >= best): any comparison with
// a NaN operand is false, so the first NaN always replaces the running best, and
// the scan stops right after storing a NaN.
func scanMin[T PODNumericConstraints](operand []T, base, dim, stride int) (best T, bestIdx int64) {
	best = operand[base]
	for i := 0; i < dim; i++ {
		value := operand[base+i*stride]
		if !(value >= best) {
			best = value
			bestIdx = int64(i)
			if value != value {
				break
			}
		}
	}
	return
}

// scanMax is the maximum counterpart of scanMin.
func scanMax[T PODNumericConstraints](operand []T, base, dim, stride int) (best T, bestIdx int64) {
	best = operand[base]
	for i := 0; i < dim; i++ {
		value := operand[base+i*stride]
		if !(value <= best) {
			best = value
			bestIdx = int64(i)
			if value != value {
				break
			}
		}
	}
	return
}

// reduceCompareByKey runs the per-lane scans for element types compared through a
// real-valued ordering key: magnitude for complex numbers, the widened value for
// float16/bfloat16. isNaN reports whether a stored element poisons the lane.
func reduceCompareByKey[T SupportedTypesConstraints](
	plan *iterator.Plan, values, indices, operand *buffers.Buffer, axisDim, axisStride int, isMin bool,
	key func(T) float64, isNaN func(T) bool) {
	valuesFlat := values.Flat().([]T)
	indicesFlat := indices.Flat().([]int64)
	operandFlat := operand.Flat().([]T)
	if isMin {
		plan.ForEach(func(offsets []int) {
			best, bestIdx := scanMinByKey(operandFlat, offsets[2], axisDim, axisStride, key, isNaN)
			valuesFlat[offsets[0]] = best
			indicesFlat[offsets[1]] = bestIdx
		}, 1)
	} else {
		plan.ForEach(func(offsets []int) {
			best, bestIdx := scanMaxByKey(operandFlat, offsets[2], axisDim, axisStride, key, isNaN)
			valuesFlat[offsets[0]] = best
			indicesFlat[offsets[1]] = bestIdx
		}, 1)
	}
}

// scanMinByKey is scanMin with an explicit ordering key.
//
// Equal keys never update (strict inequality required), so ties keep the first
// occurrence -- for complex numbers this tie-break is part of the contract.
func scanMinByKey[T SupportedTypesConstraints](
	operand []T, base, dim, stride int, key func(T) float64, isNaN func(T) bool) (best T, bestIdx int64) {
	best = operand[base]
	bestKey := key(best)
	for i := 0; i < dim; i++ {
		value := operand[base+i*stride]
		valueKey := key(value)
		if !(valueKey >= bestKey) {
			best = value
			bestKey = valueKey
			bestIdx = int64(i)
			if isNaN(value) {
				break
			}
		}
	}
	return
}

// scanMaxByKey is the maximum counterpart of scanMinByKey.
func scanMaxByKey[T SupportedTypesConstraints](
	operand []T, base, dim, stride int, key func(T) float64, isNaN func(T) bool) (best T, bestIdx int64) {
	best = operand[base]
	bestKey := key(best)
	for i := 0; i < dim; i++ {
		value := operand[base+i*stride]
		valueKey := key(value)
		if !(valueKey <= bestKey) {
			best = value
			bestKey = valueKey
			bestIdx = int64(i)
			if isNaN(value) {
				break
			}
		}
	}
	return
}

// Ordering keys and NaN predicates for the by-key domains.

func complexKey[T ComplexConstraints](v T) float64 { return cmplx.Abs(complex128(v)) }

// complexIsNaN matches the reduction's poisoning rule: a complex element poisons
// the lane when either component is NaN. Notice this differs from cmplx.IsNaN,
// which excludes values that also have an infinite component.
func complexIsNaN[T ComplexConstraints](v T) bool {
	c := complex128(v)
	return math.IsNaN(real(c)) || math.IsNaN(imag(c))
}

func float16Key(v float16.Float16) float64 { return float64(v.Float32()) }

func float16IsNaN(v float16.Float16) bool { return v.IsNaN() }

func bfloat16Key(v bfloat16.BFloat16) float64 { return float64(v.Float32()) }

func bfloat16IsNaN(v bfloat16.BFloat16) bool {
	f := v.Float32()
	return f != f
}
