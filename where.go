// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensorcompare

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/gomlx/tensorcompare/buffers"
	"github.com/gomlx/tensorcompare/types/shapes"
)

// Where implements the element-wise ternary select:
//
//	output[i] = condition[i] ? onTrue[i] : onFalse[i]
//
// The condition accepts two physical boolean encodings -- dtype Bool, or dtype
// Uint8 where any non-zero byte is true -- chosen once per call; both produce
// identical output. The condition and either branch can also be scalars, in
// which case they broadcast over the others.
//
// The output takes the dtype of onTrue/onFalse (which must match) and is resized
// to the common non-scalar shape; its previous shape and contents are discarded.
// The output buffer must not alias any of the inputs.
func Where(output, condition, onTrue, onFalse *buffers.Buffer) error {
	if condition.DType() != dtypes.Bool && condition.DType() != dtypes.Uint8 {
		return errors.Wrapf(ErrTypeMismatch, "Where: condition dtype must be %s or %s, got %s",
			dtypes.Bool, dtypes.Uint8, condition.DType())
	}
	if onTrue.DType() != onFalse.DType() {
		return errors.Wrapf(ErrTypeMismatch, "Where: onTrue (%s) and onFalse (%s) dtypes must match",
			onTrue.DType(), onFalse.DType())
	}
	if output.DType() != onTrue.DType() {
		return errors.Wrapf(ErrTypeMismatch, "Where: output dtype %s, expected the branches' dtype %s",
			output.DType(), onTrue.DType())
	}

	// The output shape is the first non-scalar shape among the inputs; all
	// non-scalar inputs must agree on it.
	outputShape := shapes.Make(output.DType())
	for _, input := range []*buffers.Buffer{condition, onTrue, onFalse} {
		if !input.Shape().IsScalar() {
			outputShape = shapes.Make(output.DType(), input.Shape().Dimensions...)
			break
		}
	}
	for _, input := range []*buffers.Buffer{condition, onTrue, onFalse} {
		if !input.Shape().IsScalar() && !input.Shape().EqualDimensions(outputShape) {
			return errors.Errorf("Where: input shapes must match or be scalar: condition=%s, onTrue=%s, onFalse=%s",
				condition.Shape(), onTrue.Shape(), onFalse.Shape())
		}
	}
	if err := output.Resize(outputShape); err != nil {
		return errors.WithMessage(err, "Where: resizing the output")
	}

	switch output.DType() {
	case dtypes.Bool:
		whereGeneric[bool](condition, onTrue, onFalse, output)
	case dtypes.Int8:
		whereGeneric[int8](condition, onTrue, onFalse, output)
	case dtypes.Int16:
		whereGeneric[int16](condition, onTrue, onFalse, output)
	case dtypes.Int32:
		whereGeneric[int32](condition, onTrue, onFalse, output)
	case dtypes.Int64:
		whereGeneric[int64](condition, onTrue, onFalse, output)
	case dtypes.Uint8:
		whereGeneric[uint8](condition, onTrue, onFalse, output)
	case dtypes.Uint16:
		whereGeneric[uint16](condition, onTrue, onFalse, output)
	case dtypes.Uint32:
		whereGeneric[uint32](condition, onTrue, onFalse, output)
	case dtypes.Uint64:
		whereGeneric[uint64](condition, onTrue, onFalse, output)
	case dtypes.Float16:
		whereGeneric[float16.Float16](condition, onTrue, onFalse, output)
	case dtypes.BFloat16:
		whereGeneric[bfloat16.BFloat16](condition, onTrue, onFalse, output)
	case dtypes.Float32:
		whereGeneric[float32](condition, onTrue, onFalse, output)
	case dtypes.Float64:
		whereGeneric[float64](condition, onTrue, onFalse, output)
	case dtypes.Complex64:
		whereGeneric[complex64](condition, onTrue, onFalse, output)
	case dtypes.Complex128:
		whereGeneric[complex128](condition, onTrue, onFalse, output)
	default:
		return errors.Wrapf(ErrTypeMismatch, "Where: unsupported dtype %s", output.DType())
	}
	return nil
}

func whereGeneric[T SupportedTypesConstraints](condition, onTrue, onFalse, output *buffers.Buffer) {
	if condition.Shape().IsScalar() {
		// Scalar condition: we take onTrue or onFalse as a whole (with potential broadcast).
		if conditionAt(condition, 0) {
			whereSetOutputWithValue[T](output, onTrue)
		} else {
			whereSetOutputWithValue[T](output, onFalse)
		}
		return
	}

	onTrueFlat := onTrue.Flat().([]T)
	onFalseFlat := onFalse.Flat().([]T)
	outputFlat := output.Flat().([]T)
	onTrueIsScalar := onTrue.Shape().IsScalar()
	onFalseIsScalar := onFalse.Shape().IsScalar()
	// The condition encoding is resolved once per call, not per element.
	if condition.DType() == dtypes.Uint8 {
		whereFlatBytes(condition.Flat().([]uint8), onTrueFlat, onFalseFlat, outputFlat, onTrueIsScalar, onFalseIsScalar)
	} else {
		whereFlatBools(condition.Flat().([]bool), onTrueFlat, onFalseFlat, outputFlat, onTrueIsScalar, onFalseIsScalar)
	}
}

func whereFlatBools[T SupportedTypesConstraints](
	conditionFlat []bool, onTrueFlat, onFalseFlat, outputFlat []T, onTrueIsScalar, onFalseIsScalar bool) {
	if len(conditionFlat) == 0 {
		// Empty arrays: nothing to select, and the branches may be empty too.
		return
	}
	onTrue := onTrueFlat[0]
	onFalse := onFalseFlat[0]
	for outputIdx, condition := range conditionFlat {
		if condition {
			if !onTrueIsScalar {
				onTrue = onTrueFlat[outputIdx]
			}
			outputFlat[outputIdx] = onTrue
		} else {
			if !onFalseIsScalar {
				onFalse = onFalseFlat[outputIdx]
			}
			outputFlat[outputIdx] = onFalse
		}
	}
}

func whereFlatBytes[T SupportedTypesConstraints](
	conditionFlat []uint8, onTrueFlat, onFalseFlat, outputFlat []T, onTrueIsScalar, onFalseIsScalar bool) {
	if len(conditionFlat) == 0 {
		return
	}
	onTrue := onTrueFlat[0]
	onFalse := onFalseFlat[0]
	for outputIdx, condition := range conditionFlat {
		if condition != 0 {
			if !onTrueIsScalar {
				onTrue = onTrueFlat[outputIdx]
			}
			outputFlat[outputIdx] = onTrue
		} else {
			if !onFalseIsScalar {
				onFalse = onFalseFlat[outputIdx]
			}
			outputFlat[outputIdx] = onFalse
		}
	}
}

// conditionAt reads one element of the condition, whatever its encoding.
func conditionAt(condition *buffers.Buffer, idx int) bool {
	switch condition.DType() {
	case dtypes.Uint8:
		return condition.Flat().([]uint8)[idx] != 0
	case dtypes.Bool:
		return condition.Flat().([]bool)[idx]
	}
	exceptions.Panicf("Where: condition has dtype %s, expected %s or %s", condition.DType(), dtypes.Bool, dtypes.Uint8)
	return false
}

// whereSetOutputWithValue fills the output with the value buffer: a straight copy
// when the dimensions match, or a broadcast fill when the value is a scalar.
func whereSetOutputWithValue[T SupportedTypesConstraints](output, value *buffers.Buffer) {
	if value.Shape().EqualDimensions(output.Shape()) {
		copy(output.Flat().([]T), value.Flat().([]T))
		return
	}
	// Value must then be a scalar:
	c := value.Flat().([]T)[0]
	outputFlat := output.Flat().([]T)
	for outputIdx := range outputFlat {
		outputFlat[outputIdx] = c
	}
}
