// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensorcompare

import (
	"math"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/gomlx/tensorcompare/buffers"
	"github.com/gomlx/tensorcompare/types/shapes"
)

// IsPosInf computes element-wise whether the operand is exactly +Inf.
//
// NaN, finite values and -Inf all map to false. The operand dtype must be one of
// the float types (Float16, BFloat16, Float32, Float64) and the output dtype must
// be Bool; the output is resized to the operand's shape.
func IsPosInf(output, operand *buffers.Buffer) error {
	return isInf("IsPosInf", output, operand, 1)
}

// IsNegInf is the -Inf counterpart of IsPosInf.
func IsNegInf(output, operand *buffers.Buffer) error {
	return isInf("IsNegInf", output, operand, -1)
}

func isInf(name string, output, operand *buffers.Buffer, sign int) error {
	if output.DType() != dtypes.Bool {
		return errors.Wrapf(ErrTypeMismatch, "%s: output dtype must be %s, got %s", name, dtypes.Bool, output.DType())
	}
	switch operand.DType() {
	case dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64:
	default:
		return errors.Wrapf(ErrTypeMismatch, "%s: operand dtype %s is not a float type", name, operand.DType())
	}
	if err := output.Resize(shapes.Make(dtypes.Bool, operand.Shape().Dimensions...)); err != nil {
		return errors.WithMessagef(err, "%s: resizing the output", name)
	}

	outputFlat := output.Flat().([]bool)
	switch operand.DType() {
	case dtypes.Float16:
		isInfFlat(outputFlat, operand.Flat().([]float16.Float16), float16.Inf(sign))
	case dtypes.BFloat16:
		isInfFlat(outputFlat, operand.Flat().([]bfloat16.BFloat16), bfloat16.FromFloat32(float32(math.Inf(sign))))
	case dtypes.Float32:
		isInfFlat(outputFlat, operand.Flat().([]float32), float32(math.Inf(sign)))
	case dtypes.Float64:
		isInfFlat(outputFlat, operand.Flat().([]float64), math.Inf(sign))
	}
	return nil
}

// isInfFlat marks the elements exactly equal to inf.
//
// The comparison is exact: comparing bit representations is enough for the
// float16/bfloat16 types because the infinities have a single encoding.
func isInfFlat[T comparable](outputFlat []bool, operandFlat []T, inf T) {
	for idx, value := range operandFlat {
		outputFlat[idx] = value == inf
	}
}
