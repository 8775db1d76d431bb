// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensorcompare implements comparison-based kernels over multi-dimensional
// arrays: Min/Max reductions that return both the selected value and its position
// along a chosen axis, the element-wise ternary select Where, and the IsPosInf /
// IsNegInf predicates.
//
// All kernels operate on buffers.Buffer values (flat row-major storage plus a
// shapes.Shape) and support the numeric dtypes of github.com/gomlx/gopjrt/dtypes:
// signed and unsigned integers, float16/bfloat16/float32/float64 and
// complex64/complex128. Reductions are driven lane by lane through an
// iterator.Plan, which may dispatch lanes across parallel workers -- see
// iterator.SetMaxParallelism.
//
// Ordering follows IEEE-754 comparison semantics: along an axis that contains a
// NaN, the reduction selects the first NaN it stores and stops scanning that lane
// (NaN poisons the result). Complex numbers are ordered by magnitude, ties broken
// by first occurrence.
package tensorcompare

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidAxis is returned when the reduction axis is out of range or has
	// zero extent. It is always detected before any output mutation.
	ErrInvalidAxis = errors.New("invalid reduction axis")

	// ErrTypeMismatch is returned when an output buffer's dtype is incompatible
	// with the operand or with the required index type. It is always detected
	// before any output mutation.
	ErrTypeMismatch = errors.New("mismatched buffer dtypes")
)

// ReduceOpType selects among the comparison reductions supported.
type ReduceOpType int

const (
	// ReduceOpUndefined is an undefined value.
	ReduceOpUndefined ReduceOpType = iota

	// ReduceOpMax reduces by taking the maximum value.
	ReduceOpMax

	// ReduceOpMin reduces by taking the minimum value.
	ReduceOpMin
)

//go:generate go tool enumer -type ReduceOpType -trimprefix=ReduceOp -output=gen_reduceoptype_enumer.go compare.go
