package tensorcompare

import (
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// SupportedTypesConstraints enumerates the element types supported by the kernels.
type SupportedTypesConstraints interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | complex64 | complex128 |
		float16.Float16 | bfloat16.BFloat16
}

// PODNumericConstraints are used for generics over the Golang pod (plain-old-data)
// numeric types, the ones ordered by their native comparison operators.
// Float16 and BFloat16 are not included because they are specialized types, not
// natively supported by Go; complex numbers are not included because they have no
// total order.
type PODNumericConstraints interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// PODFloatConstraints are used for generics over the Golang pod (plain-old-data) float types.
type PODFloatConstraints interface {
	float32 | float64
}

// ComplexConstraints are used for generics over the complex types.
type ComplexConstraints interface {
	complex64 | complex128
}
