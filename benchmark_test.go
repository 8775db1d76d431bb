package tensorcompare

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
)

// go test -bench=. -run=Bench github.com/gomlx/tensorcompare

func benchmarkMin(b *testing.B, rows, cols, axis int) {
	rng := rand.New(rand.NewPCG(42, 0))
	flat := make([]float32, rows*cols)
	for ii := range flat {
		flat[ii] = rng.Float32()
	}
	operand := newBuffer(flat, rows, cols)
	values, indices := newOutputs(dtypes.Float32)
	b.ResetTimer()
	for range b.N {
		must.M(Min(values, indices, operand, axis, false))
	}
}

func BenchmarkMin(b *testing.B) {
	for _, axis := range []int{0, 1} {
		for _, size := range []int{16, 256, 1024} {
			b.Run(fmt.Sprintf("axis=%d/size=%dx%d", axis, size, size), func(b *testing.B) {
				benchmarkMin(b, size, size, axis)
			})
		}
	}
}

func BenchmarkWhere(b *testing.B) {
	const size = 256 * 1024
	rng := rand.New(rand.NewPCG(42, 0))
	condFlat := make([]bool, size)
	onTrueFlat := make([]float32, size)
	onFalseFlat := make([]float32, size)
	for ii := range condFlat {
		condFlat[ii] = rng.IntN(2) == 1
		onTrueFlat[ii] = rng.Float32()
		onFalseFlat[ii] = -rng.Float32()
	}
	cond := newBuffer(condFlat, size)
	onTrue := newBuffer(onTrueFlat, size)
	onFalse := newBuffer(onFalseFlat, size)
	output, _ := newOutputs(dtypes.Float32)
	b.ResetTimer()
	for range b.N {
		must.M(Where(output, cond, onTrue, onFalse))
	}
}
