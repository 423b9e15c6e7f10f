package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
// Float tensors go through gonum BLAS; integer tensors use the naive loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	// Validate dimensions
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	// Create result tensor
	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	// Dispatch to type-specific implementation
	switch a.DType() {
	case tensor.Float32:
		matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	case tensor.Float64:
		matmulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	case tensor.Int32:
		matmulInt32(result.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n)
	case tensor.Int64:
		matmulInt64(result.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulFloat32 computes C = A @ B via single-precision GEMM.
func matmulFloat32(c, a, b []float32, m, k, n int) {
	ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	gb := blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 0, gc)
}

func matmulFloat64(c, a, b []float64, m, k, n int) {
	ga := blas64.General{Rows: m, Cols: k, Stride: k, Data: a}
	gb := blas64.General{Rows: k, Cols: n, Stride: n, Data: b}
	gc := blas64.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 0, gc)
}

func matmulInt32(c, a, b []int32, m, k, n int) {
	for i := range c {
		c[i] = 0
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := int32(0)
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += a[i*k+kIdx] * b[kIdx*n+j]
			}
			c[i*n+j] = sum
		}
	}
}

func matmulInt64(c, a, b []int64, m, k, n int) {
	for i := range c {
		c[i] = 0
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := int64(0)
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += a[i*k+kIdx] * b[kIdx*n+j]
			}
			c[i*n+j] = sum
		}
	}
}
