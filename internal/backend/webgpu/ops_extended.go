//go:build windows

package webgpu

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// Scalar operations.

// MulScalar multiplies tensor elements by a scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat32(scalar)
	result, err := b.runScalarOp(x, s, "scalarMul", scalarMulShader)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar to tensor elements on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat32(scalar)
	result, err := b.runScalarOp(x, s, "scalarAdd", scalarAddShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// SubScalar subtracts a scalar from tensor elements on GPU.
func (b *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat32(scalar)
	result, err := b.runScalarOp(x, -s, "scalarAdd", scalarAddShader) // x - s = x + (-s)
	if err != nil {
		panic("webgpu: SubScalar: " + err.Error())
	}
	return result
}

// DivScalar divides tensor elements by a scalar on GPU.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat32(scalar)
	if s == 0 {
		panic("webgpu: DivScalar: division by zero")
	}
	result, err := b.runScalarOp(x, 1.0/s, "scalarMul", scalarMulShader) // x / s = x * (1/s)
	if err != nil {
		panic("webgpu: DivScalar: " + err.Error())
	}
	return result
}

// toFloat32 converts any numeric type to float32.
func toFloat32(v any) float32 {
	switch val := v.(type) {
	case float32:
		return val
	case float64:
		return float32(val)
	case int:
		return float32(val)
	case int32:
		return float32(val)
	case int64:
		return float32(val)
	default:
		panic("webgpu: unsupported scalar type")
	}
}

// Math operations.

// Exp performs element-wise exponential on GPU.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "exp", expShader)
	if err != nil {
		panic("webgpu: Exp: " + err.Error())
	}
	return result
}

// Log performs element-wise natural logarithm on GPU.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "log", logShader)
	if err != nil {
		panic("webgpu: Log: " + err.Error())
	}
	return result
}

// Sqrt performs element-wise square root on GPU.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sqrt", sqrtShader)
	if err != nil {
		panic("webgpu: Sqrt: " + err.Error())
	}
	return result
}

// Rsqrt performs element-wise reciprocal square root on GPU.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "rsqrt", rsqrtShader)
	if err != nil {
		panic("webgpu: Rsqrt: " + err.Error())
	}
	return result
}

// Abs performs element-wise absolute value on GPU.
func (b *Backend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "abs", absShader)
	if err != nil {
		panic("webgpu: Abs: " + err.Error())
	}
	return result
}

// Cos performs element-wise cosine on GPU.
func (b *Backend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "cos", cosShader)
	if err != nil {
		panic("webgpu: Cos: " + err.Error())
	}
	return result
}

// Sin performs element-wise sine on GPU.
func (b *Backend) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sin", sinShader)
	if err != nil {
		panic("webgpu: Sin: " + err.Error())
	}
	return result
}

// Comparison operations.

// Greater performs element-wise greater-than comparison on GPU.
// Returns a float32 tensor (0.0 for false, 1.0 for true).
func (b *Backend) Greater(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "greater", greaterShader)
	if err != nil {
		panic("webgpu: Greater: " + err.Error())
	}
	return result
}

// Lower performs element-wise less-than comparison on GPU.
// Returns a float32 tensor (0.0 for false, 1.0 for true).
func (b *Backend) Lower(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "lower", lowerShader)
	if err != nil {
		panic("webgpu: Lower: " + err.Error())
	}
	return result
}

// GreaterEqual performs element-wise greater-or-equal comparison on GPU.
// Returns a float32 tensor (0.0 for false, 1.0 for true).
func (b *Backend) GreaterEqual(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "greaterEqual", greaterEqualShader)
	if err != nil {
		panic("webgpu: GreaterEqual: " + err.Error())
	}
	return result
}

// LowerEqual performs element-wise less-or-equal comparison on GPU.
// Returns a float32 tensor (0.0 for false, 1.0 for true).
func (b *Backend) LowerEqual(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "lowerEqual", lowerEqualShader)
	if err != nil {
		panic("webgpu: LowerEqual: " + err.Error())
	}
	return result
}

// Equal performs element-wise equality comparison on GPU.
// Returns a float32 tensor (0.0 for false, 1.0 for true).
func (b *Backend) Equal(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "equal", equalShader)
	if err != nil {
		panic("webgpu: Equal: " + err.Error())
	}
	return result
}

// NotEqual performs element-wise inequality comparison on GPU.
// Returns a float32 tensor (0.0 for false, 1.0 for true).
func (b *Backend) NotEqual(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "notEqual", notEqualShader)
	if err != nil {
		panic("webgpu: NotEqual: " + err.Error())
	}
	return result
}

// Boolean operations.

// Or performs element-wise logical OR on GPU.
// Non-float32 inputs are cast first, since boolean masks can arrive in
// either dtype.
func (b *Backend) Or(a, other *tensor.RawTensor) *tensor.RawTensor {
	aFloat := a
	otherFloat := other
	if a.DType() != tensor.Float32 {
		aFloat = b.Cast(a, tensor.Float32)
	}
	if other.DType() != tensor.Float32 {
		otherFloat = b.Cast(other, tensor.Float32)
	}

	result, err := b.runBinaryOp(aFloat, otherFloat, "or", orShader)
	if err != nil {
		panic("webgpu: Or: " + err.Error())
	}
	return result
}

// And performs element-wise logical AND on GPU.
// Non-float32 inputs are cast first, since boolean masks can arrive in
// either dtype.
func (b *Backend) And(a, other *tensor.RawTensor) *tensor.RawTensor {
	aFloat := a
	otherFloat := other
	if a.DType() != tensor.Float32 {
		aFloat = b.Cast(a, tensor.Float32)
	}
	if other.DType() != tensor.Float32 {
		otherFloat = b.Cast(other, tensor.Float32)
	}

	result, err := b.runBinaryOp(aFloat, otherFloat, "and", andShader)
	if err != nil {
		panic("webgpu: And: " + err.Error())
	}
	return result
}

// Not performs element-wise logical NOT on GPU.
func (b *Backend) Not(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "not", notShader)
	if err != nil {
		panic("webgpu: Not: " + err.Error())
	}
	return result
}

// Reductions need a multi-pass dispatch that the compute core does not
// carry yet.

// Sum computes the sum of all elements.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Sum not implemented")
}

// Mean computes the mean of all elements.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Mean not implemented")
}

// SumDim computes the sum along a dimension.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	panic("webgpu: SumDim not implemented")
}

// MeanDim computes the mean along a dimension.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	panic("webgpu: MeanDim not implemented")
}

// Argmax returns indices of maximum values along a dimension.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	panic("webgpu: Argmax not implemented")
}

// Manipulation operations.

// Cat concatenates tensors along a dimension.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	panic("webgpu: Cat not implemented")
}

// Chunk splits a tensor into n equal parts along a dimension.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	panic("webgpu: Chunk not implemented")
}

// Unsqueeze adds a dimension of size 1 at the given position.
// This is a metadata operation, no shader is involved.
func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic("webgpu: Unsqueeze: dimension out of range")
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return b.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at the given position.
// This is a metadata operation, no shader is involved.
func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic("webgpu: Squeeze: dimension out of range")
	}
	if shape[dim] != 1 {
		panic("webgpu: Squeeze: dimension is not size 1")
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return b.Reshape(x, newShape)
}

// Where performs conditional element selection.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Where not implemented")
}

// Shape operations.

// Expand broadcasts a tensor to a new shape. Broadcasting only rearranges
// host memory, so it runs on CPU.
func (b *Backend) Expand(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	shape := x.Shape()

	if len(newShape) < len(shape) {
		panic("webgpu: Expand: new shape must have at least as many dimensions")
	}

	result, err := tensor.NewRaw(newShape, x.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: Expand: " + err.Error())
	}

	switch x.DType() {
	case tensor.Float32:
		expandData(x.AsFloat32(), result.AsFloat32(), shape, newShape)
	case tensor.Int32:
		expandData(x.AsInt32(), result.AsInt32(), shape, newShape)
	default:
		panic("webgpu: Expand: unsupported dtype " + x.DType().String())
	}

	return result
}

// expandData broadcasts data from source shape to target shape.
func expandData[T any](src, dst []T, srcShape, dstShape tensor.Shape) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()

	// Pad source shape to match destination dimensions
	dimDiff := len(dstShape) - len(srcShape)
	paddedSrcShape := make(tensor.Shape, len(dstShape))
	paddedSrcStrides := make([]int, len(dstShape))
	for i := 0; i < dimDiff; i++ {
		paddedSrcShape[i] = 1
		paddedSrcStrides[i] = 0
	}
	for i := 0; i < len(srcShape); i++ {
		paddedSrcShape[dimDiff+i] = srcShape[i]
		paddedSrcStrides[dimDiff+i] = srcStrides[i]
	}

	numElements := dstShape.NumElements()
	for i := 0; i < numElements; i++ {
		temp := i
		srcIdx := 0
		for d := 0; d < len(dstShape); d++ {
			coord := temp / dstStrides[d]
			temp %= dstStrides[d]

			// Map to source index (with broadcasting)
			srcCoord := coord
			if paddedSrcShape[d] == 1 {
				srcCoord = 0
			}
			srcIdx += srcCoord * paddedSrcStrides[d]
		}
		dst[i] = src[srcIdx]
	}
}

// Type conversion.

// Cast converts a tensor to a different data type on CPU.
// Supports float32 and int32 as target types.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		result, err := tensor.NewRaw(x.Shape(), dtype, tensor.WebGPU)
		if err != nil {
			panic("webgpu: Cast: " + err.Error())
		}
		copy(result.Data(), x.Data())
		return result
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, tensor.WebGPU)
	if err != nil {
		panic("webgpu: Cast: " + err.Error())
	}

	switch dtype {
	case tensor.Float32:
		castToFloat32(x, result)
	case tensor.Int32:
		castToInt32(x, result)
	default:
		panic("webgpu: Cast: unsupported target type " + dtype.String())
	}

	return result
}

// castToFloat32 converts any supported dtype to float32.
func castToFloat32(x, result *tensor.RawTensor) {
	dst := result.AsFloat32()
	switch x.DType() {
	case tensor.Float64:
		src := x.AsFloat64()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Int32:
		src := x.AsInt32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Int64:
		src := x.AsInt64()
		for i, v := range src {
			dst[i] = float32(v)
		}
	default:
		panic("webgpu: Cast: unsupported source type for float32: " + x.DType().String())
	}
}

// castToInt32 converts any supported dtype to int32.
func castToInt32(x, result *tensor.RawTensor) {
	dst := result.AsInt32()
	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Float64:
		src := x.AsFloat64()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		src := x.AsInt64()
		for i, v := range src {
			dst[i] = int32(v) //nolint:gosec // tensor values stay well inside int32 range
		}
	default:
		panic("webgpu: Cast: unsupported source type for int32: " + x.DType().String())
	}
}
