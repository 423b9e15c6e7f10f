package cpu

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// Where performs conditional element selection.
// Similar to torch.where(condition, x, y).
//
// Returns a tensor where each element is selected from x if condition is true,
// otherwise from y. All tensors must have compatible shapes (broadcasting supported).
//
// Example:
//
//	condition: [3, 4] (bool tensor)
//	x: [3, 4] (float32)
//	y: [3, 4] (float32)
//	output: [3, 4] where output[i,j] = condition[i,j] ? x[i,j] : y[i,j]
func (cpu *CPUBackend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	// Validate condition dtype (must be bool or uint8)
	if condition.DType() != tensor.Bool && condition.DType() != tensor.Uint8 {
		panic(fmt.Sprintf("where: condition must be bool or uint8, got %s", condition.DType()))
	}

	// Validate x and y have same dtype
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("where: x and y must have same dtype, got %s and %s",
			x.DType(), y.DType()))
	}

	// Compute output shape (broadcast all three tensors)
	outShape1, _, err := tensor.BroadcastShapes(condition.Shape(), x.Shape())
	if err != nil {
		panic(fmt.Sprintf("where: failed to broadcast condition and x: %v", err))
	}
	outShape, _, err := tensor.BroadcastShapes(outShape1, y.Shape())
	if err != nil {
		panic(fmt.Sprintf("where: failed to broadcast with y: %v", err))
	}

	// Create output tensor
	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("where: failed to create result tensor: %v", err))
	}

	// Perform conditional selection
	switch x.DType() {
	case tensor.Float32:
		whereFloat32(result.AsFloat32(), condition, x.AsFloat32(), y.AsFloat32(),
			outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Float64:
		whereFloat64(result.AsFloat64(), condition, x.AsFloat64(), y.AsFloat64(),
			outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Int32:
		whereInt32(result.AsInt32(), condition, x.AsInt32(), y.AsInt32(),
			outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Int64:
		whereInt64(result.AsInt64(), condition, x.AsInt64(), y.AsInt64(),
			outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Uint8:
		whereUInt8(result.AsUint8(), condition, x.AsUint8(), y.AsUint8(),
			outShape, condition.Shape(), x.Shape(), y.Shape())
	default:
		panic(fmt.Sprintf("where: unsupported dtype %s", x.DType()))
	}

	return result
}

// whereFloat32 performs where operation for float32 data.
func whereFloat32(dst []float32, condition *tensor.RawTensor, xData, yData []float32,
	outShape, condShape, xShape, yShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	condStrides := condShape.ComputeStrides()
	xStrides := xShape.ComputeStrides()
	yStrides := yShape.ComputeStrides()

	// Get condition data (handle both bool and uint8)
	condData := getConditionAsUint8(condition)

	for i := range dst {
		// Convert flat index to multi-dimensional index
		multiIdx := make([]int, len(outShape))
		remaining := i
		for d := 0; d < len(outShape); d++ {
			multiIdx[d] = remaining / outStrides[d]
			remaining %= outStrides[d]
		}

		// Compute indices with broadcasting
		condIdx := broadcastIndex(multiIdx, condShape, condStrides)
		xIdx := broadcastIndex(multiIdx, xShape, xStrides)
		yIdx := broadcastIndex(multiIdx, yShape, yStrides)

		// Select based on condition
		if condData[condIdx] != 0 {
			dst[i] = xData[xIdx]
		} else {
			dst[i] = yData[yIdx]
		}
	}
}

// whereFloat64 performs where operation for float64 data.
func whereFloat64(dst []float64, condition *tensor.RawTensor, xData, yData []float64,
	outShape, condShape, xShape, yShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	condStrides := condShape.ComputeStrides()
	xStrides := xShape.ComputeStrides()
	yStrides := yShape.ComputeStrides()

	condData := getConditionAsUint8(condition)

	for i := range dst {
		multiIdx := make([]int, len(outShape))
		remaining := i
		for d := 0; d < len(outShape); d++ {
			multiIdx[d] = remaining / outStrides[d]
			remaining %= outStrides[d]
		}

		condIdx := broadcastIndex(multiIdx, condShape, condStrides)
		xIdx := broadcastIndex(multiIdx, xShape, xStrides)
		yIdx := broadcastIndex(multiIdx, yShape, yStrides)

		if condData[condIdx] != 0 {
			dst[i] = xData[xIdx]
		} else {
			dst[i] = yData[yIdx]
		}
	}
}

// whereInt32 performs where operation for int32 data.
func whereInt32(dst []int32, condition *tensor.RawTensor, xData, yData []int32,
	outShape, condShape, xShape, yShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	condStrides := condShape.ComputeStrides()
	xStrides := xShape.ComputeStrides()
	yStrides := yShape.ComputeStrides()

	condData := getConditionAsUint8(condition)

	for i := range dst {
		multiIdx := make([]int, len(outShape))
		remaining := i
		for d := 0; d < len(outShape); d++ {
			multiIdx[d] = remaining / outStrides[d]
			remaining %= outStrides[d]
		}

		condIdx := broadcastIndex(multiIdx, condShape, condStrides)
		xIdx := broadcastIndex(multiIdx, xShape, xStrides)
		yIdx := broadcastIndex(multiIdx, yShape, yStrides)

		if condData[condIdx] != 0 {
			dst[i] = xData[xIdx]
		} else {
			dst[i] = yData[yIdx]
		}
	}
}

// whereInt64 performs where operation for int64 data.
func whereInt64(dst []int64, condition *tensor.RawTensor, xData, yData []int64,
	outShape, condShape, xShape, yShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	condStrides := condShape.ComputeStrides()
	xStrides := xShape.ComputeStrides()
	yStrides := yShape.ComputeStrides()

	condData := getConditionAsUint8(condition)

	for i := range dst {
		multiIdx := make([]int, len(outShape))
		remaining := i
		for d := 0; d < len(outShape); d++ {
			multiIdx[d] = remaining / outStrides[d]
			remaining %= outStrides[d]
		}

		condIdx := broadcastIndex(multiIdx, condShape, condStrides)
		xIdx := broadcastIndex(multiIdx, xShape, xStrides)
		yIdx := broadcastIndex(multiIdx, yShape, yStrides)

		if condData[condIdx] != 0 {
			dst[i] = xData[xIdx]
		} else {
			dst[i] = yData[yIdx]
		}
	}
}

// whereUInt8 performs where operation for uint8 data.
func whereUInt8(dst []uint8, condition *tensor.RawTensor, xData, yData []uint8,
	outShape, condShape, xShape, yShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	condStrides := condShape.ComputeStrides()
	xStrides := xShape.ComputeStrides()
	yStrides := yShape.ComputeStrides()

	condData := getConditionAsUint8(condition)

	for i := range dst {
		multiIdx := make([]int, len(outShape))
		remaining := i
		for d := 0; d < len(outShape); d++ {
			multiIdx[d] = remaining / outStrides[d]
			remaining %= outStrides[d]
		}

		condIdx := broadcastIndex(multiIdx, condShape, condStrides)
		xIdx := broadcastIndex(multiIdx, xShape, xStrides)
		yIdx := broadcastIndex(multiIdx, yShape, yStrides)

		if condData[condIdx] != 0 {
			dst[i] = xData[xIdx]
		} else {
			dst[i] = yData[yIdx]
		}
	}
}

// broadcastIndex computes the flat index for a broadcasted tensor.
func broadcastIndex(multiIdx []int, shape tensor.Shape, strides []int) int {
	idx := 0
	offset := len(multiIdx) - len(shape)
	for i, size := range shape {
		dimIdx := multiIdx[offset+i]
		// Broadcast dimension (size 1) always uses index 0
		if size == 1 {
			dimIdx = 0
		}
		idx += dimIdx * strides[i]
	}
	return idx
}

// getConditionAsUint8 converts condition tensor to uint8 data (bool -> uint8).
func getConditionAsUint8(condition *tensor.RawTensor) []uint8 {
	if condition.DType() == tensor.Bool {
		boolData := condition.AsBool()
		uint8Data := make([]uint8, len(boolData))
		for i, b := range boolData {
			if b {
				uint8Data[i] = 1
			}
		}
		return uint8Data
	}
	return condition.AsUint8()
}
