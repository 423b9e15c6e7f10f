package cpu

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// Upsample2D performs nearest-neighbor upsampling by an integer scale factor.
//
// Every input pixel is replicated into a scale x scale block, which is the
// standard upscale step in decoder stages (upsample then convolve, avoiding
// the checkerboard artifacts of transposed convolutions).
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, height*scale, width*scale]
//
// Example (scale=2):
//
//	Input: [[1,2],    Output: [[1,1,2,2],
//	        [3,4]]             [1,1,2,2],
//	                           [3,3,4,4],
//	                           [3,3,4,4]]
func (cpu *CPUBackend) Upsample2D(input *tensor.RawTensor, scale int) *tensor.RawTensor {
	// Validate input
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("upsample2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if scale < 1 {
		panic(fmt.Sprintf("upsample2d: invalid scale %d", scale))
	}

	// Extract dimensions
	N := inputShape[0] // batch size
	C := inputShape[1] // channels
	H := inputShape[2] // height
	W := inputShape[3] // width

	HOut := H * scale
	WOut := W * scale

	// Create output tensor
	outputShape := tensor.Shape{N, C, HOut, WOut}
	output, err := tensor.NewRaw(outputShape, input.DType(), cpu.Device())
	if err != nil {
		panic(fmt.Sprintf("upsample2d: failed to create output: %v", err))
	}

	// Dispatch to type-specific implementation
	switch input.DType() {
	case tensor.Float32:
		upsample2dFloat32(output, input, N, C, H, W, scale)
	case tensor.Float64:
		upsample2dFloat64(output, input, N, C, H, W, scale)
	default:
		panic(fmt.Sprintf("upsample2d: unsupported dtype %v", input.DType()))
	}

	return output
}

// upsample2dFloat32 replicates pixels into scale x scale blocks for float32.
func upsample2dFloat32(output, input *tensor.RawTensor, N, C, H, W, scale int) {
	inputData := input.AsFloat32()
	outputData := output.AsFloat32()
	WOut := W * scale

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			outChannelOffset := (n*C + c) * H * scale * WOut

			for h := 0; h < H; h++ {
				// Source row
				rowData := inputData[channelOffset+h*W : channelOffset+(h+1)*W]

				// Write the first replicated row pixel by pixel
				firstRowStart := outChannelOffset + h*scale*WOut
				firstRow := outputData[firstRowStart : firstRowStart+WOut]
				for w, v := range rowData {
					for s := 0; s < scale; s++ {
						firstRow[w*scale+s] = v
					}
				}

				// Remaining scale-1 rows are copies of the first
				for s := 1; s < scale; s++ {
					rowStart := firstRowStart + s*WOut
					copy(outputData[rowStart:rowStart+WOut], firstRow)
				}
			}
		}
	}
}

// upsample2dFloat64 replicates pixels into scale x scale blocks for float64.
func upsample2dFloat64(output, input *tensor.RawTensor, N, C, H, W, scale int) {
	inputData := input.AsFloat64()
	outputData := output.AsFloat64()
	WOut := W * scale

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			outChannelOffset := (n*C + c) * H * scale * WOut

			for h := 0; h < H; h++ {
				rowData := inputData[channelOffset+h*W : channelOffset+(h+1)*W]

				firstRowStart := outChannelOffset + h*scale*WOut
				firstRow := outputData[firstRowStart : firstRowStart+WOut]
				for w, v := range rowData {
					for s := 0; s < scale; s++ {
						firstRow[w*scale+s] = v
					}
				}

				for s := 1; s < scale; s++ {
					rowStart := firstRowStart + s*WOut
					copy(outputData[rowStart:rowStart+WOut], firstRow)
				}
			}
		}
	}
}
