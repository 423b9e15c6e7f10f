package cpu

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// AvgPool2DBackward computes gradient w.r.t. input for AvgPool2D.
//
// Algorithm: Distribute gradients evenly over windows.
//   - Each output position averaged kernelSize*kernelSize inputs
//   - So each input in the window receives grad / (kernelSize*kernelSize)
//   - Overlapping windows (stride < kernelSize) accumulate
//
// Example (2x2 pool, stride=2):
//
//	Output grad: [g]  Input grad: [[g/4, g/4],
//	                               [g/4, g/4]]
func (cpu *CPUBackend) AvgPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inputShape := input.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	// Create input gradient tensor
	inputGrad, err := tensor.NewRaw(inputShape, grad.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("AvgPool2DBackward: failed to create gradient tensor: %v", err))
	}

	// Dispatch by dtype
	switch grad.DType() {
	case tensor.Float32:
		avgPool2DBackwardFloat32(
			inputGrad, grad,
			N, C, H, W, HOut, WOut,
			kernelSize, stride,
		)
	case tensor.Float64:
		avgPool2DBackwardFloat64(
			inputGrad, grad,
			N, C, H, W, HOut, WOut,
			kernelSize, stride,
		)
	default:
		panic("AvgPool2DBackward: unsupported dtype")
	}

	return inputGrad
}

// avgPool2DBackwardFloat32 distributes gradients over windows for float32.
func avgPool2DBackwardFloat32(
	inputGrad, grad *tensor.RawTensor,
	N, C, H, W, HOut, WOut, kernelSize, stride int,
) {
	inputGradData := inputGrad.AsFloat32()
	gradData := grad.AsFloat32()
	windowSize := float32(kernelSize * kernelSize)

	// Initialize to zero
	for i := range inputGradData {
		inputGradData[i] = 0.0
	}

	// Distribute gradients
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W

			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					gradIdx := ((n*C+c)*HOut+outH)*WOut + outW
					g := gradData[gradIdx] / windowSize

					hStart := outH * stride
					wStart := outW * stride
					for kh := 0; kh < kernelSize; kh++ {
						rowOffset := channelOffset + (hStart+kh)*W
						for kw := 0; kw < kernelSize; kw++ {
							inputGradData[rowOffset+wStart+kw] += g
						}
					}
				}
			}
		}
	}
}

// avgPool2DBackwardFloat64 distributes gradients over windows for float64.
func avgPool2DBackwardFloat64(
	inputGrad, grad *tensor.RawTensor,
	N, C, H, W, HOut, WOut, kernelSize, stride int,
) {
	inputGradData := inputGrad.AsFloat64()
	gradData := grad.AsFloat64()
	windowSize := float64(kernelSize * kernelSize)

	for i := range inputGradData {
		inputGradData[i] = 0.0
	}

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W

			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					gradIdx := ((n*C+c)*HOut+outH)*WOut + outW
					g := gradData[gradIdx] / windowSize

					hStart := outH * stride
					wStart := outW * stride
					for kh := 0; kh < kernelSize; kh++ {
						rowOffset := channelOffset + (hStart+kh)*W
						for kw := 0; kw < kernelSize; kw++ {
							inputGradData[rowOffset+wStart+kw] += g
						}
					}
				}
			}
		}
	}
}
