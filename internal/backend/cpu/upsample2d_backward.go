package cpu

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// Upsample2DBackward computes gradient w.r.t. input for Upsample2D.
//
// Algorithm: Sum gradients over replica blocks.
//   - Each input pixel was replicated into a scale x scale block
//   - So its gradient is the sum of the gradients of all its replicas
//
// Example (scale=2):
//
//	Output grad: [[a,b],  Input grad: [a+b+c+d]
//	              [c,d]]
func (cpu *CPUBackend) Upsample2DBackward(input, grad *tensor.RawTensor, scale int) *tensor.RawTensor {
	inputShape := input.Shape()

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	// Create input gradient tensor
	inputGrad, err := tensor.NewRaw(inputShape, grad.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("Upsample2DBackward: failed to create gradient tensor: %v", err))
	}

	// Dispatch by dtype
	switch grad.DType() {
	case tensor.Float32:
		upsample2DBackwardFloat32(inputGrad, grad, N, C, H, W, scale)
	case tensor.Float64:
		upsample2DBackwardFloat64(inputGrad, grad, N, C, H, W, scale)
	default:
		panic("Upsample2DBackward: unsupported dtype")
	}

	return inputGrad
}

// upsample2DBackwardFloat32 sums replica gradients for float32.
func upsample2DBackwardFloat32(inputGrad, grad *tensor.RawTensor, N, C, H, W, scale int) {
	inputGradData := inputGrad.AsFloat32()
	gradData := grad.AsFloat32()
	WOut := W * scale

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			outChannelOffset := (n*C + c) * H * scale * WOut

			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					sum := float32(0)
					for sh := 0; sh < scale; sh++ {
						rowOffset := outChannelOffset + (h*scale+sh)*WOut
						for sw := 0; sw < scale; sw++ {
							sum += gradData[rowOffset+w*scale+sw]
						}
					}
					inputGradData[channelOffset+h*W+w] = sum
				}
			}
		}
	}
}

// upsample2DBackwardFloat64 sums replica gradients for float64.
func upsample2DBackwardFloat64(inputGrad, grad *tensor.RawTensor, N, C, H, W, scale int) {
	inputGradData := inputGrad.AsFloat64()
	gradData := grad.AsFloat64()
	WOut := W * scale

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			outChannelOffset := (n*C + c) * H * scale * WOut

			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					sum := float64(0)
					for sh := 0; sh < scale; sh++ {
						rowOffset := outChannelOffset + (h*scale+sh)*WOut
						for sw := 0; sw < scale; sw++ {
							sum += gradData[rowOffset+w*scale+sw]
						}
					}
					inputGradData[channelOffset+h*W+w] = sum
				}
			}
		}
	}
}
