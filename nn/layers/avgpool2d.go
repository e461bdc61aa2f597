package layers

import (
	"fmt"

	"rfield/tensor"
)

// AvgPool2D averages non-overlapping p x p windows (stride = p).
// Trailing rows/columns that do not fill a window are dropped.
type AvgPool2D struct {
	poolSize int

	// Cached input shape for backward pass
	lastShape []int
}

func NewAvgPool2D(p int) *AvgPool2D {
	return &AvgPool2D{poolSize: p}
}

// Forward accepts [C,H,W] or [B,C,H,W] and always returns [B,C,H/p,W/p].
func (a *AvgPool2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	shape := x.Shape
	var B, C, H, W int
	if len(shape) == 3 {
		B, C, H, W = 1, shape[0], shape[1], shape[2]
	} else if len(shape) == 4 {
		B, C, H, W = shape[0], shape[1], shape[2], shape[3]
	} else {
		return nil, fmt.Errorf("input must be 3D or 4D tensor, got shape %v", shape)
	}
	a.lastShape = append([]int(nil), shape...)

	p := a.poolSize
	outH, outW := H/p, W/p
	out := tensor.New(B, C, outH, outW)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					sum := 0.0
					for ph := 0; ph < p; ph++ {
						for pw := 0; pw < p; pw++ {
							ih := oh*p + ph
							jw := ow*p + pw
							sum += x.Data[((b*C+c)*H+ih)*W+jw]
						}
					}
					out.Data[((b*C+c)*outH+oh)*outW+ow] = sum / float64(p*p)
				}
			}
		}
	}
	return out, nil
}

// Backward distributes each output gradient evenly over its p x p window.
// Cells dropped by the forward floor division receive zero gradient.
func (a *AvgPool2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if a.lastShape == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	if len(gradOut.Shape) != 4 {
		return nil, fmt.Errorf("gradOut must be 4D tensor, got shape %v", gradOut.Shape)
	}

	var B, C, H, W int
	if len(a.lastShape) == 3 {
		B, C, H, W = 1, a.lastShape[0], a.lastShape[1], a.lastShape[2]
	} else {
		B, C, H, W = a.lastShape[0], a.lastShape[1], a.lastShape[2], a.lastShape[3]
	}

	p := a.poolSize
	outH, outW := gradOut.Shape[2], gradOut.Shape[3]
	inv := 1.0 / float64(p*p)

	dIn := tensor.New(a.lastShape...)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					g := gradOut.Data[((b*C+c)*outH+oh)*outW+ow] * inv
					for ph := 0; ph < p; ph++ {
						for pw := 0; pw < p; pw++ {
							ih := oh*p + ph
							jw := ow*p + pw
							var idx int
							if len(a.lastShape) == 3 {
								idx = (c*H+ih)*W + jw
							} else {
								idx = ((b*C+c)*H+ih)*W + jw
							}
							dIn.Data[idx] += g
						}
					}
				}
			}
		}
	}
	return dIn, nil
}

func (a *AvgPool2D) Tag() string {
	return fmt.Sprintf("AvgPool2D_%d", a.poolSize)
}
