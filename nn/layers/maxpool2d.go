package layers

import (
	"fmt"

	"rfield/tensor"
)

// MaxPool2D takes the max over non-overlapping p x p windows (stride = p).
// Field probing of max-pooled stacks usually substitutes AvgPool2D for this
// layer first; gradient flows only through each window's argmax.
type MaxPool2D struct {
	poolSize int

	// Cached for backward pass
	lastShape []int
	argmax    []int // linear input index of the max per output element
}

func NewMaxPool2D(p int) *MaxPool2D {
	return &MaxPool2D{poolSize: p}
}

// Forward accepts [C,H,W] or [B,C,H,W] and always returns [B,C,H/p,W/p].
func (m *MaxPool2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	shape := x.Shape
	var B, C, H, W int
	if len(shape) == 3 {
		B, C, H, W = 1, shape[0], shape[1], shape[2]
	} else if len(shape) == 4 {
		B, C, H, W = shape[0], shape[1], shape[2], shape[3]
	} else {
		return nil, fmt.Errorf("input must be 3D or 4D tensor, got shape %v", shape)
	}
	m.lastShape = append([]int(nil), shape...)

	p := m.poolSize
	outH, outW := H/p, W/p
	out := tensor.New(B, C, outH, outW)
	m.argmax = make([]int, B*C*outH*outW)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					best := 0
					var bestVal float64
					for ph := 0; ph < p; ph++ {
						for pw := 0; pw < p; pw++ {
							ih := oh*p + ph
							jw := ow*p + pw
							var idx int
							if len(shape) == 3 {
								idx = (c*H+ih)*W + jw
							} else {
								idx = ((b*C+c)*H+ih)*W + jw
							}
							if ph == 0 && pw == 0 || x.Data[idx] > bestVal {
								best = idx
								bestVal = x.Data[idx]
							}
						}
					}
					outIdx := ((b*C+c)*outH+oh)*outW + ow
					out.Data[outIdx] = bestVal
					m.argmax[outIdx] = best
				}
			}
		}
	}
	return out, nil
}

// Backward routes each output gradient to the input position that won the max.
func (m *MaxPool2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if m.argmax == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	if len(gradOut.Data) != len(m.argmax) {
		return nil, fmt.Errorf("gradient has %d elements, forward produced %d", len(gradOut.Data), len(m.argmax))
	}
	dIn := tensor.New(m.lastShape...)
	for i, src := range m.argmax {
		dIn.Data[src] += gradOut.Data[i]
	}
	return dIn, nil
}

func (m *MaxPool2D) Tag() string {
	return fmt.Sprintf("MaxPool2D_%d", m.poolSize)
}
