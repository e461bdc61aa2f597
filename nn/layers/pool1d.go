package layers

import (
	"fmt"

	"rfield/tensor"

	"gonum.org/v1/gonum/floats"
)

// MaxPool1D takes the max over non-overlapping windows along the last axis.
// Field probing of max-pooled stacks usually substitutes AvgPool for this
// layer first; gradient flows only through each window's argmax.
type MaxPool1D struct {
	Window int

	// Cached for backward pass
	lastShape []int
	argmax    []int // linear input index of the max per output element
}

func NewMaxPool1D(window int) *MaxPool1D { return &MaxPool1D{Window: window} }

// Forward handles 4D [B, C, 1, W] (from Conv1D wrapping Conv2D) and 2D [C, L].
func (p *MaxPool1D) Forward(t *tensor.Tensor) (*tensor.Tensor, error) {
	p.lastShape = append([]int(nil), t.Shape...)

	if len(t.Shape) == 4 && t.Shape[2] == 1 {
		B, C, W := t.Shape[0], t.Shape[1], t.Shape[3]
		outW := W / p.Window
		out := tensor.New(B, C, 1, outW)
		p.argmax = make([]int, B*C*outW)

		for b := 0; b < B; b++ {
			for c := 0; c < C; c++ {
				baseIdx := b*C*W + c*W
				for i := 0; i < outW; i++ {
					win := t.Data[baseIdx+i*p.Window : baseIdx+(i+1)*p.Window]
					j := floats.MaxIdx(win)
					outIdx := b*C*outW + c*outW + i
					out.Data[outIdx] = win[j]
					p.argmax[outIdx] = baseIdx + i*p.Window + j
				}
			}
		}
		return out, nil
	}

	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("MaxPool1D expects 2D [C, L] or 4D [B, C, 1, W], got shape %v", t.Shape)
	}

	C, L := t.Shape[0], t.Shape[1]
	outL := L / p.Window
	out := tensor.New(C, outL)
	p.argmax = make([]int, C*outL)
	for c := 0; c < C; c++ {
		for i := 0; i < outL; i++ {
			win := t.Data[c*L+i*p.Window : c*L+(i+1)*p.Window]
			j := floats.MaxIdx(win)
			out.Data[c*outL+i] = win[j]
			p.argmax[c*outL+i] = c*L + i*p.Window + j
		}
	}
	return out, nil
}

// Backward routes each output gradient to the input position that won the max.
func (p *MaxPool1D) Backward(g *tensor.Tensor) (*tensor.Tensor, error) {
	if p.argmax == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	if len(g.Data) != len(p.argmax) {
		return nil, fmt.Errorf("gradient has %d elements, forward produced %d", len(g.Data), len(p.argmax))
	}
	dIn := tensor.New(p.lastShape...)
	for i, src := range p.argmax {
		dIn.Data[src] += g.Data[i]
	}
	return dIn, nil
}

func (p *MaxPool1D) Tag() string {
	return fmt.Sprintf("MaxPool1D_%d", p.Window)
}
