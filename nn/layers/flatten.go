package layers

import (
	"fmt"

	"rfield/tensor"
)

// Flatten collapses everything after the leading batch dimension:
// [B, ...] -> [B, prod]. Rank-1 input passes through as a copy.
type Flatten struct {
	lastShape []int
}

func NewFlatten() *Flatten { return &Flatten{} }

func (f *Flatten) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	f.lastShape = append([]int(nil), x.Shape...)
	if len(x.Shape) <= 1 {
		y := tensor.New(len(x.Data))
		copy(y.Data, x.Data)
		return y, nil
	}
	features := 1
	for _, d := range x.Shape[1:] {
		features *= d
	}
	y := tensor.New(x.Shape[0], features)
	copy(y.Data, x.Data)
	return y, nil
}

// Backward restores the gradient to the shape Forward consumed.
func (f *Flatten) Backward(g *tensor.Tensor) (*tensor.Tensor, error) {
	if f.lastShape == nil {
		return nil, fmt.Errorf("no cached shape for backward pass")
	}
	want := 1
	for _, d := range f.lastShape {
		want *= d
	}
	if len(g.Data) != want {
		return nil, fmt.Errorf("gradient has %d elements, cached shape %v needs %d", len(g.Data), f.lastShape, want)
	}
	out := tensor.New(f.lastShape...)
	copy(out.Data, g.Data)
	return out, nil
}

func (f *Flatten) Tag() string {
	return "Flatten"
}
