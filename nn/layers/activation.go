package layers

import (
	"fmt"

	"rfield/tensor"
)

// ReLU applies max(0, x) element-wise. The forward mask is cached so the
// backward pass can zero gradients where the input was non-positive.
type ReLU struct {
	mask *tensor.Tensor
}

func NewReLU() *ReLU { return &ReLU{} }

func (r *ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := tensor.New(x.Shape...)
	r.mask = tensor.New(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			out.Data[i] = v
			r.mask.Data[i] = 1
		}
	}
	return out, nil
}

func (r *ReLU) Backward(g *tensor.Tensor) (*tensor.Tensor, error) {
	if r.mask == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	if len(g.Data) != len(r.mask.Data) {
		return nil, fmt.Errorf("gradient has %d elements, forward produced %d", len(g.Data), len(r.mask.Data))
	}
	out := tensor.New(r.mask.Shape...)
	for i, v := range g.Data {
		out.Data[i] = v * r.mask.Data[i]
	}
	return out, nil
}

func (r *ReLU) Tag() string { return "ReLU" }
