package nn

import (
	"fmt"

	"rfield/tensor"
)

// Module defines a single layer/unit in the network.
type Module interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	// Backward computes gradients and propagates them.
	// It takes the gradient of the loss with respect to the module's output,
	// and returns the gradient of the loss with respect to the module's input.
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
}

// ParamLayer is implemented by layers that carry weight and bias tensors.
// Field probing identifies parameterized layers through this interface
// rather than by inspecting concrete types.
type ParamLayer interface {
	Module
	// Params exposes the live weight and bias tensors.
	Params() (weight, bias *tensor.Tensor)
	// InitParams overwrites every weight element with weight and every
	// bias element with bias, in place.
	InitParams(weight, bias float64)
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := x
	for i, layer := range s.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d forward: %w", i, err)
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := grad
	for i := len(s.Layers) - 1; i >= 0; i-- {
		out, err = s.Layers[i].Backward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d backward: %w", i, err)
		}
	}
	return out, nil
}

// ParamLayers returns the parameterized layers in architectural order.
func (s *Sequential) ParamLayers() []ParamLayer {
	var ps []ParamLayer
	for _, layer := range s.Layers {
		if p, ok := layer.(ParamLayer); ok {
			ps = append(ps, p)
		}
	}
	return ps
}
