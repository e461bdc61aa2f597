// Package models builds small reference networks used to exercise and
// validate field measurement.
package models

import (
	"rfield/nn"
	"rfield/nn/layers"
)

// BuiltNet pairs a ready-to-probe network with a short name.
type BuiltNet struct {
	Name string
	Net  *nn.Sequential
}

// 1. Stride-1 1-D conv stack, one single-channel layer per kernel size
func BuildConv1DStack(kernels []int) BuiltNet {
	layersList := make([]nn.Module, 0, len(kernels))
	for _, k := range kernels {
		layersList = append(layersList, layers.NewConv1D(1, 1, k))
	}
	return BuiltNet{
		Name: "conv1dstack",
		Net:  &nn.Sequential{Layers: layersList},
	}
}

// 2. Stride-1 2-D conv stack with square kernels
func BuildConv2DStack(kernels []int) BuiltNet {
	layersList := make([]nn.Module, 0, len(kernels))
	for _, k := range kernels {
		layersList = append(layersList, layers.NewConv2D(1, 1, k, k))
	}
	return BuiltNet{
		Name: "conv2dstack",
		Net:  &nn.Sequential{Layers: layersList},
	}
}

// 3. conv5-pool2-conv5 (field 14x14)
func BuildConvPool() BuiltNet {
	layersList := []nn.Module{
		layers.NewConv2D(1, 6, 5, 5),
		layers.NewAvgPool2D(2),
		layers.NewConv2D(6, 16, 5, 5),
	}
	return BuiltNet{
		Name: "convpool",
		Net:  &nn.Sequential{Layers: layersList},
	}
}

// 4. Classic LeNet on 32x32 input, average pooling throughout.
// The flatten/linear tail collapses spatial structure, so this model is
// probe-hostile on purpose; probing it reports an output rank mismatch.
func BuildLeNetAvgPool() BuiltNet {
	layersList := []nn.Module{
		layers.NewConv2D(1, 6, 5, 5),
		layers.NewReLU(),
		layers.NewAvgPool2D(2),
		layers.NewConv2D(6, 16, 5, 5),
		layers.NewReLU(),
		layers.NewAvgPool2D(2),
		layers.NewFlatten(),
		layers.NewLinear(400, 120),
		layers.NewReLU(),
		layers.NewLinear(120, 84),
		layers.NewReLU(),
		layers.NewLinear(84, 10),
	}
	return BuiltNet{
		Name: "lenet-avgpool",
		Net:  &nn.Sequential{Layers: layersList},
	}
}
