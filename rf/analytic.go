// Package rf computes receptive fields of feedforward convolutional
// stacks, either analytically from layer hyperparameters or numerically
// by gradient probing a built network.
package rf

import (
	"fmt"
	"strconv"
	"strings"
)

// LayerSpec describes one conv-like layer in architectural (input→output)
// order. Stride is a float so legacy architecture tables that mark
// downsampling stages with stride 0 stay representable.
type LayerSpec struct {
	Kernel int
	Stride float64
}

// strideFallbackCutoff separates the standard inverse size map from the
// legacy downsampling rule. Old architecture tables encode pooling stages
// with stride 0 (or sub-half values); those route through the halving
// formula in RequiredInputSize.
const strideFallbackCutoff = 0.5

// RequiredInputSize returns the input extent a single layer needs to
// produce outputSize outputs.
//
// The standard branch inverts out = (in-kernel)/stride + 1. The fallback
// branch (stride <= 0.5) is the legacy halving rule for marked
// downsampling stages and is kept verbatim: (out + kernel - 2)/2 + 1.
func RequiredInputSize(outputSize float64, kernel int, stride float64) float64 {
	if stride > strideFallbackCutoff {
		return stride*(outputSize-1) + float64(kernel)
	}
	return (outputSize+float64(kernel-2))/2 + 1
}

// ComputeReceptiveField returns the receptive field of the stack: the
// input extent that influences a single output unit. The recursion seeds
// one output element and applies each layer's RequiredInputSize in reverse
// architectural order. An empty stack sees exactly one input element.
//
// A kernel below 1 or a negative stride fails with *ValidationError.
// Stride values in [0, 0.5] are not an error; they select the legacy
// downsampling branch.
func ComputeReceptiveField(layers []LayerSpec) (float64, error) {
	size := 1.0
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l.Kernel < 1 {
			return 0, &ValidationError{Layer: i, Field: "kernel", Value: float64(l.Kernel)}
		}
		if l.Stride < 0 {
			return 0, &ValidationError{Layer: i, Field: "stride", Value: l.Stride}
		}
		size = RequiredInputSize(size, l.Kernel, l.Stride)
	}
	return size, nil
}

// ParseLayers parses a whitespace-separated architecture string into layer
// specs. Each item is "kernel" or "kernel:stride"; a missing stride
// defaults to 1. Example: "9 3 3 3 9 3 3 7 3" or "5:1 2:2 5:1".
func ParseLayers(s string) ([]LayerSpec, error) {
	items := strings.Fields(s)
	layers := make([]LayerSpec, len(items))
	for i, item := range items {
		kernelPart, stridePart, hasStride := strings.Cut(item, ":")
		k, err := strconv.Atoi(kernelPart)
		if err != nil {
			return nil, fmt.Errorf("layer %d %q: %w", i, item, err)
		}
		stride := 1.0
		if hasStride {
			stride, err = strconv.ParseFloat(stridePart, 64)
			if err != nil {
				return nil, fmt.Errorf("layer %d %q: %w", i, item, err)
			}
		}
		layers[i] = LayerSpec{Kernel: k, Stride: stride}
	}
	return layers, nil
}
