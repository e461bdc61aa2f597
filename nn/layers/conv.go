package layers

import (
	"fmt"

	"rfield/tensor"
)

// Conv2D is a 2D convolutional layer: cross-correlation with a per-axis
// stride and symmetric zero padding.
type Conv2D struct {
	// Layer parameters
	inChan, outChan int // number of input/output channels
	kh, kw          int // kernel height and width
	sh, sw          int // stride along height and width
	ph, pw          int // zero padding per side along height and width

	W *tensor.Tensor // weights: [outChan, inChan, kh, kw]
	B *tensor.Tensor // bias: [outChan]

	// Cached input for backward pass
	lastInput *tensor.Tensor

	// Gradient storage
	gradW *tensor.Tensor
	gradB *tensor.Tensor
}

// NewConv2D creates a Conv2D layer with stride 1.
func NewConv2D(inChan, outChan, kh, kw int) *Conv2D {
	return NewStridedConv2D(inChan, outChan, kh, kw, 1, 1)
}

// NewStridedConv2D creates a Conv2D layer with explicit strides.
func NewStridedConv2D(inChan, outChan, kh, kw, sh, sw int) *Conv2D {
	return &Conv2D{
		inChan:  inChan,
		outChan: outChan,
		kh:      kh,
		kw:      kw,
		sh:      sh,
		sw:      sw,
		W:       tensor.New(outChan, inChan, kh, kw),
		B:       tensor.New(outChan),
		gradW:   tensor.New(outChan, inChan, kh, kw),
		gradB:   tensor.New(outChan),
	}
}

// NewPaddedConv2D creates a stride-1 Conv2D layer with ph/pw zeros padded
// on each side. With an odd kernel and p = (k-1)/2 the spatial size is
// preserved.
func NewPaddedConv2D(inChan, outChan, kh, kw, ph, pw int) *Conv2D {
	c := NewStridedConv2D(inChan, outChan, kh, kw, 1, 1)
	c.ph = ph
	c.pw = pw
	return c
}

// GetOutputShape returns the output dimensions for given input dimensions.
func (c *Conv2D) GetOutputShape(inH, inW int) (outH, outW int) {
	return (inH+2*c.ph-c.kh)/c.sh + 1, (inW+2*c.pw-c.kw)/c.sw + 1
}

// Params exposes the live weight and bias tensors.
func (c *Conv2D) Params() (*tensor.Tensor, *tensor.Tensor) {
	return c.W, c.B
}

// InitParams overwrites all weights with w and all biases with b, in place.
func (c *Conv2D) InitParams(w, b float64) {
	c.W.Fill(w)
	c.B.Fill(b)
}

// Forward performs the forward pass.
// Input shape is [batch, inChan, height, width] or [inChan, height, width];
// output is always 4D.
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	var batchSize, height, width int
	if len(input.Shape) == 4 {
		batchSize, _, height, width = input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	} else if len(input.Shape) == 3 {
		batchSize = 1
		_, height, width = input.Shape[0], input.Shape[1], input.Shape[2]
	} else {
		return nil, fmt.Errorf("input must be 3D or 4D tensor, got shape %v", input.Shape)
	}

	if height+2*c.ph < c.kh || width+2*c.pw < c.kw {
		return nil, fmt.Errorf("input %dx%d smaller than kernel %dx%d", height, width, c.kh, c.kw)
	}

	outHeight, outWidth := c.GetOutputShape(height, width)
	output := tensor.New(batchSize, c.outChan, outHeight, outWidth)

	// Cache input for backward pass
	c.lastInput = input

	for b := 0; b < batchSize; b++ {
		for oc := 0; oc < c.outChan; oc++ {
			for y := 0; y < outHeight; y++ {
				for x := 0; x < outWidth; x++ {
					sum := c.B.Data[oc] // Start with bias

					// Convolve with kernel
					for ic := 0; ic < c.inChan; ic++ {
						for dy := 0; dy < c.kh; dy++ {
							for dx := 0; dx < c.kw; dx++ {
								iy := y*c.sh + dy - c.ph
								ix := x*c.sw + dx - c.pw
								if iy < 0 || iy >= height || ix < 0 || ix >= width {
									continue // zero padding
								}

								wIdx := oc*c.inChan*c.kh*c.kw + ic*c.kh*c.kw + dy*c.kw + dx

								var inIdx int
								if len(input.Shape) == 4 {
									inIdx = b*c.inChan*height*width + ic*height*width + iy*width + ix
								} else {
									inIdx = ic*height*width + iy*width + ix
								}

								sum += input.Data[inIdx] * c.W.Data[wIdx]
							}
						}
					}

					outIdx := b*c.outChan*outHeight*outWidth + oc*outHeight*outWidth + y*outWidth + x
					output.Data[outIdx] = sum
				}
			}
		}
	}

	return output, nil
}

// Backward performs the backward pass. It accumulates weight and bias
// gradients and returns the gradient with respect to the input.
func (c *Conv2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if c.lastInput == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}

	if len(gradOut.Shape) != 4 {
		return nil, fmt.Errorf("gradOut must be 4D tensor, got shape %v", gradOut.Shape)
	}
	batchSize, outHeight, outWidth := gradOut.Shape[0], gradOut.Shape[2], gradOut.Shape[3]

	var inHeight, inWidth int
	if len(c.lastInput.Shape) == 4 {
		_, _, inHeight, inWidth = c.lastInput.Shape[0], c.lastInput.Shape[1], c.lastInput.Shape[2], c.lastInput.Shape[3]
	} else {
		_, inHeight, inWidth = c.lastInput.Shape[0], c.lastInput.Shape[1], c.lastInput.Shape[2]
	}

	c.gradW = tensor.New(c.outChan, c.inChan, c.kh, c.kw)
	c.gradB = tensor.New(c.outChan)

	// Bias gradients: sum over batch and all spatial positions
	for oc := 0; oc < c.outChan; oc++ {
		for b := 0; b < batchSize; b++ {
			for y := 0; y < outHeight; y++ {
				for x := 0; x < outWidth; x++ {
					gradIdx := b*c.outChan*outHeight*outWidth + oc*outHeight*outWidth + y*outWidth + x
					c.gradB.Data[oc] += gradOut.Data[gradIdx]
				}
			}
		}
	}

	// Weight gradients: correlate cached input with gradOut
	for oc := 0; oc < c.outChan; oc++ {
		for ic := 0; ic < c.inChan; ic++ {
			for dy := 0; dy < c.kh; dy++ {
				for dx := 0; dx < c.kw; dx++ {
					wGradIdx := oc*c.inChan*c.kh*c.kw + ic*c.kh*c.kw + dy*c.kw + dx

					for b := 0; b < batchSize; b++ {
						for y := 0; y < outHeight; y++ {
							for x := 0; x < outWidth; x++ {
								iy := y*c.sh + dy - c.ph
								ix := x*c.sw + dx - c.pw
								if iy < 0 || iy >= inHeight || ix < 0 || ix >= inWidth {
									continue
								}

								var inIdx int
								if len(c.lastInput.Shape) == 4 {
									inIdx = b*c.inChan*inHeight*inWidth + ic*inHeight*inWidth + iy*inWidth + ix
								} else {
									inIdx = ic*inHeight*inWidth + iy*inWidth + ix
								}

								gradIdx := b*c.outChan*outHeight*outWidth + oc*outHeight*outWidth + y*outWidth + x

								c.gradW.Data[wGradIdx] += c.lastInput.Data[inIdx] * gradOut.Data[gradIdx]
							}
						}
					}
				}
			}
		}
	}

	// Input gradients (transposed convolution)
	inputGrad := tensor.New(c.lastInput.Shape...)

	for b := 0; b < batchSize; b++ {
		for ic := 0; ic < c.inChan; ic++ {
			for y := 0; y < inHeight; y++ {
				for x := 0; x < inWidth; x++ {
					var inGradIdx int
					if len(c.lastInput.Shape) == 4 {
						inGradIdx = b*c.inChan*inHeight*inWidth + ic*inHeight*inWidth + y*inWidth + x
					} else {
						inGradIdx = ic*inHeight*inWidth + y*inWidth + x
					}

					sum := 0.0
					for oc := 0; oc < c.outChan; oc++ {
						for dy := 0; dy < c.kh; dy++ {
							for dx := 0; dx < c.kw; dx++ {
								// Output position that consumed input (y, x)
								// through kernel offset (dy, dx), if any.
								oy := y + c.ph - dy
								ox := x + c.pw - dx
								if oy%c.sh != 0 || ox%c.sw != 0 {
									continue
								}
								oy /= c.sh
								ox /= c.sw

								if oy >= 0 && oy < outHeight && ox >= 0 && ox < outWidth {
									wIdx := oc*c.inChan*c.kh*c.kw + ic*c.kh*c.kw + dy*c.kw + dx
									gradIdx := b*c.outChan*outHeight*outWidth + oc*outHeight*outWidth + oy*outWidth + ox

									sum += c.W.Data[wIdx] * gradOut.Data[gradIdx]
								}
							}
						}
					}
					inputGrad.Data[inGradIdx] = sum
				}
			}
		}
	}

	return inputGrad, nil
}

func (c *Conv2D) Tag() string {
	return fmt.Sprintf("Conv2D_%d_%d_%dx%d_s%dx%d", c.inChan, c.outChan, c.kh, c.kw, c.sh, c.sw)
}
