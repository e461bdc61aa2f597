package layers

// Conv1D simply wraps Conv2D with kh=1.
// Input  [C, 1, L] or [B, C, 1, L]
// Output [B, C_out, 1, (L-k)/s+1]
func NewConv1D(inC, outC, k int) *Conv2D {
	return NewConv2D(inC, outC, 1, k)
}

// NewStridedConv1D wraps NewStridedConv2D with kh=1 and horizontal stride s.
func NewStridedConv1D(inC, outC, k, s int) *Conv2D {
	return NewStridedConv2D(inC, outC, 1, k, 1, s)
}

// NewPaddedConv1D wraps NewPaddedConv2D with kh=1 and p zeros on each end
// of the length axis. With odd k and p = (k-1)/2 the length is preserved.
func NewPaddedConv1D(inC, outC, k, p int) *Conv2D {
	return NewPaddedConv2D(inC, outC, 1, k, 0, p)
}
