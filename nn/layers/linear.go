package layers

import (
	"fmt"

	"rfield/tensor"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is a fully-connected layer. Parameters live in flat tensors; the
// matrix arithmetic runs on gonum mat views over the same backing slices.
type Linear struct {
	inDim, outDim int

	W *tensor.Tensor // [outDim, inDim]
	B *tensor.Tensor // [outDim]

	// Cached input for backward pass
	lastInput *tensor.Tensor

	// Gradient storage
	gradW *tensor.Tensor
	gradB *tensor.Tensor
}

// NewLinear(inDim→outDim) sets up zeroed W and B.
func NewLinear(inDim, outDim int) *Linear {
	return &Linear{
		inDim:  inDim,
		outDim: outDim,
		W:      tensor.New(outDim, inDim),
		B:      tensor.New(outDim),
		gradW:  tensor.New(outDim, inDim),
		gradB:  tensor.New(outDim),
	}
}

// weightMat and biasVec are live views: they share backing data with W and B.
func (l *Linear) weightMat() *mat.Dense  { return mat.NewDense(l.outDim, l.inDim, l.W.Data) }
func (l *Linear) biasVec() *mat.VecDense { return mat.NewVecDense(l.outDim, l.B.Data) }

// Params exposes the live weight and bias tensors.
func (l *Linear) Params() (*tensor.Tensor, *tensor.Tensor) {
	return l.W, l.B
}

// InitParams overwrites all weights with w and all biases with b, in place.
func (l *Linear) InitParams(w, b float64) {
	l.W.Fill(w)
	l.B.Fill(b)
}

// Forward computes y = Wx + b for [inDim] input, or Y = XWᵀ + b row-wise
// for [batch, inDim] input. The output keeps the input's rank.
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	switch len(x.Shape) {
	case 1:
		if x.Shape[0] != l.inDim {
			return nil, fmt.Errorf("expected %d input features, got %d", l.inDim, x.Shape[0])
		}
		l.lastInput = x
		out := tensor.New(l.outDim)
		y := mat.NewVecDense(l.outDim, out.Data)
		y.MulVec(l.weightMat(), mat.NewVecDense(l.inDim, x.Data))
		y.AddVec(y, l.biasVec())
		return out, nil
	case 2:
		batch := x.Shape[0]
		if x.Shape[1] != l.inDim {
			return nil, fmt.Errorf("expected %d input features, got %d", l.inDim, x.Shape[1])
		}
		l.lastInput = x
		out := tensor.New(batch, l.outDim)
		y := mat.NewDense(batch, l.outDim, out.Data)
		y.Mul(mat.NewDense(batch, l.inDim, x.Data), l.weightMat().T())
		for b := 0; b < batch; b++ {
			floats.Add(y.RawRowView(b), l.B.Data)
		}
		return out, nil
	}
	return nil, fmt.Errorf("input must be 1D or 2D tensor, got shape %v", x.Shape)
}

// Backward stores gradW = gᵀx and gradB = Σg, overwriting whatever the
// previous call left there, and returns the input gradient Wᵀg (or gW for
// the batched layout).
func (l *Linear) Backward(g *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	if len(g.Shape) != len(l.lastInput.Shape) {
		return nil, fmt.Errorf("gradient rank %d does not match input rank %d", len(g.Shape), len(l.lastInput.Shape))
	}

	switch len(g.Shape) {
	case 1:
		if g.Shape[0] != l.outDim {
			return nil, fmt.Errorf("expected %d gradient features, got %d", l.outDim, g.Shape[0])
		}
		gw := mat.NewDense(l.outDim, l.inDim, l.gradW.Data)
		gw.Outer(1, mat.NewVecDense(l.outDim, g.Data), mat.NewVecDense(l.inDim, l.lastInput.Data))
		copy(l.gradB.Data, g.Data)

		dIn := tensor.New(l.inDim)
		dv := mat.NewVecDense(l.inDim, dIn.Data)
		dv.MulVec(l.weightMat().T(), mat.NewVecDense(l.outDim, g.Data))
		return dIn, nil
	case 2:
		batch := g.Shape[0]
		if g.Shape[1] != l.outDim {
			return nil, fmt.Errorf("expected %d gradient features, got %d", l.outDim, g.Shape[1])
		}
		gd := mat.NewDense(batch, l.outDim, g.Data)
		xd := mat.NewDense(batch, l.inDim, l.lastInput.Data)

		gw := mat.NewDense(l.outDim, l.inDim, l.gradW.Data)
		gw.Mul(gd.T(), xd)

		l.gradB.Fill(0)
		for b := 0; b < batch; b++ {
			floats.Add(l.gradB.Data, gd.RawRowView(b))
		}

		dIn := tensor.New(batch, l.inDim)
		dd := mat.NewDense(batch, l.inDim, dIn.Data)
		dd.Mul(gd, l.weightMat())
		return dIn, nil
	}
	return nil, fmt.Errorf("gradient must be 1D or 2D tensor, got shape %v", g.Shape)
}

func (l *Linear) Tag() string {
	return fmt.Sprintf("Linear_%d_%d", l.inDim, l.outDim)
}
