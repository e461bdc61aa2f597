package rf

import (
	"fmt"
	"time"

	"rfield/nn"
	"rfield/tensor"
	"rfield/utils"
)

// OverrideParams sets every parameterized layer's weights to weight and
// biases to bias, in place. Gradient probing needs uniform positive weights
// so that gradient magnitude reflects connectivity alone; the original
// parameters are destroyed. Callers who need them back snapshot with
// utils.SnapshotParams before probing. Returns the number of layers
// overridden.
func OverrideParams(net *nn.Sequential, weight, bias float64) int {
	layers := net.ParamLayers()
	for _, p := range layers {
		p.InitParams(weight, bias)
	}
	return len(layers)
}

// ComputeReceptiveFieldNumerical measures the receptive field of net by
// gradient probing: override all parameters (weights 1, biases 0), run an
// all-ones probe forward, seed a unit gradient at the spatial center of the
// output, backpropagate, and read off the extent of the nonzero input
// gradient per spatial dimension.
//
// The probe must be rank 3 or higher, laid out [batch, channels, spatial...].
// The returned slice has one entry per spatial dimension of the probe. A
// probe dimension smaller than the true field truncates the measurement to
// the probe size; no error is raised, so size the probe generously. A probe
// so small the network produces no output at all (narrower than a pooling
// window, say) reports a field of zero in every dimension. Max pooling
// propagates gradient only along its argmax path; substitute average pooling
// before probing networks that contain it.
func ComputeReceptiveFieldNumerical(net *nn.Sequential, probe *tensor.Tensor) ([]int, error) {
	if len(probe.Shape) < 3 {
		return nil, &ShapeMismatchError{
			Op:   "numerical probe",
			Want: "rank >= 3 ([batch, channels, spatial...])",
			Got:  probe.Shape,
		}
	}

	var stats utils.ProbeStats
	start := time.Now()

	t := time.Now()
	stats.LayersOverridden = OverrideParams(net, 1, 0)
	stats.OverrideTime = time.Since(t)

	t = time.Now()
	out, err := net.Forward(probe)
	if err != nil {
		return nil, fmt.Errorf("probe forward: %w", err)
	}
	stats.ForwardTime = time.Since(t)

	if len(out.Shape) != len(probe.Shape) {
		return nil, &ShapeMismatchError{
			Op:   "probe output",
			Want: fmt.Sprintf("rank %d to match probe", len(probe.Shape)),
			Got:  out.Shape,
		}
	}

	// A pooling window wider than the probe floors an output dimension to
	// zero, leaving no position to seed. The field is zero everywhere.
	if out.Size() == 0 {
		stats.TotalTime = time.Since(start)
		stats.ProbeShape = probe.Shape
		stats.Field = make([]int, len(probe.Shape)-2)
		utils.PrintProbeStats(&stats)
		return stats.Field, nil
	}

	// Unit gradient at batch 0, channel 0, spatial center of the output.
	seed := tensor.New(out.Shape...)
	center := make([]int, len(out.Shape))
	for d := 2; d < len(out.Shape); d++ {
		center[d] = out.Shape[d] / 2
	}
	seed.Set(1, center...)

	t = time.Now()
	gradIn, err := net.Backward(seed)
	if err != nil {
		return nil, fmt.Errorf("probe backward: %w", err)
	}
	stats.BackwardTime = time.Since(t)

	if !tensor.SameShape(gradIn, probe) {
		return nil, &ShapeMismatchError{
			Op:   "input gradient",
			Want: fmt.Sprintf("probe shape %v", probe.Shape),
			Got:  gradIn.Shape,
		}
	}

	t = time.Now()
	field := spatialExtent(gradIn)
	stats.ScanTime = time.Since(t)

	stats.TotalTime = time.Since(start)
	stats.ProbeShape = probe.Shape
	stats.Field = field
	utils.PrintProbeStats(&stats)

	return field, nil
}

// spatialExtent scans the batch-0, channel-0 block of g and returns, per
// spatial dimension, max nonzero coordinate - min nonzero coordinate + 1.
// A dimension the gradient never touches reports 0.
func spatialExtent(g *tensor.Tensor) []int {
	spatial := g.Shape[2:]
	n := 1
	for _, s := range spatial {
		n *= s
	}

	minC := make([]int, len(spatial))
	maxC := make([]int, len(spatial))
	for d := range minC {
		minC[d] = -1
	}

	// Batch 0, channel 0 occupies the first n elements in row-major order.
	for i := 0; i < n; i++ {
		if g.Data[i] == 0 {
			continue
		}
		rem := i
		for d := len(spatial) - 1; d >= 0; d-- {
			c := rem % spatial[d]
			rem /= spatial[d]
			if minC[d] == -1 || c < minC[d] {
				minC[d] = c
			}
			if c > maxC[d] {
				maxC[d] = c
			}
		}
	}

	field := make([]int, len(spatial))
	for d := range field {
		if minC[d] == -1 {
			continue
		}
		field[d] = maxC[d] - minC[d] + 1
	}
	return field
}
