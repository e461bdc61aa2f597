package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"rfield/nn"
	"rfield/tensor"
)

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ModelWeights represents all weights in a model
type ModelWeights struct {
	Version string                 `json:"version"`
	Layers  map[string]LayerWeight `json:"layers"`
}

// LayerWeight contains weights and bias for a layer
type LayerWeight struct {
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	return &weights, nil
}

// TensorToWeightData converts a tensor to serializable weight data
func TensorToWeightData(name string, t *tensor.Tensor) *WeightData {
	return &WeightData{
		Name:  name,
		Shape: t.Shape,
		Data:  append([]float64{}, t.Data...), // copy
	}
}

// WeightDataToTensor converts weight data back to a tensor
func WeightDataToTensor(wd *WeightData) *tensor.Tensor {
	t := tensor.New(wd.Shape...)
	copy(t.Data, wd.Data)
	return t
}

// SnapshotParams captures every parameterized layer's weights and biases.
// Field probing overwrites parameters in place; callers who need the
// originals snapshot before probing and restore after.
func SnapshotParams(net *nn.Sequential) *ModelWeights {
	mw := &ModelWeights{Version: "1", Layers: make(map[string]LayerWeight)}
	for i, m := range net.Layers {
		p, ok := m.(nn.ParamLayer)
		if !ok {
			continue
		}
		w, b := p.Params()
		mw.Layers[layerKey(i, m)] = LayerWeight{
			Weight: TensorToWeightData("weight", w),
			Bias:   TensorToWeightData("bias", b),
		}
	}
	return mw
}

// RestoreParams writes a snapshot back into the network's parameter
// tensors. The network must have the layer layout the snapshot was taken
// from.
func RestoreParams(net *nn.Sequential, mw *ModelWeights) error {
	for i, m := range net.Layers {
		p, ok := m.(nn.ParamLayer)
		if !ok {
			continue
		}
		lw, ok := mw.Layers[layerKey(i, m)]
		if !ok {
			return fmt.Errorf("no snapshot entry for layer %d", i)
		}
		w, b := p.Params()
		if err := restoreTensor(w, lw.Weight, i, "weight"); err != nil {
			return err
		}
		if err := restoreTensor(b, lw.Bias, i, "bias"); err != nil {
			return err
		}
	}
	return nil
}

func layerKey(i int, m nn.Module) string {
	if tagged, ok := m.(interface{ Tag() string }); ok {
		return fmt.Sprintf("%d:%s", i, tagged.Tag())
	}
	return strconv.Itoa(i)
}

func restoreTensor(dst *tensor.Tensor, wd *WeightData, layer int, kind string) error {
	if wd == nil {
		return fmt.Errorf("layer %d: snapshot has no %s", layer, kind)
	}
	if len(wd.Data) != len(dst.Data) {
		return fmt.Errorf("layer %d: %s has %d elements, snapshot has %d", layer, kind, len(dst.Data), len(wd.Data))
	}
	copy(dst.Data, wd.Data)
	return nil
}
