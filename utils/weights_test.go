package utils

import (
	"os"
	"path/filepath"
	"testing"

	"rfield/nn"
	"rfield/nn/layers"
	"rfield/tensor"
)

func TestTensorToWeightData(t *testing.T) {
	// Create a test tensor
	ten := tensor.New(2, 3)
	for i := range ten.Data {
		ten.Data[i] = float64(i) * 0.5
	}

	// Convert to weight data
	wd := TensorToWeightData("test_weight", ten)

	// Verify
	if wd.Name != "test_weight" {
		t.Errorf("Name = %s, want test_weight", wd.Name)
	}
	if len(wd.Shape) != 2 || wd.Shape[0] != 2 || wd.Shape[1] != 3 {
		t.Errorf("Shape = %v, want [2, 3]", wd.Shape)
	}
	if len(wd.Data) != 6 {
		t.Errorf("Data length = %d, want 6", len(wd.Data))
	}
	for i, v := range wd.Data {
		expected := float64(i) * 0.5
		if v != expected {
			t.Errorf("Data[%d] = %f, want %f", i, v, expected)
		}
	}

	// The copy must not alias the tensor
	wd.Data[0] = 99
	if ten.Data[0] == 99 {
		t.Error("WeightData aliases the tensor data")
	}
}

func TestWeightDataToTensor(t *testing.T) {
	wd := &WeightData{
		Name:  "test",
		Shape: []int{3, 4},
		Data:  make([]float64, 12),
	}
	for i := range wd.Data {
		wd.Data[i] = float64(i)
	}

	ten := WeightDataToTensor(wd)

	if len(ten.Shape) != 2 || ten.Shape[0] != 3 || ten.Shape[1] != 4 {
		t.Errorf("Shape = %v, want [3, 4]", ten.Shape)
	}
	for i, v := range ten.Data {
		if v != float64(i) {
			t.Errorf("Data[%d] = %f, want %f", i, v, float64(i))
		}
	}
}

func TestSaveLoadWeights(t *testing.T) {
	// Create temp directory
	tmpDir, err := os.MkdirTemp("", "weights_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	weightsFile := filepath.Join(tmpDir, "test_weights.json")

	// Create test weights
	weights := &ModelWeights{
		Version: "1",
		Layers: map[string]LayerWeight{
			"0:Conv2D_1_6_5x5_s1x1": {
				Weight: &WeightData{
					Name:  "weight",
					Shape: []int{6, 1, 5, 5},
					Data:  make([]float64, 6*5*5),
				},
				Bias: &WeightData{
					Name:  "bias",
					Shape: []int{6},
					Data:  make([]float64, 6),
				},
			},
			"2:Linear_400_120": {
				Weight: &WeightData{
					Name:  "weight",
					Shape: []int{120, 400},
					Data:  make([]float64, 120*400),
				},
			},
		},
	}

	// Initialize with some values
	for i := range weights.Layers["0:Conv2D_1_6_5x5_s1x1"].Weight.Data {
		weights.Layers["0:Conv2D_1_6_5x5_s1x1"].Weight.Data[i] = float64(i) * 0.001
	}

	// Save
	err = SaveWeights(weightsFile, weights)
	if err != nil {
		t.Fatalf("SaveWeights failed: %v", err)
	}

	// Load
	loaded, err := LoadWeights(weightsFile)
	if err != nil {
		t.Fatalf("LoadWeights failed: %v", err)
	}

	// Verify
	if loaded.Version != "1" {
		t.Errorf("Version = %s, want 1", loaded.Version)
	}
	if len(loaded.Layers) != 2 {
		t.Errorf("Layers count = %d, want 2", len(loaded.Layers))
	}

	conv := loaded.Layers["0:Conv2D_1_6_5x5_s1x1"]
	if conv.Weight == nil {
		t.Fatal("conv weight is nil")
	}
	if len(conv.Weight.Shape) != 4 || conv.Weight.Shape[0] != 6 {
		t.Errorf("conv weight shape = %v, want [6, 1, 5, 5]", conv.Weight.Shape)
	}

	// Check data values
	if conv.Weight.Data[0] != 0.0 {
		t.Errorf("conv.Weight.Data[0] = %f, want 0", conv.Weight.Data[0])
	}
	if conv.Weight.Data[1] != 0.001 {
		t.Errorf("conv.Weight.Data[1] = %f, want 0.001", conv.Weight.Data[1])
	}
}

func TestSnapshotRestoreParams(t *testing.T) {
	net := &nn.Sequential{Layers: []nn.Module{
		layers.NewConv1D(1, 1, 3),
		layers.NewMaxPool1D(2),
		layers.NewLinear(4, 2),
	}}
	params := net.ParamLayers()
	params[0].InitParams(0.5, 0.25)
	params[1].InitParams(-1, 2)

	snap := SnapshotParams(net)
	if len(snap.Layers) != 2 {
		t.Fatalf("snapshot has %d layers, want 2", len(snap.Layers))
	}

	// Destructive override, then restore
	for _, p := range params {
		p.InitParams(1, 0)
	}
	if err := RestoreParams(net, snap); err != nil {
		t.Fatalf("RestoreParams failed: %v", err)
	}

	w, b := params[0].Params()
	for i, v := range w.Data {
		if v != 0.5 {
			t.Errorf("conv weight[%d] = %f after restore, want 0.5", i, v)
		}
	}
	for i, v := range b.Data {
		if v != 0.25 {
			t.Errorf("conv bias[%d] = %f after restore, want 0.25", i, v)
		}
	}
	w, _ = params[1].Params()
	if w.Data[0] != -1 {
		t.Errorf("linear weight[0] = %f after restore, want -1", w.Data[0])
	}
}

func TestRestoreParamsMissingEntry(t *testing.T) {
	net := &nn.Sequential{Layers: []nn.Module{layers.NewLinear(2, 2)}}
	snap := &ModelWeights{Version: "1", Layers: map[string]LayerWeight{}}
	if err := RestoreParams(net, snap); err == nil {
		t.Error("expected error for missing snapshot entry")
	}
}

func TestRestoreParamsSizeMismatch(t *testing.T) {
	net := &nn.Sequential{Layers: []nn.Module{layers.NewLinear(2, 2)}}
	snap := &ModelWeights{Version: "1", Layers: map[string]LayerWeight{
		"0:Linear_2_2": {
			Weight: &WeightData{Name: "weight", Shape: []int{3}, Data: []float64{1, 2, 3}},
			Bias:   &WeightData{Name: "bias", Shape: []int{2}, Data: []float64{0, 0}},
		},
	}}
	if err := RestoreParams(net, snap); err == nil {
		t.Error("expected error for element count mismatch")
	}
}

func TestLoadWeightsNotFound(t *testing.T) {
	_, err := LoadWeights("/nonexistent/path/weights.json")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadWeightsInvalidJSON(t *testing.T) {
	// Create temp file with invalid JSON
	tmpDir, err := os.MkdirTemp("", "weights_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	badFile := filepath.Join(tmpDir, "bad.json")
	err = os.WriteFile(badFile, []byte("not valid json"), 0644)
	if err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err = LoadWeights(badFile)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
