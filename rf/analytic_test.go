package rf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReceptiveField_SingleLayer(t *testing.T) {
	// One stride-1 layer sees exactly its kernel.
	for _, k := range []int{1, 3, 7, 11} {
		field, err := ComputeReceptiveField([]LayerSpec{{Kernel: k, Stride: 1}})
		require.NoError(t, err)
		assert.Equal(t, float64(k), field, "kernel %d", k)
	}
}

func TestComputeReceptiveField_Stacks(t *testing.T) {
	cases := []struct {
		name   string
		layers []LayerSpec
		want   float64
	}{
		{"empty", nil, 1},
		{"one 3x3", []LayerSpec{{3, 1}}, 3},
		{"two 3x3", []LayerSpec{{3, 1}, {3, 1}}, 5},
		{
			"deep mixed stack",
			[]LayerSpec{{9, 1}, {3, 1}, {3, 1}, {3, 1}, {9, 1}, {3, 1}, {3, 1}, {7, 1}, {3, 1}},
			35,
		},
		{"strided", []LayerSpec{{7, 2}, {3, 1}}, 11},
		{"conv-pool-conv", []LayerSpec{{5, 1}, {2, 2}, {5, 1}}, 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			field, err := ComputeReceptiveField(tc.layers)
			require.NoError(t, err)
			assert.Equal(t, tc.want, field)
		})
	}
}

func TestRequiredInputSize(t *testing.T) {
	// Standard branch inverts out = (in-k)/s + 1.
	assert.Equal(t, 3.0, RequiredInputSize(1, 3, 1))
	assert.Equal(t, 11.0, RequiredInputSize(3, 7, 2))

	// Legacy downsampling branch: stride at or below the cutoff halves.
	assert.Equal(t, 2.0, RequiredInputSize(1, 3, 0.5))
	assert.Equal(t, 4.5, RequiredInputSize(5, 4, 0))
}

func TestComputeReceptiveField_LegacyDownsampling(t *testing.T) {
	// Stride 0 marks a halving stage, not an error.
	field, err := ComputeReceptiveField([]LayerSpec{{3, 1}, {4, 0}})
	require.NoError(t, err)
	assert.Equal(t, 4.5, field)
}

func TestComputeReceptiveField_GrowsWithKernel(t *testing.T) {
	prev := 0.0
	for k := 1; k <= 9; k += 2 {
		field, err := ComputeReceptiveField([]LayerSpec{{k, 1}, {3, 1}})
		require.NoError(t, err)
		assert.Greater(t, field, prev, "kernel %d", k)
		prev = field
	}
}

func TestComputeReceptiveField_GrowsWithDepth(t *testing.T) {
	var layers []LayerSpec
	prev := 0.0
	for i := 0; i < 6; i++ {
		layers = append(layers, LayerSpec{Kernel: 3, Stride: 1})
		field, err := ComputeReceptiveField(layers)
		require.NoError(t, err)
		assert.Greater(t, field, prev, "depth %d", len(layers))
		prev = field
	}
}

func TestComputeReceptiveField_Invalid(t *testing.T) {
	cases := []struct {
		name      string
		layers    []LayerSpec
		wantLayer int
		wantField string
	}{
		{"zero kernel", []LayerSpec{{3, 1}, {0, 1}}, 1, "kernel"},
		{"negative kernel", []LayerSpec{{-3, 1}}, 0, "kernel"},
		{"negative stride", []LayerSpec{{3, 1}, {3, 1}, {3, -1}}, 2, "stride"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeReceptiveField(tc.layers)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.wantLayer, ve.Layer)
			assert.Equal(t, tc.wantField, ve.Field)
			assert.Contains(t, err.Error(), fmt.Sprintf("layer %d", tc.wantLayer))
		})
	}
}

func TestParseLayers(t *testing.T) {
	layers, err := ParseLayers("9 3:2 5:0.5")
	require.NoError(t, err)
	assert.Equal(t, []LayerSpec{{9, 1}, {3, 2}, {5, 0.5}}, layers)

	layers, err = ParseLayers("")
	require.NoError(t, err)
	assert.Empty(t, layers)

	_, err = ParseLayers("3 x:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layer 1 "x:1"`)

	_, err = ParseLayers("3:fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layer 0 "3:fast"`)
}

func TestParseLayers_RoundTrip(t *testing.T) {
	layers, err := ParseLayers("9 3 3 3 9 3 3 7 3")
	require.NoError(t, err)

	field, err := ComputeReceptiveField(layers)
	require.NoError(t, err)
	assert.Equal(t, 35.0, field)
}
