package utils

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

func TestPrintProbeStatsRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	oldVerbose, oldOutput := Verbose, Output
	defer func() { Verbose, Output = oldVerbose, oldOutput }()
	Output = &buf

	stats := &ProbeStats{
		ProbeShape:       []int{1, 1, 32, 32},
		Field:            []int{14, 14},
		LayersOverridden: 2,
		TotalTime:        time.Millisecond,
		ForwardTime:      600 * time.Microsecond,
		BackwardTime:     300 * time.Microsecond,
	}

	Verbose = false
	PrintProbeStats(stats)
	if buf.Len() != 0 {
		t.Fatalf("expected no output with Verbose off, got %q", buf.String())
	}

	Verbose = true
	PrintProbeStats(stats)
	out := buf.String()
	if !strings.Contains(out, "PROBE STATISTICS") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "Measured field: [14 14]") {
		t.Errorf("missing field line in %q", out)
	}
	if !strings.Contains(out, "Layers overridden: 2") {
		t.Errorf("missing override count in %q", out)
	}
}
