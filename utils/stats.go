package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether probe statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where probe statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// ProbeStats holds measurements from one numerical field probe.
type ProbeStats struct {
	ProbeShape       []int
	Field            []int
	LayersOverridden int

	TotalTime    time.Duration
	OverrideTime time.Duration
	ForwardTime  time.Duration
	BackwardTime time.Duration
	ScanTime     time.Duration
}

// PrintProbeStats prints detailed probe statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintProbeStats(stats *ProbeStats) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== PROBE STATISTICS ===")
	fmt.Fprintf(Output, "Probe shape: %v\n", stats.ProbeShape)
	fmt.Fprintf(Output, "Measured field: %v\n", stats.Field)
	fmt.Fprintf(Output, "Layers overridden: %d\n", stats.LayersOverridden)
	fmt.Fprintf(Output, "Total probe time: %v\n", stats.TotalTime)
	fmt.Fprintln(Output, "\nBreakdown by phase:")
	fmt.Fprintf(Output, "  Weight override: %v (%.1f%%)\n", stats.OverrideTime, float64(stats.OverrideTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Forward pass: %v (%.1f%%)\n", stats.ForwardTime, float64(stats.ForwardTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Backward pass: %v (%.1f%%)\n", stats.BackwardTime, float64(stats.BackwardTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Gradient scan: %v (%.1f%%)\n", stats.ScanTime, float64(stats.ScanTime)/float64(stats.TotalTime)*100)
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
