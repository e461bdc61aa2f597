package rf

import "fmt"

// ValidationError reports an inadmissible layer parameter. Layer is the
// index in the architectural (input→output) layer list.
type ValidationError struct {
	Layer int
	Field string
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("layer %d: invalid %s %v", e.Layer, e.Field, e.Value)
}

// ShapeMismatchError reports a tensor whose rank or shape does not line up
// with what a probing operation expects.
type ShapeMismatchError struct {
	Op   string
	Want string
	Got  []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: want %s, got shape %v", e.Op, e.Want, e.Got)
}
