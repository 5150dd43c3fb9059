package bbn

import (
	"fmt"
	"slices"
)

// CPT is a conditional probability table with an explicit shape
// [|states|, |parent_1 states|, ...]. Values are stored in canonical order:
// the node's own state varies slowest and the last parent's state fastest,
// matching the order in which a Node enumerates joint configurations.
//
// The zero CPT is empty and is rejected by NewNode.
type CPT struct {
	shape  []int
	values []float64
	// rows holds a ConditionalCPT until the node's cardinality is known.
	rows [][]float64
	err  error
}

// FlatCPT wraps values that are already in canonical order. The shape is
// taken from the node the table is given to.
func FlatCPT(values ...float64) CPT {
	return CPT{values: slices.Clone(values)}
}

// NewCPT builds a table with an explicit shape. The shape must equal
// [|states|, |parent_1 states|, ...] of the node it is given to.
func NewCPT(shape []int, values []float64) CPT {
	c := CPT{shape: slices.Clone(shape), values: slices.Clone(values)}
	if want := product(shape); want != len(values) {
		c.err = fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, shape, want, len(values))
	}
	return c
}

// ConditionalCPT builds a table from one row per parent configuration. Rows
// are ordered by the parents' states with the last parent varying fastest,
// and each row is the distribution over the node's own states. For a root
// node pass a single row.
//
// For a node S with one parent R:
//
//	ConditionalCPT([][]float64{
//		{0.6, 0.4},   // P(S | R=0)
//		{0.99, 0.01}, // P(S | R=1)
//	})
func ConditionalCPT(rows [][]float64) CPT {
	c := CPT{rows: make([][]float64, len(rows))}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			c.err = fmt.Errorf("%w: row %d has %d values, row 0 has %d", ErrShapeMismatch, i, len(row), len(rows[0]))
		}
		c.rows[i] = slices.Clone(row)
	}
	return c
}

// Shape returns the table's dimensions, or nil for a FlatCPT that has not
// yet been given to a node.
func (c CPT) Shape() []int {
	return slices.Clone(c.shape)
}

// Len returns the number of entries.
func (c CPT) Len() int {
	if c.rows != nil {
		n := 0
		for _, row := range c.rows {
			n += len(row)
		}
		return n
	}
	return len(c.values)
}

// Values returns a copy of the entries in canonical order. It is nil for a
// ConditionalCPT that has not yet been given to a node.
func (c CPT) Values() []float64 {
	return slices.Clone(c.values)
}

// At returns P(own | parents...). It requires a known shape.
func (c CPT) At(own int, parents ...int) (float64, error) {
	if c.shape == nil {
		return 0, fmt.Errorf("%w: table has no shape yet", ErrShapeMismatch)
	}
	idx := append([]int{own}, parents...)
	if len(idx) != len(c.shape) {
		return 0, fmt.Errorf("%w: got %d indices for shape %v", ErrShapeMismatch, len(idx), c.shape)
	}
	flat := 0
	for d, i := range idx {
		if i < 0 || i >= c.shape[d] {
			return 0, fmt.Errorf("index %d out of range for dimension %d of shape %v", i, d, c.shape)
		}
		flat = flat*c.shape[d] + i
	}
	return c.values[flat], nil
}

// bind checks the table against the shape a node expects and returns it in
// canonical order with that shape.
func (c CPT) bind(shape []int) (CPT, error) {
	if c.err != nil {
		return CPT{}, c.err
	}
	want := product(shape)

	if c.rows != nil {
		own, configs := shape[0], want/shape[0]
		if len(c.rows) != configs || len(c.rows[0]) != own {
			return CPT{}, fmt.Errorf("%w: expected %d rows of %d values, got %d rows of %d",
				ErrShapeMismatch, configs, own, len(c.rows), c.Len()/max(len(c.rows), 1))
		}
		values := make([]float64, want)
		for j, row := range c.rows {
			for s, p := range row {
				values[s*configs+j] = p
			}
		}
		return CPT{shape: slices.Clone(shape), values: values}, nil
	}

	if c.shape != nil && !slices.Equal(c.shape, shape) {
		return CPT{}, fmt.Errorf("%w: table shape %v, node expects %v", ErrShapeMismatch, c.shape, shape)
	}
	if len(c.values) != want {
		return CPT{}, fmt.Errorf("%w: expected %d values for shape %v, got %d", ErrShapeMismatch, want, shape, len(c.values))
	}
	return CPT{shape: slices.Clone(shape), values: slices.Clone(c.values)}, nil
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}
