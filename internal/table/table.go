package table

import (
	"fmt"
	"math"
)

// CellKind tags the value stored in a Cell.
type CellKind uint8

const (
	CellMissing CellKind = iota
	CellNumber
	CellText
)

// Cell is a single typed value of a column.
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
}

// Number returns a numeric cell. NaN is stored as a missing cell.
func Number(v float64) Cell {
	if math.IsNaN(v) {
		return Cell{Kind: CellMissing}
	}
	return Cell{Kind: CellNumber, Num: v}
}

// Text returns a textual (categorical) cell.
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// Missing returns the missing-value marker cell.
func Missing() Cell { return Cell{Kind: CellMissing} }

func (c Cell) IsMissing() bool { return c.Kind == CellMissing }

// String renders the cell the way it is written to delimited output.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return FormatFloat(c.Num)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// Kind is the closed type tag of a column.
type Kind uint8

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
	// Indicator marks a 0/1 column produced by one-hot encoding.
	Indicator bool
}

// Kind inspects the stored cells: a column holding any text cell is
// categorical, everything else (including an all-missing column) is numeric.
func (c *Column) Kind() Kind {
	for _, cell := range c.Cells {
		if cell.Kind == CellText {
			return Categorical
		}
	}
	return Numeric
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			n++
		}
	}
	return n
}

// Numbers returns the non-missing numeric values in row order.
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Kind == CellNumber {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Texts returns the non-missing textual values in row order.
func (c *Column) Texts() []string {
	out := make([]string, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Kind == CellText {
			out = append(out, cell.Text)
		}
	}
	return out
}

// Distinct counts distinct non-missing values.
func (c *Column) Distinct() int {
	nums := map[float64]struct{}{}
	texts := map[string]struct{}{}
	for _, cell := range c.Cells {
		switch cell.Kind {
		case CellNumber:
			nums[cell.Num] = struct{}{}
		case CellText:
			texts[cell.Text] = struct{}{}
		}
	}
	return len(nums) + len(texts)
}

// FillMissing replaces every missing cell with v and returns how many were filled.
// Filling with a missing cell is a no-op.
func (c *Column) FillMissing(v Cell) int {
	if v.IsMissing() {
		return 0
	}
	n := 0
	for i := range c.Cells {
		if c.Cells[i].IsMissing() {
			c.Cells[i] = v
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	cells := make([]Cell, len(c.Cells))
	copy(cells, c.Cells)
	return &Column{Name: c.Name, Cells: cells, Indicator: c.Indicator}
}

// Table is an ordered set of equally long columns.
type Table struct {
	Columns []*Column
}

// New builds a table from columns. All columns must have the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{Columns: cols}
	if len(cols) > 0 {
		n := len(cols[0].Cells)
		for _, c := range cols[1:] {
			if len(c.Cells) != n {
				return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Cells), n)
			}
		}
	}
	return t, nil
}

// Rows returns the row count.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Width returns the column count.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Cell {
	out := make([]Cell, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Cells[i]
	}
	return out
}

// Clone returns a deep copy that shares no cell storage with t.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

// KeepRows retains the rows where keep[i] is true and returns the number removed.
func (t *Table) KeepRows(keep []bool) int {
	n := t.Rows()
	if len(keep) != n {
		panic(fmt.Sprintf("table: keep mask has %d entries for %d rows", len(keep), n))
	}
	for _, c := range t.Columns {
		w := 0
		for i, cell := range c.Cells {
			if keep[i] {
				c.Cells[w] = cell
				w++
			}
		}
		c.Cells = c.Cells[:w]
	}
	return n - t.Rows()
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.Rows() {
		n = t.Rows()
	}
	if n < 0 {
		n = 0
	}
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, n)
		copy(cells, c.Cells[:n])
		out.Columns[i] = &Column{Name: c.Name, Cells: cells, Indicator: c.Indicator}
	}
	return out
}
