package engine

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ValueTable is a snapshot of cell values in storage order, value[row][col].
type ValueTable [][]float64

// Values copies the current value of every cell, perimeter included.
func (g *Grid) Values() ValueTable {
	data := make(ValueTable, g.rows)
	for r := 0; r < g.rows; r++ {
		data[r] = make([]float64, g.cols)
		for c := 0; c < g.cols; c++ {
			data[r][c] = g.cells[r][c].value
		}
	}
	return data
}

func (v ValueTable) Rows() int {
	return len(v)
}

func (v ValueTable) Cols() int {
	if len(v) == 0 {
		return 0
	}
	return len(v[0])
}

func (v ValueTable) Get(loc Location) float64 {
	if loc.Row < 0 || loc.Row >= len(v) || loc.Col < 0 || loc.Col >= len(v[loc.Row]) {
		return 0
	}
	return v[loc.Row][loc.Col]
}

// Print writes the table with the highest row first.
func (v ValueTable) Print(w io.Writer) {
	fmt.Fprintln(w, "value table:")
	for r := len(v) - 1; r >= 0; r-- {
		for c := 0; c < len(v[r]); c++ {
			fmt.Fprintf(w, "%6.2f ", v[r][c])
		}
		fmt.Fprintln(w)
	}
}

// Field names a per-cell property for Export and Print.
type Field string

const (
	FieldID       Field = "id"
	FieldValue    Field = "value"
	FieldReward   Field = "reward"
	FieldLocation Field = "location"
	FieldResets   Field = "resets"
)

func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldID, FieldValue, FieldReward, FieldLocation, FieldResets:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Export renders one field per cell. The first returned row is the highest
// grid row so the result reads bottom-to-top like the printed map.
func (g *Grid) Export(field Field) ([][]string, error) {
	format, err := fieldFormatter(field)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, g.rows)
	for r := g.rows - 1; r >= 0; r-- {
		line := make([]string, g.cols)
		for c := 0; c < g.cols; c++ {
			line[c] = format(&g.cells[r][c])
		}
		out = append(out, line)
	}
	return out, nil
}

func (g *Grid) Print(w io.Writer, field Field) error {
	rows, err := g.Export(field)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "------------")
	for _, line := range rows {
		fmt.Fprintln(w, strings.Join(line, " "))
	}
	return nil
}

func fieldFormatter(field Field) (func(*Cell) string, error) {
	switch field {
	case FieldID:
		return func(c *Cell) string { return c.category.Tag() }, nil
	case FieldValue:
		return func(c *Cell) string { return strconv.FormatFloat(c.value, 'f', 2, 64) }, nil
	case FieldReward:
		return func(c *Cell) string { return c.reward.String() }, nil
	case FieldLocation:
		return func(c *Cell) string { return c.loc.String() }, nil
	case FieldResets:
		return func(c *Cell) string {
			if !c.accessible {
				return "-"
			}
			return strconv.FormatBool(c.resets)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}
