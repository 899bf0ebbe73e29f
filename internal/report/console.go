package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"tiny-dp-go/internal/engine"
)

// ConsoleTable writes one field of every cell, highest row first, colouring each
// entry by its cell category when colors is set.
func ConsoleTable(w io.Writer, grid *engine.Grid, field engine.Field, colors bool) error {
	cells, err := grid.Export(field)
	if err != nil {
		return err
	}
	tags := grid.Render()
	au := aurora.NewAurora(colors)

	width := 0
	for _, row := range cells {
		for _, s := range row {
			width = max(width, len(s))
		}
	}

	fmt.Fprintln(w, au.Bold(fmt.Sprintf("%s:", field)))
	for i, row := range cells {
		for j, s := range row {
			category, _ := engine.ParseCategory(string(tags[i][j]))
			fmt.Fprint(w, paint(au, category, fmt.Sprintf("%*s", width, s)))
			if j < len(row)-1 {
				fmt.Fprint(w, " ")
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func paint(au aurora.Aurora, category engine.Category, s string) aurora.Value {
	switch category {
	case engine.Wall:
		return au.BrightBlack(s)
	case engine.Start:
		return au.Cyan(s)
	case engine.Goal:
		return au.Green(s)
	case engine.Ditch:
		return au.Red(s)
	case engine.Ravine:
		return au.Magenta(s)
	case engine.Bonus:
		return au.Blue(s)
	case engine.Fine:
		return au.Yellow(s)
	default:
		return au.White(s)
	}
}

// Summary is the one-line outcome printed after an evaluation.
func Summary(w io.Writer, res engine.Result, colors bool) {
	au := aurora.NewAurora(colors)
	status := au.Green("converged")
	if !res.Converged {
		status = au.Red("not converged")
	}
	fmt.Fprintf(w, "%s after %d sweeps, final delta %.3g\n", status, res.Sweeps, res.Delta)
}

// Deltas lists the per-sweep deltas, one per line.
func Deltas(w io.Writer, deltas []float64) {
	var b strings.Builder
	for i, d := range deltas {
		fmt.Fprintf(&b, "sweep %3d  delta %.6f\n", i+1, d)
	}
	io.WriteString(w, b.String())
}
