// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package lwr implements a command to examine
// the likelihood weight ratios of placement samples.
package lwr

import (
	"fmt"
	"slices"

	"github.com/jprado/placemass/placement/jplace"
	"github.com/js-arias/command"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var Command = &command.Command{
	Usage: `lwr [--best] [--bins <number>] [--plot <file>]
	<jplace-file>...`,
	Short: "examine likelihood weight ratios",
	Long: `
Command lwr reads a set of jplace files and prints a table summarizing the
likelihood weight ratios (LWR) of the placements of each sample: the number
of pqueries and placements, and the mean, median, and 95% quantile of the
ratios.

The arguments of the command are the jplace files to examine.

By default, all placements of each pquery are used. If the flag --best is
given, only the most likely placement of each pquery is used.

If the flag --plot is given, a histogram of the ratios, pooled over all
samples, is saved to the indicated file; the image format is taken from the
file extension (".svg", ".png", or ".pdf"). By default, 20 histogram bins
are used; use the flag --bins to set a different number.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var bestOnly bool
var binsFlag int
var plotFile string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&bestOnly, "best", false, "")
	c.Flags().IntVar(&binsFlag, "bins", 20, "")
	c.Flags().StringVar(&plotFile, "plot", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting jplace files")
	}

	fmt.Fprintf(c.Stdout(), "sample\tpqueries\tplacements\tmean\tmedian\tq95\n")
	var pooled []float64
	for _, a := range args {
		s, err := jplace.ReadFile(a)
		if err != nil {
			return err
		}

		var ratios []float64
		var placements int
		for _, pq := range s.Pqueries {
			placements += len(pq.Placements)
			if bestOnly {
				ratios = append(ratios, pq.Best().LWR)
				continue
			}
			for _, p := range pq.Placements {
				ratios = append(ratios, p.LWR)
			}
		}
		if len(ratios) == 0 {
			continue
		}
		slices.Sort(ratios)
		pooled = append(pooled, ratios...)

		fmt.Fprintf(c.Stdout(), "%s\t%d\t%d\t%.6f\t%.6f\t%.6f\n",
			s.Name, len(s.Pqueries), placements,
			stat.Mean(ratios, nil),
			stat.Quantile(0.5, stat.Empirical, ratios, nil),
			stat.Quantile(0.95, stat.Empirical, ratios, nil))
	}

	if plotFile == "" {
		return nil
	}
	return savePlot(plotFile, pooled)
}

func savePlot(name string, ratios []float64) error {
	p := plot.New()
	p.Title.Text = "likelihood weight ratios"
	p.X.Label.Text = "LWR"
	p.Y.Label.Text = "placements"

	h, err := plotter.NewHist(plotter.Values(ratios), binsFlag)
	if err != nil {
		return fmt.Errorf("while building histogram: %v", err)
	}
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	return nil
}
