// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package nhd implements a command to calculate
// the pairwise node histogram distance matrix
// of a set of placement samples.
package nhd

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/nhd"
	"github.com/jprado/placemass/placement"
	"github.com/jprado/placemass/placement/jplace"
	"github.com/js-arias/command"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/mat"
)

var Command = &command.Command{
	Usage: `nhd [--bins <number>] [--point-mass]
	[--cpu <number>] [-o|--output <file>]
	<jplace-file>...`,
	Short: "calculate pairwise node histogram distances",
	Long: `
Command nhd reads a set of jplace files over a single reference tree and
calculates the pairwise node histogram distance between the samples: each
sample is reduced to one histogram per tree node, describing how the sample
mass is distributed by distance from the node, and each pair of samples is
compared by the earth mover's distance between their histograms.

The arguments of the command are the jplace files to compare. All files must
have the same reference tree topology with the same edge numbering.

By default, 25 bins are used per node histogram; use the flag --bins to set a
different number.

If the flag --point-mass is given, every pquery is reduced to its most likely
placement before building the histograms.

By default, all available CPUs will be used in the calculations. Set the flag
--cpu to use a different number of CPUs.

The output is a CSV matrix with the sample names as first row and column. By
default it is written to the file "nhd-matrix.csv"; use the flag --output, or
-o, to set a different file name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var binsFlag int
var numCPU int
var pointMass bool
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&binsFlag, "bins", nhd.DefaultBins, "")
	c.Flags().IntVar(&numCPU, "cpu", runtime.GOMAXPROCS(0), "")
	c.Flags().BoolVar(&pointMass, "point-mass", false, "")
	c.Flags().StringVar(&output, "output", "nhd-matrix.csv", "")
	c.Flags().StringVar(&output, "o", "nhd-matrix.csv", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting jplace files")
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetWriter(c.Stderr()),
		progressbar.OptionSetDescription("reading samples"),
		progressbar.OptionShowCount(),
	)
	sets, _, err := aggregate.Collect(context.Background(), aggregate.Param{
		Files:    args,
		Load:     jplace.ReadFile,
		CPU:      numCPU,
		Matrices: true,
		Progress: func(_, _ int, path string) {
			bar.Add(1)
			bar.Describe(filepath.Base(path))
		},
	}, func(s *placement.Sample, sh *aggregate.Shared) (nhd.HistogramSet, error) {
		if pointMass {
			s.PointMass()
		}
		return nhd.Build(s, sh, binsFlag), nil
	})
	bar.Finish()
	if err != nil {
		return err
	}

	m := nhd.Matrix(sets)
	if err := writeMatrix(output, args, m); err != nil {
		return err
	}
	return nil
}

func sampleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func writeMatrix(name string, files []string, m *mat.SymDense) (err error) {
	n := len(files)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)

	header := make([]string, n+1)
	for i, p := range files {
		header[i+1] = sampleName(p)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		row := make([]string, n+1)
		row[0] = sampleName(files[i])
		for j := 0; j < n; j++ {
			row[j+1] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
