// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package heattree implements a command to draw
// the reference tree with edges colored
// by the accumulated placement mass of a set of samples.
package heattree

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/colornorm"
	"github.com/jprado/placemass/heattree"
	"github.com/jprado/placemass/placement"
	"github.com/jprado/placemass/placement/jplace"
	"github.com/js-arias/command"
	"github.com/schollz/progressbar/v3"
)

var Command = &command.Command{
	Usage: `heattree [--log-scaling] [--clip-under]
	[--min-value <value>] [--max-value <value>] [--mask-value <value>]
	[--gradient <name>] [--absolute] [--point-mass]
	[--cpu <number>] [-o|--output <file>]
	<jplace-file>...`,
	Short: "draw a tree colored by the accumulated placement mass",
	Long: `
Command heattree reads a set of jplace files over a single reference tree,
accumulates the placement mass of all samples on each edge, and draws the
tree as an SVG file with the edges colored by their mass.

The arguments of the command are the jplace files to accumulate. All files
must have the same reference tree topology with the same edge numbering.

By default, every sample is normalized to a total mass of one before the
accumulation, and the accumulated masses are rescaled so that they sum to
one. Use the flag --absolute to accumulate the raw placement masses instead.

If the flag --point-mass is given, every pquery is reduced to its most likely
placement before the accumulation.

By default, the color scale is linear between zero and the largest mass. With
the flag --log-scaling the scale is logarithmic; as a mass of zero has no
logarithm, the scale minimum is then moved to a positive value, and branches
without mass are drawn with a gray mask color. Use the flags --min-value,
--max-value, and --mask-value to set the domain of the scale explicitly, and
the flag --clip-under to clamp values below the minimum instead of masking
them.

By default, the incandescent gradient is used to color the edges; other
values for the flag --gradient are "iridescent" and "rainbow".

By default, all available CPUs will be used in the calculations. Set the flag
--cpu to use a different number of CPUs.

The SVG image is written to the file "heattree.svg"; use the flag --output,
or -o, to set a different file name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var logScaling bool
var clipUnder bool
var absolute bool
var pointMass bool
var minValue float64
var maxValue float64
var maskValue float64
var gradName string
var numCPU int
var output string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&logScaling, "log-scaling", false, "")
	c.Flags().BoolVar(&clipUnder, "clip-under", false, "")
	c.Flags().BoolVar(&absolute, "absolute", false, "")
	c.Flags().BoolVar(&pointMass, "point-mass", false, "")
	c.Flags().Float64Var(&minValue, "min-value", math.NaN(), "")
	c.Flags().Float64Var(&maxValue, "max-value", math.NaN(), "")
	c.Flags().Float64Var(&maskValue, "mask-value", math.NaN(), "")
	c.Flags().StringVar(&gradName, "gradient", "incandescent", "")
	c.Flags().IntVar(&numCPU, "cpu", runtime.GOMAXPROCS(0), "")
	c.Flags().StringVar(&output, "output", "heattree.svg", "")
	c.Flags().StringVar(&output, "o", "heattree.svg", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting jplace files")
	}
	grad, err := heattree.Scheme(gradName)
	if err != nil {
		return c.UsageError(err.Error())
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetWriter(c.Stderr()),
		progressbar.OptionSetDescription("reading samples"),
		progressbar.OptionShowCount(),
	)
	tree, masses, err := aggregate.AccumulateMass(context.Background(), aggregate.Param{
		Files: args,
		Load:  jplace.ReadFile,
		CPU:   numCPU,
		Progress: func(_, _ int, path string) {
			bar.Add(1)
			bar.Describe(filepath.Base(path))
		},
	}, !absolute, pointMass)
	bar.Finish()
	if err != nil {
		return err
	}

	cfg := colornorm.Config{
		Log:       logScaling,
		ClipUnder: clipUnder,
		MinValue:  optValue(minValue),
		MaxValue:  optValue(maxValue),
		MaskValue: optValue(maskValue),
	}
	norm, vals, warn := colornorm.Sequential(masses, cfg)
	if warn != "" {
		fmt.Fprintf(c.Stderr(), "warning: %s\n", warn)
	}

	return writeSVG(output, tree, vals, heattree.Options{
		Norm:     norm,
		Gradient: grad,
	})
}

// OptValue turns a NaN flag default
// into an unset option value.
func optValue(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func writeSVG(name string, t *placement.Tree, vals []float64, opt heattree.Options) (err error) {
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
	if err := heattree.WriteSVG(bw, t, vals, opt); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	return nil
}
