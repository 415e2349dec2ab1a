// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package diversity implements a command to calculate
// phylogenetic diversity metrics
// for a set of placement samples.
package diversity

import (
	"fmt"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/diversity"
	"github.com/jprado/placemass/placement"
	"github.com/jprado/placemass/placement/jplace"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `diversity [--pd] [--bwpd] [--mpd] [--theta <value>]
	<jplace-file>...`,
	Short: "calculate diversity metrics of placement samples",
	Long: `
Command diversity reads a set of jplace files and prints a table with
phylogenetic diversity metrics for each sample.

The arguments of the command are the jplace files to examine. Unlike the
comparison commands, each sample is examined on its own tree.

The available metrics are Faith's phylogenetic diversity (flag --pd), the
balance weighted phylogenetic diversity (flag --bwpd), and the mass-weighted
mean pairwise distance between placements (flag --mpd). If no metric is
selected, --pd and --bwpd are calculated.

The flag --theta sets the balance exponent of the BWPD metric; the default is
one.

The output is a tab-delimited table printed to the standard output, with one
row per sample.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var calcPD bool
var calcBWPD bool
var calcMPD bool
var theta float64

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&calcPD, "pd", false, "")
	c.Flags().BoolVar(&calcBWPD, "bwpd", false, "")
	c.Flags().BoolVar(&calcMPD, "mpd", false, "")
	c.Flags().Float64Var(&theta, "theta", 1, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting jplace files")
	}
	if !calcPD && !calcBWPD && !calcMPD {
		calcPD = true
		calcBWPD = true
	}

	header := "sample"
	if calcPD {
		header += "\tPD"
	}
	if calcBWPD {
		header += "\tBWPD"
	}
	if calcMPD {
		header += "\tMPD"
	}
	fmt.Fprintf(c.Stdout(), "%s\n", header)

	for _, a := range args {
		s, err := jplace.ReadFile(a)
		if err != nil {
			return err
		}

		row := s.Name
		if calcPD {
			row += fmt.Sprintf("\t%.6f", diversity.PD(s))
		}
		if calcBWPD {
			row += fmt.Sprintf("\t%.6f", diversity.BWPD(s, theta))
		}
		if calcMPD {
			sh := &aggregate.Shared{
				Tree: s.Tree,
				Dist: placement.NodeDistances(s.Tree),
			}
			row += fmt.Sprintf("\t%.6f", diversity.MPD(s, sh))
		}
		fmt.Fprintf(c.Stdout(), "%s\n", row)
	}
	return nil
}
