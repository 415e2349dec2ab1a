// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package simulate implements a command to create
// a set of random placements on a reference tree.
package simulate

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jprado/placemass/placement"
	"github.com/jprado/placemass/placement/jplace"
	"github.com/js-arias/command"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var Command = &command.Command{
	Usage: `simulate [--pqueries <number>] [--seed <number>]
	[-o|--output <file>]
	<newick-tree-file>`,
	Short: "create random placements on a reference tree",
	Long: `
Command simulate reads a reference tree in newick format and creates a jplace
file with random placements on it, for testing and benchmarking of the
analysis commands.

The argument of the command is the name of the tree file. If the tree does
not have explicit edge numbers in the "{<number>}" jplace notation, edges are
numbered in the order in which they appear in the file.

Each pquery has up to three candidate placements: attachment edges are drawn
proportionally to their branch length, positions uniformly along the edge,
and the likelihood weight ratios from a normalized exponential draw. By
default, 100 pqueries are created; use the flag --pqueries to set a
different number.

The pseudo-random generator is seeded from the current time. Use the flag
--seed to set an explicit seed for reproducible output.

The result is written to the file "random.jplace"; use the flag --output, or
-o, to set a different file name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var numPqueries int
var seed int64
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&numPqueries, "pqueries", 100, "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
	c.Flags().StringVar(&output, "output", "random.jplace", "")
	c.Flags().StringVar(&output, "o", "random.jplace", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting newick tree file")
	}

	d, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	t, err := placement.ParseNewick(string(d))
	if err != nil {
		return fmt.Errorf("while reading file %q: %v", args[0], err)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := randomSample(t, numPqueries, uint64(seed))

	return writeSample(output, s)
}

func randomSample(t *placement.Tree, pqueries int, seed uint64) *placement.Sample {
	src := rand.NewSource(seed)
	uni := distuv.Uniform{Min: 0, Max: 1, Src: src}
	exp := distuv.Exponential{Rate: 1, Src: src}

	// cumulative branch lengths for length-weighted edge picks
	cum := make([]float64, t.NumEdges())
	var total float64
	for i, e := range t.Edges() {
		total += e.Length
		cum[i] = total
	}

	s := &placement.Sample{Name: "random", Tree: t}
	for i := 0; i < pqueries; i++ {
		pq := &placement.Pquery{
			Names:        []string{fmt.Sprintf("q%d", i)},
			Multiplicity: 1,
		}

		k := 1 + int(uni.Rand()*3)
		lwrs := make([]float64, k)
		var sum float64
		for j := range lwrs {
			lwrs[j] = exp.Rand()
			sum += lwrs[j]
		}

		for j := range lwrs {
			e := t.Edge(pickEdge(cum, uni.Rand()*total))
			pq.Placements = append(pq.Placements, placement.Placement{
				Edge:          e.ID,
				Likelihood:    -1000 - 100*exp.Rand(),
				LWR:           lwrs[j] / sum,
				DistalLength:  uni.Rand() * e.Length,
				PendantLength: exp.Rand() * 0.1,
			})
		}
		s.Pqueries = append(s.Pqueries, pq)
	}
	return s
}

// PickEdge returns the index of the first edge
// whose cumulative branch length is above the draw.
func pickEdge(cum []float64, v float64) int {
	i := sort.SearchFloat64s(cum, v)
	if i >= len(cum) {
		i = len(cum) - 1
	}
	return i
}

func writeSample(name string, s *placement.Sample) (err error) {
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
	if err := jplace.Write(bw, s); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	return bw.Flush()
}
