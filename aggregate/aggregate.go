// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package aggregate implements the concurrent engine
// used to process a set of placement samples
// over a single shared reference tree:
// parallel loading,
// one-time construction of the shared per-tree structures,
// and thread-safe accumulation of per-sample results.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/jprado/placemass/placement"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Shared holds the tree-derived structures
// that are identical for every sample of a run.
// They are built exactly once,
// from whichever sample is processed first,
// and are read-only afterwards.
type Shared struct {
	// Tree is the reference tree of the run.
	Tree *placement.Tree

	// Dist is the all-pairs node distance matrix,
	// nil unless requested.
	Dist *mat.SymDense

	// Side is the node side matrix,
	// nil unless requested.
	Side *mat.Dense
}

// A Progress function is called as each file begins processing.
// It receives the zero-based file index,
// the total file count,
// and the display path of the file.
// Calls can come from any worker goroutine.
type Progress func(file, total int, path string)

// A Loader reads a sample from a file.
// It must be safe to call concurrently for different files.
type Loader func(path string) (*placement.Sample, error)

// Param collects the parameters of an aggregation run.
type Param struct {
	// Files is the ordered list of input files.
	// It must not be empty.
	Files []string

	// Load reads a single sample.
	Load Loader

	// CPU is the number of worker goroutines.
	// The default (zero) uses all available CPU.
	CPU int

	// Progress reports each file as it begins processing.
	// It can be nil.
	Progress Progress

	// Matrices requests the node distance and side matrices
	// as part of the shared structures.
	Matrices bool
}

// SharedCell is the once-only publication point
// of the shared structures.
// The first worker to arrive builds them under the lock;
// workers that arrive while the build is in progress
// block on the lock and then observe the finished value.
type sharedCell struct {
	mu       sync.Mutex
	shared   *Shared
	matrices bool
}

func (c *sharedCell) get(s *placement.Sample) *Shared {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shared == nil {
		sh := &Shared{Tree: s.Tree}
		if c.matrices {
			sh.Dist = placement.NodeDistances(s.Tree)
			sh.Side = placement.RootSides(s.Tree)
		}
		c.shared = sh
	}
	return c.shared
}

// Collect runs the reduce function on every input sample
// and returns the per-sample results in input order,
// together with the shared structures of the run.
//
// Files are distributed dynamically over a fixed worker pool;
// loading and reduction run in parallel,
// and only the one-time build of the shared structures
// and the result-slot stores are serialized.
// Every sample is validated against the shared reference tree;
// a mismatch aborts the whole run.
// Any error cancels the remaining work
// and is returned naming the offending file.
func Collect[T any](ctx context.Context, p Param, reduce func(*placement.Sample, *Shared) (T, error)) ([]T, *Shared, error) {
	if len(p.Files) == 0 {
		return nil, nil, errors.New("empty input file list")
	}
	if p.Load == nil {
		return nil, nil, errors.New("undefined sample loader")
	}
	cpu := p.CPU
	if cpu <= 0 {
		cpu = runtime.GOMAXPROCS(0)
	}

	res := make([]T, len(p.Files))
	cell := &sharedCell{matrices: p.Matrices}

	g, ctx := errgroup.WithContext(ctx)
	queue := make(chan int)
	g.Go(func() error {
		defer close(queue)
		for i := range p.Files {
			select {
			case queue <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < cpu; w++ {
		g.Go(func() error {
			for fi := range queue {
				path := p.Files[fi]
				if p.Progress != nil {
					p.Progress(fi, len(p.Files), path)
				}

				s, err := p.Load(path)
				if err != nil {
					return fmt.Errorf("sample %q: %v", path, err)
				}

				sh := cell.get(s)
				if !placement.Compatible(sh.Tree, s.Tree) {
					return fmt.Errorf("sample %q: differing reference trees", path)
				}

				// The reduction is the CPU-bound part;
				// it runs outside any lock.
				v, err := reduce(s, sh)
				if err != nil {
					return fmt.Errorf("sample %q: %v", path, err)
				}
				res[fi] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return res, cell.shared, nil
}

// A MassAccum accumulates per-sample mass vectors
// into a single total vector.
// It is safe for concurrent use:
// each Combine call is a single guarded vector addition.
type MassAccum struct {
	mu     sync.Mutex
	masses []float64
}

// Combine folds one per-sample mass vector into the accumulator.
// All combined vectors must have the same length.
func (a *MassAccum) Combine(masses []float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.masses == nil {
		a.masses = make([]float64, len(masses))
		copy(a.masses, masses)
		return nil
	}
	if len(a.masses) != len(masses) {
		return errors.New("differing reference trees")
	}
	floats.Add(a.masses, masses)
	return nil
}

// Masses returns the accumulated vector.
// It must not be called while Combine calls are in flight.
func (a *MassAccum) Masses() []float64 { return a.masses }

// AccumulateMass loads every input sample,
// folds its per-edge mass vector into a single total,
// and returns the shared reference tree
// and the accumulated vector.
// With relative set,
// every sample is normalized to a total mass of one before folding,
// and the final vector is rescaled once so that it sums to one.
// With pointMass set,
// every pquery is reduced to its best placement before folding.
// Peak memory is bounded by a single sample
// plus the accumulated vector.
func AccumulateMass(ctx context.Context, p Param, relative, pointMass bool) (*placement.Tree, []float64, error) {
	var acc MassAccum
	_, sh, err := Collect(ctx, p, func(s *placement.Sample, _ *Shared) (struct{}, error) {
		if pointMass {
			s.PointMass()
		}
		if relative {
			s.Normalize()
		}
		return struct{}{}, acc.Combine(s.MassPerEdge())
	})
	if err != nil {
		return nil, nil, err
	}

	masses := acc.Masses()
	if relative {
		if sum := floats.Sum(masses); sum > 0 {
			floats.Scale(1/sum, masses)
		}
	}
	return sh.Tree, masses, nil
}
