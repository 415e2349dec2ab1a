// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package colornorm maps aggregated numeric vectors
// onto a bounded color scale domain,
// linearly or logarithmically,
// with the policy fix-ups needed
// to keep a logarithmic domain valid
// when the data contains zero values.
package colornorm

import (
	"fmt"
	"math"
	"slices"
)

// Defaults of the log-scale minimum fix-up.
// When autoscaling a logarithmic domain
// over data whose minimum is not positive,
// the minimum is replaced by AbsoluteMinThreshold
// if the maximum is above that threshold
// (absolute abundance counts),
// or by the maximum divided by RelativeMinFactor
// (samples normalized to unit mass).
// The values are empirical defaults of the original tool
// and are part of its observable behavior;
// change them only to match a different data regime.
var (
	AbsoluteMinThreshold = 1.0
	RelativeMinFactor    = 1e5
)

// A Config holds the user-facing normalization settings.
// A nil value means the user did not set the option.
type Config struct {
	// Log requests logarithmic scaling.
	Log bool

	// MinValue, MaxValue and MaskValue override
	// the autoscaled domain.
	MinValue, MaxValue, MaskValue *float64

	// ClipUnder requests that values below the domain minimum
	// are clamped to it instead of masked.
	ClipUnder bool
}

// A Norm is a bounded, monotonic mapping
// from scalar values to color scale positions in [0, 1].
type Norm struct {
	// Min and Max are the domain of the norm.
	Min, Max float64

	// Log selects logarithmic mapping.
	Log bool

	// Mask identifies values rendered with the mask color,
	// nil for no masking.
	Mask *float64

	// ClipUnder clamps values below Min to position 0.
	ClipUnder bool
}

// Normalize maps a value to a color scale position in [0, 1].
// It reports false for values that cannot be represented:
// non-finite values,
// values equal to the mask value,
// non-positive values under logarithmic mapping,
// and values below the domain minimum
// unless clipping was requested.
// Values above the domain maximum clamp to 1.
func (n Norm) Normalize(v float64) (pos float64, ok bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if n.Mask != nil && v == *n.Mask {
		return 0, false
	}

	if n.Log {
		if v <= 0 {
			if n.ClipUnder {
				return 0, true
			}
			return 0, false
		}
		pos = (math.Log10(v) - math.Log10(n.Min)) / (math.Log10(n.Max) - math.Log10(n.Min))
	} else {
		pos = (v - n.Min) / (n.Max - n.Min)
	}

	if pos < 0 {
		if !n.ClipUnder {
			return 0, false
		}
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, true
}

// Sequential builds the norm for a sequential color scale
// over the given values.
// The stages run in a fixed order:
// autoscale over the finite values,
// the mode-dependent minimum fix-up,
// the explicit user overrides,
// and a final consistency pass.
// It returns the norm,
// a possibly corrected copy of the values,
// and an advisory warning
// ("" when there is nothing to report).
//
// In the consistency pass,
// if the autoscaled minimum was not valid
// for a logarithmic domain,
// either the caller gave no explicit minimum nor clipping,
// and a warning reports that the masked color will be used,
// or every non-positive value is rewritten
// to half of the final domain minimum,
// so that the logarithmic transform stays defined.
func Sequential(values []float64, cfg Config) (Norm, []float64, string) {
	vs := slices.Clone(values)

	// autoscale
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min > max {
		min, max = 0, 1
	}
	autoMin := min

	// mode-dependent heuristic
	if cfg.Log {
		if min <= 0 {
			if max > AbsoluteMinThreshold {
				min = AbsoluteMinThreshold
			} else {
				min = max / RelativeMinFactor
			}
		}
	} else {
		min = 0
	}

	// explicit overrides always win
	n := Norm{Min: min, Max: max, Log: cfg.Log, Mask: cfg.MaskValue, ClipUnder: cfg.ClipUnder}
	if cfg.MinValue != nil {
		n.Min = *cfg.MinValue
	}
	if cfg.MaxValue != nil {
		n.Max = *cfg.MaxValue
	}

	// consistency pass
	var warn string
	if cfg.Log && autoMin <= 0 {
		if cfg.MinValue == nil && !cfg.ClipUnder {
			warn = fmt.Sprintf(
				"some values are zero or below, which cannot be shown with log scaling; the minimum was set to %g instead: those values will use the mask color (use --clip-under or --min-value to change this)",
				n.Min)
		} else {
			for i, v := range vs {
				if v <= 0 {
					vs[i] = n.Min / 2
				}
			}
		}
	}
	return n, vs, warn
}
