package signal

import (
	"fmt"
	"math"
	"sort"
)

// Method names one normalization applied to a factor column.
type Method string

const (
	MethodRank Method = "rank" // cross-sectional percentile rank in [-1, 1]
	MethodMag  Method = "mag"  // clipped robust z through tanh/sigmoid
)

// FactorSpec declares the direction of a factor and which signal columns to
// derive from it. Ascending true means bigger is better; risk factors like
// volatility set it false.
type FactorSpec struct {
	FactorName string
	Ascending  bool
	Methods    []Method

	MagActivation   string  // "tanh" or "sigmoid"
	MagClipQuantile float64 // 0 disables extreme-value clipping
	MagZClip        float64
}

// DefaultSpec derives both rank and magnitude signals with the standing
// parameters: tanh activation, 1% tail clip, z clipped at 6.
func DefaultSpec(name string, ascending bool) FactorSpec {
	return FactorSpec{
		FactorName:      name,
		Ascending:       ascending,
		Methods:         []Method{MethodRank, MethodMag},
		MagActivation:   "tanh",
		MagClipQuantile: 0.01,
		MagZClip:        6.0,
	}
}

// RankColumn and MagColumn name the derived columns for a factor.
func (s FactorSpec) RankColumn() string { return s.FactorName + "_rank" }
func (s FactorSpec) MagColumn() string  { return s.FactorName + "_mag" }

// NormalizeCrossSection adds the derived signal columns for every spec to the
// frame. Raw factor columns are left in place for inspection.
func NormalizeCrossSection(f *Frame, specs []FactorSpec) error {
	for _, spec := range specs {
		raw, ok := f.Column(spec.FactorName)
		if !ok {
			return fmt.Errorf("missing factor column: %s", spec.FactorName)
		}
		for _, m := range spec.Methods {
			switch m {
			case MethodRank:
				if err := f.SetColumn(spec.RankColumn(), RankNormalize(raw, spec.Ascending)); err != nil {
					return err
				}
			case MethodMag:
				mag, err := MagnitudeNormalize(raw, spec)
				if err != nil {
					return fmt.Errorf("factor %s: %w", spec.FactorName, err)
				}
				if err := f.SetColumn(spec.MagColumn(), mag); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown method: %s", m)
			}
		}
	}
	return nil
}

// RankNormalize maps values to [-1, 1] by average-tie percentile rank.
// With ascending false the ordering is reversed, so smaller raw values score
// higher.
func RankNormalize(vals []float64, ascending bool) []float64 {
	n := len(vals)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if ascending {
			return vals[idx[a]] < vals[idx[b]]
		}
		return vals[idx[a]] > vals[idx[b]]
	})

	// Tied values share the average of their ordinal ranks.
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && vals[idx[j+1]] == vals[idx[i]] {
			j++
		}
		avg := float64(i+j+2) / 2.0 // ordinal ranks are 1-based
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	for i := range out {
		pct := ranks[i] / float64(n)
		out[i] = 2.0*pct - 1.0
	}
	return out
}

// MagnitudeNormalize produces a continuous direction-and-strength score:
// flip for descending factors, clip the tails, robust z-score, clip the z,
// then squash through tanh or sigmoid.
func MagnitudeNormalize(vals []float64, spec FactorSpec) ([]float64, error) {
	if spec.MagZClip <= 0 {
		return nil, fmt.Errorf("z_clip must be > 0")
	}
	if spec.MagClipQuantile != 0 && (spec.MagClipQuantile <= 0 || spec.MagClipQuantile >= 0.5) {
		return nil, fmt.Errorf("clip_quantile must be in (0, 0.5)")
	}

	x := make([]float64, len(vals))
	for i, v := range vals {
		if spec.Ascending {
			x[i] = v
		} else {
			x[i] = -v
		}
	}

	if spec.MagClipQuantile > 0 && len(x) > 0 {
		lo := quantile(x, spec.MagClipQuantile)
		hi := quantile(x, 1.0-spec.MagClipQuantile)
		for i := range x {
			if x[i] < lo {
				x[i] = lo
			}
			if x[i] > hi {
				x[i] = hi
			}
		}
	}

	z := robustZScore(x)
	for i := range z {
		if z[i] < -spec.MagZClip {
			z[i] = -spec.MagZClip
		}
		if z[i] > spec.MagZClip {
			z[i] = spec.MagZClip
		}
	}

	switch spec.MagActivation {
	case "tanh":
		for i := range z {
			z[i] = math.Tanh(z[i])
		}
	case "sigmoid":
		for i := range z {
			z[i] = 1.0 / (1.0 + math.Exp(-z[i]))
		}
	default:
		return nil, fmt.Errorf("unknown activation: %s", spec.MagActivation)
	}
	return z, nil
}

// robustZScore centers on the median and scales by the median absolute
// deviation. A zero MAD (all values equal) collapses to all zeros rather
// than dividing by zero.
func robustZScore(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}

	med := median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - med)
	}
	mad := median(dev)
	if mad == 0 || math.IsNaN(mad) {
		return out
	}

	for i, v := range vals {
		out[i] = (v - med) / mad
	}
	return out
}

func median(vals []float64) float64 {
	return quantile(vals, 0.5)
}

// quantile computes the q-th quantile with linear interpolation between
// order statistics.
func quantile(vals []float64, q float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)

	if len(s) == 1 {
		return s[0]
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo]*(1-frac) + s[hi]*frac
}
