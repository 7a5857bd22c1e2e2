package factor

import "math"

// validPositive wraps a raw series as scalars, valid only where the value is
// finite and strictly positive.
func validPositive(vals []float64) []Scalar {
	out := make([]Scalar, len(vals))
	for i, v := range vals {
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = Scalar{V: v, Valid: true}
		}
	}
	return out
}

// logReturns returns ln(p[i]/p[i-1]). Index 0 is invalid, as is any index
// where either price is invalid.
func logReturns(prices []Scalar) []Scalar {
	out := make([]Scalar, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i].Valid && prices[i-1].Valid {
			out[i] = Scalar{V: math.Log(prices[i].V / prices[i-1].V), Valid: true}
		}
	}
	return out
}

// roll applies f to each fully-populated trailing window. A window is valid
// only when it spans `window` observations and every one of them is valid.
func roll(vals []Scalar, window int, f func([]float64) float64) []Scalar {
	out := make([]Scalar, len(vals))
	if window <= 0 || len(vals) < window {
		return out
	}

	buf := make([]float64, 0, window)
	for i := window - 1; i < len(vals); i++ {
		buf = buf[:0]
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if !vals[j].Valid {
				ok = false
				break
			}
			buf = append(buf, vals[j].V)
		}
		if !ok {
			continue
		}
		out[i] = Scalar{V: f(buf), Valid: true}
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation, matching the convention of the
// research stack whose values these reproduce.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
