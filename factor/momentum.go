package factor

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/market"
)

// Momentum is trailing total return: price shifted by skip days over price
// shifted by skip+lookback days, minus one. A positive skip excludes the most
// recent days to sidestep short-term reversal.
type Momentum struct {
	Lookback int
	Skip     int
}

func NewMomentum(lookback, skip int) *Momentum {
	return &Momentum{Lookback: lookback, Skip: skip}
}

func (m *Momentum) Name() string {
	if m.Skip > 0 {
		return fmt.Sprintf("mom_%dd_skip%d", m.Lookback, m.Skip)
	}
	return fmt.Sprintf("mom_%dd", m.Lookback)
}

func (m *Momentum) StateKey() string {
	return fmt.Sprintf("factor:momentum:%d:%d:%s", m.Lookback, m.Skip, Version)
}

func (m *Momentum) BufferDays() int {
	return (m.Lookback + m.Skip + 10) * 2
}

func (m *Momentum) Args() map[string]any {
	return map[string]any{"lookback": m.Lookback, "skip": m.Skip}
}

func (m *Momentum) Compute(bars []market.PriceBar) []Column {
	vals := make([]Scalar, len(bars))
	for i := range bars {
		i0 := i - m.Skip
		i1 := i - m.Skip - m.Lookback
		if i1 < 0 {
			continue
		}
		p0 := bars[i0].AdjClose
		p1 := bars[i1].AdjClose
		if p0 <= 0 || p1 <= 0 {
			continue
		}
		v := p0/p1 - 1.0
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vals[i] = Scalar{V: v, Valid: true}
	}
	return []Column{{Name: m.Name(), Values: vals}}
}
