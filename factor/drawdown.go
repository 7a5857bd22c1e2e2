package factor

import (
	"fmt"

	"github.com/rustyeddy/quant/market"
)

// MaxDrawdown is the worst peak-to-trough decline inside the trailing
// window: the minimum of price over running peak, minus one, scanning the
// window in order. Always non-positive; zero means the window never traded
// below a prior high.
type MaxDrawdown struct {
	Window int
}

func NewMaxDrawdown(window int) *MaxDrawdown {
	return &MaxDrawdown{Window: window}
}

func (m *MaxDrawdown) Name() string {
	return fmt.Sprintf("mdd_%dd", m.Window)
}

func (m *MaxDrawdown) StateKey() string {
	return fmt.Sprintf("factor:max_drawdown:%d:%s", m.Window, Version)
}

func (m *MaxDrawdown) BufferDays() int {
	return (m.Window + 10) * 2
}

func (m *MaxDrawdown) Args() map[string]any {
	return map[string]any{"window": m.Window}
}

func (m *MaxDrawdown) Compute(bars []market.PriceBar) []Column {
	prices := make([]float64, len(bars))
	for i := range bars {
		prices[i] = bars[i].AdjClose
	}
	scal := validPositive(prices)

	vals := roll(scal, m.Window, worstDecline)
	return []Column{{Name: m.Name(), Values: vals}}
}

func worstDecline(window []float64) float64 {
	peak := window[0]
	worst := 0.0
	for _, p := range window {
		if p > peak {
			peak = p
		}
		if d := p/peak - 1.0; d < worst {
			worst = d
		}
	}
	return worst
}
