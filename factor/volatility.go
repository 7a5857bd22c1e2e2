package factor

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/market"
)

// Volatility is the rolling sample standard deviation of daily log returns,
// annualized by sqrt(annualize).
type Volatility struct {
	Window    int
	Annualize int
}

func NewVolatility(window, annualize int) *Volatility {
	return &Volatility{Window: window, Annualize: annualize}
}

func (v *Volatility) Name() string {
	return fmt.Sprintf("vol_%dd_ann", v.Window)
}

func (v *Volatility) StateKey() string {
	return fmt.Sprintf("factor:volatility:%d:%d:%s", v.Window, v.Annualize, Version)
}

func (v *Volatility) BufferDays() int {
	return (v.Window + 10) * 2
}

func (v *Volatility) Args() map[string]any {
	return map[string]any{"window": v.Window, "annualize": v.Annualize}
}

func (v *Volatility) Compute(bars []market.PriceBar) []Column {
	prices := make([]float64, len(bars))
	for i := range bars {
		prices[i] = bars[i].AdjClose
	}

	ret := logReturns(validPositive(prices))
	ann := math.Sqrt(float64(v.Annualize))

	vals := roll(ret, v.Window, sampleStd)
	for i := range vals {
		if vals[i].Valid {
			vals[i].V *= ann
		}
	}
	return []Column{{Name: v.Name(), Values: vals}}
}
