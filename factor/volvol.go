package factor

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/market"
)

// VolOfVol layers two rolling windows: an annualized log-return volatility
// over VolWindow days, then the sample standard deviation of that volatility
// series over VolVolWindow days. High values flag unstable risk regimes.
type VolOfVol struct {
	VolWindow    int
	VolVolWindow int
	Annualize    int
}

func NewVolOfVol(volWindow, volvolWindow, annualize int) *VolOfVol {
	return &VolOfVol{VolWindow: volWindow, VolVolWindow: volvolWindow, Annualize: annualize}
}

func (v *VolOfVol) Name() string {
	return fmt.Sprintf("volvol_%dd_from_vol%dd", v.VolVolWindow, v.VolWindow)
}

func (v *VolOfVol) StateKey() string {
	return fmt.Sprintf("factor:volatility_of_volatility:%d:%d:%s", v.VolWindow, v.VolVolWindow, Version)
}

func (v *VolOfVol) BufferDays() int {
	return (v.VolWindow + v.VolVolWindow + 10) * 2
}

func (v *VolOfVol) Args() map[string]any {
	return map[string]any{
		"vol_window":    v.VolWindow,
		"volvol_window": v.VolVolWindow,
		"annualize":     v.Annualize,
	}
}

func (v *VolOfVol) Compute(bars []market.PriceBar) []Column {
	prices := make([]float64, len(bars))
	for i := range bars {
		prices[i] = bars[i].AdjClose
	}

	ret := logReturns(validPositive(prices))
	ann := math.Sqrt(float64(v.Annualize))

	vol := roll(ret, v.VolWindow, sampleStd)
	for i := range vol {
		if vol[i].Valid {
			vol[i].V *= ann
		}
	}

	vals := roll(vol, v.VolVolWindow, sampleStd)
	return []Column{{Name: v.Name(), Values: vals}}
}
