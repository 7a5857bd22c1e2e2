package factor

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/market"
)

// DollarVolume is the log of the rolling mean of daily traded value
// (adjusted close times adjusted volume). It proxies liquidity and is the
// usual first cut for tradability screens.
type DollarVolume struct {
	Window int
}

func NewDollarVolume(window int) *DollarVolume {
	return &DollarVolume{Window: window}
}

func (d *DollarVolume) Name() string {
	return fmt.Sprintf("dv_%dd_log", d.Window)
}

func (d *DollarVolume) StateKey() string {
	return fmt.Sprintf("factor:dollar_volume:%d:%s", d.Window, Version)
}

func (d *DollarVolume) BufferDays() int {
	return (d.Window + 10) * 2
}

func (d *DollarVolume) Args() map[string]any {
	return map[string]any{
		"window":    d.Window,
		"transform": "log",
		"field":     "adj_close*adj_volume",
	}
}

func (d *DollarVolume) Compute(bars []market.PriceBar) []Column {
	dv := make([]Scalar, len(bars))
	for i := range bars {
		price := bars[i].AdjClose
		volume := bars[i].AdjVolume
		if price > 0 && volume >= 0 && price*volume > 0 {
			dv[i] = Scalar{V: price * volume, Valid: true}
		}
	}

	vals := roll(dv, d.Window, mean)
	for i := range vals {
		if !vals[i].Valid {
			continue
		}
		if vals[i].V <= 0 {
			vals[i] = Scalar{}
			continue
		}
		vals[i].V = math.Log(vals[i].V)
	}
	return []Column{{Name: d.Name(), Values: vals}}
}
