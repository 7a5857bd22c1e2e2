package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/quant/market"
)

// SnapshotRow is one persisted line of a dated portfolio snapshot.
type SnapshotRow struct {
	Date         time.Time
	Instrument   market.InstrumentID
	Quantity     float64
	BuyPrice     float64
	CurrentPrice float64
	MarketValue  float64
}

// Snapshot exports the full portfolio state for one date: every position plus
// exactly one synthetic cash row under market.CashInstrument at price 1.0.
// Unlike valuation, a held position without a price is an error here — a
// snapshot is a persisted record and must not silently drop money.
func (p *Portfolio) Snapshot(date time.Time, prices map[market.InstrumentID]float64) ([]SnapshotRow, error) {
	ids := make([]market.InstrumentID, 0, len(p.Positions))
	for id := range p.Positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]SnapshotRow, 0, len(ids)+1)
	for _, id := range ids {
		pos := p.Positions[id]
		px, ok := prices[id]
		if !ok {
			return nil, fmt.Errorf("snapshot: missing price for instrument %d", id)
		}
		rows = append(rows, SnapshotRow{
			Date:         date,
			Instrument:   id,
			Quantity:     pos.Quantity,
			BuyPrice:     pos.BuyPrice,
			CurrentPrice: px,
			MarketValue:  pos.Quantity * px,
		})
	}

	rows = append(rows, SnapshotRow{
		Date:         date,
		Instrument:   market.CashInstrument,
		Quantity:     p.Cash,
		BuyPrice:     1.0,
		CurrentPrice: 1.0,
		MarketValue:  p.Cash,
	})

	return rows, nil
}
