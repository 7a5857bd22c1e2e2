// Package portfolio simulates a cash-plus-positions book through full
// rebalances with slippage and transaction-cost accounting.
package portfolio

import (
	"fmt"

	"github.com/rustyeddy/quant/market"
)

// Position is one holding. Quantity may be fractional; a zero quantity is
// equivalent to no position.
type Position struct {
	Quantity float64
	BuyPrice float64
}

// Portfolio owns a cash balance and a set of positions. It is mutated only
// by Rebalance; between rebalances it is read for valuation.
type Portfolio struct {
	Cash float64

	Slippage        float64
	TransactionCost float64
	ExchangeCost    float64
	ReinvestRatio   float64

	Positions map[market.InstrumentID]*Position
}

// New creates a portfolio with the given starting cash and a reinvest ratio
// of 1.0. Execution-model parameters can be set on the returned value.
func New(cash float64) *Portfolio {
	return &Portfolio{
		Cash:          cash,
		ReinvestRatio: 1.0,
		Positions:     make(map[market.InstrumentID]*Position),
	}
}

// TotalValue returns cash plus the marked value of every position that has a
// price. A holding with no price (halted or delisted) contributes 0; the next
// rebalance drops it.
func (p *Portfolio) TotalValue(prices map[market.InstrumentID]float64) float64 {
	total := p.Cash
	for id, pos := range p.Positions {
		px, ok := prices[id]
		if !ok {
			continue
		}
		total += pos.Quantity * px
	}
	return total
}

// Rebalance replaces the position set to match target weights. Positions not
// named in weights are dropped. Buys execute at price*(1+slippage), sells at
// price*(1-slippage); transaction cost accrues on the absolute traded value.
// A target instrument without a positive price is a hard failure: a trade
// that cannot be priced cannot be sized.
func (p *Portfolio) Rebalance(weights map[market.InstrumentID]float64, prices map[market.InstrumentID]float64) error {
	currentTotal := p.TotalValue(prices)
	targetTotal := currentTotal * p.ReinvestRatio

	newPositions := make(map[market.InstrumentID]*Position, len(weights))
	totalCost := 0.0

	for id, weight := range weights {
		price, ok := prices[id]
		if !ok {
			return fmt.Errorf("rebalance: missing price for instrument %d", id)
		}
		if price <= 0 {
			return fmt.Errorf("rebalance: non-positive price %v for instrument %d", price, id)
		}

		targetValue := targetTotal * weight

		currentValue := 0.0
		if pos, held := p.Positions[id]; held {
			currentValue = pos.Quantity * price
		}

		deltaValue := targetValue - currentValue

		execPrice := price * (1 - p.Slippage)
		if deltaValue > 0 {
			execPrice = price * (1 + p.Slippage)
		}

		totalCost += abs(deltaValue) * p.TransactionCost

		newPositions[id] = &Position{
			Quantity: targetValue / execPrice,
			BuyPrice: execPrice,
		}
	}

	// Remaining cash is measured against quoted prices, so the slippage paid
	// on execution shows up as a cash deduction.
	invested := 0.0
	for id, pos := range newPositions {
		invested += pos.Quantity * prices[id]
	}

	p.Positions = newPositions
	p.Cash = currentTotal - invested - totalCost
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
