package backtest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/store"
)

// rebalanceDates picks one trading day per month out of tradingDays.
//
//	"last"  - the month's last trading day
//	"first" - the month's first trading day
//	"1".."28" - that calendar day, rolled forward to the next trading day
//	            when it falls on a holiday, but never into the next month
func rebalanceDates(ctx context.Context, cal store.CalendarStore, tradingDays []time.Time, policy, mkt string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(tradingDays) == 0 {
		return out, nil
	}

	type month struct{ y, m int }
	byMonth := make(map[month][]time.Time)
	var order []month
	for _, d := range tradingDays {
		k := month{d.Year(), int(d.Month())}
		if _, seen := byMonth[k]; !seen {
			order = append(order, k)
		}
		byMonth[k] = append(byMonth[k], d)
	}

	switch policy {
	case "last":
		for _, k := range order {
			days := byMonth[k]
			out[market.FormatDay(days[len(days)-1])] = true
		}
		return out, nil
	case "first":
		for _, k := range order {
			out[market.FormatDay(byMonth[k][0])] = true
		}
		return out, nil
	}

	dom, err := strconv.Atoi(policy)
	if err != nil || dom < 1 || dom > 28 {
		return nil, fmt.Errorf("rebalance_day must be 'last', 'first' or 1-28, got %q", policy)
	}

	tradingSet := make(map[string]bool, len(tradingDays))
	for _, d := range tradingDays {
		tradingSet[market.FormatDay(d)] = true
	}

	for _, k := range order {
		target := time.Date(k.y, time.Month(k.m), dom, 0, 0, 0, 0, time.UTC)
		targetStr := market.FormatDay(target)
		if tradingSet[targetStr] {
			out[targetStr] = true
			continue
		}
		next, ok, err := cal.NextTradingDay(ctx, target, mkt)
		if err != nil {
			return nil, err
		}
		// Roll forward only within the same month and the run's own range.
		if ok && tradingSet[market.FormatDay(next)] && next.Month() == target.Month() && next.Year() == target.Year() {
			out[market.FormatDay(next)] = true
		}
	}
	return out, nil
}
