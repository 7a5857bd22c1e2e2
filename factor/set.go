package factor

import "github.com/rustyeddy/quant/config"

// DefaultSet is the standing factor roster: four momentum horizons, two
// volatility windows, a liquidity screen, vol-of-vol, jump risk and a yearly
// drawdown. Thresholds come from config.
func DefaultSet(cfg *config.Config) []Definition {
	return []Definition{
		NewMomentum(252, 21),
		NewMomentum(126, 0),
		NewMomentum(63, 0),
		NewMomentum(21, 0),
		NewVolatility(60, 252),
		NewVolatility(20, 252),
		NewDollarVolume(20),
		NewVolOfVol(20, 60, 252),
		NewJumpRisk(60, cfg.Price.JumpThreshold, cfg.Price.JumpRatioLimit),
		NewMaxDrawdown(252),
	}
}
