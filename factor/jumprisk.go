package factor

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/market"
)

// JumpRisk flags large single-day price gaps. A day is a jump when the
// absolute close-to-close return lands in [Threshold, RatioLimit]; the upper
// bound discards data errors masquerading as thousand-percent moves. It emits
// two columns: the rolling max jump size and the rolling jump count.
type JumpRisk struct {
	Window     int
	Threshold  float64
	RatioLimit float64
}

func NewJumpRisk(window int, threshold, ratioLimit float64) *JumpRisk {
	return &JumpRisk{Window: window, Threshold: threshold, RatioLimit: ratioLimit}
}

// Name is the max column; CountName is the companion count column.
func (j *JumpRisk) Name() string {
	return fmt.Sprintf("jump_%dd_max", j.Window)
}

func (j *JumpRisk) CountName() string {
	return fmt.Sprintf("jump_%dd_cnt", j.Window)
}

func (j *JumpRisk) StateKey() string {
	return fmt.Sprintf("factor:jump:%d:%s", j.Window, Version)
}

func (j *JumpRisk) BufferDays() int {
	return (j.Window + 5) * 2
}

func (j *JumpRisk) Args() map[string]any {
	return map[string]any{
		"window":           j.Window,
		"jump_threshold":   j.Threshold,
		"jump_ratio_limit": j.RatioLimit,
	}
}

func (j *JumpRisk) Compute(bars []market.PriceBar) []Column {
	// Days where the gap cannot be computed (first bar, bad prices) count as
	// non-jump zeros, so both outputs are valid once the window fills.
	jumpVal := make([]Scalar, len(bars))
	isJump := make([]Scalar, len(bars))
	for i := range bars {
		jumpVal[i] = Scalar{Valid: true}
		isJump[i] = Scalar{Valid: true}
		if i == 0 {
			continue
		}
		prev := bars[i-1].AdjClose
		cur := bars[i].AdjClose
		if prev <= 0 || cur <= 0 {
			continue
		}
		gap := math.Abs(cur/prev - 1.0)
		if gap >= j.Threshold && gap <= j.RatioLimit {
			jumpVal[i].V = gap
			isJump[i].V = 1.0
		}
	}

	return []Column{
		{Name: j.Name(), Values: roll(jumpVal, j.Window, maxOf)},
		{Name: j.CountName(), Values: roll(isJump, j.Window, sum)},
	}
}
