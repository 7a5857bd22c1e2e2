package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/signal"
)

// ScoringStrategy produces scored cross-sections: stored factors in,
// normalized signals through the scorer, score column out. Selection and
// rebalancing are someone else's job.
type ScoringStrategy struct {
	Specs   []signal.FactorSpec
	Scorer  Scorer
	Builder *signal.Builder
}

// ScoreForDate builds the signal frame for one day and scores it. The error
// is signal.ErrNoFactorData when the day has no usable cross-section.
func (s *ScoringStrategy) ScoreForDate(ctx context.Context, date time.Time, universe []market.InstrumentID) (ScoreResult, error) {
	if len(s.Specs) == 0 {
		return ScoreResult{}, fmt.Errorf("factor specs cannot be empty")
	}

	f, err := s.Builder.BuildForDate(ctx, date, s.Specs, universe)
	if err != nil {
		return ScoreResult{}, err
	}
	return s.Scorer.Score(f)
}

// SignalsForDate returns the normalized frame without scoring, for
// inspection.
func (s *ScoringStrategy) SignalsForDate(ctx context.Context, date time.Time, universe []market.InstrumentID) (*signal.Frame, error) {
	if len(s.Specs) == 0 {
		return nil, fmt.Errorf("factor specs cannot be empty")
	}
	return s.Builder.BuildForDate(ctx, date, s.Specs, universe)
}
