// Package strategy combines normalized signals into a single per-instrument
// score for a trading day.
package strategy

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/signal"
)

// DefaultScoreColumn is where scorers write unless told otherwise. The
// underscore keeps it clear of real factor names.
const DefaultScoreColumn = "_score"

// ScoreResult carries the scored frame and the name of its score column.
type ScoreResult struct {
	Signals  *signal.Frame
	ScoreCol string
}

// Scorer derives a score column from a signal frame.
type Scorer interface {
	Score(f *signal.Frame) (ScoreResult, error)
}

// Term is one weighted input column of a linear score.
type Term struct {
	Col    string
	Weight float64
}

// LinearScorer computes score = bias + sum(weight * column), optionally
// squashed or re-ranked afterwards.
type LinearScorer struct {
	Terms  []Term
	OutCol string
	Bias   float64

	// PostTransform is "", "tanh", "sigmoid" or "rank".
	PostTransform string
}

func (l *LinearScorer) Score(f *signal.Frame) (ScoreResult, error) {
	if len(l.Terms) == 0 {
		return ScoreResult{}, fmt.Errorf("terms cannot be empty")
	}

	score := make([]float64, f.Len())
	for i := range score {
		score[i] = l.Bias
	}
	for _, t := range l.Terms {
		col, ok := f.Column(t.Col)
		if !ok {
			return ScoreResult{}, fmt.Errorf("signals missing term column: %s", t.Col)
		}
		for i := range score {
			score[i] += t.Weight * col[i]
		}
	}

	switch l.PostTransform {
	case "":
	case "tanh":
		for i := range score {
			score[i] = math.Tanh(score[i])
		}
	case "sigmoid":
		for i := range score {
			score[i] = 1.0 / (1.0 + math.Exp(-score[i]))
		}
	case "rank":
		score = signal.RankNormalize(score, true)
	default:
		return ScoreResult{}, fmt.Errorf("unknown post_transform: %s", l.PostTransform)
	}

	outCol := l.OutCol
	if outCol == "" {
		outCol = DefaultScoreColumn
	}
	if err := f.SetColumn(outCol, score); err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{Signals: f, ScoreCol: outCol}, nil
}
