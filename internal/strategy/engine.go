package strategy

import (
	"fmt"

	"SignalDesk/internal/model"
)

// Thresholds holds every constant of the rule matrix.
type Thresholds struct {
	RSIOversold   float64
	RSIOverbought float64
	RSIWeight     int

	BollingerWeight int

	StochOversold   float64
	StochOverbought float64
	StochWeight     int

	// ADXTrend only selects the trend annotation; the reason text always
	// reads "ADX > 25".
	ADXTrend float64

	// ClassifyAt is the absolute score needed for CALL or PUT.
	ClassifyAt int

	ConfidenceBase int
	ConfidenceStep int
	ConfidenceCap  int
}

// DefaultThresholds returns the standard rule matrix:
// RSI 30/70 (weight 2), Bollinger pierce (weight 3), Stochastic 20/80 (weight 2),
// ADX trend above 25, classify at |score| >= 4, confidence 50 + 10 per point capped at 98.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:     30,
		RSIOverbought:   70,
		RSIWeight:       2,
		BollingerWeight: 3,
		StochOversold:   20,
		StochOverbought: 80,
		StochWeight:     2,
		ADXTrend:        25,
		ClassifyAt:      4,
		ConfidenceBase:  50,
		ConfidenceStep:  10,
		ConfidenceCap:   98,
	}
}

// Validate checks the thresholds are internally consistent.
func (t Thresholds) Validate() error {
	if t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", t.RSIOversold, t.RSIOverbought)
	}
	if t.StochOversold >= t.StochOverbought {
		return fmt.Errorf("stoch_oversold (%.1f) must be below stoch_overbought (%.1f)", t.StochOversold, t.StochOverbought)
	}
	if t.ClassifyAt <= 0 {
		return fmt.Errorf("classify_at must be positive")
	}
	if t.ConfidenceCap <= 0 || t.ConfidenceCap > 100 {
		return fmt.Errorf("confidence_cap must be within (0, 100]")
	}
	return nil
}

// Scorer converts one indicator row into a SignalResult. It keeps no state
// between calls and is safe for concurrent use.
type Scorer struct {
	T Thresholds
}

// NewScorer creates a Scorer.
func NewScorer(t Thresholds) *Scorer {
	return &Scorer{T: t}
}

// Score applies the rule matrix in order: RSI, Bollinger, Stochastic, then
// the non-scoring ADX annotation, and classifies the summed score.
func (s *Scorer) Score(row model.IndicatorRow) model.SignalResult {
	if row.RSI == nil || row.LowerBB == nil {
		return initializing()
	}

	var factors []model.Factor
	for _, rule := range []func(model.IndicatorRow) (model.Factor, bool){
		s.rsiRule,
		s.bollingerRule,
		s.stochasticRule,
		s.trendAnnotation,
	} {
		if f, ok := rule(row); ok {
			factors = append(factors, f)
		}
	}

	score := 0
	reasons := make([]string, 0, len(factors))
	for _, f := range factors {
		score += f.Delta
		reasons = append(reasons, f.Reason)
	}

	signal, confidence := s.classify(score)
	return model.SignalResult{
		Signal:     signal,
		Confidence: confidence,
		Reasons:    reasons,
		Score:      score,
		Factors:    factors,
	}
}

// Evaluate scores the most recent row of an enriched series.
func (s *Scorer) Evaluate(series *model.EnrichedSeries) model.SignalResult {
	return s.Score(series.Last())
}

func (s *Scorer) classify(score int) (model.Direction, int) {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	confidence := abs*s.T.ConfidenceStep + s.T.ConfidenceBase
	if confidence > s.T.ConfidenceCap {
		confidence = s.T.ConfidenceCap
	}
	switch {
	case score >= s.T.ClassifyAt:
		return model.DirectionCall, confidence
	case score <= -s.T.ClassifyAt:
		return model.DirectionPut, confidence
	default:
		return model.DirectionWait, 0
	}
}

func initializing() model.SignalResult {
	return model.SignalResult{
		Signal:     model.DirectionWait,
		Confidence: 0,
		Reasons:    []string{ReasonInitializing},
		Score:      0,
	}
}
