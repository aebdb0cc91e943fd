package model

import "time"

// Direction is the classified directional bias.
type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
	DirectionWait Direction = "WAIT"
)

// Label returns the display label shown to users.
func (d Direction) Label() string {
	switch d {
	case DirectionCall:
		return "CALL (UP)"
	case DirectionPut:
		return "PUT (DOWN)"
	default:
		return "WAIT"
	}
}

// Factor is the contribution of one rule to a signal.
type Factor struct {
	Name   string
	Delta  int
	Reason string
}

// SignalResult is the output of the signal scorer for one row.
type SignalResult struct {
	Signal     Direction
	Confidence int
	Reasons    []string
	Score      int
	Factors    []Factor
}

// Analysis bundles one asset evaluation.
type Analysis struct {
	Asset    string
	Symbol   string
	Interval string
	Series   *EnrichedSeries
	Row      IndicatorRow
	Result   SignalResult
	At       time.Time
}
