package model

import "math"

// Column is an indicator series aligned index-for-index with BarSeries.Bars.
// NaN marks a row where the indicator is undefined. A nil Column was not computed.
type Column []float64

// At returns the value at row i and whether it is defined.
func (c Column) At(i int) (float64, bool) {
	if i < 0 || i >= len(c) {
		return 0, false
	}
	v := c[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Ptr returns the value at row i as an optional.
func (c Column) Ptr(i int) *float64 {
	v, ok := c.At(i)
	if !ok {
		return nil
	}
	return &v
}

// EnrichedSeries is a BarSeries plus derived indicator columns.
type EnrichedSeries struct {
	BarSeries

	// Enriched is false when the pipeline passed the series through untouched.
	Enriched bool

	EMA50   Column
	EMA200  Column
	ADX     Column
	RSI     Column
	StochK  Column
	StochD  Column
	LowerBB Column
	UpperBB Column

	// ADXFallback is set when ADX could not be computed and was defaulted to 0.
	ADXFallback bool
}

// IndicatorRow is one row of an EnrichedSeries. Nil fields are absent.
type IndicatorRow struct {
	Close   float64
	EMA50   *float64
	EMA200  *float64
	ADX     *float64
	RSI     *float64
	StochK  *float64
	StochD  *float64
	LowerBB *float64
	UpperBB *float64
}

// Row builds the indicator row at index i.
func (s *EnrichedSeries) Row(i int) IndicatorRow {
	row := IndicatorRow{
		EMA50:   s.EMA50.Ptr(i),
		EMA200:  s.EMA200.Ptr(i),
		ADX:     s.ADX.Ptr(i),
		RSI:     s.RSI.Ptr(i),
		StochK:  s.StochK.Ptr(i),
		StochD:  s.StochD.Ptr(i),
		LowerBB: s.LowerBB.Ptr(i),
		UpperBB: s.UpperBB.Ptr(i),
	}
	if i >= 0 && i < len(s.Bars) {
		row.Close = s.Bars[i].Close
	}
	return row
}

// Last returns the most recent row. An empty series yields an all-absent row.
func (s *EnrichedSeries) Last() IndicatorRow {
	if s == nil {
		return IndicatorRow{}
	}
	return s.Row(len(s.Bars) - 1)
}

// Float returns a pointer to v, for building rows by hand.
func Float(v float64) *float64 { return &v }
