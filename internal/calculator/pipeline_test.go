package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
)

func makeSeries(n int, price func(i int) float64) *model.BarSeries {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		p := price(i)
		bars[i] = model.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  p * 0.999,
			High:  p * 1.002,
			Low:   p * 0.998,
			Close: p,
		}
	}
	return &model.BarSeries{Symbol: "EURUSD=X", Interval: "1m", Bars: bars}
}

func wave(i int) float64 {
	return 1.08 + 0.01*math.Sin(float64(i)/5)
}

func TestEnrich_ShortSeriesPassesThrough(t *testing.T) {
	p := NewPipeline(DefaultParams())
	for _, n := range []int{0, 1, 49} {
		in := makeSeries(n, wave)
		out, err := p.Enrich(in)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if out.Enriched {
			t.Errorf("n=%d: expected pass-through", n)
		}
		if len(out.Bars) != n {
			t.Errorf("n=%d: expected %d bars, got %d", n, n, len(out.Bars))
		}
		if out.RSI != nil || out.LowerBB != nil || out.ADX != nil || out.EMA50 != nil || out.StochK != nil {
			t.Errorf("n=%d: expected no indicator columns", n)
		}
	}
}

func TestEnrich_NilSeries(t *testing.T) {
	out, err := NewPipeline(DefaultParams()).Enrich(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Enriched || len(out.Bars) != 0 {
		t.Error("expected empty pass-through")
	}
}

func TestEnrich_ColumnsAlignedWithWarmup(t *testing.T) {
	const n = 60
	out, err := NewPipeline(DefaultParams()).Enrich(makeSeries(n, wave))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Enriched {
		t.Fatal("expected enriched series")
	}

	cols := map[string]model.Column{
		"EMA50": out.EMA50, "EMA200": out.EMA200, "ADX": out.ADX, "RSI": out.RSI,
		"StochK": out.StochK, "StochD": out.StochD, "LowerBB": out.LowerBB, "UpperBB": out.UpperBB,
	}
	for name, c := range cols {
		if len(c) != n {
			t.Errorf("%s: expected %d values, got %d", name, n, len(c))
		}
	}

	firstDefined := []struct {
		name  string
		col   model.Column
		index int
	}{
		{"EMA50", out.EMA50, 49},
		{"RSI", out.RSI, 14},
		{"ADX", out.ADX, 27},
		{"StochK", out.StochK, 17},
		{"StochD", out.StochD, 17},
		{"LowerBB", out.LowerBB, 19},
		{"UpperBB", out.UpperBB, 19},
	}
	for _, tt := range firstDefined {
		if _, ok := tt.col.At(tt.index - 1); ok {
			t.Errorf("%s: expected row %d undefined", tt.name, tt.index-1)
		}
		if _, ok := tt.col.At(tt.index); !ok {
			t.Errorf("%s: expected row %d defined", tt.name, tt.index)
		}
	}

	for i := 0; i < n; i++ {
		if _, ok := out.EMA200.At(i); ok {
			t.Fatalf("EMA200 should be undefined everywhere for %d bars, row %d is set", n, i)
		}
	}
	if out.ADXFallback {
		t.Error("unexpected ADX fallback")
	}
}

func TestEnrich_IndicatorRanges(t *testing.T) {
	out, err := NewPipeline(DefaultParams()).Enrich(makeSeries(250, wave))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range out.Bars {
		if v, ok := out.RSI.At(i); ok && (v < 0 || v > 100) {
			t.Errorf("RSI out of range at %d: %f", i, v)
		}
		if v, ok := out.StochK.At(i); ok && (v < -1e-9 || v > 100+1e-9) {
			t.Errorf("StochK out of range at %d: %f", i, v)
		}
		lo, okLo := out.LowerBB.At(i)
		hi, okHi := out.UpperBB.At(i)
		if okLo != okHi {
			t.Errorf("band presence mismatch at %d", i)
		}
		if okLo && lo > hi {
			t.Errorf("lower band above upper at %d: %f > %f", i, lo, hi)
		}
	}
	if _, ok := out.EMA200.At(199); !ok {
		t.Error("expected EMA200 defined at row 199")
	}
}

func TestEnrich_KnownValues(t *testing.T) {
	flat, err := NewPipeline(DefaultParams()).Enrich(makeSeries(60, func(int) float64 { return 100 }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := flat.Last()
	if math.Abs(*last.EMA50-100) > 1e-9 {
		t.Errorf("EMA of a flat series should equal the price, got %f", *last.EMA50)
	}
	if math.Abs(*last.LowerBB-100) > 1e-9 || math.Abs(*last.UpperBB-100) > 1e-9 {
		t.Errorf("bands of a flat series should collapse, got %f / %f", *last.LowerBB, *last.UpperBB)
	}

	rising, err := NewPipeline(DefaultParams()).Enrich(makeSeries(60, func(i int) float64 { return 100 + float64(i) }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi := *rising.Last().RSI; math.Abs(rsi-100) > 1e-9 {
		t.Errorf("RSI of a strictly rising series should be 100, got %f", rsi)
	}
}

func TestEnrich_FlatCloseLeavesRSIUndefined(t *testing.T) {
	out, err := NewPipeline(DefaultParams()).Enrich(makeSeries(120, func(int) float64 { return 100 }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := out.Last()
	if last.RSI != nil {
		t.Fatalf("RSI of an unchanged close should be undefined, got %f", *last.RSI)
	}

	got := strategy.NewScorer(strategy.DefaultThresholds()).Score(last)
	if got.Signal != model.DirectionWait || got.Confidence != 0 || got.Score != 0 {
		t.Errorf("flat market must WAIT, got %+v", got)
	}
	if len(got.Reasons) != 1 || got.Reasons[0] != strategy.ReasonInitializing {
		t.Errorf("expected initializing reason, got %q", got.Reasons)
	}
}

func TestEnrich_RSIDefinedOnceCloseMoves(t *testing.T) {
	price := func(i int) float64 {
		if i < 30 {
			return 100
		}
		return 100 + 0.1*float64(i-29)
	}
	out, err := NewPipeline(DefaultParams()).Enrich(makeSeries(60, price))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, i := range []int{14, 29} {
		if _, ok := out.RSI.At(i); ok {
			t.Errorf("RSI row %d inside the flat stretch should be undefined", i)
		}
	}
	if v, ok := out.RSI.At(59); !ok || v <= 50 {
		t.Errorf("RSI after a rise should be defined and above 50, got %v (defined=%v)", v, ok)
	}
}

func TestEnrich_ADXUndefinedAfterWarmupDefaults(t *testing.T) {
	p := NewPipeline(DefaultParams())
	p.adx = func(high, _, _ []float64, _ int) []float64 {
		out := make([]float64, len(high))
		for i := range out {
			out[i] = 20
		}
		out[len(out)-1] = math.NaN()
		return out
	}

	out, err := p.Enrich(makeSeries(60, wave))
	if err != nil {
		t.Fatalf("ADX failure must not escape: %v", err)
	}
	if !out.ADXFallback {
		t.Error("expected ADXFallback for a NaN after the warm-up window")
	}
	if v := *out.Last().ADX; v != 0 {
		t.Errorf("expected ADX 0, got %f", v)
	}
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	in := makeSeries(80, wave)
	before := make([]model.Bar, len(in.Bars))
	copy(before, in.Bars)

	out, err := NewPipeline(DefaultParams()).Enrich(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range before {
		if in.Bars[i] != before[i] {
			t.Fatalf("input bar %d mutated", i)
		}
		if out.Bars[i] != before[i] {
			t.Fatalf("output bar %d differs from input", i)
		}
	}
}

func TestEnrich_ADXFailureDefaultsToZero(t *testing.T) {
	p := NewPipeline(DefaultParams())
	p.adx = func(_, _, _ []float64, _ int) []float64 {
		panic("degenerate true range")
	}

	out, err := p.Enrich(makeSeries(60, wave))
	if err != nil {
		t.Fatalf("ADX failure must not escape: %v", err)
	}
	if !out.ADXFallback {
		t.Error("expected ADXFallback to be set")
	}
	for i := range out.Bars {
		if v, ok := out.ADX.At(i); !ok || v != 0 {
			t.Fatalf("ADX row %d: expected 0, got %v (defined=%v)", i, v, ok)
		}
	}
	if _, ok := out.RSI.At(59); !ok {
		t.Error("RSI should still be populated")
	}
	if _, ok := out.LowerBB.At(59); !ok {
		t.Error("Bollinger bands should still be populated")
	}
	if _, ok := out.StochD.At(59); !ok {
		t.Error("Stochastic should still be populated")
	}
}

func TestEnrich_ADXInsufficientWindowDefaults(t *testing.T) {
	params := DefaultParams()
	params.ADXPeriod = 40
	out, err := NewPipeline(params).Enrich(makeSeries(60, wave))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.ADXFallback {
		t.Error("expected ADX fallback for a window longer than the series")
	}
}

func TestEnrich_OtherIndicatorFailureIsReported(t *testing.T) {
	p := NewPipeline(DefaultParams())
	p.rsi = func(in []float64, _ int) []float64 {
		return in[:len(in)-1]
	}
	_, err := p.Enrich(makeSeries(60, wave))
	if !errors.Is(err, ErrIndicator) {
		t.Fatalf("expected ErrIndicator, got %v", err)
	}

	p = NewPipeline(DefaultParams())
	p.bands = func([]float64, int, float64) Bands {
		panic("bad bands")
	}
	if _, err := p.Enrich(makeSeries(60, wave)); !errors.Is(err, ErrIndicator) {
		t.Fatalf("expected ErrIndicator for panicking bands, got %v", err)
	}
}

func TestEnrich_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *model.BarSeries)
	}{
		{"out of order", func(s *model.BarSeries) { s.Bars[10].Time = s.Bars[3].Time }},
		{"duplicate time", func(s *model.BarSeries) { s.Bars[11].Time = s.Bars[10].Time }},
		{"nan close", func(s *model.BarSeries) { s.Bars[5].Close = math.NaN() }},
		{"negative price", func(s *model.BarSeries) { s.Bars[5].Low = -1 }},
		{"high below low", func(s *model.BarSeries) { s.Bars[5].High = s.Bars[5].Low / 2 }},
	}
	for _, tt := range tests {
		s := makeSeries(60, wave)
		tt.mutate(s)
		if _, err := NewPipeline(DefaultParams()).Enrich(s); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	p := DefaultParams()
	p.BBStdDev = 0
	if err := p.Validate(); err == nil {
		t.Error("expected error for zero std dev")
	}
	p = DefaultParams()
	p.RSIPeriod = 1
	if err := p.Validate(); err == nil {
		t.Error("expected error for rsi period 1")
	}
}
