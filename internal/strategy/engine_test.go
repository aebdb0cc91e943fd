package strategy

import (
	"reflect"
	"testing"

	"SignalDesk/internal/model"
)

var f = model.Float

func TestScore_GuardWhenDataMissing(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	rows := []model.IndicatorRow{
		{},
		{Close: 99, LowerBB: f(100), UpperBB: f(110), ADX: f(40)},
		{Close: 99, RSI: f(10), UpperBB: f(110), StochK: f(10), StochD: f(5)},
	}
	want := model.SignalResult{Signal: model.DirectionWait, Confidence: 0, Reasons: []string{ReasonInitializing}, Score: 0}
	for i, row := range rows {
		got := s.Score(row)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("row %d: expected guard result, got %+v", i, got)
		}
	}
}

func TestScore_OversoldBelowLowerBand(t *testing.T) {
	row := model.IndicatorRow{Close: 99, RSI: f(25), LowerBB: f(100), UpperBB: f(110), ADX: f(30)}
	got := NewScorer(DefaultThresholds()).Score(row)

	if got.Signal != model.DirectionCall {
		t.Errorf("expected CALL, got %s", got.Signal)
	}
	if got.Score != 5 {
		t.Errorf("expected score 5, got %d", got.Score)
	}
	if got.Confidence != 98 {
		t.Errorf("expected confidence 98, got %d", got.Confidence)
	}
	wantReasons := []string{ReasonRSIOversold, ReasonLowerBandPierce, ReasonStrongTrend}
	if !reflect.DeepEqual(got.Reasons, wantReasons) {
		t.Errorf("reasons: expected %q, got %q", wantReasons, got.Reasons)
	}
	if len(got.Factors) != 3 || got.Factors[2].Delta != 0 {
		t.Errorf("expected 3 factors with a non-scoring ADX annotation, got %+v", got.Factors)
	}
}

func TestScore_StochasticAloneWaits(t *testing.T) {
	row := model.IndicatorRow{Close: 105, RSI: f(50), LowerBB: f(100), UpperBB: f(110), ADX: f(10), StochK: f(15), StochD: f(10)}
	got := NewScorer(DefaultThresholds()).Score(row)

	if got.Signal != model.DirectionWait || got.Confidence != 0 || got.Score != 2 {
		t.Errorf("expected WAIT/0/2, got %s/%d/%d", got.Signal, got.Confidence, got.Score)
	}
	wantReasons := []string{ReasonStochBullish, ReasonRanging}
	if !reflect.DeepEqual(got.Reasons, wantReasons) {
		t.Errorf("reasons: expected %q, got %q", wantReasons, got.Reasons)
	}
}

func TestScore_Rules(t *testing.T) {
	tests := []struct {
		name    string
		row     model.IndicatorRow
		score   int
		reasons []string
	}{
		{
			name:    "rsi overbought",
			row:     model.IndicatorRow{Close: 105, RSI: f(75), LowerBB: f(100), UpperBB: f(110)},
			score:   -2,
			reasons: []string{ReasonRSIOverbought, ReasonRanging},
		},
		{
			name:    "rsi boundaries are neutral",
			row:     model.IndicatorRow{Close: 105, RSI: f(30), LowerBB: f(100), UpperBB: f(110)},
			score:   0,
			reasons: []string{ReasonRanging},
		},
		{
			name:    "rsi 70 is neutral",
			row:     model.IndicatorRow{Close: 105, RSI: f(70), LowerBB: f(100), UpperBB: f(110)},
			score:   0,
			reasons: []string{ReasonRanging},
		},
		{
			name:    "close equal to lower band pierces",
			row:     model.IndicatorRow{Close: 100, RSI: f(50), LowerBB: f(100), UpperBB: f(110)},
			score:   3,
			reasons: []string{ReasonLowerBandPierce, ReasonRanging},
		},
		{
			name:    "close equal to upper band pierces",
			row:     model.IndicatorRow{Close: 110, RSI: f(50), LowerBB: f(100), UpperBB: f(110)},
			score:   -3,
			reasons: []string{ReasonUpperBandPierce, ReasonRanging},
		},
		{
			name:    "missing upper band disables bearish branch",
			row:     model.IndicatorRow{Close: 120, RSI: f(50), LowerBB: f(100)},
			score:   0,
			reasons: []string{ReasonRanging},
		},
		{
			name:    "opposite rsi and band",
			row:     model.IndicatorRow{Close: 111, RSI: f(20), LowerBB: f(100), UpperBB: f(110)},
			score:   -1,
			reasons: []string{ReasonRSIOversold, ReasonUpperBandPierce, ReasonRanging},
		},
		{
			name:    "stochastic bearish crossover",
			row:     model.IndicatorRow{Close: 105, RSI: f(50), LowerBB: f(100), UpperBB: f(110), StochK: f(85), StochD: f(90)},
			score:   -2,
			reasons: []string{ReasonStochBearish, ReasonRanging},
		},
		{
			name:    "stochastic oversold without cross",
			row:     model.IndicatorRow{Close: 105, RSI: f(50), LowerBB: f(100), UpperBB: f(110), StochK: f(10), StochD: f(15)},
			score:   0,
			reasons: []string{ReasonRanging},
		},
		{
			name:    "stochastic with only k present is skipped",
			row:     model.IndicatorRow{Close: 105, RSI: f(50), LowerBB: f(100), UpperBB: f(110), StochK: f(10)},
			score:   0,
			reasons: []string{ReasonRanging},
		},
		{
			name:    "adx exactly 25 is ranging",
			row:     model.IndicatorRow{Close: 105, RSI: f(50), LowerBB: f(100), UpperBB: f(110), ADX: f(25)},
			score:   0,
			reasons: []string{ReasonRanging},
		},
	}
	s := NewScorer(DefaultThresholds())
	for _, tt := range tests {
		got := s.Score(tt.row)
		if got.Score != tt.score {
			t.Errorf("%s: expected score %d, got %d", tt.name, tt.score, got.Score)
		}
		if !reflect.DeepEqual(got.Reasons, tt.reasons) {
			t.Errorf("%s: expected reasons %q, got %q", tt.name, tt.reasons, got.Reasons)
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score      int
		signal     model.Direction
		confidence int
	}{
		{0, model.DirectionWait, 0},
		{3, model.DirectionWait, 0},
		{-3, model.DirectionWait, 0},
		{4, model.DirectionCall, 90},
		{-4, model.DirectionPut, 90},
		{5, model.DirectionCall, 98},
		{-7, model.DirectionPut, 98},
		{9, model.DirectionCall, 98},
	}
	s := NewScorer(DefaultThresholds())
	for _, tt := range tests {
		sig, conf := s.classify(tt.score)
		if sig != tt.signal || conf != tt.confidence {
			t.Errorf("score %d: expected %s/%d, got %s/%d", tt.score, tt.signal, tt.confidence, sig, conf)
		}
	}
}

func TestScore_MaximalBullishRow(t *testing.T) {
	row := model.IndicatorRow{Close: 90, RSI: f(10), LowerBB: f(100), UpperBB: f(110), StochK: f(15), StochD: f(5), ADX: f(40)}
	got := NewScorer(DefaultThresholds()).Score(row)
	if got.Score != 7 || got.Signal != model.DirectionCall || got.Confidence != 98 {
		t.Errorf("expected CALL/98/7, got %s/%d/%d", got.Signal, got.Confidence, got.Score)
	}
}

func TestScore_Deterministic(t *testing.T) {
	row := model.IndicatorRow{Close: 111, RSI: f(80), LowerBB: f(100), UpperBB: f(110), StochK: f(90), StochD: f(95), ADX: f(33)}
	s := NewScorer(DefaultThresholds())
	first := s.Score(row)
	for i := 0; i < 10; i++ {
		if got := s.Score(row); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
	if first.Signal != model.DirectionPut || first.Score != -7 {
		t.Errorf("expected PUT/-7, got %s/%d", first.Signal, first.Score)
	}
}

func TestScore_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.RSIOversold = 40
	th.ClassifyAt = 2
	row := model.IndicatorRow{Close: 105, RSI: f(35), LowerBB: f(100), UpperBB: f(110)}
	got := NewScorer(th).Score(row)
	if got.Signal != model.DirectionCall || got.Confidence != 70 {
		t.Errorf("expected CALL/70 with relaxed thresholds, got %s/%d", got.Signal, got.Confidence)
	}
}

func TestEvaluate_UsesLastRow(t *testing.T) {
	series := &model.EnrichedSeries{
		BarSeries: model.BarSeries{Bars: []model.Bar{{Close: 120}, {Close: 99}}},
		RSI:       model.Column{80, 25},
		LowerBB:   model.Column{100, 100},
		UpperBB:   model.Column{110, 110},
		ADX:       model.Column{0, 30},
	}
	got := NewScorer(DefaultThresholds()).Evaluate(series)
	if got.Signal != model.DirectionCall || got.Score != 5 {
		t.Errorf("expected CALL/5 from last row, got %s/%d", got.Signal, got.Score)
	}
}

func TestEvaluate_UnenrichedSeriesWaits(t *testing.T) {
	series := &model.EnrichedSeries{BarSeries: model.BarSeries{Bars: []model.Bar{{Close: 1}}}}
	got := NewScorer(DefaultThresholds()).Evaluate(series)
	if got.Signal != model.DirectionWait || got.Reasons[0] != ReasonInitializing {
		t.Errorf("expected guard result, got %+v", got)
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	th := DefaultThresholds()
	th.RSIOversold = 80
	if err := th.Validate(); err == nil {
		t.Error("expected error when oversold >= overbought")
	}
}

func TestScore_StrongTrendReasonIsLiteral(t *testing.T) {
	th := DefaultThresholds()
	th.ADXTrend = 40
	s := NewScorer(th)
	row := model.IndicatorRow{Close: 105, RSI: model.Float(50), LowerBB: model.Float(100), UpperBB: model.Float(110)}

	row.ADX = model.Float(35)
	if got := s.Score(row).Reasons; got[len(got)-1] != ReasonRanging {
		t.Errorf("ADX 35 under threshold 40: expected %q, got %q", ReasonRanging, got)
	}
	row.ADX = model.Float(45)
	if got := s.Score(row).Reasons; got[len(got)-1] != "Strong Trend Identified (ADX > 25)" {
		t.Errorf("expected the fixed strong-trend text, got %q", got)
	}
}
