package calculator

import (
	"fmt"
	"log"
	"math"

	"github.com/markcheno/go-talib"

	"SignalDesk/internal/model"
)

// Pipeline enriches a bar series with the fixed indicator battery.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	Params Params

	ema   func(in []float64, period int) []float64
	adx   func(high, low, close []float64, period int) []float64
	rsi   func(in []float64, period int) []float64
	stoch func(high, low, close []float64, fastK, slowK, slowD int) ([]float64, []float64)
	bands func(closes []float64, length int, stdDev float64) Bands
}

// NewPipeline creates a Pipeline backed by go-talib.
func NewPipeline(params Params) *Pipeline {
	return &Pipeline{
		Params: params,
		ema:    talib.Ema,
		adx:    talib.Adx,
		rsi:    talib.Rsi,
		stoch: func(high, low, close []float64, fastK, slowK, slowD int) ([]float64, []float64) {
			return talib.Stoch(high, low, close, fastK, slowK, talib.SMA, slowD, talib.SMA)
		},
		bands: Bollinger,
	}
}

// Enrich computes EMA fast/slow, ADX, RSI, Stochastic %K/%D and the lower and
// upper Bollinger bands, aligned with the input rows. A series shorter than
// MinBars is passed through with no columns. Only ADX falls back to a default
// (0) on failure; any other indicator failure is returned as ErrIndicator.
func (p *Pipeline) Enrich(series *model.BarSeries) (*model.EnrichedSeries, error) {
	out := &model.EnrichedSeries{}
	if series.Len() == 0 {
		if series != nil {
			out.Symbol, out.Interval = series.Symbol, series.Interval
		}
		return out, nil
	}
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}

	out.Symbol = series.Symbol
	out.Interval = series.Interval
	out.Bars = make([]model.Bar, len(series.Bars))
	copy(out.Bars, series.Bars)

	n := len(out.Bars)
	if n < p.Params.MinBars {
		return out, nil
	}

	closes := out.Closes()
	highs := out.Highs()
	lows := out.Lows()

	// ADX is annotation-only, so it is the one column allowed to default.
	adx := compute("ADX", n, func() ([]model.Column, error) {
		period := p.Params.ADXPeriod
		if n < 2*period {
			return nil, fmt.Errorf("need %d bars, have %d", 2*period, n)
		}
		col := mask(p.adx(highs, lows, closes, period), 2*period-1)
		for i := 2*period - 1; i < n; i++ {
			if math.IsNaN(col[i]) {
				return nil, fmt.Errorf("undefined value at bar %d", i)
			}
		}
		return []model.Column{col}, nil
	})
	if adx.err != nil {
		log.Printf("[WARN] %s %s: %v, defaulting ADX to 0", series.Symbol, series.Interval, adx.err)
		out.ADX = constant(n, 0)
		out.ADXFallback = true
	} else {
		out.ADX = adx.cols[0]
	}

	results := []columnResult{
		compute("EMA_fast", n, func() ([]model.Column, error) {
			return []model.Column{p.emaColumn(closes, p.Params.EMAFast)}, nil
		}),
		compute("EMA_slow", n, func() ([]model.Column, error) {
			return []model.Column{p.emaColumn(closes, p.Params.EMASlow)}, nil
		}),
		compute("RSI", n, func() ([]model.Column, error) {
			period := p.Params.RSIPeriod
			if n <= period {
				return []model.Column{undefined(n)}, nil
			}
			col := mask(p.rsi(closes, period), period)
			for i, still := range unchanged(closes, period) {
				if still {
					col[i] = math.NaN()
				}
			}
			return []model.Column{col}, nil
		}),
		compute("STOCH", n, func() ([]model.Column, error) {
			lookback := p.Params.stochLookback()
			if n <= lookback {
				return []model.Column{undefined(n), undefined(n)}, nil
			}
			k, d := p.stoch(highs, lows, closes, p.Params.StochFastK, p.Params.StochSlowK, p.Params.StochSlowD)
			return []model.Column{mask(k, lookback), mask(d, lookback)}, nil
		}),
		compute("BBANDS", n, func() ([]model.Column, error) {
			b := p.bands(closes, p.Params.BBLength, p.Params.BBStdDev)
			return []model.Column{b.Lower, b.Upper}, nil
		}),
	}

	for _, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("enrich %s %s: %w", series.Symbol, series.Interval, r.err)
		}
	}
	out.EMA50 = results[0].cols[0]
	out.EMA200 = results[1].cols[0]
	out.RSI = results[2].cols[0]
	out.StochK = results[3].cols[0]
	out.StochD = results[3].cols[1]
	out.LowerBB = results[4].cols[0]
	out.UpperBB = results[4].cols[1]
	out.Enriched = true
	return out, nil
}

// emaColumn leaves the whole column undefined when the series is shorter than the period.
func (p *Pipeline) emaColumn(closes []float64, period int) model.Column {
	if len(closes) < period {
		return undefined(len(closes))
	}
	return mask(p.ema(closes, period), period-1)
}

// unchanged marks the rows where both Wilder averages of gains and losses are
// zero. RSI is 0/0 there, so those rows are left undefined.
func unchanged(closes []float64, period int) []bool {
	out := make([]bool, len(closes))
	if len(closes) <= period {
		return out
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(period)
	loss /= float64(period)
	out[period] = gain == 0 && loss == 0

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		up, down := 0.0, 0.0
		if d > 0 {
			up = d
		} else {
			down = -d
		}
		gain = (gain*float64(period-1) + up) / float64(period)
		loss = (loss*float64(period-1) + down) / float64(period)
		out[i] = gain == 0 && loss == 0
	}
	return out
}
