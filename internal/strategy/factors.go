package strategy

import "SignalDesk/internal/model"

// Reason strings are part of the output contract. ReasonStrongTrend names the
// default ADX threshold and stays literal when Thresholds.ADXTrend is tuned.
const (
	ReasonInitializing    = "Initializing data..."
	ReasonRSIOversold     = "RSI Oversold (Reversal Likely)"
	ReasonRSIOverbought   = "RSI Overbought (Reversal Likely)"
	ReasonLowerBandPierce = "Price pierced Lower Bollinger Band"
	ReasonUpperBandPierce = "Price pierced Upper Bollinger Band"
	ReasonStochBullish    = "Stochastic Bullish Crossover"
	ReasonStochBearish    = "Stochastic Bearish Crossover"
	ReasonStrongTrend     = "Strong Trend Identified (ADX > 25)"
	ReasonRanging         = "Weak Trend / Ranging Market"
)

// rsiRule rewards oversold and penalizes overbought momentum.
func (s *Scorer) rsiRule(row model.IndicatorRow) (model.Factor, bool) {
	rsi := *row.RSI
	switch {
	case rsi < s.T.RSIOversold:
		return model.Factor{Name: "RSI", Delta: s.T.RSIWeight, Reason: ReasonRSIOversold}, true
	case rsi > s.T.RSIOverbought:
		return model.Factor{Name: "RSI", Delta: -s.T.RSIWeight, Reason: ReasonRSIOverbought}, true
	}
	return model.Factor{}, false
}

// bollingerRule scores a close at or beyond either band. A missing upper
// band only disables the bearish branch.
func (s *Scorer) bollingerRule(row model.IndicatorRow) (model.Factor, bool) {
	if row.Close <= *row.LowerBB {
		return model.Factor{Name: "Bollinger", Delta: s.T.BollingerWeight, Reason: ReasonLowerBandPierce}, true
	}
	if row.UpperBB != nil && row.Close >= *row.UpperBB {
		return model.Factor{Name: "Bollinger", Delta: -s.T.BollingerWeight, Reason: ReasonUpperBandPierce}, true
	}
	return model.Factor{}, false
}

// stochasticRule looks for %K crossing %D inside the extreme zones.
// Skipped without a reason when either line is missing.
func (s *Scorer) stochasticRule(row model.IndicatorRow) (model.Factor, bool) {
	if row.StochK == nil || row.StochD == nil {
		return model.Factor{}, false
	}
	k, d := *row.StochK, *row.StochD
	switch {
	case k < s.T.StochOversold && k > d:
		return model.Factor{Name: "Stochastic", Delta: s.T.StochWeight, Reason: ReasonStochBullish}, true
	case k > s.T.StochOverbought && k < d:
		return model.Factor{Name: "Stochastic", Delta: -s.T.StochWeight, Reason: ReasonStochBearish}, true
	}
	return model.Factor{}, false
}

// trendAnnotation never moves the score.
func (s *Scorer) trendAnnotation(row model.IndicatorRow) (model.Factor, bool) {
	adx := 0.0
	if row.ADX != nil {
		adx = *row.ADX
	}
	if adx > s.T.ADXTrend {
		return model.Factor{Name: "ADX", Reason: ReasonStrongTrend}, true
	}
	return model.Factor{Name: "ADX", Reason: ReasonRanging}, true
}
