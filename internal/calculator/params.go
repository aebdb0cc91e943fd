package calculator

import "fmt"

// Params holds the fixed indicator periods. Build it from config once and
// share it; the pipeline never mutates it.
type Params struct {
	MinBars int

	EMAFast int
	EMASlow int

	ADXPeriod int
	RSIPeriod int

	StochFastK int
	StochSlowK int
	StochSlowD int

	BBLength int
	BBStdDev float64
}

// DefaultParams returns the standard parameterization:
// EMA 50/200, ADX 14, RSI 14, Stochastic 14/3/3, Bollinger 20 x 2.0, 50 bars minimum.
func DefaultParams() Params {
	return Params{
		MinBars:    50,
		EMAFast:    50,
		EMASlow:    200,
		ADXPeriod:  14,
		RSIPeriod:  14,
		StochFastK: 14,
		StochSlowK: 3,
		StochSlowD: 3,
		BBLength:   20,
		BBStdDev:   2.0,
	}
}

// Validate rejects periods the TA routines cannot work with.
func (p Params) Validate() error {
	if p.MinBars <= 0 {
		return fmt.Errorf("min_bars must be positive")
	}
	periods := map[string]int{
		"ema_fast":     p.EMAFast,
		"ema_slow":     p.EMASlow,
		"adx_period":   p.ADXPeriod,
		"rsi_period":   p.RSIPeriod,
		"stoch_fast_k": p.StochFastK,
		"stoch_slow_k": p.StochSlowK,
		"stoch_slow_d": p.StochSlowD,
		"bb_length":    p.BBLength,
	}
	for name, v := range periods {
		if v < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", name, v)
		}
	}
	if p.RSIPeriod < 2 {
		return fmt.Errorf("rsi_period must be >= 2, got %d", p.RSIPeriod)
	}
	if p.BBStdDev <= 0 {
		return fmt.Errorf("bb_std must be positive")
	}
	return nil
}

func (p Params) stochLookback() int {
	return (p.StochFastK - 1) + (p.StochSlowK - 1) + (p.StochSlowD - 1)
}
