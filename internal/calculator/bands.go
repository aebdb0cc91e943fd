package calculator

import (
	"github.com/markcheno/go-talib"

	"SignalDesk/internal/model"
)

// Bands is a Bollinger band result addressed by name rather than by column position.
type Bands struct {
	Upper  model.Column
	Middle model.Column
	Lower  model.Column
}

// Bollinger computes SMA-based Bollinger bands of closes. Rows inside the
// warm-up window are NaN.
func Bollinger(closes []float64, length int, stdDev float64) Bands {
	if len(closes) < length {
		return Bands{
			Upper:  undefined(len(closes)),
			Middle: undefined(len(closes)),
			Lower:  undefined(len(closes)),
		}
	}
	upper, middle, lower := talib.BBands(closes, length, stdDev, stdDev, talib.SMA)
	return Bands{
		Upper:  mask(upper, length-1),
		Middle: mask(middle, length-1),
		Lower:  mask(lower, length-1),
	}
}
