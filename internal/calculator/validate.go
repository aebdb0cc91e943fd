package calculator

import (
	"errors"
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// ErrInvalidInput reports a structurally broken bar series.
var ErrInvalidInput = errors.New("invalid input")

// ValidateSeries checks ordering and numeric sanity of every bar.
func ValidateSeries(series *model.BarSeries) error {
	if series == nil {
		return nil
	}
	for i, b := range series.Bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: bar %d has a non-finite price", ErrInvalidInput, i)
			}
			if v < 0 {
				return fmt.Errorf("%w: bar %d has a negative price", ErrInvalidInput, i)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: bar %d high %.5f below low %.5f", ErrInvalidInput, i, b.High, b.Low)
		}
		if i > 0 && !b.Time.After(series.Bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s is not after %s", ErrInvalidInput, i,
				b.Time.Format("2006-01-02 15:04:05"), series.Bars[i-1].Time.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
