package calculator

import (
	"errors"
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// ErrIndicator reports that an indicator could not be computed.
var ErrIndicator = errors.New("indicator computation failed")

// columnResult isolates the outcome of one indicator computation.
type columnResult struct {
	name string
	cols []model.Column
	err  error
}

// compute runs fn and converts panics, misaligned output and infinities
// into an error on the result. It never lets a failure escape.
func compute(name string, n int, fn func() ([]model.Column, error)) (res columnResult) {
	res.name = name
	defer func() {
		if r := recover(); r != nil {
			res.cols = nil
			res.err = fmt.Errorf("%w: %s: %v", ErrIndicator, name, r)
		}
	}()

	cols, err := fn()
	if err != nil {
		res.err = fmt.Errorf("%w: %s: %v", ErrIndicator, name, err)
		return res
	}
	for _, c := range cols {
		if len(c) != n {
			res.err = fmt.Errorf("%w: %s: got %d values for %d bars", ErrIndicator, name, len(c), n)
			return res
		}
		for i, v := range c {
			if math.IsInf(v, 0) {
				res.err = fmt.Errorf("%w: %s: non-finite value at bar %d", ErrIndicator, name, i)
				return res
			}
		}
	}
	res.cols = cols
	return res
}

// mask converts a TA output into a Column, marking the warm-up rows undefined.
func mask(values []float64, lookback int) model.Column {
	col := make(model.Column, len(values))
	for i, v := range values {
		if i < lookback {
			col[i] = math.NaN()
			continue
		}
		col[i] = v
	}
	return col
}

func undefined(n int) model.Column {
	col := make(model.Column, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}

func constant(n int, v float64) model.Column {
	col := make(model.Column, n)
	for i := range col {
		col[i] = v
	}
	return col
}
