package collector

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns up to limit of the most recent bars, oldest first.
	FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error)
	Name() string
}

// ParseInterval converts an interval code such as "1m", "5m", "15m" or "1h" to a duration.
func ParseInterval(interval string) (time.Duration, error) {
	switch interval {
	case "1m":
		return time.Minute, nil
	case "2m":
		return 2 * time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h", "60m":
		return time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported interval %q", interval)
}

// Resample folds consecutive bars into buckets of step, aligned to step
// boundaries. The first bar of a bucket sets Open and Time, the last sets Close.
func Resample(bars []model.Bar, step time.Duration) []model.Bar {
	if len(bars) == 0 {
		return nil
	}
	var out []model.Bar
	var cur model.Bar
	var curKey time.Time
	started := false

	for _, b := range bars {
		key := b.Time.Truncate(step)
		if !started || !key.Equal(curKey) {
			if started {
				out = append(out, cur)
			}
			cur = model.Bar{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			curKey = key
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	out = append(out, cur)
	return out
}

func trimTail(bars []model.Bar, limit int) []model.Bar {
	if limit > 0 && len(bars) > limit {
		return bars[len(bars)-limit:]
	}
	return bars
}
