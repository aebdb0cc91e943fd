package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"SignalDesk/internal/cache"
	"SignalDesk/internal/calculator"
	"SignalDesk/internal/metrics"
	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
)

var (
	// ErrDataUnavailable means the data source returned nothing usable.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrUnknownAsset means the label is not in the configured asset list.
	ErrUnknownAsset = errors.New("unknown asset")
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar
	Err   error
	// End is the time of the last generated bar; zero means now.
	End time.Time

	mu    sync.Mutex
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, interval string, limit int) ([]model.Bar, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return trimTail(m.Bars, limit), nil
	}
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().Truncate(step)
	}
	return GenerateBars(m.Price, limit, step, end), nil
}

// GenerateBars produces a deterministic oscillating series ending at end.
func GenerateBars(basePrice float64, count int, step time.Duration, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.004*math.Sin(float64(i)/6))
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.9995,
			High:   p * 1.001,
			Low:    p * 0.999,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

// AssetResult is the outcome of one asset in a sweep.
type AssetResult struct {
	Asset    model.Asset
	Analysis *model.Analysis
	Err      error
}

// Collector orchestrates data fetching, enrichment and scoring.
type Collector struct {
	Fetcher   Fetcher
	Cache     cache.BarCache
	Pipeline  *calculator.Pipeline
	Scorer    *strategy.Scorer
	Assets    []model.Asset
	BarsLimit int
	Metrics   *metrics.Metrics
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, barCache cache.BarCache, pipeline *calculator.Pipeline, scorer *strategy.Scorer, assets []model.Asset, barsLimit int) *Collector {
	if barCache == nil {
		barCache = cache.NewNoopCache()
	}
	return &Collector{
		Fetcher:   fetcher,
		Cache:     barCache,
		Pipeline:  pipeline,
		Scorer:    scorer,
		Assets:    assets,
		BarsLimit: barsLimit,
	}
}

// Asset resolves a label, or a source symbol, to a configured asset.
func (c *Collector) Asset(name string) (model.Asset, error) {
	for _, a := range c.Assets {
		if a.Label == name || a.Symbol == name {
			return a, nil
		}
	}
	return model.Asset{}, fmt.Errorf("%w: %q", ErrUnknownAsset, name)
}

// Analyze fetches bars for one asset, enriches them and scores the latest bar.
func (c *Collector) Analyze(ctx context.Context, name, interval string) (*model.Analysis, error) {
	start := time.Now()
	asset, err := c.Asset(name)
	if err != nil {
		return nil, err
	}

	bars, err := c.loadBars(ctx, asset.Symbol, interval)
	if err != nil {
		return nil, err
	}

	series := &model.BarSeries{Symbol: asset.Symbol, Interval: interval, Bars: bars}
	enriched, err := c.Pipeline.Enrich(series)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", asset.Label, err)
	}
	if !enriched.Enriched {
		log.Printf("[WARN] %s %s: only %d bars, indicators not ready", asset.Label, interval, len(bars))
	}

	row := enriched.Last()
	a := &model.Analysis{
		Asset:    asset.Label,
		Symbol:   asset.Symbol,
		Interval: interval,
		Series:   enriched,
		Row:      row,
		Result:   c.Scorer.Score(row),
		At:       time.Now(),
	}
	c.Metrics.ObserveAnalysis(a, time.Since(start))
	return a, nil
}

// AnalyzeAll evaluates every configured asset concurrently. Results keep the
// configured order; each entry carries its own error.
func (c *Collector) AnalyzeAll(ctx context.Context, interval string) []AssetResult {
	results := make([]AssetResult, len(c.Assets))
	var wg sync.WaitGroup
	for i, asset := range c.Assets {
		wg.Add(1)
		go func(i int, asset model.Asset) {
			defer wg.Done()
			a, err := c.Analyze(ctx, asset.Label, interval)
			results[i] = AssetResult{Asset: asset, Analysis: a, Err: err}
		}(i, asset)
	}
	wg.Wait()
	return results
}

func (c *Collector) loadBars(ctx context.Context, symbol, interval string) ([]model.Bar, error) {
	bars, err := c.Cache.Get(ctx, symbol, interval)
	switch {
	case err == nil && len(bars) > 0:
		c.Metrics.ObserveCache("hit")
		return bars, nil
	case err == nil, errors.Is(err, cache.ErrMiss):
		c.Metrics.ObserveCache("miss")
	default:
		c.Metrics.ObserveCache("error")
		log.Printf("[WARN] bar cache read %s %s: %v", symbol, interval, err)
	}

	bars, err = c.Fetcher.FetchBars(ctx, symbol, interval, c.BarsLimit)
	if err != nil {
		c.Metrics.ObserveFetchError(c.Fetcher.Name())
		return nil, fmt.Errorf("%w: %s %s via %s: %w", ErrDataUnavailable, symbol, interval, c.Fetcher.Name(), err)
	}
	if len(bars) == 0 {
		c.Metrics.ObserveFetchError(c.Fetcher.Name())
		return nil, fmt.Errorf("%w: %s %s via %s returned no bars", ErrDataUnavailable, symbol, interval, c.Fetcher.Name())
	}

	if err := c.Cache.Set(ctx, symbol, interval, bars); err != nil {
		log.Printf("[WARN] bar cache write %s %s: %v", symbol, interval, err)
	}
	return bars, nil
}
