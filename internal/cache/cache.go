package cache

import (
	"context"
	"errors"

	"SignalDesk/internal/model"
)

// ErrMiss is returned by Get when nothing is cached for the key.
var ErrMiss = errors.New("cache miss")

// BarCache stores recently fetched bars so repeated evaluations of the same
// asset and interval do not hit the data source every time.
type BarCache interface {
	Get(ctx context.Context, symbol, interval string) ([]model.Bar, error)
	Set(ctx context.Context, symbol, interval string, bars []model.Bar) error
	Close() error
}

// NoopCache never stores anything. Used when Redis is not configured.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(context.Context, string, string) ([]model.Bar, error) { return nil, ErrMiss }
func (NoopCache) Set(context.Context, string, string, []model.Bar) error  { return nil }
func (NoopCache) Close() error                                            { return nil }
