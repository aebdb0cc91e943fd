package recorder

import (
	"time"

	"SignalDesk/internal/model"
)

// FetchFailure records a failed market-data fetch.
type FetchFailure struct {
	Asset    string
	Interval string
	Source   string
	Error    string
}

// SignalRecord is one stored evaluation, as read back for reports.
type SignalRecord struct {
	At         time.Time
	Asset      string
	Interval   string
	Close      float64
	Signal     model.Direction
	Confidence int
	Score      int
	Reasons    []string
}

// Recorder persists evaluation history for later analysis.
type Recorder interface {
	RecordSignal(a *model.Analysis) error
	RecordFetchFailure(evt *FetchFailure) error
	Recent(asset string, limit int) ([]SignalRecord, error)
	Close() error
}
