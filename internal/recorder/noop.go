package recorder

import "SignalDesk/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *model.Analysis) error            { return nil }
func (n *NoopRecorder) RecordFetchFailure(_ *FetchFailure) error        { return nil }
func (n *NoopRecorder) Recent(_ string, _ int) ([]SignalRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
