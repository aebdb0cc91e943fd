package tracker

import (
	"log"
	"sort"
	"sync"

	"SignalDesk/internal/model"
)

// Tracker remembers the last signal per asset and interval so alerts fire
// only on transitions. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewTracker creates a Tracker, loading state from disk. An empty filePath keeps state in memory only.
func NewTracker(filePath string) (*Tracker, error) {
	state := &State{Entries: map[string]Entry{}}
	if filePath != "" {
		loaded, err := LoadState(filePath)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	return &Tracker{state: state, filePath: filePath}, nil
}

// Key builds the tracker key for an asset and interval.
func Key(asset, interval string) string {
	return asset + "|" + interval
}

// Observe stores the analysis result and reports whether the signal direction
// differs from the previous one. The first observation of a key counts as a
// change only when it is not WAIT.
func (t *Tracker) Observe(a *model.Analysis) (changed bool, previous model.Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := Key(a.Asset, a.Interval)
	prev, ok := t.state.Entries[key]
	if ok {
		previous = prev.Signal
		changed = prev.Signal != a.Result.Signal
	} else {
		previous = model.DirectionWait
		changed = a.Result.Signal != model.DirectionWait
	}

	t.state.Entries[key] = Entry{
		Signal:     a.Result.Signal,
		Confidence: a.Result.Confidence,
		Score:      a.Result.Score,
		Close:      a.Row.Close,
		SeenAt:     a.At,
	}
	if changed {
		if err := t.save(); err != nil {
			log.Printf("[ERROR] failed to save signal state: %v", err)
		}
	}
	return changed, previous
}

// Snapshot returns a copy of all entries sorted by key.
func (t *Tracker) Snapshot() []KeyedEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]KeyedEntry, 0, len(t.state.Entries))
	for k, e := range t.state.Entries {
		out = append(out, KeyedEntry{Key: k, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KeyedEntry pairs an Entry with its key.
type KeyedEntry struct {
	Key string
	Entry
}

func (t *Tracker) save() error {
	if t.filePath == "" {
		return nil
	}
	return SaveState(t.filePath, t.state)
}
