package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"SignalDesk/internal/model"
)

// Entry is the last signal seen for one asset and interval.
type Entry struct {
	Signal     model.Direction `json:"signal"`
	Confidence int             `json:"confidence"`
	Score      int             `json:"score"`
	Close      float64         `json:"close"`
	SeenAt     time.Time       `json:"seen_at"`
}

// State is the persisted tracker state.
type State struct {
	Entries   map[string]Entry `json:"entries"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// LoadState reads the tracker state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Entries: map[string]Entry{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Entries == nil {
		state.Entries = map[string]Entry{}
	}
	return &state, nil
}

// SaveState writes the tracker state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
