package segment

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteSnapshot persists the segment list as a JSON file in the work
// directory. Snapshots are written after the transcription and translation
// stages so a later run can resume without repeating them.
func WriteSnapshot(segments []Segment, path string) error {
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a previously written segment snapshot.
func ReadSnapshot(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return segments, nil
}
