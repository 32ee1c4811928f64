// Package segment defines the transcript segment model shared by every
// pipeline stage.
package segment

import (
	"fmt"
	"sort"
)

// Segment is a discrete timed unit of source speech. It is created by the
// transcription stage and mutated in place by alignment (SpeakerID),
// translation (TranslatedText), and synthesis (AudioPath). A failed synthesis
// leaves AudioPath empty rather than removing the segment.
type Segment struct {
	ID             int     `json:"id"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	SourceText     string  `json:"source_text"`
	TranslatedText string  `json:"translated_text,omitempty"`
	SpeakerID      string  `json:"speaker_id,omitempty"`
	AudioPath      string  `json:"audio_path,omitempty"`
}

// New validates timestamps at construction; malformed windows never enter
// the pipeline.
func New(id int, start, end float64, sourceText string) (Segment, error) {
	if end <= start {
		return Segment{}, fmt.Errorf("segment %d: end (%v) must be greater than start (%v)", id, end, start)
	}
	return Segment{ID: id, Start: start, End: end, SourceText: sourceText}, nil
}

// Window returns the segment's allotted duration in seconds.
func (s Segment) Window() float64 {
	return s.End - s.Start
}

// HasAudio reports whether synthesis produced a usable clip for this segment.
func (s Segment) HasAudio() bool {
	return s.AudioPath != ""
}

// SortByStart orders segments ascending by start time. Assembly requires this
// ordering regardless of ID order.
func SortByStart(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
}

// Speakers returns the distinct speaker labels present, in first-seen order.
func Speakers(segments []Segment) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, seg := range segments {
		if seg.SpeakerID == "" {
			continue
		}
		if _, ok := seen[seg.SpeakerID]; ok {
			continue
		}
		seen[seg.SpeakerID] = struct{}{}
		labels = append(labels, seg.SpeakerID)
	}
	return labels
}
