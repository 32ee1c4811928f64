// Package diarize assigns speaker identities to transcript segments from raw
// diarization intervals.
package diarize

import "dubber/internal/segment"

// DefaultSpeaker is the reserved identity used when no diarization evidence
// covers a segment, or when diarization fails entirely.
const DefaultSpeaker = "SPEAKER_00"

// Interval is one who-spoke-when span produced by the diarization engine.
// Intervals are not guaranteed non-overlapping or contiguous, and the set may
// be empty.
type Interval struct {
	Start   float64
	End     float64
	Speaker string
}

// Resolve returns the speaker label whose intervals accumulate the greatest
// overlap with [start, end). Ties break to the label encountered first in
// interval order, so the result is deterministic for any input ordering.
// With no overlapping interval the default identity is returned.
func Resolve(start, end float64, intervals []Interval) string {
	totals := make(map[string]float64)
	var order []string

	for _, iv := range intervals {
		overlap := overlapSeconds(start, end, iv.Start, iv.End)
		if overlap <= 0 {
			continue
		}
		if _, seen := totals[iv.Speaker]; !seen {
			order = append(order, iv.Speaker)
		}
		totals[iv.Speaker] += overlap
	}

	if len(order) == 0 {
		return DefaultSpeaker
	}

	winner := order[0]
	for _, label := range order[1:] {
		if totals[label] > totals[winner] {
			winner = label
		}
	}
	return winner
}

// AssignSpeakers resolves every segment in place. When intervals is empty all
// segments receive the default identity, keeping the run single-voiced rather
// than failing.
func AssignSpeakers(segments []segment.Segment, intervals []Interval) {
	for i := range segments {
		segments[i].SpeakerID = Resolve(segments[i].Start, segments[i].End, intervals)
	}
}

// AssignDefault marks every segment with the default identity. Used when the
// diarization engine itself fails; diarization failure is non-fatal.
func AssignDefault(segments []segment.Segment) {
	for i := range segments {
		segments[i].SpeakerID = DefaultSpeaker
	}
}

func overlapSeconds(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
