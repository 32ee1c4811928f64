package diarize

import (
	"testing"

	"dubber/internal/segment"
)

func TestResolveDominantSpeakerWins(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 2, Speaker: "A"},
		{Start: 1, End: 3, Speaker: "B"},
	}
	// overlap(A)=2.0, overlap(B)=1.0
	if got := Resolve(0, 2, intervals); got != "A" {
		t.Fatalf("expected A, got %q", got)
	}
}

func TestResolveAccumulatesAcrossIntervals(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 1, Speaker: "B"},
		{Start: 1, End: 2.5, Speaker: "A"},
		{Start: 2.5, End: 4, Speaker: "B"},
	}
	// B accumulates 1.0 + 1.5 = 2.5, A gets 1.5.
	if got := Resolve(0, 4, intervals); got != "B" {
		t.Fatalf("expected B, got %q", got)
	}
}

func TestResolveTieBreaksToFirstEncountered(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 1, Speaker: "B"},
		{Start: 1, End: 2, Speaker: "A"},
	}
	if got := Resolve(0, 2, intervals); got != "B" {
		t.Fatalf("expected first-encountered B on exact tie, got %q", got)
	}
}

func TestResolveNoIntervals(t *testing.T) {
	if got := Resolve(0, 2, nil); got != DefaultSpeaker {
		t.Fatalf("expected default speaker, got %q", got)
	}
}

func TestResolveNoOverlap(t *testing.T) {
	intervals := []Interval{{Start: 10, End: 12, Speaker: "A"}}
	if got := Resolve(0, 2, intervals); got != DefaultSpeaker {
		t.Fatalf("expected default speaker, got %q", got)
	}
}

func TestResolveTouchingIntervalDoesNotCount(t *testing.T) {
	// An interval ending exactly at segment start has zero overlap.
	intervals := []Interval{{Start: 0, End: 1, Speaker: "A"}}
	if got := Resolve(1, 2, intervals); got != DefaultSpeaker {
		t.Fatalf("expected default speaker for zero overlap, got %q", got)
	}
}

func TestAssignSpeakersMutatesInPlace(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 0, End: 2},
		{ID: 1, Start: 5, End: 6},
	}
	intervals := []Interval{
		{Start: 0, End: 2, Speaker: "A"},
	}
	AssignSpeakers(segments, intervals)
	if segments[0].SpeakerID != "A" {
		t.Fatalf("expected A, got %q", segments[0].SpeakerID)
	}
	if segments[1].SpeakerID != DefaultSpeaker {
		t.Fatalf("expected default for uncovered segment, got %q", segments[1].SpeakerID)
	}
}

func TestAssignDefault(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 0, End: 1, SpeakerID: "A"},
		{ID: 1, Start: 1, End: 2},
	}
	AssignDefault(segments)
	for _, seg := range segments {
		if seg.SpeakerID != DefaultSpeaker {
			t.Fatalf("expected default speaker everywhere, got %+v", segments)
		}
	}
}
