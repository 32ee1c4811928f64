package timeline

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/logging"
	"dubber/internal/segment"
	"dubber/internal/services/ffmpeg"
)

func TestPlanLeadingSpeechAndTrailingSilence(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 0, End: 1, AudioPath: "seg0.wav"},
	}
	entries := Plan(segments, 3.0)
	if len(entries) != 2 {
		t.Fatalf("expected [speech, silence], got %+v", entries)
	}
	if entries[0].Kind != EntrySpeech || entries[0].Duration != 1 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Kind != EntrySilence || entries[1].Duration != 2 {
		t.Fatalf("unexpected trailing entry %+v", entries[1])
	}
	if got := PlannedDuration(entries); math.Abs(got-3.0) > GapTolerance {
		t.Fatalf("expected total 3.0, got %v", got)
	}
}

func TestPlanInsertsGapsBetweenSegments(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 0.5, End: 1.5, AudioPath: "a.wav"},
		{ID: 1, Start: 3.0, End: 4.0, AudioPath: "b.wav"},
	}
	entries := Plan(segments, 5.0)
	// silence(0.5) speech silence(1.5) speech silence(1.0)
	kinds := make([]EntryKind, len(entries))
	for i, e := range entries {
		kinds[i] = e.Kind
	}
	want := []EntryKind{EntrySilence, EntrySpeech, EntrySilence, EntrySpeech, EntrySilence}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), entries)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("entry %d: expected kind %v, got %+v", i, want[i], entries[i])
		}
	}
	if got := PlannedDuration(entries); math.Abs(got-5.0) > GapTolerance {
		t.Fatalf("expected total 5.0, got %v", got)
	}
}

func TestPlanSkipsSegmentsWithoutAudio(t *testing.T) {
	withFailure := []segment.Segment{
		{ID: 0, Start: 0, End: 1, AudioPath: "a.wav"},
		{ID: 1, Start: 1, End: 2}, // synthesis failed
		{ID: 2, Start: 2, End: 3, AudioPath: "c.wav"},
	}
	entries := Plan(withFailure, 3.0)
	// speech(a) silence(1.0 gap over the failed segment) speech(c)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", entries)
	}
	if entries[1].Kind != EntrySilence || math.Abs(entries[1].Duration-1.0) > 1e-9 {
		t.Fatalf("expected 1s silence where synthesis failed, got %+v", entries[1])
	}
	// The surviving segments keep their exact placement.
	if entries[0].Path != "a.wav" || entries[2].Path != "c.wav" {
		t.Fatalf("unexpected paths %+v", entries)
	}
}

func TestPlanIgnoresSubToleranceGaps(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 0.005, End: 1.0, AudioPath: "a.wav"},
	}
	entries := Plan(segments, 1.005)
	if len(entries) != 1 || entries[0].Kind != EntrySpeech {
		t.Fatalf("expected single speech entry, got %+v", entries)
	}
}

func TestPlanEmptySegmentsIsAllSilence(t *testing.T) {
	entries := Plan(nil, 4.0)
	if len(entries) != 1 || entries[0].Kind != EntrySilence || entries[0].Duration != 4.0 {
		t.Fatalf("expected one 4s silence, got %+v", entries)
	}
}

func newTestAssembler(t *testing.T, calls *[][]string) *Assembler {
	t.Helper()
	engine := ffmpeg.NewService("ffmpeg").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		return nil, nil
	})
	return NewAssembler(engine, logging.NewNop())
}

func TestAssembleGeneratesSilenceOncePerDuration(t *testing.T) {
	var calls [][]string
	assembler := newTestAssembler(t, &calls)
	workDir := t.TempDir()

	segments := []segment.Segment{
		{ID: 0, Start: 1, End: 2, AudioPath: "a.wav"},
		{ID: 1, Start: 3, End: 4, AudioPath: "b.wav"},
		{ID: 2, Start: 5, End: 6, AudioPath: "c.wav"},
	}
	// Gaps: 1s lead, 1s, 1s. One silence file should serve all three.
	dest := filepath.Join(workDir, "speech_track.wav")
	if err := assembler.Assemble(context.Background(), segments, 6.0, workDir, dest); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	silenceRuns := 0
	for _, args := range calls {
		if strings.Contains(strings.Join(args, " "), "anullsrc") {
			silenceRuns++
		}
	}
	if silenceRuns != 1 {
		t.Fatalf("expected exactly one silence generation, got %d", silenceRuns)
	}
}

func TestAssembleSortsByStart(t *testing.T) {
	var calls [][]string
	assembler := newTestAssembler(t, &calls)

	segments := []segment.Segment{
		{ID: 1, Start: 2, End: 3, AudioPath: "late.wav"},
		{ID: 0, Start: 0, End: 1, AudioPath: "early.wav"},
	}
	workDir := t.TempDir()
	if err := assembler.Assemble(context.Background(), segments, 3.0, workDir, filepath.Join(workDir, "out.wav")); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	// The input slice must not be reordered for the caller.
	if segments[0].ID != 1 {
		t.Fatal("assemble must not mutate caller's segment order")
	}
}

func TestAssembleFallsBackToLastSegmentEnd(t *testing.T) {
	var calls [][]string
	assembler := newTestAssembler(t, &calls)

	segments := []segment.Segment{
		{ID: 0, Start: 0, End: 2.5, AudioPath: "a.wav"},
	}
	workDir := t.TempDir()
	dest := filepath.Join(workDir, "out.wav")
	if err := assembler.Assemble(context.Background(), segments, 0, workDir, dest); err != nil {
		t.Fatalf("assemble with probe failure fallback: %v", err)
	}
	if len(calls) == 0 {
		t.Fatal("expected the engine to be invoked")
	}
}

func TestAssembleEmptyPlanFails(t *testing.T) {
	var calls [][]string
	assembler := newTestAssembler(t, &calls)
	workDir := t.TempDir()
	if err := assembler.Assemble(context.Background(), nil, 0, workDir, filepath.Join(workDir, "out.wav")); err == nil {
		t.Fatal("expected error for empty plan")
	}
}
